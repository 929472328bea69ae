package plans

// Tier is the closed set of ANETI membership levels. Keeping it an enum (and
// not free strings) lets stats and documents index maps by tier safely.
type Tier int

const (
	TierUnknown Tier = iota
	TierPublico
	TierJunior
	TierPleno
	TierSenior
	TierHonra
	TierDiretivo
)

var tierNames = map[Tier]string{
	TierPublico:  "Público",
	TierJunior:   "Júnior",
	TierPleno:    "Pleno",
	TierSenior:   "Sênior",
	TierHonra:    "Honra",
	TierDiretivo: "Diretivo",
}

func (t Tier) String() string {
	if n, ok := tierNames[t]; ok {
		return n
	}
	return "desconhecido"
}

// TierFromName maps a stored plan name to its tier. Unknown names map to
// TierUnknown rather than erroring so admin-created extra plans still work.
func TierFromName(name string) Tier {
	for t, n := range tierNames {
		if n == name {
			return t
		}
	}
	return TierUnknown
}

// AllTiers in display order.
func AllTiers() []Tier {
	return []Tier{TierPublico, TierJunior, TierPleno, TierSenior, TierHonra, TierDiretivo}
}

// Plan is a membership tier as stored in membership_plans. Price is in
// centavos. MaxExperienceYears nil means unbounded; the Stripe ids stay nil
// until the first paid registration bootstraps them.
type Plan struct {
	ID                         int     `json:"id"`
	Name                       string  `json:"name"`
	Price                      int     `json:"price"`
	MinExperienceYears         int     `json:"min_experience_years"`
	MaxExperienceYears         *int    `json:"max_experience_years"`
	RequiresPayment            bool    `json:"requires_payment"`
	IsRecurring                bool    `json:"is_recurring"`
	BillingPeriod              string  `json:"billing_period"`
	IsActive                   bool    `json:"is_active"`
	IsAvailableForRegistration bool    `json:"is_available_for_registration"`
	Priority                   int     `json:"priority"`
	StripeProductID            *string `json:"stripe_product_id,omitempty"`
	StripePriceID              *string `json:"stripe_price_id,omitempty"`
}

// Tier derives the enum from the stored name.
func (p *Plan) Tier() Tier {
	return TierFromName(p.Name)
}
