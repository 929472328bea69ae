package billing

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"

	"aneti-backend/applications"
	"aneti-backend/plans"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

// Service wraps the Stripe calls of the registration flow. If
// STRIPE_SECRET_KEY is not set the service is nil and the paid tiers cannot
// be registered for.
type Service struct {
	plans         *plans.Repository
	apps          *applications.Repository
	secretKey     string
	webhookSecret string
	currency      string
	sc            *client.API
	invalidKey    bool // once detected, short-circuit further remote calls
}

var (
	ErrStripeInvalidAPIKey = errors.New("stripe_invalid_api_key")
	ErrStripeNotConfigured = errors.New("stripe não configurado")
)

func maskKey(k string) string {
	if len(k) < 12 {
		return "****"
	}
	return k[:7] + "..." + k[len(k)-4:]
}

// NewFromEnv returns a configured service or nil when the key is missing.
func NewFromEnv(planRepo *plans.Repository, appRepo *applications.Repository) *Service {
	key := os.Getenv("STRIPE_SECRET_KEY")
	if key == "" {
		return nil
	}
	currency := os.Getenv("STRIPE_CURRENCY")
	if currency == "" {
		currency = "brl"
	}
	sc := &client.API{}
	sc.Init(key, nil)
	return &Service{
		plans:         planRepo,
		apps:          appRepo,
		secretKey:     key,
		webhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		currency:      currency,
		sc:            sc,
	}
}

// Bootstrap is what the wizard needs to run the payment UI and what gets
// persisted on the application.
type Bootstrap struct {
	CustomerID     string `json:"customer_id"`
	SubscriptionID string `json:"subscription_id"`
	ClientSecret   string `json:"client_secret"`
}

func (s *Service) isInvalidKey(err error) bool {
	var se *stripe.Error
	if errors.As(err, &se) && (se.HTTPStatusCode == 401 || strings.Contains(strings.ToLower(se.Msg), "invalid api key")) {
		log.Printf("[STRIPE] invalid api key (%s): %v", maskKey(s.secretKey), se)
		s.invalidKey = true
		return true
	}
	return false
}

// ensureProductAndPrice lazily creates the Stripe product and yearly price
// for a paid plan and persists the ids, so every later registration reuses
// the same price object.
func (s *Service) ensureProductAndPrice(ctx context.Context, p *plans.Plan) error {
	if !p.RequiresPayment || p.Price == 0 {
		return nil
	}
	if p.StripeProductID == nil {
		prod, err := s.sc.Products.New(&stripe.ProductParams{
			Name: stripe.String("ANETI - Plano " + p.Name),
		})
		if err != nil {
			return err
		}
		p.StripeProductID = &prod.ID
	}
	if p.StripePriceID == nil {
		price, err := s.sc.Prices.New(&stripe.PriceParams{
			Product:    stripe.String(*p.StripeProductID),
			Currency:   stripe.String(s.currency),
			UnitAmount: stripe.Int64(int64(p.Price)),
			Recurring:  &stripe.PriceRecurringParams{Interval: stripe.String("year")},
		})
		if err != nil {
			return err
		}
		p.StripePriceID = &price.ID
		if err := s.plans.SetStripeIDs(p.ID, *p.StripeProductID, *p.StripePriceID); err != nil {
			return err
		}
	}
	return nil
}

// EnsureSubscription creates a fresh customer plus an incomplete subscription
// against the plan's (memoized) price and returns the payment intent client
// secret. Each call creates a new customer+subscription on purpose: one
// customer per registration attempt, no dedup on candidate identity.
func (s *Service) EnsureSubscription(ctx context.Context, planID int, email, fullName string) (*Bootstrap, error) {
	if s == nil {
		return nil, ErrStripeNotConfigured
	}
	if s.invalidKey {
		return nil, ErrStripeInvalidAPIKey
	}
	plan, err := s.plans.GetByID(planID)
	if err != nil || plan == nil {
		return nil, errors.New("plano inválido")
	}
	if !plan.RequiresPayment {
		return nil, errors.New("plano não exige pagamento")
	}
	if err := s.ensureProductAndPrice(ctx, plan); err != nil {
		if s.isInvalidKey(err) {
			return nil, ErrStripeInvalidAPIKey
		}
		return nil, err
	}

	cust, err := s.sc.Customers.New(&stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(fullName),
	})
	if err != nil {
		if s.isInvalidKey(err) {
			return nil, ErrStripeInvalidAPIKey
		}
		return nil, err
	}

	subParams := &stripe.SubscriptionParams{
		Customer: stripe.String(cust.ID),
		Items: []*stripe.SubscriptionItemsParams{{
			Price: stripe.String(*plan.StripePriceID),
		}},
		PaymentBehavior: stripe.String("default_incomplete"),
		PaymentSettings: &stripe.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String("on_subscription"),
		},
	}
	subParams.AddExpand("latest_invoice.payment_intent")
	sub, err := s.sc.Subscriptions.New(subParams)
	if err != nil {
		if s.isInvalidKey(err) {
			return nil, ErrStripeInvalidAPIKey
		}
		log.Printf("[STRIPE] subscription create failed plan=%s: %v", plan.Name, err)
		return nil, err
	}

	clientSecret := ""
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		clientSecret = sub.LatestInvoice.PaymentIntent.ClientSecret
	}
	log.Printf("[STRIPE] subscription bootstrapped plan=%s customer=%s subscription=%s", plan.Name, cust.ID, sub.ID)
	return &Bootstrap{
		CustomerID:     cust.ID,
		SubscriptionID: sub.ID,
		ClientSecret:   clientSecret,
	}, nil
}
