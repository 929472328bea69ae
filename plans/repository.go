package plans

import (
	"database/sql"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const planColumns = `id, name, price, min_experience_years, max_experience_years, requires_payment, is_recurring, billing_period, is_active, is_available_for_registration, priority, stripe_product_id, stripe_price_id`

func scanPlan(scanner interface{ Scan(...any) error }) (*Plan, error) {
	var p Plan
	err := scanner.Scan(&p.ID, &p.Name, &p.Price, &p.MinExperienceYears, &p.MaxExperienceYears,
		&p.RequiresPayment, &p.IsRecurring, &p.BillingPeriod, &p.IsActive,
		&p.IsAvailableForRegistration, &p.Priority, &p.StripeProductID, &p.StripePriceID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetAvailable returns active plans open for registration, in priority order.
func (r *Repository) GetAvailable() ([]Plan, error) {
	rows, err := r.db.Query(`SELECT ` + planColumns + ` FROM membership_plans WHERE is_active = 1 AND is_available_for_registration = 1 ORDER BY priority ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	plans := []Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// GetAll returns every plan, including soft-disabled ones (admin view).
func (r *Repository) GetAll() ([]Plan, error) {
	rows, err := r.db.Query(`SELECT ` + planColumns + ` FROM membership_plans ORDER BY priority ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	plans := []Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// GetByID returns a plan or nil when not found
func (r *Repository) GetByID(id int) (*Plan, error) {
	row := r.db.QueryRow(`SELECT `+planColumns+` FROM membership_plans WHERE id = ? LIMIT 1`, id)
	p, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) Create(p *Plan) error {
	res, err := r.db.Exec(`INSERT INTO membership_plans
		(name, price, min_experience_years, max_experience_years, requires_payment, is_recurring, billing_period, is_active, is_available_for_registration, priority)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		p.Name, p.Price, p.MinExperienceYears, p.MaxExperienceYears, p.RequiresPayment, p.IsRecurring, p.BillingPeriod, p.IsActive, p.IsAvailableForRegistration, p.Priority)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = int(id)
	return nil
}

func (r *Repository) Update(id int, p *Plan) error {
	_, err := r.db.Exec(`UPDATE membership_plans SET name=?, price=?, min_experience_years=?, max_experience_years=?, requires_payment=?, is_recurring=?, billing_period=?, is_active=?, is_available_for_registration=?, priority=? WHERE id=?`,
		p.Name, p.Price, p.MinExperienceYears, p.MaxExperienceYears, p.RequiresPayment, p.IsRecurring, p.BillingPeriod, p.IsActive, p.IsAvailableForRegistration, p.Priority, id)
	return err
}

// Disable soft-disables a plan. Plans are never hard-deleted: applications
// keep referencing them.
func (r *Repository) Disable(id int) error {
	_, err := r.db.Exec(`UPDATE membership_plans SET is_active = 0, is_available_for_registration = 0 WHERE id = ?`, id)
	return err
}

// SetStripeIDs persists the lazily created billing references onto the plan.
func (r *Repository) SetStripeIDs(id int, productID, priceID string) error {
	_, err := r.db.Exec(`UPDATE membership_plans SET stripe_product_id = ?, stripe_price_id = ? WHERE id = ?`, productID, priceID, id)
	return err
}
