package applications

import (
	"database/sql"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const applicationColumns = `a.id, a.user_id, a.plan_id, p.name, a.status, a.payment_status, a.experience_years, a.is_student,
	a.admin_notes, a.reviewed_by, a.reviewed_at, a.stripe_customer_id, a.stripe_subscription_id, a.created_at, a.updated_at`

func scanApplication(scanner interface{ Scan(...any) error }) (*Application, error) {
	var a Application
	err := scanner.Scan(&a.ID, &a.UserID, &a.PlanID, &a.PlanName, &a.Status, &a.PaymentStatus, &a.ExperienceYears, &a.IsStudent,
		&a.AdminNotes, &a.ReviewedBy, &a.ReviewedAt, &a.StripeCustomerID, &a.StripeSubscriptionID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) Create(a *Application) error {
	res, err := r.db.Exec(`INSERT INTO applications (user_id, plan_id, status, payment_status, experience_years, is_student)
		VALUES (?,?,?,?,?,?)`,
		a.UserID, a.PlanID, a.Status, a.PaymentStatus, a.ExperienceYears, a.IsStudent)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = int(id)
	return nil
}

// GetByID returns an application or nil when not found
func (r *Repository) GetByID(id int) (*Application, error) {
	row := r.db.QueryRow(`SELECT `+applicationColumns+` FROM applications a JOIN membership_plans p ON a.plan_id = p.id WHERE a.id = ? LIMIT 1`, id)
	a, err := scanApplication(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByUser lists a user's applications, newest first (re-applications exist).
func (r *Repository) GetByUser(userID int) ([]Application, error) {
	rows, err := r.db.Query(`SELECT `+applicationColumns+` FROM applications a JOIN membership_plans p ON a.plan_id = p.id
		WHERE a.user_id = ? ORDER BY a.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	apps := []Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

// HasOpenApplication tells whether the user already has an application under
// review, used to block duplicate registrations. Drafts don't count: an
// abandoned draft is superseded by the next registration, not a blocker.
func (r *Repository) HasOpenApplication(userID int) (bool, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(1) FROM applications WHERE user_id = ? AND status IN ('pending','documents_requested')`, userID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteDraft removes a never-submitted application. The status guard keeps a
// concurrent submit from losing a row already in the queue; attached documents
// go with it through the FK cascade.
func (r *Repository) DeleteDraft(id int) error {
	_, err := r.db.Exec(`DELETE FROM applications WHERE id = ? AND status = 'draft'`, id)
	return err
}

// ListByStatus feeds the admin queue. Drafts never show up there.
func (r *Repository) ListByStatus(status string) ([]Application, error) {
	rows, err := r.db.Query(`SELECT `+applicationColumns+` FROM applications a JOIN membership_plans p ON a.plan_id = p.id
		WHERE a.status = ? AND a.status <> 'draft' ORDER BY a.created_at ASC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	apps := []Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

// SetStatus performs a bare status move (draft→pending, resubmissions,
// appeal re-queue). Review metadata stays untouched.
func (r *Repository) SetStatus(id int, status string) error {
	_, err := r.db.Exec(`UPDATE applications SET status = ?, updated_at = NOW() WHERE id = ?`, status, id)
	return err
}

// Decide records an admin decision: status, reviewer and review time, and the
// note (rejection reason or document request). Last write wins by design.
func (r *Repository) Decide(id int, status string, adminID int, note string) error {
	if note == "" {
		_, err := r.db.Exec(`UPDATE applications SET status = ?, reviewed_by = ?, reviewed_at = NOW(), updated_at = NOW() WHERE id = ?`,
			status, adminID, id)
		return err
	}
	// admin_notes is append-only in practice
	_, err := r.db.Exec(`UPDATE applications SET status = ?, reviewed_by = ?, reviewed_at = NOW(),
		admin_notes = CONCAT(IFNULL(CONCAT(admin_notes, '\n'), ''), ?), updated_at = NOW() WHERE id = ?`,
		status, adminID, note, id)
	return err
}

// AppendNote adds to admin_notes without touching status (appeal trail).
func (r *Repository) AppendNote(id int, note string) error {
	_, err := r.db.Exec(`UPDATE applications SET admin_notes = CONCAT(IFNULL(CONCAT(admin_notes, '\n'), ''), ?), updated_at = NOW() WHERE id = ?`,
		note, id)
	return err
}

// SetStripeRefs stores the billing identifiers created for this registration.
func (r *Repository) SetStripeRefs(id int, customerID, subscriptionID string) error {
	_, err := r.db.Exec(`UPDATE applications SET stripe_customer_id = ?, stripe_subscription_id = ?, updated_at = NOW() WHERE id = ?`,
		customerID, subscriptionID, id)
	return err
}

// SetPaymentStatusBySubscription matches a webhook event to its application.
// Returns the matched application id, or 0 when no row carries that
// subscription (caller logs and drops the event).
func (r *Repository) SetPaymentStatusBySubscription(subscriptionID, paymentStatus string) (int, error) {
	var id int
	err := r.db.QueryRow(`SELECT id FROM applications WHERE stripe_subscription_id = ? LIMIT 1`, subscriptionID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	_, err = r.db.Exec(`UPDATE applications SET payment_status = ?, updated_at = NOW() WHERE id = ?`, paymentStatus, id)
	return id, err
}

// LatestOpenDraft returns the caller's current draft, if any, so the
// subscription bootstrap can record ids on it.
func (r *Repository) LatestOpenDraft(userID int) (*Application, error) {
	row := r.db.QueryRow(`SELECT `+applicationColumns+` FROM applications a JOIN membership_plans p ON a.plan_id = p.id
		WHERE a.user_id = ? AND a.status = 'draft' ORDER BY a.id DESC LIMIT 1`, userID)
	a, err := scanApplication(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// --- appeals ---

func (r *Repository) CreateAppeal(a *Appeal) error {
	res, err := r.db.Exec(`INSERT INTO application_appeals (application_id, user_id, type, status, message) VALUES (?,?,?,?,?)`,
		a.ApplicationID, a.UserID, a.Type, a.Status, a.Message)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = int(id)
	return nil
}

func (r *Repository) GetAppealByID(id int) (*Appeal, error) {
	row := r.db.QueryRow(`SELECT id, application_id, user_id, type, status, message, created_at FROM application_appeals WHERE id = ? LIMIT 1`, id)
	var a Appeal
	err := row.Scan(&a.ID, &a.ApplicationID, &a.UserID, &a.Type, &a.Status, &a.Message, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) ListAppeals(status string) ([]Appeal, error) {
	rows, err := r.db.Query(`SELECT id, application_id, user_id, type, status, message, created_at FROM application_appeals
		WHERE (? = '' OR status = ?) ORDER BY created_at ASC`, status, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	appeals := []Appeal{}
	for rows.Next() {
		var a Appeal
		if err := rows.Scan(&a.ID, &a.ApplicationID, &a.UserID, &a.Type, &a.Status, &a.Message, &a.CreatedAt); err != nil {
			return nil, err
		}
		appeals = append(appeals, a)
	}
	return appeals, rows.Err()
}

func (r *Repository) SetAppealStatus(id int, status string) error {
	_, err := r.db.Exec(`UPDATE application_appeals SET status = ? WHERE id = ?`, status, id)
	return err
}
