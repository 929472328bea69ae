package applications

import "time"

// Application statuses. draft is the pre-submission sub-state: the wizard
// creates the row, attaches documents to it and only then submits, so an
// interrupted registration never reaches the admin queue half-built.
const (
	StatusDraft              = "draft"
	StatusPending            = "pending"
	StatusDocumentsRequested = "documents_requested"
	StatusApproved           = "approved"
	StatusRejected           = "rejected"
)

// Payment statuses. Independent axis from status: an approved application on
// a paid plan can still be awaiting its first charge.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
	PaymentFree    = "free"
)

type Application struct {
	ID                   int        `json:"id"`
	UserID               int        `json:"user_id"`
	PlanID               int        `json:"plan_id"`
	PlanName             string     `json:"plan_name,omitempty"`
	Status               string     `json:"status"`
	PaymentStatus        string     `json:"payment_status"`
	ExperienceYears      int        `json:"experience_years"`
	IsStudent            bool       `json:"is_student"`
	AdminNotes           *string    `json:"admin_notes,omitempty"`
	ReviewedBy           *int       `json:"reviewed_by,omitempty"`
	ReviewedAt           *time.Time `json:"reviewed_at,omitempty"`
	StripeCustomerID     *string    `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID *string    `json:"stripe_subscription_id,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Appeal is a member's follow-up against a negative decision.
const (
	AppealTypeAppeal   = "appeal"
	AppealTypeResponse = "response"

	AppealPending  = "pending"
	AppealReviewed = "reviewed"
	AppealAccepted = "accepted"
	AppealRejected = "rejected"
)

type Appeal struct {
	ID            int       `json:"id"`
	ApplicationID int       `json:"application_id"`
	UserID        int       `json:"user_id"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"created_at"`
}
