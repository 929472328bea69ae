package documents

import "time"

// Document types mirror the purposes the review flow cares about.
const (
	TypeIdentity   = "identity"
	TypeExperience = "experience"
	TypeStudent    = "student"
)

func ValidType(t string) bool {
	return t == TypeIdentity || t == TypeExperience || t == TypeStudent
}

// Document belongs to exactly one application. Rows are append-only once the
// application leaves draft; before that the owner may remove experience docs.
type Document struct {
	ID            int       `json:"id"`
	ApplicationID int       `json:"application_id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	FileURL       string    `json:"file_url"`
	Size          int64     `json:"size"`
	MimeType      string    `json:"mime_type"`
	CreatedAt     time.Time `json:"created_at"`
}
