package documents

import (
	"database/sql"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(d *Document) error {
	res, err := r.db.Exec(`INSERT INTO application_documents (application_id, name, type, file_url, size, mime_type) VALUES (?,?,?,?,?,?)`,
		d.ApplicationID, d.Name, d.Type, d.FileURL, d.Size, d.MimeType)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = int(id)
	return nil
}

// GetByApplication returns the documents attached to an application.
func (r *Repository) GetByApplication(applicationID int) ([]Document, error) {
	rows, err := r.db.Query(`SELECT id, application_id, name, type, file_url, size, mime_type, created_at
		FROM application_documents WHERE application_id = ? ORDER BY id ASC`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	docs := []Document{}
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.ApplicationID, &d.Name, &d.Type, &d.FileURL, &d.Size, &d.MimeType, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// GetByID returns a document or nil when not found
func (r *Repository) GetByID(id int) (*Document, error) {
	row := r.db.QueryRow(`SELECT id, application_id, name, type, file_url, size, mime_type, created_at
		FROM application_documents WHERE id = ? LIMIT 1`, id)
	var d Document
	err := row.Scan(&d.ID, &d.ApplicationID, &d.Name, &d.Type, &d.FileURL, &d.Size, &d.MimeType, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Repository) Delete(id int) error {
	_, err := r.db.Exec(`DELETE FROM application_documents WHERE id = ?`, id)
	return err
}

// CountsByType groups the attached documents for the required-set check.
func (r *Repository) CountsByType(applicationID int) (map[string]int, error) {
	rows, err := r.db.Query(`SELECT type, COUNT(*) FROM application_documents WHERE application_id = ? GROUP BY type`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[string]int{}
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, rows.Err()
}

// applicationOwnership answers who owns an application and its status without
// importing the applications package.
func (r *Repository) applicationOwnership(applicationID int) (userID int, status string, err error) {
	row := r.db.QueryRow(`SELECT user_id, status FROM applications WHERE id = ? LIMIT 1`, applicationID)
	if err := row.Scan(&userID, &status); err != nil {
		if err == sql.ErrNoRows {
			return 0, "", nil
		}
		return 0, "", err
	}
	return userID, status, nil
}
