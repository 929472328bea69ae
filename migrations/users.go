package migrations

import (
	"database/sql"
	"fmt"
	"time"
)

type User struct {
	ID                 int        `json:"id"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	Email              string     `json:"email"`
	Password           string     `json:"-"`
	Phone              string     `json:"phone"`
	State              string     `json:"state"`
	City               string     `json:"city"`
	Area               string     `json:"area"`
	PlanName           string     `json:"plan_name"`
	Role               string     `json:"role"`
	IsApproved         bool       `json:"is_approved"`
	IsActive           bool       `json:"is_active"`
	SubscriptionStatus *string    `json:"subscription_status,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

const userColumns = `id, first_name, last_name, email, password, phone, state, city, area, plan_name, role, is_approved, is_active, subscription_status, created_at, updated_at`

func scanUser(row *sql.Row) *User {
	var u User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Password, &u.Phone, &u.State, &u.City, &u.Area,
		&u.PlanName, &u.Role, &u.IsApproved, &u.IsActive, &u.SubscriptionStatus, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil
	}
	return &u
}

// GetUserByEmail returns the user or nil when not found
func GetUserByEmail(email string) *User {
	if db == nil {
		return nil
	}
	row := db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1", email)
	return scanUser(row)
}

// GetUserByID returns the user or nil when not found
func GetUserByID(id int) *User {
	if db == nil {
		return nil
	}
	row := db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id)
	return scanUser(row)
}

// EmailExists checks if a user with the given email exists
func EmailExists(email string) (bool, error) {
	if db == nil {
		return false, fmt.Errorf("db is not initialized")
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(1) FROM users WHERE email = ?", email).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateUser inserts a new member record and returns its id
func CreateUser(firstName, lastName, email, hashedPassword, phone, state, city, area string) (int, error) {
	if db == nil {
		return 0, fmt.Errorf("db is not initialized")
	}
	res, err := db.Exec(
		"INSERT INTO users (first_name, last_name, email, password, phone, state, city, area, role) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'member')",
		firstName, lastName, email, hashedPassword, phone, state, city, area,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

// SetUserApproved flips is_approved on. Idempotent: approving an already
// approved user is a no-op, it never flips back.
func SetUserApproved(id int) error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	_, err := db.Exec("UPDATE users SET is_approved = 1, updated_at = NOW() WHERE id = ?", id)
	return err
}

// UpdateUserPlanName denormalizes the current tier label onto the user
func UpdateUserPlanName(id int, planName string) error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	_, err := db.Exec("UPDATE users SET plan_name = ?, updated_at = NOW() WHERE id = ?", planName, id)
	return err
}

// UpdateUserPassword replaces the stored bcrypt hash
func UpdateUserPassword(id int, hashedPassword string) error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	_, err := db.Exec("UPDATE users SET password = ?, updated_at = NOW() WHERE id = ?", hashedPassword, id)
	return err
}

// UpdateUserSubscriptionStatus mirrors the billing provider state onto the user
func UpdateUserSubscriptionStatus(id int, status string) error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	_, err := db.Exec("UPDATE users SET subscription_status = ?, updated_at = NOW() WHERE id = ?", status, id)
	return err
}
