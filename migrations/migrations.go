package migrations

import (
	"database/sql"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

var db *sql.DB

// Init sets the DB connection for migrations and queries
func Init(database *sql.DB) {
	db = database
}

// Migrate creates required tables if they do not exist
func Migrate() error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}

	createUsers := `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		email VARCHAR(191) NOT NULL UNIQUE,
		password VARCHAR(191) NOT NULL,
		phone VARCHAR(30) NOT NULL DEFAULT '',
		state VARCHAR(2) NOT NULL DEFAULT '',
		city VARCHAR(100) NOT NULL DEFAULT '',
		area VARCHAR(100) NOT NULL DEFAULT '',
		plan_name VARCHAR(50) NOT NULL DEFAULT '',
		role VARCHAR(20) NOT NULL DEFAULT 'member',
		is_approved TINYINT(1) NOT NULL DEFAULT 0,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		subscription_status VARCHAR(50) NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createUsers); err != nil {
		return err
	}

	createPlans := `
	CREATE TABLE IF NOT EXISTS membership_plans (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(50) NOT NULL UNIQUE,
		price INT NOT NULL DEFAULT 0,
		min_experience_years INT NOT NULL DEFAULT 0,
		max_experience_years INT NULL,
		requires_payment TINYINT(1) NOT NULL DEFAULT 0,
		is_recurring TINYINT(1) NOT NULL DEFAULT 0,
		billing_period VARCHAR(20) NOT NULL DEFAULT 'yearly',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		is_available_for_registration TINYINT(1) NOT NULL DEFAULT 1,
		priority INT NOT NULL DEFAULT 0,
		stripe_product_id VARCHAR(100) NULL,
		stripe_price_id VARCHAR(100) NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createPlans); err != nil {
		return err
	}

	createApplications := `
	CREATE TABLE IF NOT EXISTS applications (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		plan_id INT NOT NULL,
		status VARCHAR(30) NOT NULL DEFAULT 'draft',
		payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
		experience_years INT NOT NULL DEFAULT 0,
		is_student TINYINT(1) NOT NULL DEFAULT 0,
		admin_notes TEXT NULL,
		reviewed_by INT NULL,
		reviewed_at DATETIME NULL,
		stripe_customer_id VARCHAR(100) NULL,
		stripe_subscription_id VARCHAR(100) NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (plan_id) REFERENCES membership_plans(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createApplications); err != nil {
		return err
	}

	createDocuments := `
	CREATE TABLE IF NOT EXISTS application_documents (
		id INT AUTO_INCREMENT PRIMARY KEY,
		application_id INT NOT NULL,
		name VARCHAR(191) NOT NULL,
		type VARCHAR(20) NOT NULL,
		file_url VARCHAR(255) NOT NULL,
		size BIGINT NOT NULL DEFAULT 0,
		mime_type VARCHAR(100) NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (application_id) REFERENCES applications(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createDocuments); err != nil {
		return err
	}

	createAppeals := `
	CREATE TABLE IF NOT EXISTS application_appeals (
		id INT AUTO_INCREMENT PRIMARY KEY,
		application_id INT NOT NULL,
		user_id INT NOT NULL,
		type VARCHAR(20) NOT NULL DEFAULT 'appeal',
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		message TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (application_id) REFERENCES applications(id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createAppeals); err != nil {
		return err
	}

	createNotifications := `
	CREATE TABLE IF NOT EXISTS notifications (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		title VARCHAR(191) NOT NULL,
		body TEXT NOT NULL,
		is_read TINYINT(1) NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createNotifications); err != nil {
		return err
	}
	return nil
}

// SeedAdminUser inserts the bootstrap admin if it doesn't exist.
// Credentials come from ADMIN_EMAIL / ADMIN_PASSWORD.
func SeedAdminUser() error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	email := os.Getenv("ADMIN_EMAIL")
	pass := os.Getenv("ADMIN_PASSWORD")
	if email == "" || pass == "" {
		return nil // no bootstrap admin configured
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(1) FROM users WHERE email = ?", email).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = db.Exec(
		"INSERT INTO users (first_name, last_name, email, password, role, is_approved) VALUES (?, ?, ?, ?, 'admin', 1)",
		"Admin", "ANETI", email, string(hashed),
	)
	return err
}

// SeedDefaultPlans inserts the six ANETI tiers if the table is empty.
// Prices are in centavos; experience bounds are inclusive.
func SeedDefaultPlans() error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(1) FROM membership_plans").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	type seed struct {
		name      string
		price     int
		minYears  int
		maxYears  *int
		paid      bool
		available bool
		priority  int
	}
	three, seven := 3, 7
	plans := []seed{
		{name: "Público", price: 0, minYears: 0, maxYears: nil, paid: false, available: true, priority: 1},
		{name: "Júnior", price: 9900, minYears: 0, maxYears: &three, paid: true, available: true, priority: 2},
		{name: "Pleno", price: 14900, minYears: 4, maxYears: &seven, paid: true, available: true, priority: 3},
		{name: "Sênior", price: 19900, minYears: 8, maxYears: nil, paid: true, available: true, priority: 4},
		{name: "Honra", price: 0, minYears: 0, maxYears: nil, paid: false, available: false, priority: 5},
		{name: "Diretivo", price: 0, minYears: 0, maxYears: nil, paid: false, available: false, priority: 6},
	}
	for _, p := range plans {
		_, err := db.Exec(`INSERT INTO membership_plans
			(name, price, min_experience_years, max_experience_years, requires_payment, is_recurring, billing_period, is_active, is_available_for_registration, priority)
			VALUES (?,?,?,?,?,?,?,1,?,?)`,
			p.name, p.price, p.minYears, p.maxYears, p.paid, p.paid, "yearly", p.available, p.priority)
		if err != nil {
			return err
		}
	}
	return nil
}
