package database

import (
	"database/sql"
	"fmt"
)

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			mutation_date TEXT,
			mutation_type TEXT NOT NULL,
			value REAL NOT NULL,
			commune_code TEXT,
			commune_name TEXT NOT NULL,
			department_code TEXT NOT NULL,
			property_type TEXT,
			surface REAL NOT NULL,
			room_count INTEGER,
			price_m2 REAL NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create transactions table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_transactions_commune
		ON transactions(commune_name);
	`)
	if err != nil {
		return fmt.Errorf("failed to create commune index: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_transactions_department
		ON transactions(department_code);
	`)
	if err != nil {
		return fmt.Errorf("failed to create department index: %w", err)
	}
	return nil
}
