package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"immoscan/config"
	"immoscan/internal/models"
)

// ErrMissingData marks a request for a cleaned snapshot that was never
// produced. Callers check it with errors.Is and tell the operator which
// step to run first.
var ErrMissingData = errors.New("cleaned data not found")

const dateLayout = "2006-01-02"

// Store manages the cleaned transaction snapshots, one SQLite file per
// year under the processed data directory. Snapshots are re-derivable
// from the raw data at any time and never hand-edited.
type Store struct {
	dir    string
	logger *logrus.Logger
}

func NewStore(cfg *config.Config, logger *logrus.Logger) *Store {
	return &Store{dir: cfg.ProcessedDataDir(), logger: logger}
}

// SnapshotPath returns the snapshot file path for a year.
func (s *Store) SnapshotPath(year int) string {
	return filepath.Join(s.dir, fmt.Sprintf("dvf_%d_idf_clean.db", year))
}

// SaveCleaned replaces the snapshot for a year with the given rows.
func (s *Store) SaveCleaned(year int, rows []models.Transaction) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create processed data directory: %w", err)
	}

	path := s.SnapshotPath(year)
	os.Remove(path)

	db, err := openDatabase(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := createSchema(db); err != nil {
		return err
	}
	if err := insertTransactions(db, rows); err != nil {
		return err
	}

	s.logger.Infof("Saved cleaned snapshot: %s (%d rows)", path, len(rows))
	return nil
}

// LoadCleaned reads the snapshot for a year. When the snapshot does not
// exist the returned error wraps ErrMissingData.
func (s *Store) LoadCleaned(year int) ([]models.Transaction, error) {
	path := s.SnapshotPath(year)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("year %d: %w", year, ErrMissingData)
	}

	db, err := openDatabase(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT mutation_date, mutation_type, value, commune_code, commune_name,
		       department_code, property_type, surface, room_count, price_m2
		FROM transactions
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer rows.Close()

	var result []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		var date sql.NullString
		err := rows.Scan(
			&date,
			&tx.MutationType,
			&tx.Value,
			&tx.CommuneCode,
			&tx.CommuneName,
			&tx.DepartmentCode,
			&tx.PropertyType,
			&tx.Surface,
			&tx.RoomCount,
			&tx.PriceM2,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}

		if date.Valid && date.String != "" {
			if t, err := time.Parse(dateLayout, date.String); err == nil {
				tx.Date = t
			}
		}
		result = append(result, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot: %w", err)
	}

	s.logger.Infof("Loaded cleaned snapshot: %d rows", len(result))
	return result, nil
}

func openDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	return db, nil
}

func insertTransactions(db *sql.DB, transactions []models.Transaction) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO transactions
		(mutation_date, mutation_type, value, commune_code, commune_name,
		 department_code, property_type, surface, room_count, price_m2)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, t := range transactions {
		date := ""
		if !t.Date.IsZero() {
			date = t.Date.Format(dateLayout)
		}
		_, err = stmt.Exec(
			date,
			t.MutationType,
			t.Value,
			t.CommuneCode,
			t.CommuneName,
			t.DepartmentCode,
			t.PropertyType,
			t.Surface,
			t.RoomCount,
			t.PriceM2,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
