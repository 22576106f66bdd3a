package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"

	"immoscan/config"
	"immoscan/internal/models"
)

// ErrNoRawData is returned when no raw DVF file exists for a requested
// year. Callers surface it as a "run download first" condition.
var ErrNoRawData = errors.New("no raw DVF data found")

// Columns the cleaner cannot work without. A file missing any of them is
// an input-contract violation and rejected as a whole.
var requiredDVFColumns = []string{
	"date_mutation",
	"nature_mutation",
	"valeur_fonciere",
	"code_commune",
	"nom_commune",
	"type_local",
	"surface_reelle_bati",
	"nombre_pieces_principales",
}

// LoadRawTransactions reads every cached department CSV for a year, tags
// each row with its department code and concatenates the results. Missing
// department files are skipped with a warning; when none exist at all the
// error wraps ErrNoRawData.
func LoadRawTransactions(cfg *config.Config, logger *logrus.Logger, year int) ([]models.RawTransaction, error) {
	var all []models.RawTransaction
	loaded := 0

	for _, dept := range config.IDFDepartments {
		path := filepath.Join(cfg.RawDataDir(), fmt.Sprintf("dvf_%d_%s.csv", year, dept.Code))
		if _, err := os.Stat(path); err != nil {
			logger.Warnf("File not found: %s", path)
			continue
		}

		rows, err := readTransactionCSV(path, dept.Code)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		logger.Infof("Loaded %d rows for department %s", len(rows), dept.Code)
		all = append(all, rows...)
		loaded++
	}

	if loaded == 0 {
		return nil, fmt.Errorf("year %d: %w", year, ErrNoRawData)
	}

	logger.Infof("Total: %d transactions loaded", len(all))
	return all, nil
}

func readTransactionCSV(path, deptCode string) ([]models.RawTransaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range requiredDVFColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("required column %q missing", name)
		}
	}

	get := func(record []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	var rows []models.RawTransaction
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed individual rows are skipped, not fatal.
			continue
		}

		rows = append(rows, models.RawTransaction{
			MutationDate:   get(record, "date_mutation"),
			MutationType:   get(record, "nature_mutation"),
			Value:          parseFloat(get(record, "valeur_fonciere")),
			CommuneCode:    get(record, "code_commune"),
			CommuneName:    get(record, "nom_commune"),
			DepartmentCode: deptCode,
			PropertyType:   get(record, "type_local"),
			Surface:        parseFloat(get(record, "surface_reelle_bati")),
			RoomCount:      parseInt(get(record, "nombre_pieces_principales")),
		})
	}
	return rows, nil
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt(s string) *int {
	if s == "" {
		return nil
	}
	// Room counts arrive as "3" or "3.0" depending on the vintage.
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	n := int(v)
	return &n
}
