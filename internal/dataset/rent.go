package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"immoscan/config"
	"immoscan/internal/models"
)

// Candidate encodings for rent files, tried in priority order. The dataset
// has shipped in different encodings across vintages.
var rentEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"utf-8", nil},
	{"latin-1", charmap.ISO8859_1},
	{"iso-8859-1", charmap.ISO8859_1},
	{"windows-1252", charmap.Windows1252},
}

// ErrNoRentData is returned when no rent indicator file exists for a
// requested year. Callers surface it as a "run rents first" condition.
var ErrNoRentData = errors.New("no rent data found")

// LoadRentTable loads the rent indicator rows for a year. Split vintages
// (one file per property type) are concatenated with a type tag; the
// single-file vintages get the "tous" tag. propertyType restricts loading
// to one file ("" loads everything available). When no file exists for
// the year the error wraps ErrNoRentData.
func LoadRentTable(cfg *config.Config, logger *logrus.Logger, year int, propertyType string) ([]models.RentIndicator, error) {
	dl := rentFilePaths(cfg, year)

	var rows []models.RentIndicator
	loaded := 0
	for _, rf := range dl {
		if propertyType != "" && rf.tag != propertyType {
			continue
		}
		if _, err := os.Stat(rf.path); err != nil {
			continue
		}

		fileRows, enc, err := readRentCSV(rf.path, rf.tag)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", rf.path, err)
		}
		logger.WithFields(logrus.Fields{
			"file":     rf.path,
			"rows":     len(fileRows),
			"encoding": enc,
		}).Info("Loaded rent indicator file")
		rows = append(rows, fileRows...)
		loaded++
	}

	if loaded == 0 {
		return nil, fmt.Errorf("year %d: %w", year, ErrNoRentData)
	}

	logger.Infof("Total: %d rent indicator rows", len(rows))
	return rows, nil
}

type rentFile struct {
	tag  string
	path string
}

func rentFilePaths(cfg *config.Config, year int) []rentFile {
	raw := cfg.RawDataDir()
	return []rentFile{
		{config.RentTypeApartments, fmt.Sprintf("%s/carte_loyers_%d_%s.csv", raw, year, config.RentTypeApartments)},
		{config.RentTypeHouses, fmt.Sprintf("%s/carte_loyers_%d_%s.csv", raw, year, config.RentTypeHouses)},
		{config.RentTypeAll, fmt.Sprintf("%s/carte_loyers_%d.csv", raw, year)},
	}
}

// FilterRegion keeps only rows whose department is in the Île-de-France
// allow-list.
func FilterRegion(rows []models.RentIndicator) []models.RentIndicator {
	filtered := make([]models.RentIndicator, 0, len(rows))
	for _, row := range rows {
		if config.IsIDFDepartment(row.DepartmentCode) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

func readRentCSV(path, tag string) ([]models.RentIndicator, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}

	text, enc, err := decodeRentBytes(data)
	if err != nil {
		return nil, "", err
	}

	rows, err := parseRentCSV(text, tag)
	if err != nil {
		return nil, "", err
	}
	return rows, enc, nil
}

// decodeRentBytes tries the candidate encodings in order and returns the
// decoded text together with the encoding name that succeeded. If every
// candidate fails the last decode error propagates.
func decodeRentBytes(data []byte) (string, string, error) {
	var lastErr error
	for _, cand := range rentEncodings {
		if cand.enc == nil {
			if utf8.Valid(data) {
				return string(data), cand.name, nil
			}
			lastErr = fmt.Errorf("input is not valid %s", cand.name)
			continue
		}
		decoded, err := cand.enc.NewDecoder().Bytes(data)
		if err != nil {
			lastErr = err
			continue
		}
		return string(decoded), cand.name, nil
	}
	return "", "", lastErr
}

// sniffDelimiter picks the most frequent of the usual delimiters in the
// header line.
func sniffDelimiter(headerLine string) rune {
	best, bestCount := ',', strings.Count(headerLine, ",")
	for _, cand := range []rune{';', '\t'} {
		if n := strings.Count(headerLine, string(cand)); n > bestCount {
			best, bestCount = cand, n
		}
	}
	return best
}

// normalizeColumn strips surrounding quotes and whitespace and replaces
// literal periods with underscores, so "lwr.IPm2" and lwr_IPm2 resolve to
// the same key.
func normalizeColumn(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Trim(name, `"`)
	return strings.ReplaceAll(name, ".", "_")
}

func parseRentCSV(text, tag string) ([]models.RentIndicator, error) {
	firstLine := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		firstLine = text[:i]
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sniffDelimiter(firstLine)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[normalizeColumn(name)] = i
	}

	get := func(record []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var rows []models.RentIndicator
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		rows = append(rows, models.RentIndicator{
			ZoneID:         get(record, "id_zone"),
			INSEECode:      get(record, "INSEE_C"),
			CommuneName:    get(record, "LIBGEO"),
			EPCI:           get(record, "EPCI"),
			DepartmentCode: get(record, "DEP"),
			RegionCode:     get(record, "REG"),
			PredictedRent:  parseLocaleFloat(get(record, "loypredm2")),
			RentLowerBound: parseLocaleFloat(get(record, "lwr_IPm2")),
			RentUpperBound: parseLocaleFloat(get(record, "upr_IPm2")),
			PredictionType: get(record, "TYPPRED"),
			CommuneObs:     parseLocaleInt(get(record, "nbobs_com")),
			ZoneObs:        parseLocaleInt(get(record, "nbobs_mail")),
			AdjustedR2:     parseLocaleFloat(get(record, "R2_adj")),
			PropertyType:   tag,
		})
	}
	return rows, nil
}

// parseLocaleFloat converts a French-formatted numeric cell (comma decimal
// separator) to a float; nil when empty or unparsable.
func parseLocaleFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseLocaleInt(s string) *int {
	f := parseLocaleFloat(s)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}
