package cleaner

import (
	"strings"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"

	"immoscan/config"
	"immoscan/internal/models"
)

// Cleaner turns raw DVF rows into the analysis-ready transaction table.
type Cleaner struct {
	cfg    *config.Config
	logger *logrus.Logger
}

func New(cfg *config.Config, logger *logrus.Logger) *Cleaner {
	return &Cleaner{cfg: cfg, logger: logger}
}

// Clean applies the filter and derivation pipeline in its fixed order and
// returns a new slice; the input is never modified. Malformed individual
// rows are filtered out, never an error.
//
// Stage order matters: the surface filter guarantees a non-zero
// denominator before the price-per-m² derivation, and the price band is
// checked on the derived value.
func (c *Cleaner) Clean(raw []models.RawTransaction) []models.Transaction {
	c.logger.Infof("Cleaning data: %d initial rows", len(raw))
	initial := len(raw)

	// 1. Mutation nature filter
	stage := make([]models.RawTransaction, 0, len(raw))
	for _, row := range raw {
		if config.IsValidMutationType(row.MutationType) {
			stage = append(stage, row)
		}
	}
	c.logger.Infof("  After mutation filter: %d rows", len(stage))

	// 2. Present, strictly positive sale value
	stage = keep(stage, func(r models.RawTransaction) bool {
		return r.Value != nil && *r.Value > 0
	})
	c.logger.Infof("  After value filter: %d rows", len(stage))

	// 3. Present built surface above the habitable minimum
	minSurface := c.cfg.Filters.MinSurface
	stage = keep(stage, func(r models.RawTransaction) bool {
		return r.Surface != nil && *r.Surface >= minSurface
	})
	c.logger.Infof("  After surface filter (>= %.0fm²): %d rows", minSurface, len(stage))

	// 4. + 5. Derive price per m² and drop data-entry outliers
	minPrice, maxPrice := c.cfg.Filters.MinPriceM2, c.cfg.Filters.MaxPriceM2
	banded := make([]models.RawTransaction, 0, len(stage))
	for _, row := range stage {
		priceM2 := *row.Value / *row.Surface
		if priceM2 >= minPrice && priceM2 <= maxPrice {
			banded = append(banded, row)
		}
	}
	c.logger.Infof("  After price filter (%.0f-%.0f €/m²): %d rows", minPrice, maxPrice, len(banded))

	// 6.–8. Project onto the output column set, parse dates, normalize
	// commune names
	out := make([]models.Transaction, 0, len(banded))
	seen := make(map[models.Transaction]struct{}, len(banded))
	for _, row := range banded {
		roomCount := 0
		if row.RoomCount != nil {
			roomCount = *row.RoomCount
		}
		tx := models.Transaction{
			Date:           parseMutationDate(row.MutationDate),
			MutationType:   row.MutationType,
			Value:          *row.Value,
			CommuneCode:    row.CommuneCode,
			CommuneName:    NormalizeCommuneName(row.CommuneName),
			DepartmentCode: row.DepartmentCode,
			PropertyType:   row.PropertyType,
			Surface:        *row.Surface,
			RoomCount:      roomCount,
			PriceM2:        *row.Value / *row.Surface,
		}

		// 9. Exact-duplicate removal over the retained columns
		if _, dup := seen[tx]; dup {
			continue
		}
		seen[tx] = struct{}{}
		out = append(out, tx)
	}

	removed := initial - len(out)
	pct := 0.0
	if initial > 0 {
		pct = float64(removed) / float64(initial) * 100
	}
	c.logger.Infof("Cleaning done: %d rows kept (%d removed, %.1f%%)", len(out), removed, pct)
	return out
}

func keep(rows []models.RawTransaction, pred func(models.RawTransaction) bool) []models.RawTransaction {
	out := rows[:0:0]
	for _, row := range rows {
		if pred(row) {
			out = append(out, row)
		}
	}
	return out
}

// parseMutationDate coerces unparsable dates to the zero time instead of
// failing the row.
func parseMutationDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

// NormalizeCommuneName trims whitespace and title-cases each word, so
// "  le chesnay " becomes "Le Chesnay" and "SAINT-DENIS" becomes
// "Saint-Denis". Letters following any non-letter start a new word, which
// keeps hyphenated and apostrophe'd commune names consistent.
func NormalizeCommuneName(name string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}
