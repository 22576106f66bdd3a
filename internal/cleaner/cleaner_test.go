package cleaner

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"immoscan/config"
	"immoscan/internal/models"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func validRow() models.RawTransaction {
	return models.RawTransaction{
		MutationDate:   "2023-03-15",
		MutationType:   "Vente",
		Value:          fptr(500000),
		CommuneCode:    "75056",
		CommuneName:    "PARIS",
		DepartmentCode: "75",
		PropertyType:   config.PropertyTypeApartment,
		Surface:        fptr(50),
		RoomCount:      iptr(2),
	}
}

func TestCleanKeepsValidRow(t *testing.T) {
	c := New(testConfig(t), testLogger())

	out := c.Clean([]models.RawTransaction{validRow()})

	require.Len(t, out, 1)
	tx := out[0]
	assert.Equal(t, "Paris", tx.CommuneName)
	assert.Equal(t, 500000.0, tx.Value)
	assert.Equal(t, 10000.0, tx.PriceM2)
	assert.Equal(t, 2, tx.RoomCount)
	assert.Equal(t, time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC), tx.Date)
}

func TestCleanFiltersMutationType(t *testing.T) {
	c := New(testConfig(t), testLogger())

	vefa := validRow()
	vefa.MutationType = "Vente en l'état futur d'achèvement"
	exchange := validRow()
	exchange.MutationType = "Echange"

	out := c.Clean([]models.RawTransaction{validRow(), vefa, exchange})
	assert.Len(t, out, 1)
}

func TestCleanFiltersValueAndSurface(t *testing.T) {
	c := New(testConfig(t), testLogger())

	tests := []struct {
		name string
		mod  func(*models.RawTransaction)
		kept bool
	}{
		{"missing value", func(r *models.RawTransaction) { r.Value = nil }, false},
		{"zero value", func(r *models.RawTransaction) { r.Value = fptr(0) }, false},
		{"negative value", func(r *models.RawTransaction) { r.Value = fptr(-100) }, false},
		{"missing surface", func(r *models.RawTransaction) { r.Surface = nil }, false},
		{"surface below minimum", func(r *models.RawTransaction) { r.Surface = fptr(8.9) }, false},
		{"surface at minimum", func(r *models.RawTransaction) { r.Surface = fptr(9); r.Value = fptr(90000) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			tt.mod(&row)
			out := c.Clean([]models.RawTransaction{row})
			if tt.kept {
				assert.Len(t, out, 1)
			} else {
				assert.Empty(t, out)
			}
		})
	}
}

func TestCleanPriceBandIsInclusive(t *testing.T) {
	c := New(testConfig(t), testLogger())

	tests := []struct {
		name    string
		value   float64
		surface float64
		kept    bool
	}{
		{"below band", 4999, 10, false},
		{"lower bound", 5000, 10, true},
		{"upper bound", 250000, 10, true},
		{"above band", 250010, 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			row.Value = fptr(tt.value)
			row.Surface = fptr(tt.surface)
			out := c.Clean([]models.RawTransaction{row})
			if tt.kept {
				require.Len(t, out, 1)
				price := out[0].PriceM2
				assert.GreaterOrEqual(t, price, 500.0)
				assert.LessOrEqual(t, price, 25000.0)
			} else {
				assert.Empty(t, out)
			}
		})
	}
}

func TestCleanRemovesExactDuplicates(t *testing.T) {
	c := New(testConfig(t), testLogger())

	a := validRow()
	b := validRow()
	distinct := validRow()
	distinct.Value = fptr(510000)

	out := c.Clean([]models.RawTransaction{a, b, distinct})
	assert.Len(t, out, 2)
}

func TestCleanCoercesBadDatesToZero(t *testing.T) {
	c := New(testConfig(t), testLogger())

	row := validRow()
	row.MutationDate = "not-a-date"

	out := c.Clean([]models.RawTransaction{row})
	require.Len(t, out, 1)
	assert.True(t, out[0].Date.IsZero())
}

func TestCleanMissingRoomCountBecomesZero(t *testing.T) {
	c := New(testConfig(t), testLogger())

	row := validRow()
	row.RoomCount = nil

	out := c.Clean([]models.RawTransaction{row})
	require.Len(t, out, 1)
	assert.Equal(t, 0, out[0].RoomCount)
}

func TestCleanDoesNotModifyInput(t *testing.T) {
	c := New(testConfig(t), testLogger())

	rows := []models.RawTransaction{validRow()}
	original := rows[0]

	c.Clean(rows)
	assert.Equal(t, original, rows[0])
}

func TestCleanIsIdempotentOnRowCount(t *testing.T) {
	c := New(testConfig(t), testLogger())

	varied := validRow()
	varied.Value = fptr(450000)
	rows := []models.RawTransaction{validRow(), varied}

	first := c.Clean(rows)

	// Re-cleaning the already clean output must not drop anything.
	reraw := make([]models.RawTransaction, len(first))
	for i, tx := range first {
		reraw[i] = models.RawTransaction{
			MutationDate:   tx.Date.Format("2006-01-02"),
			MutationType:   tx.MutationType,
			Value:          fptr(tx.Value),
			CommuneCode:    tx.CommuneCode,
			CommuneName:    tx.CommuneName,
			DepartmentCode: tx.DepartmentCode,
			PropertyType:   tx.PropertyType,
			Surface:        fptr(tx.Surface),
			RoomCount:      iptr(tx.RoomCount),
		}
	}
	second := c.Clean(reraw)
	assert.Len(t, second, len(first))
}

func TestCleanEmptyInput(t *testing.T) {
	c := New(testConfig(t), testLogger())
	assert.Empty(t, c.Clean(nil))
}

func TestNormalizeCommuneName(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"PARIS", "Paris"},
		{"  le chesnay ", "Le Chesnay"},
		{"SAINT-DENIS", "Saint-Denis"},
		{"l'haÿ-les-roses", "L'Haÿ-Les-Roses"},
		{"boulogne billancourt", "Boulogne Billancourt"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeCommuneName(tt.in))
		})
	}
}
