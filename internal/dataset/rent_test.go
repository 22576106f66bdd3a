package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"immoscan/config"
	"immoscan/internal/models"
)

const rentHeader = `"id_zone";"INSEE_C";"LIBGEO";"EPCI";"DEP";"REG";"loypredm2";"lwr.IPm2";"upr.IPm2";"TYPPRED";"nbobs_com";"nbobs_mail";"R2_adj"`

func writeRentFile(t *testing.T, cfg *config.Config, name, content string) {
	t.Helper()
	dir := cfg.RawDataDir()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoadRentTableSingleFile(t *testing.T) {
	cfg := testConfig(t)
	content := rentHeader + "\n" +
		`"Z1";"75056";"Paris";"Métropole du Grand Paris";"75";"11";"28,5";"26,1";"30,9";"commune";"150";"200";"0,75"` + "\n" +
		`"Z2";"69123";"Lyon";"Métropole de Lyon";"69";"84";"15,2";"14,0";"16,4";"commune";"80";"90";"0,6"` + "\n"
	writeRentFile(t, cfg, "carte_loyers_2023.csv", content)

	rows, err := LoadRentTable(cfg, testLogger(), 2023, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	paris := rows[0]
	assert.Equal(t, "Paris", paris.CommuneName)
	assert.Equal(t, "75056", paris.INSEECode)
	assert.Equal(t, "75", paris.DepartmentCode)
	assert.Equal(t, config.RentTypeAll, paris.PropertyType)
	require.NotNil(t, paris.PredictedRent)
	assert.Equal(t, 28.5, *paris.PredictedRent)
	require.NotNil(t, paris.RentLowerBound)
	assert.Equal(t, 26.1, *paris.RentLowerBound)
	require.NotNil(t, paris.CommuneObs)
	assert.Equal(t, 150, *paris.CommuneObs)
	require.NotNil(t, paris.AdjustedR2)
	assert.Equal(t, 0.75, *paris.AdjustedR2)
}

func TestLoadRentTableSplitFiles(t *testing.T) {
	cfg := testConfig(t)
	row := func(name string) string {
		return rentHeader + "\n" +
			fmt.Sprintf(`"Z1";"75056";"%s";"EPCI";"75";"11";"20,0";"18,0";"22,0";"commune";"50";"60";"0,55"`, name) + "\n"
	}
	writeRentFile(t, cfg, "carte_loyers_2024_appartements.csv", row("Paris"))
	writeRentFile(t, cfg, "carte_loyers_2024_maisons.csv", row("Paris"))

	rows, err := LoadRentTable(cfg, testLogger(), 2024, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, config.RentTypeApartments, rows[0].PropertyType)
	assert.Equal(t, config.RentTypeHouses, rows[1].PropertyType)

	onlyHouses, err := LoadRentTable(cfg, testLogger(), 2024, config.RentTypeHouses)
	require.NoError(t, err)
	require.Len(t, onlyHouses, 1)
	assert.Equal(t, config.RentTypeHouses, onlyHouses[0].PropertyType)
}

func TestLoadRentTableNoFile(t *testing.T) {
	cfg := testConfig(t)

	_, err := LoadRentTable(cfg, testLogger(), 2023, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoRentData))
	assert.Contains(t, err.Error(), "2023")
}

func TestLoadRentTableLatin1Encoding(t *testing.T) {
	cfg := testConfig(t)
	text := rentHeader + "\n" +
		`"Z1";"91228";"Évry-Courcouronnes";"EPCI";"91";"11";"14,5";"13,0";"16,0";"commune";"40";"50";"0,52"` + "\n"
	encoded, err := charmap.ISO8859_1.NewEncoder().String(text)
	require.NoError(t, err)
	writeRentFile(t, cfg, "carte_loyers_2023.csv", encoded)

	rows, err := LoadRentTable(cfg, testLogger(), 2023, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Évry-Courcouronnes", rows[0].CommuneName)
}

func TestFilterRegion(t *testing.T) {
	rows := []models.RentIndicator{
		{CommuneName: "Paris", DepartmentCode: "75"},
		{CommuneName: "Lyon", DepartmentCode: "69"},
		{CommuneName: "Meaux", DepartmentCode: "77"},
		{CommuneName: "Marseille", DepartmentCode: "13"},
	}

	filtered := FilterRegion(rows)
	require.Len(t, filtered, 2)
	assert.Equal(t, "Paris", filtered[0].CommuneName)
	assert.Equal(t, "Meaux", filtered[1].CommuneName)
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected rune
	}{
		{"semicolons", `"a";"b";"c"`, ';'},
		{"commas", "a,b,c", ','},
		{"tabs", "a\tb\tc", '\t'},
		{"comma wins ties", "a", ','},
		{"mixed favors majority", `a;b;c,d`, ';'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sniffDelimiter(tt.header))
		})
	}
}

func TestNormalizeColumn(t *testing.T) {
	assert.Equal(t, "lwr_IPm2", normalizeColumn(`"lwr.IPm2"`))
	assert.Equal(t, "lwr_IPm2", normalizeColumn("lwr_IPm2"))
	assert.Equal(t, "INSEE_C", normalizeColumn(` "INSEE_C" `))
	assert.Equal(t, "R2_adj", normalizeColumn("R2.adj"))
}

func TestParseLocaleFloat(t *testing.T) {
	require.NotNil(t, parseLocaleFloat("28,5"))
	assert.Equal(t, 28.5, *parseLocaleFloat("28,5"))
	assert.Equal(t, 28.5, *parseLocaleFloat("28.5"))
	assert.Nil(t, parseLocaleFloat(""))
	assert.Nil(t, parseLocaleFloat("n/a"))
}

func TestDecodeRentBytesPriority(t *testing.T) {
	// Valid UTF-8 decodes as UTF-8 even though Latin-1 would accept it too.
	text, enc, err := decodeRentBytes([]byte("Évry"))
	require.NoError(t, err)
	assert.Equal(t, "utf-8", enc)
	assert.Equal(t, "Évry", text)

	// Latin-1 bytes are not valid UTF-8 and fall through to the next candidate.
	latin1, err := charmap.ISO8859_1.NewEncoder().String("Évry")
	require.NoError(t, err)
	text, enc, err = decodeRentBytes([]byte(latin1))
	require.NoError(t, err)
	assert.Equal(t, "latin-1", enc)
	assert.Equal(t, "Évry", text)
}
