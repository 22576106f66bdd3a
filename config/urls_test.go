package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDVFSourceForDepartment(t *testing.T) {
	template := DVFSource{Template: "https://mirror.example.com/dvf/{dept}.csv.gz"}
	url, ok := template.ForDepartment("75")
	assert.True(t, ok)
	assert.Equal(t, "https://mirror.example.com/dvf/75.csv.gz", url)

	perDept := DVFSource{PerDept: map[string]string{"75": "https://mirror.example.com/paris.csv.gz"}}
	url, ok = perDept.ForDepartment("75")
	assert.True(t, ok)
	assert.Equal(t, "https://mirror.example.com/paris.csv.gz", url)

	_, ok = perDept.ForDepartment("92")
	assert.False(t, ok)
}

func TestDVFURLFallsBackToOfficialPattern(t *testing.T) {
	urls := DefaultURLs()

	url := urls.DVFURL(2023, "75")
	assert.Equal(t, "https://files.data.gouv.fr/geo-dvf/latest/csv/2023/departements/75.csv.gz", url)

	// Any year resolves, even without an explicit entry.
	url = urls.DVFURL(2019, "95")
	assert.Equal(t, "https://files.data.gouv.fr/geo-dvf/latest/csv/2019/departements/95.csv.gz", url)
}

func TestRentURLs(t *testing.T) {
	urls := DefaultURLs()

	single, ok := urls.RentURLs(2023)
	assert.True(t, ok)
	assert.False(t, single.IsSplit())
	assert.NotEmpty(t, single.Single)

	split, ok := urls.RentURLs(2024)
	assert.True(t, ok)
	assert.True(t, split.IsSplit())
	assert.Contains(t, split.PerType, RentTypeApartments)
	assert.Contains(t, split.PerType, RentTypeHouses)

	_, ok = urls.RentURLs(2010)
	assert.False(t, ok)
}

func TestMergeOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "urls.toml")
	content := `
[dvf.2023]
template = "https://mirror.example.com/dvf/2023/{dept}.csv.gz"

[dvf.2024.departments]
75 = "https://mirror.example.com/dvf/paris_2024.csv.gz"

[rent.2023]
url = "https://mirror.example.com/loyers_2023.csv"

[rent.2025.files]
appartements = "https://mirror.example.com/loyers_2025_appart.csv"
maisons = "https://mirror.example.com/loyers_2025_maisons.csv"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	urls := DefaultURLs()
	require.NoError(t, urls.MergeOverrideFile(path))

	assert.Equal(t, "https://mirror.example.com/dvf/2023/75.csv.gz", urls.DVFURL(2023, "75"))
	assert.Equal(t, "https://mirror.example.com/dvf/paris_2024.csv.gz", urls.DVFURL(2024, "75"))
	// Departments without an explicit entry fall back to the official pattern.
	assert.Equal(t, "https://files.data.gouv.fr/geo-dvf/latest/csv/2024/departements/92.csv.gz", urls.DVFURL(2024, "92"))

	rent2023, ok := urls.RentURLs(2023)
	assert.True(t, ok)
	assert.Equal(t, "https://mirror.example.com/loyers_2023.csv", rent2023.Single)

	rent2025, ok := urls.RentURLs(2025)
	assert.True(t, ok)
	assert.True(t, rent2025.IsSplit())

	// Untouched defaults survive the merge.
	rent2024, ok := urls.RentURLs(2024)
	assert.True(t, ok)
	assert.True(t, rent2024.IsSplit())
}

func TestMergeOverrideFileMissingIsNoOp(t *testing.T) {
	urls := DefaultURLs()
	err := urls.MergeOverrideFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.NoError(t, err)
	assert.Equal(t, DefaultURLs(), urls)
}

func TestMergeOverrideFileRejectsBadYearKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "urls.toml")
	require.NoError(t, os.WriteFile(path, []byte("[rent.notayear]\nurl = \"https://example.com/x.csv\"\n"), 0644))

	urls := DefaultURLs()
	err := urls.MergeOverrideFile(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid year key")
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.Paths.DataDir)
	assert.Equal(t, filepath.Join("data", "raw"), cfg.RawDataDir())
	assert.Equal(t, filepath.Join("data", "processed"), cfg.ProcessedDataDir())
	assert.Equal(t, 500.0, cfg.Filters.MinPriceM2)
	assert.Equal(t, 25000.0, cfg.Filters.MaxPriceM2)
	assert.Equal(t, 9.0, cfg.Filters.MinSurface)
	assert.Equal(t, 30, cfg.Download.DVFTimeout)
}
