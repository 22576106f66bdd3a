package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DVFBaseURL is the default source for DVF department files
const DVFBaseURL = "https://files.data.gouv.fr/geo-dvf/latest/csv"

// DVFSource configures where DVF files for one year come from. Exactly one
// of the two fields is set: Template is a URL containing a {dept}
// placeholder, PerDept maps department codes to explicit URLs.
type DVFSource struct {
	Template string
	PerDept  map[string]string
}

// ForDepartment resolves the download URL for one department.
func (s DVFSource) ForDepartment(dept string) (string, bool) {
	if s.Template != "" {
		return strings.ReplaceAll(s.Template, "{dept}", dept), true
	}
	url, ok := s.PerDept[dept]
	return url, ok
}

// RentSource configures where rent indicator files for one year come from.
// Single points at one CSV covering all property types (older vintages),
// PerType maps property type tags to one CSV each (2024 onwards).
type RentSource struct {
	Single  string
	PerType map[string]string
}

// IsSplit reports whether the vintage ships one file per property type.
func (s RentSource) IsSplit() bool {
	return len(s.PerType) > 0
}

// URLConfig holds the per-year data source URLs.
type URLConfig struct {
	DVF  map[int]DVFSource
	Rent map[int]RentSource
}

// DefaultURLs returns the built-in source configuration.
func DefaultURLs() URLConfig {
	return URLConfig{
		DVF: map[int]DVFSource{},
		Rent: map[int]RentSource{
			2023: {
				Single: "https://static.data.gouv.fr/resources/carte-des-loyers-indicateurs-de-loyers-dannonce-par-commune-en-2023/20231024-093315/indicateurs-loyers-communes.csv",
			},
			2024: {
				PerType: map[string]string{
					RentTypeApartments: "https://static.data.gouv.fr/resources/carte-des-loyers-indicateurs-de-loyers-dannonce-par-commune-en-2024/20241001-093315/indicateurs-loyers-appartements.csv",
					RentTypeHouses:     "https://static.data.gouv.fr/resources/carte-des-loyers-indicateurs-de-loyers-dannonce-par-commune-en-2024/20241001-093317/indicateurs-loyers-maisons.csv",
				},
			},
		},
	}
}

// DVFURL resolves the download URL for a department file. Years without an
// override fall back to the official URL pattern, so every year resolves.
func (u URLConfig) DVFURL(year int, dept string) string {
	if src, ok := u.DVF[year]; ok {
		if url, ok := src.ForDepartment(dept); ok {
			return url
		}
	}
	return fmt.Sprintf("%s/%d/departements/%s.csv.gz", DVFBaseURL, year, dept)
}

// RentURLs returns the rent source for a year, or false when no URL is
// configured for that vintage.
func (u URLConfig) RentURLs(year int) (RentSource, bool) {
	src, ok := u.Rent[year]
	return src, ok
}

// urls.toml shape:
//
//	[dvf.2023]
//	template = "https://mirror.example.com/dvf/2023/{dept}.csv.gz"
//	[dvf.2024.departments]
//	75 = "https://mirror.example.com/dvf/paris_2024.csv.gz"
//	[rent.2023]
//	url = "https://mirror.example.com/loyers_2023.csv"
//	[rent.2024.files]
//	appartements = "https://mirror.example.com/loyers_2024_appart.csv"
type overrideFile struct {
	DVF map[string]struct {
		Template    string            `toml:"template"`
		Departments map[string]string `toml:"departments"`
	} `toml:"dvf"`
	Rent map[string]struct {
		URL   string            `toml:"url"`
		Files map[string]string `toml:"files"`
	} `toml:"rent"`
}

// MergeOverrideFile reads an optional TOML override file and merges it into
// the configuration, override entries winning over defaults. An absent file
// is a normal no-op.
func (u *URLConfig) MergeOverrideFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read URL override file: %w", err)
	}

	var overrides overrideFile
	if err := toml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for yearStr, src := range overrides.DVF {
		year, err := parseYearKey(yearStr)
		if err != nil {
			return err
		}
		u.DVF[year] = DVFSource{Template: src.Template, PerDept: src.Departments}
	}
	for yearStr, src := range overrides.Rent {
		year, err := parseYearKey(yearStr)
		if err != nil {
			return err
		}
		u.Rent[year] = RentSource{Single: src.URL, PerType: src.Files}
	}
	return nil
}

func parseYearKey(s string) (int, error) {
	year, err := strconv.Atoi(s)
	if err != nil || year < 1900 || year > 2100 {
		return 0, fmt.Errorf("invalid year key %q in URL override file", s)
	}
	return year, nil
}
