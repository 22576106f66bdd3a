package analysis

import (
	"errors"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"

	"immoscan/config"
	"immoscan/internal/dataset"
	"immoscan/internal/models"
)

// Lookup contract violations: a commune query takes a name or an INSEE
// code, exactly one of the two.
var (
	ErrNoLookupCriteria        = errors.New("a commune name or an INSEE code is required")
	ErrAmbiguousLookupCriteria = errors.New("provide either a commune name or an INSEE code, not both")
)

// RentAnalyzer serves rent indicator queries over one vintage. The
// region-filtered table is loaded lazily on first access and cached for
// the lifetime of the instance.
type RentAnalyzer struct {
	cfg    *config.Config
	logger *logrus.Logger
	year   int

	// loadTable is replaceable in tests; defaults to the dataset loader.
	loadTable func() ([]models.RentIndicator, error)
	table     []models.RentIndicator
	loaded    bool
}

func NewRentAnalyzer(cfg *config.Config, logger *logrus.Logger, year int) *RentAnalyzer {
	a := &RentAnalyzer{cfg: cfg, logger: logger, year: year}
	a.loadTable = func() ([]models.RentIndicator, error) {
		return dataset.LoadRentTable(cfg, logger, year, "")
	}
	return a
}

// NewRentAnalyzerFromTable builds an analyzer over an already loaded
// table, bypassing the file loader.
func NewRentAnalyzerFromTable(rows []models.RentIndicator, logger *logrus.Logger) *RentAnalyzer {
	return &RentAnalyzer{
		logger: logger,
		table:  dataset.FilterRegion(rows),
		loaded: true,
	}
}

func (a *RentAnalyzer) load() ([]models.RentIndicator, error) {
	if a.loaded {
		return a.table, nil
	}
	rows, err := a.loadTable()
	if err != nil {
		return nil, err
	}
	a.table = dataset.FilterRegion(rows)
	a.loaded = true
	a.logger.Infof("Rent data loaded: %d communes in region", len(a.table))
	return a.table, nil
}

// GetCityRentStats looks up the indicator row for one commune, by
// case-insensitive name or by exact INSEE code. Supplying neither or both
// criteria is a caller error; a commune with no row yields (nil, nil).
func (a *RentAnalyzer) GetCityRentStats(cityName, inseeCode string) (*models.RentIndicator, error) {
	if cityName == "" && inseeCode == "" {
		return nil, ErrNoLookupCriteria
	}
	if cityName != "" && inseeCode != "" {
		return nil, ErrAmbiguousLookupCriteria
	}

	table, err := a.load()
	if err != nil {
		return nil, err
	}

	upper := strings.ToUpper(cityName)
	for i := range table {
		if inseeCode != "" {
			if table[i].INSEECode == inseeCode {
				return &table[i], nil
			}
			continue
		}
		if strings.ToUpper(table[i].CommuneName) == upper {
			return &table[i], nil
		}
	}

	a.logger.Warnf("No rent data found for %s%s", cityName, inseeCode)
	return nil, nil
}

// GetDepartmentStatistics aggregates the indicators of one department.
// A department without rows yields (nil, nil).
func (a *RentAnalyzer) GetDepartmentStatistics(deptCode string) (*models.DepartmentRentStats, error) {
	table, err := a.load()
	if err != nil {
		return nil, err
	}

	var rents, lows, highs []float64
	count := 0
	for _, row := range table {
		if row.DepartmentCode != deptCode {
			continue
		}
		count++
		if row.PredictedRent != nil {
			rents = append(rents, *row.PredictedRent)
		}
		if row.RentLowerBound != nil {
			lows = append(lows, *row.RentLowerBound)
		}
		if row.RentUpperBound != nil {
			highs = append(highs, *row.RentUpperBound)
		}
	}
	if count == 0 {
		a.logger.Warnf("No rent data for department %s", deptCode)
		return nil, nil
	}

	result := &models.DepartmentRentStats{
		DepartmentCode: deptCode,
		CommuneCount:   count,
	}
	if dept := config.DepartmentByCode(deptCode); dept != nil {
		result.DepartmentName = dept.Name
	}
	if len(rents) > 0 {
		result.MeanRent, _ = stats.Mean(rents)
		result.MedianRent, _ = stats.Median(rents)
		result.MinRent, _ = stats.Min(rents)
		result.MaxRent, _ = stats.Max(rents)
	}
	if len(lows) > 0 {
		result.MeanLowerBound, _ = stats.Mean(lows)
	}
	if len(highs) > 0 {
		result.MeanUpperBound, _ = stats.Mean(highs)
	}
	return result, nil
}

// GetRegionStatistics aggregates every Île-de-France department that has
// rent rows, in department code order.
func (a *RentAnalyzer) GetRegionStatistics() ([]models.DepartmentRentStats, error) {
	var results []models.DepartmentRentStats
	for _, dept := range config.IDFDepartments {
		st, err := a.GetDepartmentStatistics(dept.Code)
		if err != nil {
			return nil, err
		}
		if st != nil {
			results = append(results, *st)
		}
	}
	return results, nil
}

// GetTopCities returns the n communes with the highest (or lowest, when
// ascending) predicted rents, optionally restricted to one department and
// one property type tag. Ties are broken by commune name so the order is
// deterministic.
func (a *RentAnalyzer) GetTopCities(n int, deptCode, propertyType string, ascending bool) ([]models.RentIndicator, error) {
	table, err := a.load()
	if err != nil {
		return nil, err
	}

	var eligible []models.RentIndicator
	for _, row := range table {
		if deptCode != "" && row.DepartmentCode != deptCode {
			continue
		}
		if propertyType != "" && row.PropertyType != propertyType {
			continue
		}
		if row.PredictedRent == nil {
			continue
		}
		eligible = append(eligible, row)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		ri, rj := *eligible[i].PredictedRent, *eligible[j].PredictedRent
		if ri != rj {
			if ascending {
				return ri < rj
			}
			return ri > rj
		}
		return eligible[i].CommuneName < eligible[j].CommuneName
	})

	if n < 0 {
		n = 0
	}
	if n > len(eligible) {
		n = len(eligible)
	}
	return eligible[:n], nil
}

// CompareCities returns one row per found commune name in descending rent
// order. Unmatched names are silently dropped.
func (a *RentAnalyzer) CompareCities(cityNames []string) ([]models.RentIndicator, error) {
	var found []models.RentIndicator
	for _, name := range cityNames {
		row, err := a.GetCityRentStats(name, "")
		if err != nil {
			return nil, err
		}
		if row != nil {
			found = append(found, *row)
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		ri, rj := 0.0, 0.0
		if found[i].PredictedRent != nil {
			ri = *found[i].PredictedRent
		}
		if found[j].PredictedRent != nil {
			rj = *found[j].PredictedRent
		}
		return ri > rj
	})
	return found, nil
}

// Table exposes the loaded region table, for the report writers.
func (a *RentAnalyzer) Table() ([]models.RentIndicator, error) {
	return a.load()
}
