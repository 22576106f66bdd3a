package analysis

import (
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"

	"immoscan/config"
	"immoscan/internal/models"
)

// PriceAnalyzer computes descriptive sale price statistics over a cleaned
// transaction table. The table is owned by the analyzer instance and
// never modified.
type PriceAnalyzer struct {
	logger *logrus.Logger
	rows   []models.Transaction
}

func NewPriceAnalyzer(rows []models.Transaction, logger *logrus.Logger) *PriceAnalyzer {
	return &PriceAnalyzer{logger: logger, rows: rows}
}

// GetCityStats computes statistics for one commune, matched by
// case-insensitive exact name. A commune with no transactions yields nil,
// the expected not-found result, never an error.
func (a *PriceAnalyzer) GetCityStats(cityName string) *models.CityStats {
	matched := a.cityRows(cityName)
	if len(matched) == 0 {
		a.logger.Warnf("No transactions found for %s", cityName)
		return nil
	}
	return computeCityStats(matched)
}

func (a *PriceAnalyzer) cityRows(cityName string) []models.Transaction {
	upper := strings.ToUpper(cityName)
	var matched []models.Transaction
	for _, row := range a.rows {
		if strings.ToUpper(row.CommuneName) == upper {
			matched = append(matched, row)
		}
	}
	return matched
}

// AnalyzeAllCities computes per-commune statistics for every distinct
// commune in the table, sorted by mean price per m² descending. Each
// commune is assigned the department code of its first matching row.
func (a *PriceAnalyzer) AnalyzeAllCities() []models.CityRow {
	a.logger.Info("Analyzing all cities...")

	results := a.analyzeCommunes(a.rows)

	a.logger.Infof("Analysis complete: %d cities", len(results))
	return results
}

// GetDepartmentStats applies the per-commune computation to every
// distinct commune of one department. An unknown department yields an
// empty table.
func (a *PriceAnalyzer) GetDepartmentStats(deptCode string) []models.CityRow {
	var deptRows []models.Transaction
	for _, row := range a.rows {
		if row.DepartmentCode == deptCode {
			deptRows = append(deptRows, row)
		}
	}
	if len(deptRows) == 0 {
		a.logger.Warnf("No transactions for department %s", deptCode)
		return nil
	}
	return a.analyzeCommunes(deptRows)
}

func (a *PriceAnalyzer) analyzeCommunes(rows []models.Transaction) []models.CityRow {
	var order []string
	grouped := make(map[string][]models.Transaction)
	depts := make(map[string]string)
	for _, row := range rows {
		key := strings.ToUpper(row.CommuneName)
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
			depts[key] = row.DepartmentCode
		}
		grouped[key] = append(grouped[key], row)
	}

	results := make([]models.CityRow, 0, len(order))
	for _, key := range order {
		group := grouped[key]
		st := computeCityStats(group)
		results = append(results, models.CityRow{
			Commune:        group[0].CommuneName,
			DepartmentCode: depts[key],
			CityStats:      *st,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MeanPriceM2 > results[j].MeanPriceM2
	})
	return results
}

func computeCityStats(rows []models.Transaction) *models.CityStats {
	prices := make([]float64, len(rows))
	surfaces := make([]float64, len(rows))
	var rooms models.RoomCounts
	for i, row := range rows {
		prices[i] = row.PriceM2
		surfaces[i] = row.Surface
		switch {
		case row.RoomCount == 1:
			rooms.One++
		case row.RoomCount == 2:
			rooms.Two++
		case row.RoomCount == 3:
			rooms.Three++
		case row.RoomCount == 4:
			rooms.Four++
		case row.RoomCount >= 5:
			rooms.FivePlus++
		}
	}

	mean, _ := stats.Mean(prices)
	median, _ := stats.Median(prices)
	min, _ := stats.Min(prices)
	max, _ := stats.Max(prices)
	meanSurface, _ := stats.Mean(surfaces)

	return &models.CityStats{
		MeanPriceM2:      mean,
		MedianPriceM2:    median,
		MinPriceM2:       min,
		MaxPriceM2:       max,
		TransactionCount: len(rows),
		MeanSurface:      meanSurface,
		Rooms:            rooms,
		Apartments:       computePropertyTypeStats(rows, config.PropertyTypeApartment),
		Houses:           computePropertyTypeStats(rows, config.PropertyTypeHouse),
	}
}

// computePropertyTypeStats returns nil when the subset is empty.
func computePropertyTypeStats(rows []models.Transaction, propertyType string) *models.PropertyTypeStats {
	var prices, surfaces []float64
	for _, row := range rows {
		if row.PropertyType == propertyType {
			prices = append(prices, row.PriceM2)
			surfaces = append(surfaces, row.Surface)
		}
	}
	if len(prices) == 0 {
		return nil
	}

	mean, _ := stats.Mean(prices)
	min, _ := stats.Min(prices)
	max, _ := stats.Max(prices)
	meanSurface, _ := stats.Mean(surfaces)

	return &models.PropertyTypeStats{
		MeanPriceM2:      mean,
		MinPriceM2:       min,
		MaxPriceM2:       max,
		TransactionCount: len(prices),
		MeanSurface:      meanSurface,
	}
}
