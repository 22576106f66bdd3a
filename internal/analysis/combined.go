package analysis

import (
	"sort"

	"github.com/sirupsen/logrus"

	"immoscan/config"
	"immoscan/internal/models"
)

const monthsPerYear = 12

// CombinedAnalyzer joins sale price statistics and rent indicators per
// commune by case-insensitive name equality and derives gross rental
// yields. The price analyzer may be nil when no cleaned DVF snapshot is
// available; every price side then stays empty.
type CombinedAnalyzer struct {
	prices *PriceAnalyzer
	rents  *RentAnalyzer
	logger *logrus.Logger
}

func NewCombinedAnalyzer(prices *PriceAnalyzer, rents *RentAnalyzer, logger *logrus.Logger) *CombinedAnalyzer {
	return &CombinedAnalyzer{prices: prices, rents: rents, logger: logger}
}

// Rents exposes the rent side for report writers that need the raw
// indicator table alongside the joined rows.
func (c *CombinedAnalyzer) Rents() *RentAnalyzer {
	return c.rents
}

// grossYield computes the annualized yield percentage, nil when the mean
// sale price is zero. A zero price is a legitimate degenerate input, not
// a division to crash on.
func grossYield(monthlyRentM2, priceM2 float64) *float64 {
	if priceM2 == 0 {
		return nil
	}
	y := monthlyRentM2 * monthsPerYear / priceM2 * 100
	return &y
}

// GetCityCompleteStats pairs the rent and price views for one commune,
// looked up by name or INSEE code. Either side may be nil.
func (c *CombinedAnalyzer) GetCityCompleteStats(cityName, inseeCode string) (*models.CombinedCityStats, error) {
	rentStats, err := c.rents.GetCityRentStats(cityName, inseeCode)
	if err != nil {
		return nil, err
	}

	searchName := cityName
	if searchName == "" && rentStats != nil {
		searchName = rentStats.CommuneName
	}

	var priceStats *models.CityStats
	if searchName != "" && c.prices != nil {
		priceStats = c.prices.GetCityStats(searchName)
	}

	return &models.CombinedCityStats{
		Commune:   searchName,
		INSEECode: inseeCode,
		Rents:     rentStats,
		Prices:    priceStats,
	}, nil
}

// RentalYield computes the gross rental yield report for one commune.
// priceOverride substitutes the DVF mean sale price when non-nil. The
// result is nil when the commune has no rent value at all; the yield
// fields are nil when the price side is missing or zero.
func (c *CombinedAnalyzer) RentalYield(cityName, inseeCode string, priceOverride *float64) (*models.YieldReport, error) {
	rentStats, err := c.rents.GetCityRentStats(cityName, inseeCode)
	if err != nil {
		return nil, err
	}
	if rentStats == nil || rentStats.PredictedRent == nil {
		c.logger.Warnf("No rent data for %s%s", cityName, inseeCode)
		return nil, nil
	}

	priceM2 := priceOverride
	if priceM2 == nil && c.prices != nil {
		searchName := cityName
		if searchName == "" {
			searchName = rentStats.CommuneName
		}
		if st := c.prices.GetCityStats(searchName); st != nil {
			priceM2 = &st.MeanPriceM2
		}
	}

	report := &models.YieldReport{
		Commune:       rentStats.CommuneName,
		MonthlyRentM2: *rentStats.PredictedRent,
		AnnualRentM2:  *rentStats.PredictedRent * monthsPerYear,
		Reliable:      rentStats.IsReliable(),
	}
	if priceM2 == nil {
		return report, nil
	}

	report.PurchasePriceM2 = priceM2
	report.GrossYieldPct = grossYield(*rentStats.PredictedRent, *priceM2)
	if rentStats.RentLowerBound != nil {
		report.LowYieldPct = grossYield(*rentStats.RentLowerBound, *priceM2)
	}
	if rentStats.RentUpperBound != nil {
		report.HighYieldPct = grossYield(*rentStats.RentUpperBound, *priceM2)
	}
	return report, nil
}

// AllCitiesCombined joins price statistics onto every rent-bearing
// commune, optionally restricted to one department. The price lookup is
// attempted independently per commune: a commune without price data gets
// a nil price side, never aborts the batch.
func (c *CombinedAnalyzer) AllCitiesCombined(deptCode string) ([]models.CombinedRow, error) {
	c.logger.Info("Computing combined statistics for all cities...")

	table, err := c.rents.Table()
	if err != nil {
		return nil, err
	}

	var results []models.CombinedRow
	for _, rent := range table {
		if deptCode != "" && rent.DepartmentCode != deptCode {
			continue
		}

		row := models.CombinedRow{
			Commune:        rent.CommuneName,
			INSEECode:      rent.INSEECode,
			DepartmentCode: rent.DepartmentCode,
			PropertyType:   rent.PropertyType,
			MeanRentM2:     rent.PredictedRent,
			RentLowM2:      rent.RentLowerBound,
			RentHighM2:     rent.RentUpperBound,
			RentObs:        rent.CommuneObs,
			RentR2:         rent.AdjustedR2,
		}

		if c.prices != nil {
			if st := c.prices.GetCityStats(rent.CommuneName); st != nil {
				row.MeanPriceM2 = &st.MeanPriceM2
				row.MinPriceM2 = &st.MinPriceM2
				row.MaxPriceM2 = &st.MaxPriceM2
				count := st.TransactionCount
				row.TransactionCount = &count

				if rent.PredictedRent != nil {
					row.GrossYieldPct = grossYield(*rent.PredictedRent, st.MeanPriceM2)
				}
				if rent.RentLowerBound != nil {
					row.LowYieldPct = grossYield(*rent.RentLowerBound, st.MeanPriceM2)
				}
				if rent.RentUpperBound != nil {
					row.HighYieldPct = grossYield(*rent.RentUpperBound, st.MeanPriceM2)
				}
			}
		}

		results = append(results, row)
	}

	withYield := 0
	for _, row := range results {
		if row.GrossYieldPct != nil {
			withYield++
		}
	}
	c.logger.Infof("Combined statistics for %d cities (%d with computed yield)", len(results), withYield)
	return results, nil
}

// BestYieldCities returns the n communes with the highest defined gross
// yield, descending.
func (c *CombinedAnalyzer) BestYieldCities(n int, deptCode string) ([]models.CombinedRow, error) {
	rows, err := c.AllCitiesCombined(deptCode)
	if err != nil {
		return nil, err
	}

	var withYield []models.CombinedRow
	for _, row := range rows {
		if row.GrossYieldPct != nil {
			withYield = append(withYield, row)
		}
	}
	if len(withYield) == 0 {
		c.logger.Warn("No city with a computable yield")
		return nil, nil
	}

	sort.SliceStable(withYield, func(i, j int) bool {
		return *withYield[i].GrossYieldPct > *withYield[j].GrossYieldPct
	})
	if n < 0 {
		n = 0
	}
	if n > len(withYield) {
		n = len(withYield)
	}
	return withYield[:n], nil
}

// DepartmentAverages aggregates the combined rows that carry both a price
// and a rent side, per department.
func (c *CombinedAnalyzer) DepartmentAverages() ([]models.DepartmentAverages, error) {
	rows, err := c.AllCitiesCombined("")
	if err != nil {
		return nil, err
	}

	type acc struct {
		price, rent, yield float64
		count              int
	}
	perDept := make(map[string]*acc)
	for _, row := range rows {
		if row.MeanPriceM2 == nil || row.MeanRentM2 == nil || row.GrossYieldPct == nil {
			continue
		}
		a, ok := perDept[row.DepartmentCode]
		if !ok {
			a = &acc{}
			perDept[row.DepartmentCode] = a
		}
		a.price += *row.MeanPriceM2
		a.rent += *row.MeanRentM2
		a.yield += *row.GrossYieldPct
		a.count++
	}

	var results []models.DepartmentAverages
	for _, dept := range config.IDFDepartments {
		a, ok := perDept[dept.Code]
		if !ok {
			continue
		}
		n := float64(a.count)
		results = append(results, models.DepartmentAverages{
			DepartmentCode: dept.Code,
			DepartmentName: dept.Name,
			CommuneCount:   a.count,
			MeanPriceM2:    a.price / n,
			MeanRentM2:     a.rent / n,
			MeanYieldPct:   a.yield / n,
		})
	}
	return results, nil
}
