package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"immoscan/config"
	"immoscan/internal/analysis"
	"immoscan/internal/models"
)

// Writer produces the XLSX reports under the configured reports
// directory. One method per report type; each returns the path of the
// written file.
type Writer struct {
	cfg    *config.Config
	logger *logrus.Logger
}

func NewWriter(cfg *config.Config, logger *logrus.Logger) *Writer {
	return &Writer{cfg: cfg, logger: logger}
}

func (w *Writer) reportPath(filename string) (string, error) {
	dir := w.cfg.Paths.ReportsDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}
	return filepath.Join(dir, filename), nil
}

// setRow writes one spreadsheet row, skipping nil values so empty cells
// stay empty instead of rendering a zero.
func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for i, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func floatCell(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func intCell(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// WritePriceReport exports the all-cities sale price table,
// one commune per row, sorted as the analyzer returned them.
func (w *Writer) WritePriceReport(rows []models.CityRow, year int) (string, error) {
	path, err := w.reportPath(fmt.Sprintf("analyse_idf_%d.xlsx", year))
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []interface{}{
		"Ville", "Département",
		"Prix moyen (€/m²)", "Prix médian (€/m²)", "Prix min (€/m²)", "Prix max (€/m²)",
		"Nb transactions", "Surface moyenne (m²)",
		"1 pièce", "2 pièces", "3 pièces", "4 pièces", "5 pièces et +",
		"Prix moyen appart (€/m²)", "Nb ventes appart",
		"Prix moyen maison (€/m²)", "Nb ventes maison",
	}
	if err := setRow(f, sheet, 1, headers); err != nil {
		return "", fmt.Errorf("failed to write headers: %w", err)
	}

	for i, city := range rows {
		values := []interface{}{
			city.Commune, city.DepartmentCode,
			city.MeanPriceM2, city.MedianPriceM2, city.MinPriceM2, city.MaxPriceM2,
			city.TransactionCount, city.MeanSurface,
			city.Rooms.One, city.Rooms.Two, city.Rooms.Three, city.Rooms.Four, city.Rooms.FivePlus,
			nil, nil, nil, nil,
		}
		if city.Apartments != nil {
			values[13] = city.Apartments.MeanPriceM2
			values[14] = city.Apartments.TransactionCount
		}
		if city.Houses != nil {
			values[15] = city.Houses.MeanPriceM2
			values[16] = city.Houses.TransactionCount
		}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return "", fmt.Errorf("failed to write row for %s: %w", city.Commune, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save price report: %w", err)
	}
	w.logger.Infof("Price report written to %s (%d cities)", path, len(rows))
	return path, nil
}

var rentDetailHeaders = []interface{}{
	"Commune", "Code INSEE", "Département", "EPCI",
	"Loyer moyen (€/m²)", "Loyer bas (€/m²)", "Loyer haut (€/m²)",
	"Type prédiction", "Nb obs. commune", "Nb obs. maille", "R² ajusté",
}

func rentDetailRow(ind models.RentIndicator) []interface{} {
	return []interface{}{
		ind.CommuneName, ind.INSEECode, ind.DepartmentCode, ind.EPCI,
		floatCell(ind.PredictedRent), floatCell(ind.RentLowerBound), floatCell(ind.RentUpperBound),
		ind.PredictionType, intCell(ind.CommuneObs), intCell(ind.ZoneObs), floatCell(ind.AdjustedR2),
	}
}

func writeRentSheet(f *excelize.File, sheet string, rows []models.RentIndicator) error {
	if err := setRow(f, sheet, 1, rentDetailHeaders); err != nil {
		return err
	}
	for i, ind := range rows {
		if err := setRow(f, sheet, i+2, rentDetailRow(ind)); err != nil {
			return err
		}
	}
	return nil
}

// WriteRentReport exports the rent indicator table with department
// statistics and top-20 extremes. The department stats sheet is skipped
// when the report is restricted to a single department.
func (w *Writer) WriteRentReport(rents *analysis.RentAnalyzer, year int, deptCode string) (string, error) {
	filename := fmt.Sprintf("analyse_loyers_idf_%d.xlsx", year)
	if deptCode != "" {
		filename = fmt.Sprintf("analyse_loyers_dept_%s_%d.xlsx", deptCode, year)
	}
	path, err := w.reportPath(filename)
	if err != nil {
		return "", err
	}

	table, err := rents.Table()
	if err != nil {
		return "", err
	}
	var detail []models.RentIndicator
	for _, ind := range table {
		if deptCode != "" && ind.DepartmentCode != deptCode {
			continue
		}
		detail = append(detail, ind)
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, "Données détaillées"); err != nil {
		return "", fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeRentSheet(f, "Données détaillées", detail); err != nil {
		return "", fmt.Errorf("failed to write detail sheet: %w", err)
	}

	if deptCode == "" {
		deptStats, err := rents.GetRegionStatistics()
		if err != nil {
			return "", err
		}
		if _, err := f.NewSheet("Stats par département"); err != nil {
			return "", fmt.Errorf("failed to create stats sheet: %w", err)
		}
		if err := writeDeptRentStats(f, "Stats par département", deptStats); err != nil {
			return "", fmt.Errorf("failed to write stats sheet: %w", err)
		}
	}

	topHigh, err := rents.GetTopCities(20, deptCode, "", false)
	if err != nil {
		return "", err
	}
	topLow, err := rents.GetTopCities(20, deptCode, "", true)
	if err != nil {
		return "", err
	}
	for _, top := range []struct {
		name string
		rows []models.RentIndicator
	}{
		{"Top 20 loyers élevés", topHigh},
		{"Top 20 loyers bas", topLow},
	} {
		if _, err := f.NewSheet(top.name); err != nil {
			return "", fmt.Errorf("failed to create sheet %q: %w", top.name, err)
		}
		if err := writeRentSheet(f, top.name, top.rows); err != nil {
			return "", fmt.Errorf("failed to write sheet %q: %w", top.name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save rent report: %w", err)
	}
	w.logger.Infof("Rent report written to %s (%d communes)", path, len(detail))
	return path, nil
}

func writeDeptRentStats(f *excelize.File, sheet string, stats []models.DepartmentRentStats) error {
	headers := []interface{}{
		"Code département", "Département", "Nb communes",
		"Loyer moyen (€/m²)", "Loyer médian (€/m²)", "Loyer min (€/m²)", "Loyer max (€/m²)",
		"Loyer bas moyen (€/m²)", "Loyer haut moyen (€/m²)", "Loyer annuel moyen (€/m²)",
	}
	if err := setRow(f, sheet, 1, headers); err != nil {
		return err
	}
	for i, st := range stats {
		values := []interface{}{
			st.DepartmentCode, st.DepartmentName, st.CommuneCount,
			st.MeanRent, st.MedianRent, st.MinRent, st.MaxRent,
			st.MeanLowerBound, st.MeanUpperBound, st.MeanRent * 12,
		}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

var combinedHeaders = []interface{}{
	"Commune", "Code INSEE", "Département", "Type de bien",
	"Prix vente moyen (€/m²)", "Prix vente min (€/m²)", "Prix vente max (€/m²)", "Nb transactions DVF",
	"Loyer moyen (€/m²/mois)", "Loyer bas (€/m²/mois)", "Loyer haut (€/m²/mois)", "Nb obs. loyers",
	"Rendement brut (%)", "Rendement bas (%)", "Rendement haut (%)",
	"R² ajusté loyers",
}

func combinedRow(row models.CombinedRow) []interface{} {
	return []interface{}{
		row.Commune, row.INSEECode, row.DepartmentCode, row.PropertyType,
		floatCell(row.MeanPriceM2), floatCell(row.MinPriceM2), floatCell(row.MaxPriceM2), intCell(row.TransactionCount),
		floatCell(row.MeanRentM2), floatCell(row.RentLowM2), floatCell(row.RentHighM2), intCell(row.RentObs),
		floatCell(row.GrossYieldPct), floatCell(row.LowYieldPct), floatCell(row.HighYieldPct),
		floatCell(row.RentR2),
	}
}

func writeCombinedSheet(f *excelize.File, sheet string, rows []models.CombinedRow) error {
	if err := setRow(f, sheet, 1, combinedHeaders); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, combinedRow(row)); err != nil {
			return err
		}
	}
	return nil
}

// WriteCombinedReport exports the price + rent + yield join: the full
// joined table, the 30 best yields, per-department rent statistics and
// the 30 highest rents.
func (w *Writer) WriteCombinedReport(combined *analysis.CombinedAnalyzer, dvfYear, rentYear int, deptCode string) (string, error) {
	deptSuffix := ""
	if deptCode != "" {
		deptSuffix = "_" + deptCode
	}
	path, err := w.reportPath(fmt.Sprintf("analyse_complete_dvf%d_loyers%d%s.xlsx", dvfYear, rentYear, deptSuffix))
	if err != nil {
		return "", err
	}

	rows, err := combined.AllCitiesCombined(deptCode)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		w.logger.Warn("No combined data to export")
		return "", fmt.Errorf("no combined data to export")
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, "Données combinées"); err != nil {
		return "", fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeCombinedSheet(f, "Données combinées", rows); err != nil {
		return "", fmt.Errorf("failed to write combined sheet: %w", err)
	}

	topYield, err := combined.BestYieldCities(30, deptCode)
	if err != nil {
		return "", err
	}
	if len(topYield) > 0 {
		if _, err := f.NewSheet("Top 30 rendements"); err != nil {
			return "", fmt.Errorf("failed to create yield sheet: %w", err)
		}
		if err := writeCombinedSheet(f, "Top 30 rendements", topYield); err != nil {
			return "", fmt.Errorf("failed to write yield sheet: %w", err)
		}
	}

	if deptCode == "" {
		deptStats, err := combined.Rents().GetRegionStatistics()
		if err != nil {
			w.logger.Warnf("Skipping department stats sheet: %v", err)
		} else if len(deptStats) > 0 {
			if _, err := f.NewSheet("Stats départements"); err != nil {
				return "", fmt.Errorf("failed to create stats sheet: %w", err)
			}
			if err := writeDeptRentStats(f, "Stats départements", deptStats); err != nil {
				return "", fmt.Errorf("failed to write stats sheet: %w", err)
			}
		}
	}

	topRent, err := combined.Rents().GetTopCities(30, deptCode, "", false)
	if err != nil {
		w.logger.Warnf("Skipping top rents sheet: %v", err)
	} else if len(topRent) > 0 {
		if _, err := f.NewSheet("Top 30 loyers"); err != nil {
			return "", fmt.Errorf("failed to create top rents sheet: %w", err)
		}
		if err := writeRentSheet(f, "Top 30 loyers", topRent); err != nil {
			return "", fmt.Errorf("failed to write top rents sheet: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save combined report: %w", err)
	}
	w.logger.Infof("Combined report written to %s (%d cities)", path, len(rows))
	return path, nil
}
