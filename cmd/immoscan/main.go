package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"immoscan/config"
	"immoscan/internal/analysis"
	"immoscan/internal/cleaner"
	"immoscan/internal/database"
	"immoscan/internal/dataset"
	"immoscan/internal/download"
	"immoscan/internal/models"
	"immoscan/internal/report"
)

const urlOverrideFile = "urls.toml"

func main() {
	// A missing .env is fine, the environment may be set directly.
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(urlOverrideFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	switch os.Args[1] {
	case "download":
		err = runDownload(cfg, logger, os.Args[2:])
	case "clean":
		err = runClean(cfg, logger, os.Args[2:])
	case "analyze":
		err = runAnalyze(cfg, logger, os.Args[2:])
	case "rents":
		err = runRents(cfg, logger, os.Args[2:])
	case "combined":
		err = runCombined(cfg, logger, os.Args[2:])
	case "pipeline":
		err = runPipeline(cfg, logger, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		if errors.Is(err, database.ErrMissingData) || errors.Is(err, dataset.ErrNoRawData) {
			logger.WithError(err).Error("Missing input data")
			fmt.Fprintln(os.Stderr, "Run the earlier steps first: immoscan download -year N, then immoscan clean -year N")
		} else if errors.Is(err, dataset.ErrNoRentData) {
			logger.WithError(err).Error("Missing rent data")
			fmt.Fprintln(os.Stderr, "Run immoscan rents -year N first")
		} else {
			logger.WithError(err).Error("Command failed")
		}
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: immoscan <command> [flags]

Commands:
  download   Download DVF transaction files for Île-de-France
  clean      Clean raw transactions and store the yearly snapshot
  analyze    Compute per-commune price statistics and export the report
  rents      Download rent indicators and export the rent report
  combined   Join prices and rents, compute yields, export the report
  pipeline   Run download, clean, analyze, rents and combined in order

Run 'immoscan <command> -h' for command flags.
`)
}

func runDownload(cfg *config.Config, logger *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	year := fs.Int("year", 2023, "transaction vintage to download")
	check := fs.Bool("check", false, "probe the source URLs without downloading")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *check {
		prober := download.NewProber(cfg, logger)
		available := prober.CheckDVFYear(cfg.URLs, *year)
		logger.Infof("%d/%d department URLs reachable for %d", len(available), len(config.IDFDepartments), *year)
		if len(available) == 0 {
			return fmt.Errorf("no reachable DVF source for %d", *year)
		}
		return nil
	}

	dl := download.NewDVFDownloader(cfg, logger)
	files := dl.DownloadRegion(*year)
	if len(files) == 0 {
		return fmt.Errorf("no department file downloaded for %d", *year)
	}
	logger.Infof("Downloaded %d department files for %d", len(files), *year)
	return nil
}

func runClean(cfg *config.Config, logger *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	year := fs.Int("year", 2023, "transaction vintage to clean")
	if err := fs.Parse(args); err != nil {
		return err
	}

	raw, err := dataset.LoadRawTransactions(cfg, logger, *year)
	if err != nil {
		return err
	}

	cleaned := cleaner.New(cfg, logger).Clean(raw)

	store := database.NewStore(cfg, logger)
	if err := store.SaveCleaned(*year, cleaned); err != nil {
		return err
	}
	logger.Infof("Cleaned snapshot for %d saved (%d transactions)", *year, len(cleaned))
	return nil
}

func runAnalyze(cfg *config.Config, logger *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	year := fs.Int("year", 2023, "transaction vintage to analyze")
	top := fs.Int("top", 10, "number of communes to print")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store := database.NewStore(cfg, logger)
	rows, err := store.LoadCleaned(*year)
	if err != nil {
		return err
	}

	analyzer := analysis.NewPriceAnalyzer(rows, logger)
	allCities := analyzer.AnalyzeAllCities()
	if len(allCities) == 0 {
		return fmt.Errorf("no commune statistics computed for %d", *year)
	}

	printTopCities(allCities, *top, *year)

	path, err := report.NewWriter(cfg, logger).WritePriceReport(allCities, *year)
	if err != nil {
		return err
	}
	logger.Infof("Analysis complete, report at %s", path)
	return nil
}

func printTopCities(rows []models.CityRow, top, year int) {
	if top < 0 {
		top = 0
	}
	if top > len(rows) {
		top = len(rows)
	}
	fmt.Printf("\nTop %d des villes les plus chères (%d):\n", top, year)
	fmt.Println(strings.Repeat("=", 76))
	fmt.Printf("%-30s %-12s %15s %12s\n", "Ville", "Département", "Prix moyen/m²", "Transactions")
	fmt.Println(strings.Repeat("=", 76))
	for _, row := range rows[:top] {
		fmt.Printf("%-30s %-12s %13.0f € %12d\n", row.Commune, row.DepartmentCode, row.MeanPriceM2, row.TransactionCount)
	}
	fmt.Println(strings.Repeat("=", 76))
}

func runRents(cfg *config.Config, logger *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("rents", flag.ExitOnError)
	year := fs.Int("year", 2024, "rent indicator vintage")
	dept := fs.String("dept", "", "restrict to one department code")
	force := fs.Bool("force", false, "re-download even when files are cached")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dl := download.NewRentDownloader(cfg, logger)
	if _, err := dl.Download(*year, nil, *force); err != nil {
		return err
	}

	analyzer := analysis.NewRentAnalyzer(cfg, logger, *year)
	path, err := report.NewWriter(cfg, logger).WriteRentReport(analyzer, *year, *dept)
	if err != nil {
		return err
	}
	logger.Infof("Rent analysis complete, report at %s", path)
	return nil
}

func runCombined(cfg *config.Config, logger *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("combined", flag.ExitOnError)
	year := fs.Int("year", 2023, "transaction vintage")
	rentYear := fs.Int("rent-year", 2024, "rent indicator vintage")
	dept := fs.String("dept", "", "restrict to one department code")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store := database.NewStore(cfg, logger)
	rows, err := store.LoadCleaned(*year)
	if err != nil {
		return err
	}

	prices := analysis.NewPriceAnalyzer(rows, logger)
	rents := analysis.NewRentAnalyzer(cfg, logger, *rentYear)
	combined := analysis.NewCombinedAnalyzer(prices, rents, logger)

	path, err := report.NewWriter(cfg, logger).WriteCombinedReport(combined, *year, *rentYear, *dept)
	if err != nil {
		return err
	}
	logger.Infof("Combined analysis complete, report at %s", path)
	return nil
}

func runPipeline(cfg *config.Config, logger *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("pipeline", flag.ExitOnError)
	year := fs.Int("year", 2023, "transaction vintage")
	rentYear := fs.Int("rent-year", 2024, "rent indicator vintage")
	if err := fs.Parse(args); err != nil {
		return err
	}

	yearArg := fmt.Sprintf("-year=%d", *year)
	rentYearArg := fmt.Sprintf("-rent-year=%d", *rentYear)

	steps := []struct {
		name string
		run  func() error
	}{
		{"download", func() error { return runDownload(cfg, logger, []string{yearArg}) }},
		{"clean", func() error { return runClean(cfg, logger, []string{yearArg}) }},
		{"analyze", func() error { return runAnalyze(cfg, logger, []string{yearArg}) }},
		{"rents", func() error { return runRents(cfg, logger, []string{fmt.Sprintf("-year=%d", *rentYear)}) }},
		{"combined", func() error { return runCombined(cfg, logger, []string{yearArg, rentYearArg}) }},
	}
	for _, step := range steps {
		logger.Infof("Pipeline step: %s", step.name)
		if err := step.run(); err != nil {
			return fmt.Errorf("pipeline step %s failed: %w", step.name, err)
		}
	}
	logger.Info("Pipeline finished")
	return nil
}
