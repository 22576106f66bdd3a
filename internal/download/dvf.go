package download

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"immoscan/config"
)

// DVFDownloader fetches DVF department files and caches the decompressed
// CSVs on disk.
type DVFDownloader struct {
	cfg    *config.Config
	logger *logrus.Logger
	client *http.Client
}

func NewDVFDownloader(cfg *config.Config, logger *logrus.Logger) *DVFDownloader {
	return &DVFDownloader{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: time.Duration(cfg.Download.DVFTimeout) * time.Second},
	}
}

// DepartmentFile returns the cache path for one department CSV.
func (d *DVFDownloader) DepartmentFile(dept string, year int) string {
	return filepath.Join(d.cfg.RawDataDir(), fmt.Sprintf("dvf_%d_%s.csv", year, dept))
}

// DownloadDepartment fetches the gzip CSV for one department and year,
// decompresses it into the raw data directory and returns the cache path.
// An existing cache file is reused. On failure the partially written file
// is removed and an error returned; callers iterating several departments
// are expected to continue with the next one.
func (d *DVFDownloader) DownloadDepartment(dept string, year int) (string, error) {
	outPath := d.DepartmentFile(dept, year)

	if _, err := os.Stat(outPath); err == nil {
		d.logger.Infof("File already cached: %s", outPath)
		return outPath, nil
	}

	if err := os.MkdirAll(d.cfg.RawDataDir(), 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	url := d.cfg.URLs.DVFURL(year, dept)
	d.logger.WithFields(logrus.Fields{
		"department": dept,
		"year":       year,
		"url":        url,
	}).Info("Downloading DVF department file")

	if err := d.fetchGzipCSV(url, outPath); err != nil {
		d.logger.WithError(err).Errorf("Failed to download department %s/%d", dept, year)
		os.Remove(outPath)
		return "", err
	}

	d.logger.Infof("Downloaded and decompressed: %s", outPath)
	return outPath, nil
}

func (d *DVFDownloader) fetchGzipCSV(url, outPath string) error {
	resp, err := d.client.Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer gz.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, gz); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// DownloadRegion fetches all Île-de-France departments for a year. A
// failed department is logged and skipped; the returned map holds the
// cache paths of the departments that succeeded.
func (d *DVFDownloader) DownloadRegion(year int) map[string]string {
	d.logger.Infof("Downloading DVF data for %d (Île-de-France)", year)

	files := make(map[string]string)
	for _, dept := range config.IDFDepartments {
		path, err := d.DownloadDepartment(dept.Code, year)
		if err != nil {
			continue
		}
		files[dept.Code] = path
	}

	d.logger.Infof("Downloaded %d/%d departments", len(files), len(config.IDFDepartments))
	return files
}
