package download

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"immoscan/config"
)

// ErrNoURLConfigured is returned when no rent source URL exists for the
// requested year. A foreseeable operator mistake, reported rather than
// panicked on.
var ErrNoURLConfigured = errors.New("no rent data URL configured for this year")

// RentDownloader fetches Carte des loyers CSV files and caches them on
// disk, one file per property type for split vintages.
type RentDownloader struct {
	cfg    *config.Config
	logger *logrus.Logger
	client *http.Client
}

func NewRentDownloader(cfg *config.Config, logger *logrus.Logger) *RentDownloader {
	return &RentDownloader{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: time.Duration(cfg.Download.RentTimeout) * time.Second},
	}
}

// RentFile returns the cache path for one vintage and property type tag.
// The single-file vintages use the bare name without a type suffix.
func (r *RentDownloader) RentFile(year int, propertyType string) string {
	name := fmt.Sprintf("carte_loyers_%d.csv", year)
	if propertyType != "" && propertyType != config.RentTypeAll {
		name = fmt.Sprintf("carte_loyers_%d_%s.csv", year, propertyType)
	}
	return filepath.Join(r.cfg.RawDataDir(), name)
}

// Download fetches the rent indicator file(s) for a year. The source is
// resolved in priority order: the explicit override argument, then the
// configured URLs. The returned map is keyed by property type tag. Unlike
// the DVF batch, a failed file fails the whole rent download: the split
// vintages are only usable as a pair.
func (r *RentDownloader) Download(year int, override *config.RentSource, force bool) (map[string]string, error) {
	var src config.RentSource
	switch {
	case override != nil:
		src = *override
		r.logger.Info("Using caller-supplied rent URL(s)")
	default:
		configured, ok := r.cfg.URLs.RentURLs(year)
		if !ok {
			r.logger.Errorf("No rent URL configured for %d; add it to urls.toml or pass one explicitly", year)
			return nil, fmt.Errorf("year %d: %w", year, ErrNoURLConfigured)
		}
		src = configured
	}

	if err := os.MkdirAll(r.cfg.RawDataDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	files := make(map[string]string)
	if src.IsSplit() {
		for propertyType, url := range src.PerType {
			outPath := r.RentFile(year, propertyType)
			if err := r.fetchFile(url, outPath, force); err != nil {
				return nil, fmt.Errorf("failed to download %s rents for %d: %w", propertyType, year, err)
			}
			files[propertyType] = outPath
		}
		return files, nil
	}

	outPath := r.RentFile(year, "")
	if err := r.fetchFile(src.Single, outPath, force); err != nil {
		return nil, fmt.Errorf("failed to download rents for %d: %w", year, err)
	}
	files[config.RentTypeAll] = outPath
	return files, nil
}

func (r *RentDownloader) fetchFile(url, outPath string, force bool) error {
	if !force {
		if _, err := os.Stat(outPath); err == nil {
			r.logger.Infof("File already cached: %s", outPath)
			return nil
		}
	}

	r.logger.WithField("url", url).Info("Downloading rent indicator file")

	resp, err := r.client.Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(outPath)
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(outPath)
		return err
	}

	r.logger.Infof("Downloaded: %s", outPath)
	return nil
}
