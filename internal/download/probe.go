package download

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"immoscan/config"
)

// Prober checks data source URLs for availability before a bulk download.
type Prober struct {
	logger *logrus.Logger
	client *http.Client
}

func NewProber(cfg *config.Config, logger *logrus.Logger) *Prober {
	return &Prober{
		logger: logger,
		client: &http.Client{Timeout: time.Duration(cfg.Download.ProbeTimeout) * time.Second},
	}
}

// CheckURL issues a HEAD request and returns the status code.
func (p *Prober) CheckURL(url string) (int, error) {
	resp, err := p.client.Head(url)
	if err != nil {
		p.logger.WithError(err).WithField("url", url).Warn("URL probe failed")
		return 0, err
	}
	defer resp.Body.Close()

	p.logger.WithFields(logrus.Fields{
		"url":    url,
		"status": resp.StatusCode,
	}).Debug("Probed URL")
	return resp.StatusCode, nil
}

// CheckDVFYear probes every department URL for a year and returns the
// codes of the departments whose file is reachable.
func (p *Prober) CheckDVFYear(urls config.URLConfig, year int) []string {
	var available []string
	for _, dept := range config.IDFDepartments {
		status, err := p.CheckURL(urls.DVFURL(year, dept.Code))
		if err == nil && status == http.StatusOK {
			available = append(available, dept.Code)
		}
	}
	return available
}
