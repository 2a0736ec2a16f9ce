package collector

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

// ErrUnsupportedScheme is returned for pages colly cannot fetch, such as file:// URLs.
var ErrUnsupportedScheme = errors.New("preflight: unsupported url scheme")

type collyPreflight struct {
	selectors []string
	timeout   time.Duration
	log       logrus.FieldLogger
}

func InitCollyPreflight(selectors []string, timeout time.Duration, log logrus.FieldLogger) Preflight {
	return &collyPreflight{
		selectors: selectors,
		timeout:   timeout,
		log:       log,
	}
}

func (cp *collyPreflight) Check(ctx context.Context, pageURL string) (*Report, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("preflight: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}

	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.IgnoreRobotsTxt(),
		colly.AllowURLRevisit(),
	)
	if cp.timeout > 0 {
		c.SetRequestTimeout(cp.timeout)
	}

	report := &Report{URL: pageURL}
	var visitErr error
	c.OnResponse(func(r *colly.Response) {
		report.StatusCode = r.StatusCode
	})
	c.OnHTML("html", func(e *colly.HTMLElement) {
		for _, sel := range cp.selectors {
			if e.DOM.Find(sel).Length() > 0 {
				report.Found = append(report.Found, sel)
			} else {
				report.Missing = append(report.Missing, sel)
			}
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		report.StatusCode = r.StatusCode
		visitErr = err
	})

	if err := c.Visit(pageURL); err != nil && visitErr == nil {
		visitErr = err
	}
	if visitErr != nil {
		return report, fmt.Errorf("preflight: %s: %w", pageURL, visitErr)
	}
	cp.log.WithFields(logrus.Fields{
		"url":     pageURL,
		"status":  report.StatusCode,
		"missing": report.Missing,
	}).Debug("preflight done")
	return report, nil
}
