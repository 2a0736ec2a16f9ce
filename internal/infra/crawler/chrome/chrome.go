package chrome

import (
	"context"

	"github.com/LouYuanbo1/vizcapture/internal/config"
	"github.com/sirupsen/logrus"
)

// Session 一个无头浏览器实例加一个页面,抓取流程期间独占
type Session interface {
	// Version is the resolved browser product string, e.g. HeadlessChrome/139.0.0.0.
	Version() string
	// Navigate loads url and returns once the page's network activity settles.
	// It does not wait for the visualization to render.
	Navigate(ctx context.Context, url string) error
	// Evaluate runs expression in the page and decodes its JSON value into res.
	// res may be nil when the value is not needed.
	Evaluate(ctx context.Context, expression string, res any) error
	// Close releases the browser. Safe to call more than once.
	Close()
}

// LaunchFunc starts a Session.
type LaunchFunc func(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (Session, error)

// ProbeBrowser is the single-page browser used by the GPU probe.
type ProbeBrowser interface {
	Version() (string, error)
	// EvalHTML loads html into a fresh page and evaluates js, a function
	// definition such as `() => detect()`, returning its JSON value.
	EvalHTML(ctx context.Context, html, js string) ([]byte, error)
	Close()
}

type ProbeLaunchFunc func(cfg config.Rod, log logrus.FieldLogger) (ProbeBrowser, error)
