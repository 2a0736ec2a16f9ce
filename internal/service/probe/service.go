// Package probe reports which renderer a headless browser's WebGL context
// ends up on: a GPU, or software emulation such as SwiftShader.
package probe

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/LouYuanbo1/vizcapture/internal/config"
	"github.com/LouYuanbo1/vizcapture/internal/domain/model"
	"github.com/LouYuanbo1/vizcapture/internal/infra/crawler/chrome"
	"github.com/sirupsen/logrus"
)

//go:embed detect.html
var detectPage string

const detectCall = `() => detect()`

type ProbeService interface {
	Probe(ctx context.Context) (model.Renderer, error)
}

type probeService struct {
	launch chrome.ProbeLaunchFunc
	cfg    config.Rod
	log    logrus.FieldLogger
}

func InitProbeService(launch chrome.ProbeLaunchFunc, cfg config.Rod, log logrus.FieldLogger) ProbeService {
	return &probeService{launch: launch, cfg: cfg, log: log}
}

// Probe launches a browser with the capture GL flags, loads the detect page
// and reports the browser version with the unmasked renderer string.
func (ps *probeService) Probe(ctx context.Context) (model.Renderer, error) {
	browser, err := ps.launch(ps.cfg, ps.log)
	if err != nil {
		return model.Renderer{}, err
	}
	defer browser.Close()

	version, err := browser.Version()
	if err != nil {
		return model.Renderer{}, fmt.Errorf("read browser version: %w", err)
	}
	r := model.Renderer{Version: version}

	raw, err := browser.EvalHTML(ctx, detectPage, detectCall)
	if err != nil {
		return r, fmt.Errorf("evaluate detect page: %w", err)
	}
	var info struct {
		Vendor   string `json:"vendor"`
		Renderer string `json:"renderer"`
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return r, fmt.Errorf("decode detect result %s: %w", raw, err)
	}
	r.Vendor = info.Vendor
	r.Renderer = info.Renderer
	if r.Renderer == "" {
		r.Renderer = model.RendererNotSupported
	}
	ps.log.WithFields(logrus.Fields{
		"version": r.Version,
		"vendor":  r.Vendor,
	}).Debug("probe finished")
	return r, nil
}
