package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed appconfig/default.json
var defaultConfig []byte

// Default returns the embedded configuration.
func Default() (*Config, error) {
	return ParseConfig(defaultConfig)
}

func ParseConfig(byteConfig []byte) (*Config, error) {
	var cfg Config
	err := json.Unmarshal(byteConfig, &cfg)
	if err != nil {
		return nil, err
	}
	return normalize(&cfg)
}

// Load reads path over the embedded defaults. Keys missing from the file keep
// their default values. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(defaultConfig, &cfg); err != nil {
		return nil, fmt.Errorf("解析默认配置失败: %w", err)
	}
	if path == "" {
		return normalize(&cfg)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}
	return normalize(&cfg)
}

func normalize(cfg *Config) (*Config, error) {
	if cfg.Chromedp.UserDataDir != "" {
		absPath, err := filepath.Abs(cfg.Chromedp.UserDataDir)
		if err != nil {
			return nil, err
		}
		cfg.Chromedp.UserDataDir = absPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the capture loop cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Chromedp.ViewportWidth <= 0 || c.Chromedp.ViewportHeight <= 0 {
		errs = append(errs, fmt.Errorf("chromedp: viewport must be positive, got %dx%d",
			c.Chromedp.ViewportWidth, c.Chromedp.ViewportHeight))
	}
	if c.Chromedp.NavigateTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("chromedp: navigate_timeout_seconds must be positive"))
	}
	if c.Chromedp.IdleEvent == "" {
		errs = append(errs, errors.New("chromedp: idle_event is required"))
	}
	if c.Capture.SettleSeconds < 0 {
		errs = append(errs, errors.New("capture: settle_seconds must not be negative"))
	}
	if c.Capture.PrimaryTimeoutSeconds <= 0 || c.Capture.SecondaryTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("capture: render timeouts must be positive"))
	}
	if c.Capture.PollIntervalMillis <= 0 {
		errs = append(errs, errors.New("capture: poll_interval_millis must be positive"))
	}
	required := map[string]string{
		"primary_drawn":   c.Page.PrimaryDrawn,
		"secondary_drawn": c.Page.SecondaryDrawn,
		"init_secondary":  c.Page.InitSecondary,
		"stop_animation":  c.Page.StopAnimation,
		"canvas_data":     c.Page.CanvasData,
		"current_prefix":  c.Page.CurrentPrefix,
		"load_next":       c.Page.LoadNext,
	}
	for _, key := range []string{"primary_drawn", "secondary_drawn", "init_secondary",
		"stop_animation", "canvas_data", "current_prefix", "load_next"} {
		if strings.TrimSpace(required[key]) == "" {
			errs = append(errs, fmt.Errorf("page: %s is required", key))
		}
	}
	return errors.Join(errs...)
}
