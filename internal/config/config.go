package config

import "time"

type Config struct {
	Chromedp Chromedp `json:"chromedp" yaml:"chromedp"`
	Rod      Rod      `json:"rod" yaml:"rod"`
	Capture  Capture  `json:"capture" yaml:"capture"`
	Page     Page     `json:"page" yaml:"page"`
	Server   Server   `json:"server" yaml:"server"`
	Log      Log      `json:"log" yaml:"log"`
}

// Chromedp configures the capture session's browser.
type Chromedp struct {
	Bin                    string `json:"bin" yaml:"bin"`
	UserDataDir            string `json:"user_data_dir" yaml:"user_data_dir"`
	Headless               bool   `json:"headless" yaml:"headless"`
	NoSandbox              bool   `json:"no_sandbox" yaml:"no_sandbox"`
	DisableDevShmUsage     bool   `json:"disable_dev_shm_usage" yaml:"disable_dev_shm_usage"`
	UseGL                  string `json:"use_gl" yaml:"use_gl"`
	ViewportWidth          int    `json:"viewport_width" yaml:"viewport_width"`
	ViewportHeight         int    `json:"viewport_height" yaml:"viewport_height"`
	IdleEvent              string `json:"idle_event" yaml:"idle_event"`
	NavigateTimeoutSeconds int    `json:"navigate_timeout_seconds" yaml:"navigate_timeout_seconds"`
}

// Rod configures the browser launched by the GPU probe.
type Rod struct {
	Bin       string `json:"bin" yaml:"bin"`
	MacBin    string `json:"mac_bin" yaml:"mac_bin"`
	Headless  bool   `json:"headless" yaml:"headless"`
	NoSandbox bool   `json:"no_sandbox" yaml:"no_sandbox"`
	Leakless  bool   `json:"leakless" yaml:"leakless"`
	UseGL     string `json:"use_gl" yaml:"use_gl"`
}

type Capture struct {
	SettleSeconds           int      `json:"settle_seconds" yaml:"settle_seconds"`
	PrimaryTimeoutSeconds   int      `json:"primary_timeout_seconds" yaml:"primary_timeout_seconds"`
	SecondaryTimeoutSeconds int      `json:"secondary_timeout_seconds" yaml:"secondary_timeout_seconds"`
	ReadyTimeoutSeconds     int      `json:"ready_timeout_seconds" yaml:"ready_timeout_seconds"`
	PollIntervalMillis      int      `json:"poll_interval_millis" yaml:"poll_interval_millis"`
	Preflight               bool     `json:"preflight" yaml:"preflight"`
	PreflightSelectors      []string `json:"preflight_selectors" yaml:"preflight_selectors"`
}

// Page names the scripting surface exposed by the visualization page.
type Page struct {
	PrimaryDrawn        string `json:"primary_drawn" yaml:"primary_drawn"`
	PrimaryGeneration   string `json:"primary_generation" yaml:"primary_generation"`
	SecondaryDrawn      string `json:"secondary_drawn" yaml:"secondary_drawn"`
	SecondaryGeneration string `json:"secondary_generation" yaml:"secondary_generation"`
	InitSecondary       string `json:"init_secondary" yaml:"init_secondary"`
	StopAnimation       string `json:"stop_animation" yaml:"stop_animation"`
	CanvasData          string `json:"canvas_data" yaml:"canvas_data"`
	CurrentPrefix       string `json:"current_prefix" yaml:"current_prefix"`
	LoadNext            string `json:"load_next" yaml:"load_next"`
	DetectExpression    string `json:"detect_expression" yaml:"detect_expression"`
	ReadyExpression     string `json:"ready_expression" yaml:"ready_expression"`
	IndexParam          string `json:"index_param" yaml:"index_param"`
	CameraParam         string `json:"camera_param" yaml:"camera_param"`
}

type Server struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

type Log struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

func (c Chromedp) NavigateTimeout() time.Duration {
	return time.Duration(c.NavigateTimeoutSeconds) * time.Second
}

func (c Capture) Settle() time.Duration {
	return time.Duration(c.SettleSeconds) * time.Second
}

func (c Capture) PrimaryTimeout() time.Duration {
	return time.Duration(c.PrimaryTimeoutSeconds) * time.Second
}

func (c Capture) SecondaryTimeout() time.Duration {
	return time.Duration(c.SecondaryTimeoutSeconds) * time.Second
}

func (c Capture) ReadyTimeout() time.Duration {
	return time.Duration(c.ReadyTimeoutSeconds) * time.Second
}

func (c Capture) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMillis) * time.Millisecond
}
