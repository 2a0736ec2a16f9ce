package param

// Capture 一次抓取运行的参数
type Capture struct {
	InitialURL string `json:"initial_url"`
	OutputDir  string `json:"output_dir"`
	// Limit is the maximum number of frames to write, unbounded when <= 0.
	Limit int `json:"limit"`
	// Filter restricts catalog items to prefixes containing it. Empty matches all.
	Filter string `json:"filter"`
}
