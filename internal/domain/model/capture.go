package model

// CatalogItem 数据集目录中的一项,Prefix 同时作为输出图片的文件名
type CatalogItem struct {
	Prefix string `json:"prefix"`
	Index  int    `json:"index"`
}

// CaptureJob 一次循环对应的抓取任务
type CaptureJob struct {
	Item CatalogItem `json:"item"`
	URL  string      `json:"url"`
	// CameraState is the serialized camera/threshold snapshot carried by URL,
	// nil when the URL does not carry one.
	CameraState *string `json:"camera_state,omitempty"`
}

// Condition is a readiness signal exposed by the page.
// Generation, when set, is an expression yielding a counter that increases
// once per completed render.
type Condition struct {
	Name       string
	Flag       string
	Generation string
}

// Renderer is what the GPU probe reports.
type Renderer struct {
	Version  string `json:"version"`
	Vendor   string `json:"vendor"`
	Renderer string `json:"renderer"`
}

// RendererNotSupported is reported when no WebGL context or debug info is available.
const RendererNotSupported = "not supported"
