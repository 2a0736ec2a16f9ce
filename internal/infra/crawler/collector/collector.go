package collector

import "context"

// Report is what a preflight fetch of the visualization page found.
type Report struct {
	URL        string
	StatusCode int
	Found      []string
	Missing    []string
}

// Preflight 在启动浏览器之前检查可视化页面是否可访问
type Preflight interface {
	Check(ctx context.Context, url string) (*Report, error)
}
