package capture

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/LouYuanbo1/vizcapture/internal/config"
	"github.com/LouYuanbo1/vizcapture/internal/domain/entity"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Capture.SettleSeconds = 0
	cfg.Capture.PrimaryTimeoutSeconds = 1
	cfg.Capture.SecondaryTimeoutSeconds = 1
	cfg.Capture.PollIntervalMillis = 5
	return cfg
}

func itemURL(i int) string {
	return fmt.Sprintf("http://viz/index.html?index=%d&camera=cam%d", i, i)
}

// assign decodes v into res the way a CDP evaluation result would be.
func assign(v, res any) error {
	if res == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, res)
}

var filterArg = regexp.MustCompile(`load_next\((".*?"), true\)`)

// fakePage stands in for a browser showing the visualization page. The
// catalog is items, the current item is pos, and load_next wraps around
// like the real page does.
type fakePage struct {
	mu sync.Mutex

	items []string
	pos   int
	// surfaceReady is set by initialize_surface and cleared on navigation.
	surfaceReady bool

	failNavigate map[int]bool
	stuckSurface map[string]bool
	truncate     map[string]bool

	visited []string
	closed  int
}

func newFakePage(items ...string) *fakePage {
	return &fakePage{
		items:        items,
		failNavigate: map[int]bool{},
		stuckSurface: map[string]bool{},
		truncate:     map[string]bool{},
	}
}

func (p *fakePage) Version() string {
	return "HeadlessChrome/139.0.0.0"
}

func (p *fakePage) Navigate(ctx context.Context, rawURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", entity.ErrNavigate, err)
	}
	i, err := strconv.Atoi(u.Query().Get("index"))
	if err != nil || i < 0 || i >= len(p.items) {
		return fmt.Errorf("%w: no item at %s", entity.ErrNavigate, rawURL)
	}
	p.visited = append(p.visited, p.items[i])
	if p.failNavigate[i] {
		return fmt.Errorf("%w: net::ERR_CONNECTION_RESET", entity.ErrNavigate)
	}
	p.pos = i
	p.surfaceReady = false
	return nil
}

func (p *fakePage) Evaluate(ctx context.Context, expression string, res any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	prefix := p.items[p.pos]
	switch {
	case strings.Contains(expression, "load_next"):
		return assign(p.next(expression), res)
	case strings.Contains(expression, "get_canvas_data_json_object"):
		pixels := make([]byte, 16)
		for i := range pixels {
			pixels[i] = byte(i)
		}
		data := pixels
		if p.truncate[prefix] {
			data = pixels[:12]
		}
		return assign(map[string]any{
			"width":  2,
			"height": 2,
			"length": len(pixels),
			"data":   base64.StdEncoding.EncodeToString(data),
		}, res)
	case strings.Contains(expression, "initialize_surface"):
		if !p.stuckSurface[prefix] {
			p.surfaceReady = true
		}
		return assign(nil, res)
	case strings.Contains(expression, "stop_animation"):
		return assign(true, res)
	case strings.Contains(expression, "surface_drawn"):
		return assign(p.surfaceReady, res)
	case strings.Contains(expression, "voxels_drawn"):
		return assign(true, res)
	case strings.Contains(expression, "chosen_prefix"):
		return assign(prefix, res)
	case strings.Contains(expression, "detect_gpu"):
		return assign("WebGL 2.0", res)
	}
	return fmt.Errorf("ReferenceError: unknown expression %q", expression)
}

func (p *fakePage) next(expression string) map[string]any {
	filter := ""
	if m := filterArg.FindStringSubmatch(expression); m != nil {
		_ = json.Unmarshal([]byte(m[1]), &filter)
	}
	n := len(p.items)
	for step := 1; step <= n; step++ {
		i := (p.pos + step) % n
		if strings.Contains(p.items[i], filter) {
			return map[string]any{"present": true, "url": itemURL(i)}
		}
	}
	return map[string]any{"present": false, "url": ""}
}

func (p *fakePage) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
}

// funcSession answers every evaluation with eval.
type funcSession struct {
	eval func(expression string) (any, error)
}

func (s *funcSession) Version() string { return "HeadlessChrome/139.0.0.0" }

func (s *funcSession) Navigate(context.Context, string) error { return nil }

func (s *funcSession) Evaluate(ctx context.Context, expression string, res any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v, err := s.eval(expression)
	if err != nil {
		return err
	}
	return assign(v, res)
}

func (s *funcSession) Close() {}
