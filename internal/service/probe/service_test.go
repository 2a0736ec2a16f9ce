package probe

import (
	"context"
	"errors"
	"testing"

	"github.com/LouYuanbo1/vizcapture/internal/config"
	"github.com/LouYuanbo1/vizcapture/internal/domain/entity"
	"github.com/LouYuanbo1/vizcapture/internal/domain/model"
	"github.com/LouYuanbo1/vizcapture/internal/infra/crawler/chrome"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBrowser struct {
	version string
	result  string
	evalErr error

	html, js string
	closed   int
}

func (b *fakeBrowser) Version() (string, error) { return b.version, nil }

func (b *fakeBrowser) EvalHTML(_ context.Context, html, js string) ([]byte, error) {
	b.html, b.js = html, js
	if b.evalErr != nil {
		return nil, b.evalErr
	}
	return []byte(b.result), nil
}

func (b *fakeBrowser) Close() { b.closed++ }

func launcherFor(b *fakeBrowser, seen *config.Rod) chrome.ProbeLaunchFunc {
	return func(cfg config.Rod, _ logrus.FieldLogger) (chrome.ProbeBrowser, error) {
		if seen != nil {
			*seen = cfg
		}
		return b, nil
	}
}

func TestProbe(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		result string
		want   model.Renderer
	}{
		{
			name:   "gpu",
			result: `{"vendor":"NVIDIA Corporation","renderer":"Tesla P100-PCIE-16GB/PCIe/SSE2"}`,
			want: model.Renderer{
				Version:  "HeadlessChrome/139.0.0.0",
				Vendor:   "NVIDIA Corporation",
				Renderer: "Tesla P100-PCIE-16GB/PCIe/SSE2",
			},
		},
		{
			name:   "software",
			result: `{"vendor":"Google Inc. (Google)","renderer":"Google SwiftShader"}`,
			want: model.Renderer{
				Version:  "HeadlessChrome/139.0.0.0",
				Vendor:   "Google Inc. (Google)",
				Renderer: "Google SwiftShader",
			},
		},
		{
			name:   "no webgl",
			result: `{"vendor":"","renderer":"not supported"}`,
			want:   model.Renderer{Version: "HeadlessChrome/139.0.0.0", Renderer: model.RendererNotSupported},
		},
		{
			name:   "empty renderer",
			result: `{"vendor":"WebKit"}`,
			want:   model.Renderer{Version: "HeadlessChrome/139.0.0.0", Vendor: "WebKit", Renderer: model.RendererNotSupported},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			b := &fakeBrowser{version: "HeadlessChrome/139.0.0.0", result: tc.result}
			log, _ := test.NewNullLogger()

			got, err := InitProbeService(launcherFor(b, nil), config.Rod{}, log).Probe(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, 1, b.closed)
			assert.Equal(t, detectCall, b.js)
			assert.Contains(t, b.html, "function detect()")
		})
	}
}

func TestProbePassesRodConfig(t *testing.T) {
	t.Parallel()

	cfg, err := config.Default()
	require.NoError(t, err)
	rod := cfg.Rod
	rod.Bin = rod.MacBin

	var seen config.Rod
	b := &fakeBrowser{version: "Chrome/139.0.0.0", result: `{"renderer":"AMD Radeon Pro 560X OpenGL Engine"}`}
	log, _ := test.NewNullLogger()
	_, err = InitProbeService(launcherFor(b, &seen), rod, log).Probe(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome", seen.Bin)
	assert.Equal(t, "egl", seen.UseGL)
	assert.True(t, seen.NoSandbox)
}

func TestProbeLaunchFailure(t *testing.T) {
	t.Parallel()

	launch := func(config.Rod, logrus.FieldLogger) (chrome.ProbeBrowser, error) {
		return nil, errors.Join(entity.ErrLaunch, errors.New("fork/exec chrome: no such file or directory"))
	}
	log, _ := test.NewNullLogger()
	_, err := InitProbeService(launch, config.Rod{}, log).Probe(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrLaunch)
}

func TestProbeEvalFailureStillCloses(t *testing.T) {
	t.Parallel()

	b := &fakeBrowser{version: "HeadlessChrome/139.0.0.0", evalErr: errors.New("Runtime.evaluate: target closed")}
	log, _ := test.NewNullLogger()
	got, err := InitProbeService(launcherFor(b, nil), config.Rod{}, log).Probe(context.Background())
	require.Error(t, err)
	assert.Equal(t, "HeadlessChrome/139.0.0.0", got.Version)
	assert.Equal(t, 1, b.closed)
}
