package chrome

import (
	"context"
	"fmt"

	"github.com/LouYuanbo1/vizcapture/internal/config"
	"github.com/LouYuanbo1/vizcapture/internal/domain/entity"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

type rodBrowser struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	log      logrus.FieldLogger
}

var _ ProbeLaunchFunc = LaunchRodBrowser

func LaunchRodBrowser(cfg config.Rod, log logrus.FieldLogger) (ProbeBrowser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox).
		Leakless(cfg.Leakless)
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	// 选择 GL 后端: egl 使用硬件加速, swiftshader 为软件渲染
	if cfg.UseGL != "" {
		l = l.Set(flags.Flag("use-gl"), cfg.UseGL)
	}

	// Launch kills the process itself when the control URL cannot be read
	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrLaunch, err)
	}
	log.WithField("control_url", url).Debug("rod browser launched")

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("%w: connect: %w", entity.ErrLaunch, err)
	}
	return &rodBrowser{
		launcher: l,
		browser:  browser,
		log:      log,
	}, nil
}

func (rb *rodBrowser) Version() (string, error) {
	v, err := rb.browser.Version()
	if err != nil {
		return "", err
	}
	return v.Product, nil
}

func (rb *rodBrowser) EvalHTML(ctx context.Context, html, js string) ([]byte, error) {
	page, err := rb.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx)
	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("set content: %w", err)
	}
	res, err := page.Eval(js)
	if err != nil {
		return nil, err
	}
	return res.Value.MarshalJSON()
}

func (rb *rodBrowser) Close() {
	if err := rb.browser.Close(); err != nil {
		rb.log.WithError(err).Debug("rod browser close")
	}
	rb.launcher.Kill()
	rb.launcher.Cleanup()
}
