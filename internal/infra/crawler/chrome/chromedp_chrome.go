package chrome

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LouYuanbo1/vizcapture/internal/config"
	"github.com/LouYuanbo1/vizcapture/internal/domain/entity"
	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

type chromedpSession struct {
	allocCtx        context.Context
	allocCtxFuc     context.CancelFunc
	pageCtx         context.Context
	pageCtxFuc      context.CancelFunc
	version         string
	idleEvent       string
	navigateTimeout time.Duration
	closeOnce       sync.Once
	log             logrus.FieldLogger
}

var _ LaunchFunc = LaunchChromedpSession

// LaunchChromedpSession starts a headless browser with one page. Any error is
// wrapped in entity.ErrLaunch and the partially started browser is released.
func LaunchChromedpSession(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Chromedp.Headless),
		chromedp.Flag("no-sandbox", cfg.Chromedp.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", cfg.Chromedp.DisableDevShmUsage),
	)
	if cfg.Chromedp.UseGL != "" {
		opts = append(opts, chromedp.Flag("use-gl", cfg.Chromedp.UseGL))
	}
	if cfg.Chromedp.Bin != "" {
		opts = append(opts, chromedp.ExecPath(cfg.Chromedp.Bin))
	}
	if cfg.Chromedp.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.Chromedp.UserDataDir))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	pageCtx, cancelPage := chromedp.NewContext(allocCtx)

	cs := &chromedpSession{
		allocCtx:        allocCtx,
		allocCtxFuc:     cancelAlloc,
		pageCtx:         pageCtx,
		pageCtxFuc:      cancelPage,
		idleEvent:       cfg.Chromedp.IdleEvent,
		navigateTimeout: cfg.Chromedp.NavigateTimeout(),
		log:             log,
	}

	// 第一次 Run 才会真正启动浏览器
	err := chromedp.Run(pageCtx,
		chromedp.EmulateViewport(int64(cfg.Chromedp.ViewportWidth), int64(cfg.Chromedp.ViewportHeight)),
		page.SetLifecycleEventsEnabled(true),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, product, _, _, _, err := browser.GetVersion().Do(ctx)
			if err != nil {
				return err
			}
			cs.version = product
			return nil
		}),
	)
	if err != nil {
		cs.Close()
		return nil, fmt.Errorf("%w: %w", entity.ErrLaunch, err)
	}
	log.WithField("version", cs.version).Info("browser launched")
	return cs, nil
}

func (cs *chromedpSession) Version() string {
	return cs.version
}

func (cs *chromedpSession) Close() {
	cs.closeOnce.Do(func() {
		// 先尝试优雅关闭浏览器,再取消上下文
		if err := chromedp.Cancel(cs.pageCtx); err != nil {
			cs.log.WithError(err).Debug("browser cancel")
		}
		cs.pageCtxFuc()
		cs.allocCtxFuc()
		cs.log.Info("browser closed")
	})
}

// actionContext derives a chromedp context from the page that is also
// cancelled with ctx.
func (cs *chromedpSession) actionContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var actionCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		actionCtx, cancel = context.WithTimeout(cs.pageCtx, timeout)
	} else {
		actionCtx, cancel = context.WithCancel(cs.pageCtx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return actionCtx, func() {
		stop()
		cancel()
	}
}

func (cs *chromedpSession) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := cs.actionContext(ctx, cs.navigateTimeout)
	defer cancel()

	idle := make(chan cdp.LoaderID, 16)
	chromedp.ListenTarget(navCtx, func(ev any) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok || e.Name != cs.idleEvent {
			return
		}
		select {
		case idle <- e.LoaderID:
		default:
		}
	})

	var loaderID cdp.LoaderID
	err := chromedp.Run(navCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, id, errorText, _, err := page.Navigate(url).Do(ctx)
		if err != nil {
			return err
		}
		if errorText != "" {
			return fmt.Errorf("page load error %s", errorText)
		}
		loaderID = id
		return nil
	}))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", entity.ErrNavigate, url, err)
	}
	// same-document navigation has no loader and no lifecycle events
	if loaderID == "" {
		return nil
	}

	for {
		select {
		case id := <-idle:
			if id == loaderID {
				cs.log.WithField("url", url).Debug("network idle")
				return nil
			}
		case <-navCtx.Done():
			return fmt.Errorf("%w: %s: waiting for %s: %w", entity.ErrNavigate, url, cs.idleEvent, navCtx.Err())
		}
	}
}

func (cs *chromedpSession) Evaluate(ctx context.Context, expression string, res any) error {
	evalCtx, cancel := cs.actionContext(ctx, 0)
	defer cancel()

	return chromedp.Run(evalCtx, chromedp.Evaluate(expression, res, awaitPromise))
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}
