package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/LouYuanbo1/vizcapture/internal/config"
	"github.com/LouYuanbo1/vizcapture/internal/domain/model"
	"github.com/LouYuanbo1/vizcapture/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/vizcapture/internal/service/capture/param"
	"github.com/sirupsen/logrus"
)

type CaptureService interface {
	// Run walks the catalog from params.InitialURL and writes one frame per
	// item. Per-item failures are recorded in the summary; only a failed
	// initial navigation is returned as an error.
	Run(ctx context.Context, params *param.Capture) (*model.Summary, error)
}

type FramePersister interface {
	Persist(frame model.Frame, name string) (string, error)
}

type captureService struct {
	session   chrome.Session
	persister FramePersister
	cfg       *config.Config
	sync      *Synchronizer
	extractor *Extractor
	primary   model.Condition
	secondary model.Condition
	log       logrus.FieldLogger
}

func InitCaptureService(
	session chrome.Session,
	persister FramePersister,
	cfg *config.Config,
	log logrus.FieldLogger,
) CaptureService {
	return &captureService{
		session:   session,
		persister: persister,
		cfg:       cfg,
		sync:      NewSynchronizer(session, cfg.Capture.PollInterval(), log),
		extractor: NewExtractor(session, cfg.Page.CanvasData, log),
		primary: model.Condition{
			Name:       "primary view",
			Flag:       cfg.Page.PrimaryDrawn,
			Generation: cfg.Page.PrimaryGeneration,
		},
		secondary: model.Condition{
			Name:       "secondary view",
			Flag:       cfg.Page.SecondaryDrawn,
			Generation: cfg.Page.SecondaryGeneration,
		},
		log: log,
	}
}

// Execute launches a session, runs the capture loop and releases the
// session on every exit path.
func Execute(
	ctx context.Context,
	launch chrome.LaunchFunc,
	persister FramePersister,
	cfg *config.Config,
	params *param.Capture,
	log logrus.FieldLogger,
) (*model.Summary, error) {
	session, err := launch(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	log.Info(session.Version())
	return InitCaptureService(session, persister, cfg, log).Run(ctx, params)
}

func (cs *captureService) Run(ctx context.Context, params *param.Capture) (*model.Summary, error) {
	cs.log.Infof("Starting with %s capture frames and put them in %s up to %d (no limit if limit<=0).",
		params.InitialURL, params.OutputDir, params.Limit)

	summary := &model.Summary{}
	var state model.RunState
	walker := NewWalker(cs.session, cs.cfg.Page, params.Filter, cs.log)

	job := walker.Start(params.InitialURL)
	if err := cs.session.Navigate(ctx, job.URL); err != nil {
		summary.Add(model.ItemResult{Item: job.Item, URL: job.URL, Stage: model.StageNavigate, Err: err})
		summary.Reason = model.StopNavigation
		return summary, fmt.Errorf("initial navigation: %w", err)
	}
	cs.detect(ctx)

	loaded := true
	if err := cs.settle(ctx); err != nil {
		state.Stop(model.StopCancelled)
	}
	for !state.Stopped {
		if ctx.Err() != nil {
			state.Stop(model.StopCancelled)
			break
		}

		if loaded {
			result := cs.captureOne(ctx, walker, &job, state.Count)
			summary.Add(result)
			state.Current = job.Item
			if result.OK() {
				state.Count++
				cs.log.Infof("scraper at %d wrote %s", state.Count, result.Path)
			} else {
				cs.log.WithFields(logrus.Fields{
					"index":  job.Item.Index,
					"prefix": job.Item.Prefix,
					"stage":  result.Stage,
				}).WithError(result.Err).Error("capture failed, skipping item")
			}
		}

		if params.Limit > 0 && state.Count >= params.Limit {
			state.Stop(model.StopLimit)
			break
		}

		next, err := walker.Next(ctx)
		if err != nil {
			cs.log.WithError(err).Error("scraper: cannot advance catalog")
			if ctx.Err() != nil {
				state.Stop(model.StopCancelled)
			} else {
				state.Stop(model.StopCatalogError)
			}
			break
		}
		if !next.IsFound() {
			cs.log.Infof("scraper: no next url at %d", state.Count)
			state.Stop(model.StopExhausted)
			break
		}
		// the page did not leave the item that failed to load, so it
		// offers the same URL again
		if !loaded && next.Job.URL == job.URL {
			cs.log.WithField("url", job.URL).Error("scraper: catalog stuck on an item that failed to load")
			state.Stop(model.StopNavigation)
			break
		}

		job = next.Job
		cs.log.Infof("scraper loading next url and sleeping: %s", job.URL)
		if err := cs.session.Navigate(ctx, job.URL); err != nil {
			summary.Add(model.ItemResult{Item: job.Item, URL: job.URL, Stage: model.StageNavigate, Err: err})
			cs.log.WithField("index", job.Item.Index).WithError(err).Error("navigation failed, skipping item")
			loaded = false
			continue
		}
		walker.Advance(job)
		loaded = true
		if err := cs.settle(ctx); err != nil {
			state.Stop(model.StopCancelled)
		}
	}

	summary.Reason = state.Reason
	cs.log.WithField("reason", state.Reason).Infof("Scraper done at count %d", state.Count)
	return summary, nil
}

// captureOne runs one job through the render/extract/persist steps.
func (cs *captureService) captureOne(ctx context.Context, walker *Walker, job *model.CaptureJob, count int) model.ItemResult {
	fail := func(stage model.Stage, err error) model.ItemResult {
		return model.ItemResult{Item: job.Item, URL: job.URL, Stage: stage, Err: err}
	}
	capCfg := cs.cfg.Capture
	page := cs.cfg.Page

	if err := cs.sync.WaitFor(ctx, cs.primary, 0, capCfg.PrimaryTimeout()); err != nil {
		return fail(model.StageSyncPrimary, err)
	}
	if err := walker.Resolve(ctx, job); err != nil {
		return fail(model.StageResolve, err)
	}
	cs.log.Infof("at %d scraping prefix %s", count, job.Item.Prefix)

	mark, err := cs.sync.Mark(ctx, cs.secondary)
	if err != nil {
		return fail(model.StageTrigger, err)
	}
	if err := cs.session.Evaluate(ctx, page.InitSecondary, nil); err != nil {
		return fail(model.StageTrigger, err)
	}
	if err := cs.sync.WaitFor(ctx, cs.secondary, mark, capCfg.SecondaryTimeout()); err != nil {
		return fail(model.StageSyncSecondary, err)
	}
	if err := cs.session.Evaluate(ctx, page.StopAnimation, nil); err != nil {
		return fail(model.StageFreeze, err)
	}

	cs.log.Info("scraper: now getting canvas data")
	frame, err := cs.extractor.Capture(ctx)
	if err != nil {
		return fail(model.StageExtract, err)
	}
	path, err := cs.persister.Persist(frame, job.Item.Prefix)
	if err != nil {
		return fail(model.StagePersist, err)
	}
	return model.ItemResult{Item: job.Item, URL: job.URL, Stage: model.StageDone, Path: path}
}

// settle waits the fixed settle interval, then the optional readiness
// handshake. Only cancellation is reported.
func (cs *captureService) settle(ctx context.Context) error {
	if d := cs.cfg.Capture.Settle(); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	if cs.cfg.Page.ReadyExpression == "" {
		return nil
	}
	ready := model.Condition{Name: "page ready", Flag: cs.cfg.Page.ReadyExpression}
	if err := cs.sync.WaitFor(ctx, ready, 0, cs.cfg.Capture.ReadyTimeout()); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		cs.log.WithError(err).Warn("page readiness handshake failed")
	}
	return nil
}

func (cs *captureService) detect(ctx context.Context) {
	if cs.cfg.Page.DetectExpression == "" {
		return
	}
	var engine string
	if err := cs.session.Evaluate(ctx, stringExpr(cs.cfg.Page.DetectExpression), &engine); err != nil {
		cs.log.WithError(err).Debug("webgl engine detection unavailable")
		return
	}
	cs.log.Infof("Scraper webgl engine detected: %s", engine)
}
