package capture

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/LouYuanbo1/vizcapture/internal/config"
	"github.com/LouYuanbo1/vizcapture/internal/domain/entity"
	"github.com/LouYuanbo1/vizcapture/internal/domain/model"
	"github.com/LouYuanbo1/vizcapture/internal/infra/crawler/chrome"
	"github.com/sirupsen/logrus"
)

// Walker tracks the run's position in the catalog. The catalog itself lives
// in the page; the walker only asks the page for the next URL.
type Walker struct {
	session chrome.Session
	page    config.Page
	filter  string
	current model.CatalogItem
	// indexed reports whether current.Index came from a URL rather than
	// from counting.
	indexed bool
	log     logrus.FieldLogger
}

func NewWalker(session chrome.Session, page config.Page, filter string, log logrus.FieldLogger) *Walker {
	return &Walker{
		session: session,
		page:    page,
		filter:  filter,
		log:     log,
	}
}

func (w *Walker) Current() model.CatalogItem {
	return w.current
}

// Start positions the walker on the initial URL and returns its job.
func (w *Walker) Start(rawURL string) model.CaptureJob {
	job := model.CaptureJob{URL: rawURL}
	index, ok, camera := w.decode(rawURL)
	if ok {
		job.Item.Index = index
	}
	job.CameraState = camera
	w.current = job.Item
	w.indexed = ok
	return job
}

// Next asks the page for the next item after the current one whose prefix
// contains the filter. Items decoded at or before the current index mean
// the page wrapped around and are reported as exhausted.
func (w *Walker) Next(ctx context.Context) (entity.Next, error) {
	var res struct {
		Present bool   `json:"present"`
		URL     string `json:"url"`
	}
	if err := w.session.Evaluate(ctx, nextExpr(w.page.LoadNext, w.filter), &res); err != nil {
		return entity.Next{}, fmt.Errorf("%w: %w", entity.ErrCatalog, err)
	}
	if !res.Present {
		return entity.Exhausted(), nil
	}

	job := model.CaptureJob{
		URL:  res.URL,
		Item: model.CatalogItem{Index: w.current.Index + 1},
	}
	index, ok, camera := w.decode(res.URL)
	if ok {
		if w.indexed && index <= w.current.Index {
			w.log.WithFields(logrus.Fields{
				"current": w.current.Index,
				"next":    index,
			}).Info("catalog wrapped around")
			return entity.Exhausted(), nil
		}
		job.Item.Index = index
	}
	job.CameraState = camera
	return entity.Found(job), nil
}

// Advance moves the walker onto job once the page has navigated to it.
func (w *Walker) Advance(job model.CaptureJob) {
	_, ok, _ := w.decode(job.URL)
	w.current = job.Item
	w.indexed = ok
}

// Resolve reads the current item's prefix from the loaded page.
func (w *Walker) Resolve(ctx context.Context, job *model.CaptureJob) error {
	var prefix string
	if err := w.session.Evaluate(ctx, stringExpr(w.page.CurrentPrefix), &prefix); err != nil {
		return fmt.Errorf("read %s: %w", w.page.CurrentPrefix, err)
	}
	if prefix == "" || prefix == "undefined" || prefix == "null" {
		return errors.New("page has no current prefix")
	}
	job.Item.Prefix = prefix
	if w.current.Index == job.Item.Index {
		w.current.Prefix = prefix
	}
	return nil
}

// decode reads the catalog index and camera state carried by rawURL.
func (w *Walker) decode(rawURL string) (index int, ok bool, camera *string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, false, nil
	}
	q := u.Query()
	if w.page.IndexParam != "" && q.Has(w.page.IndexParam) {
		if n, err := strconv.Atoi(q.Get(w.page.IndexParam)); err == nil {
			index, ok = n, true
		}
	}
	if w.page.CameraParam != "" && q.Has(w.page.CameraParam) {
		v := q.Get(w.page.CameraParam)
		camera = &v
	}
	return index, ok, camera
}
