package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/LouYuanbo1/vizcapture/internal/domain/entity"
	"github.com/LouYuanbo1/vizcapture/internal/domain/model"
	"github.com/LouYuanbo1/vizcapture/internal/infra/crawler/chrome"
	"github.com/sirupsen/logrus"
)

// Synchronizer waits for readiness conditions inside the page by polling.
type Synchronizer struct {
	session  chrome.Session
	interval time.Duration
	log      logrus.FieldLogger
}

func NewSynchronizer(session chrome.Session, interval time.Duration, log logrus.FieldLogger) *Synchronizer {
	return &Synchronizer{session: session, interval: interval, log: log}
}

// Mark snapshots cond's render generation before a trigger. Conditions
// without a generation expression mark 0.
func (s *Synchronizer) Mark(ctx context.Context, cond model.Condition) (int64, error) {
	if cond.Generation == "" {
		return 0, nil
	}
	var gen float64
	if err := s.session.Evaluate(ctx, generationExpr(cond.Generation), &gen); err != nil {
		return 0, fmt.Errorf("read %s generation: %w", cond.Name, err)
	}
	return int64(gen), nil
}

// WaitFor polls until cond's flag is true and, when cond has a generation,
// the generation has moved past since. It returns entity.ErrSyncTimeout once
// timeout elapses. Evaluation errors count as not ready.
func (s *Synchronizer) WaitFor(ctx context.Context, cond model.Condition, since int64, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	start := time.Now()
	polls := 0
	for {
		polls++
		ready, err := s.ready(ctx, cond, since)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.WithError(err).WithField("condition", cond.Name).Debug("poll failed")
		}
		if ready {
			s.log.WithFields(logrus.Fields{
				"condition": cond.Name,
				"polls":     polls,
				"elapsed":   time.Since(start).Round(time.Millisecond),
			}).Debug("condition ready")
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return fmt.Errorf("%w: %s not ready after %s (%d polls)", entity.ErrSyncTimeout, cond.Name, timeout, polls)
		case <-ticker.C:
		}
	}
}

func (s *Synchronizer) ready(ctx context.Context, cond model.Condition, since int64) (bool, error) {
	var drawn bool
	if err := s.session.Evaluate(ctx, flagExpr(cond.Flag), &drawn); err != nil {
		return false, err
	}
	if !drawn || cond.Generation == "" {
		return drawn, nil
	}
	var gen float64
	if err := s.session.Evaluate(ctx, generationExpr(cond.Generation), &gen); err != nil {
		return false, err
	}
	return int64(gen) > since, nil
}
