// Package pacer enforces a minimum interval between requests issued by
// the collection loop. The loop is strictly sequential (one request in
// flight at a time), so a fixed spacing wait is sufficient; no token
// bucket is needed.
package pacer

import (
	"context"
	"time"
)

// Pacer spaces calls at least interval apart.
type Pacer struct {
	interval time.Duration
	last     time.Time
	now      func() time.Time
	sleep    func(context.Context, time.Duration) error
}

// New creates a pacer with the given minimum inter-request interval.
func New(interval time.Duration) *Pacer {
	return &Pacer{
		interval: interval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Wait blocks until at least interval has passed since the previous
// request, or the context is cancelled. The first call returns
// immediately.
func (p *Pacer) Wait(ctx context.Context) error {
	if !p.last.IsZero() {
		if remaining := p.interval - p.now().Sub(p.last); remaining > 0 {
			if err := p.sleep(ctx, remaining); err != nil {
				return err
			}
		}
	}
	p.last = p.now()
	return nil
}

// Interval returns the configured spacing.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
