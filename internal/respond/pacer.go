package respond

import (
	"context"
	"time"
)

// Pacer enforces a minimum delay between consecutive protected operations,
// measured from the end of one operation to the start of the next. It never
// rejects work and does not delay the first operation.
//
// A Pacer is used from a single goroutine.
type Pacer struct {
	delay time.Duration
	extra time.Duration
	last  time.Time
}

// NewPacer returns a Pacer for the given delay. A delay <= 0 disables spacing.
func NewPacer(delay time.Duration) *Pacer {
	if delay < 0 {
		delay = 0
	}
	return &Pacer{delay: delay}
}

// Wait blocks until the next operation may start or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.last.IsZero() {
		return nil
	}
	gap := p.delay + p.extra
	p.extra = 0
	if gap <= 0 {
		return nil
	}
	remaining := time.Until(p.last.Add(gap))
	if remaining <= 0 {
		return nil
	}

	t := time.NewTimer(remaining)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done marks the end of a protected operation.
func (p *Pacer) Done() {
	p.last = time.Now()
}

// Extend adds d to the next wait only. Used when the upstream asks the
// client to slow down.
func (p *Pacer) Extend(d time.Duration) {
	if d > p.extra {
		p.extra = d
	}
}
