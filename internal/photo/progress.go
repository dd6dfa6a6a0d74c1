package photo

import "sync"

// Percent is upload progress in [0, 100].
type Percent int

// Clamp bounds p to [0, 100].
func (p Percent) Clamp() Percent {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// Observer receives progress updates. Values are non-decreasing and reach 100
// only when the upload is confirmed.
type Observer interface {
	OnProgress(p Percent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(p Percent)

func (f ObserverFunc) OnProgress(p Percent) { f(p) }

const (
	// PreparedPercent is reported once the file is validated and compressed.
	PreparedPercent Percent = 10
	// transferCeiling is the most a transfer can report before confirmation.
	transferCeiling Percent = 95
)

// tracker enforces monotonicity and the completion rule for one upload.
type tracker struct {
	mu     sync.Mutex
	obs    Observer
	last   Percent
	closed bool
}

func newTracker(obs Observer) *tracker {
	return &tracker{obs: obs, last: -1}
}

func (t *tracker) report(p Percent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.obs == nil || p <= t.last {
		return
	}
	t.last = p
	t.obs.OnProgress(p)
}

// transfer maps bytes sent onto the range between PreparedPercent and transferCeiling.
func (t *tracker) transfer(sent, total int64) {
	if total <= 0 {
		return
	}
	span := int64(transferCeiling - PreparedPercent)
	p := PreparedPercent + Percent(span*sent/total)
	if p > transferCeiling {
		p = transferCeiling
	}
	t.report(p.Clamp())
}

// complete reports 100 and stops further updates.
func (t *tracker) complete() {
	t.report(100)
	t.stop()
}

func (t *tracker) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}
