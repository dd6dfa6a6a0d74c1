// Package quota enforces the per-device daily submission limit using only
// device-local storage. It fails open: when storage is unusable nothing is blocked.
package quota

import (
	"log"
	"strconv"
	"strings"
	"time"

	"pataalerta/internal/kv"
)

const (
	// KeyPrefix prefixes one counter key per local calendar date.
	KeyPrefix = "pataalerta_alerts_"

	dateLayout = "2006-01-02"
	// Counters for dates more than this many days back are swept.
	retentionDays = 2
)

// Limiter counts submissions per local calendar day.
type Limiter struct {
	store kv.Store
	now   func() time.Time
	loc   *time.Location
}

// Option customises a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithLocation sets the zone that decides where a calendar day starts.
func WithLocation(loc *time.Location) Option {
	return func(l *Limiter) { l.loc = loc }
}

// New creates a Limiter over store.
func New(store kv.Store, opts ...Option) *Limiter {
	l := &Limiter{store: store, now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) today() time.Time {
	return l.now().In(l.loc)
}

func keyFor(t time.Time) string {
	return KeyPrefix + t.Format(dateLayout)
}

// Count returns today's submission count; a missing or unreadable counter is zero.
func (l *Limiter) Count() int {
	raw, found, err := l.store.Get(keyFor(l.today()))
	if err != nil || !found {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// HasReachedDailyLimit reports whether today's count is at or above limit.
func (l *Limiter) HasReachedDailyLimit(limit int) bool {
	return l.Count() >= limit
}

// RecordSubmission increments today's counter and sweeps stale counters.
func (l *Limiter) RecordSubmission() {
	now := l.today()
	key := keyFor(now)
	if err := l.store.Set(key, strconv.Itoa(l.Count()+1)); err != nil {
		log.Printf("quota: failed to record submission: %v", err)
		return
	}
	l.sweep(now)
}

func (l *Limiter) sweep(now time.Time) {
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, l.loc)
	keys, err := l.store.Keys(KeyPrefix)
	if err != nil {
		return
	}
	for _, key := range keys {
		day, err := time.ParseInLocation(dateLayout, strings.TrimPrefix(key, KeyPrefix), l.loc)
		if err != nil {
			continue
		}
		if day.AddDate(0, 0, retentionDays).Before(todayStart) {
			if err := l.store.Delete(key); err != nil {
				log.Printf("quota: failed to delete stale counter %s: %v", key, err)
			}
		}
	}
}
