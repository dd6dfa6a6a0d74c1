package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pataalerta/internal/model"
	"pataalerta/internal/query"
)

// MemoryStore is an in-process Store. It is used for tests and for running the
// gateway without a database. Fail makes every subsequent call return err.
type MemoryStore struct {
	mu      sync.RWMutex
	alerts  map[string]model.Alert
	reports []model.Report
	config  string
	err     error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{alerts: make(map[string]model.Alert)}
}

// Fail makes every call return err until Fail(nil).
func (m *MemoryStore) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func matches(a model.Alert, c query.Constraint) (bool, error) {
	switch c.Field {
	case query.FieldType:
		return string(a.Type) == c.Value, nil
	case query.FieldSpecies:
		return a.Species == c.Value, nil
	case query.FieldNeighborhood:
		return a.Neighborhood == c.Value, nil
	case query.FieldStatus:
		return string(a.Status) == c.Value, nil
	}
	return false, fmt.Errorf("%w: %s", ErrUnsupportedField, c.Field)
}

// newer orders alerts newest first, breaking ties by descending id.
func newer(a, b model.Alert) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func (m *MemoryStore) Query(_ context.Context, spec query.Spec) ([]model.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if spec.OrderBy != "" && spec.OrderBy != query.FieldCreatedAt {
		return nil, fmt.Errorf("%w: order by %s", ErrUnsupportedField, spec.OrderBy)
	}

	var out []model.Alert
	for _, a := range m.alerts {
		keep := true
		for _, c := range spec.Constraints {
			ok, err := matches(a, c)
			if err != nil {
				return nil, err
			}
			keep = keep && ok
		}
		if keep {
			out = append(out, a)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if spec.Descending {
			return newer(out[i], out[j])
		}
		return newer(out[j], out[i])
	})

	if spec.After != "" {
		at, id, err := spec.After.Decode()
		if err != nil {
			return nil, err
		}
		pivot := model.Alert{CreatedAt: at, ID: id}
		start := len(out)
		for i, a := range out {
			past := newer(pivot, a)
			if !spec.Descending {
				past = newer(a, pivot)
			}
			if past {
				start = i
				break
			}
		}
		out = out[start:]
	}

	if spec.Limit > 0 && len(out) > spec.Limit {
		out = out[:spec.Limit]
	}
	return out, nil
}

func (m *MemoryStore) GetAlert(_ context.Context, id string) (model.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return model.Alert{}, m.err
	}
	a, ok := m.alerts[id]
	if !ok {
		return model.Alert{}, ErrNotFound
	}
	return a, nil
}

func (m *MemoryStore) InsertAlert(_ context.Context, alert *model.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, exists := m.alerts[alert.ID]; exists {
		return fmt.Errorf("alert %s already exists", alert.ID)
	}
	m.alerts[alert.ID] = *alert
	return nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id string, status model.AlertStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	a, ok := m.alerts[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	m.alerts[id] = a
	return nil
}

func (m *MemoryStore) DeleteAlert(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.alerts, id)
	return nil
}

func (m *MemoryStore) CountByStatus(_ context.Context, status model.AlertStatus) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for _, a := range m.alerts {
		if a.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) ExpireBefore(_ context.Context, t time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for id, a := range m.alerts {
		if a.Status == model.StatusActive && a.ExpiresAt.Before(t) {
			a.Status = model.StatusExpired
			m.alerts[id] = a
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) InsertReport(_ context.Context, report *model.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.reports = append(m.reports, *report)
	return nil
}

func (m *MemoryStore) ListReports(_ context.Context) ([]model.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := append([]model.Report(nil), m.reports...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) ConfigDocument(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return "", m.err
	}
	if m.config == "" {
		return "", ErrNotFound
	}
	return m.config, nil
}

func (m *MemoryStore) SaveConfigDocument(_ context.Context, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.config = payload
	return nil
}
