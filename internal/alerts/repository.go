// Package alerts is the façade the UI talks to. Every operation resolves to a
// structured result; store failures never escape as raw errors.
package alerts

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pataalerta/internal/failure"
	"pataalerta/internal/metrics"
	"pataalerta/internal/model"
	"pataalerta/internal/query"
	"pataalerta/internal/store"
)

const (
	// DefaultExpirationDays is how long a new alert stays active.
	DefaultExpirationDays = 30
	DefaultPageSize       = 12
	RecentLimit           = 6
)

// DeviceIdentifier supplies the id stamped on new alerts.
type DeviceIdentifier interface {
	DeviceID() string
}

// Quota is the per-device daily submission counter.
type Quota interface {
	HasReachedDailyLimit(limit int) bool
	RecordSubmission()
}

// Notifier is told about every alert that was published.
type Notifier interface {
	Dispatch(alertID string)
}

type Result struct {
	Success bool             `json:"success"`
	Failure *failure.Failure `json:"failure,omitempty"`
}

type CreateResult struct {
	Success bool             `json:"success"`
	ID      string           `json:"id,omitempty"`
	Failure *failure.Failure `json:"failure,omitempty"`
}

// Page is one page of the feed. Cursor points at the last record in Records.
type Page struct {
	Records []model.Alert    `json:"records"`
	Cursor  query.Cursor     `json:"cursor,omitempty"`
	HasMore bool             `json:"hasMore"`
	Failure *failure.Failure `json:"failure,omitempty"`
}

type Stats struct {
	Active   int64 `json:"active"`
	Resolved int64 `json:"resolved"`
}

type Repository struct {
	store          store.Store
	identity       DeviceIdentifier
	quota          Quota
	notifier       Notifier
	metrics        *metrics.Metrics
	now            func() time.Time
	expirationDays int
}

type Option func(*Repository)

func WithNotifier(n Notifier) Option {
	return func(r *Repository) { r.notifier = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Repository) { r.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithExpirationDays overrides DefaultExpirationDays. Non-positive values are ignored.
func WithExpirationDays(days int) Option {
	return func(r *Repository) {
		if days > 0 {
			r.expirationDays = days
		}
	}
}

// NewRepository builds the façade. A nil store behaves as an unconfigured
// backend: reads come back empty and writes fail with ConfigurationUnavailable.
func NewRepository(st store.Store, identity DeviceIdentifier, quota Quota, opts ...Option) *Repository {
	r := &Repository{
		store:          st,
		identity:       identity,
		quota:          quota,
		now:            time.Now,
		expirationDays: DefaultExpirationDays,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func unconfigured() *failure.Failure {
	return failure.Unconfigured("The database is not configured.")
}

// storeFailure turns a store error into a user-facing failure.
func storeFailure(err error, message string) *failure.Failure {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return failure.Timeout("The server took too long to respond. Try again.")
	case errors.Is(err, store.ErrNotFound):
		return failure.Missing("Alert not found.")
	case errors.Is(err, query.ErrInvalidCursor):
		return failure.Validation("cursor", "Invalid page position. Reload the list.")
	}
	return failure.Network(message)
}

// Create validates and publishes a new alert. The daily counter is bumped
// only after the store confirms the insert.
func (r *Repository) Create(ctx context.Context, n NewAlert) CreateResult {
	return r.create(ctx, n, r.expirationDays)
}

func (r *Repository) create(ctx context.Context, n NewAlert, expirationDays int) CreateResult {
	if expirationDays <= 0 {
		expirationDays = r.expirationDays
	}
	if r.store == nil {
		return CreateResult{Failure: unconfigured()}
	}
	if fs := ValidateNewAlert(n); len(fs) > 0 {
		r.metrics.AlertFailed(string(failure.ValidationFailure))
		return CreateResult{Failure: fs[0]}
	}
	n = n.normalized()

	now := r.now().UTC()
	alert := model.Alert{
		ID:           uuid.NewString(),
		Type:         n.Type,
		Species:      n.Species,
		PetName:      n.PetName,
		Description:  n.Description,
		PhotoURL:     n.PhotoURL,
		Neighborhood: n.Neighborhood,
		City:         n.City,
		WhatsApp:     n.WhatsApp,
		ContactName:  n.ContactName,
		Status:       model.StatusActive,
		CreatedAt:    now,
		ExpiresAt:    now.AddDate(0, 0, expirationDays),
	}
	if r.identity != nil {
		alert.DeviceID = r.identity.DeviceID()
	}

	if err := r.store.InsertAlert(ctx, &alert); err != nil {
		log.Printf("Error creating alert: %v", err)
		f := storeFailure(err, "Could not publish the alert. Try again.")
		r.metrics.AlertFailed(string(f.Kind))
		return CreateResult{Failure: f}
	}

	if r.quota != nil {
		r.quota.RecordSubmission()
	}
	r.metrics.AlertCreated()
	if r.notifier != nil {
		r.notifier.Dispatch(alert.ID)
	}
	return CreateResult{Success: true, ID: alert.ID}
}

// List returns one page of active alerts under filters, starting after cursor.
func (r *Repository) List(ctx context.Context, filters query.Filters, pageSize int, cursor query.Cursor) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return r.fetch(ctx, query.Build(filters, pageSize, cursor), pageSize)
}

func (r *Repository) fetch(ctx context.Context, spec query.Spec, pageSize int) Page {
	if r.store == nil {
		return Page{Records: []model.Alert{}, Failure: unconfigured()}
	}
	records, err := r.store.Query(ctx, spec.Where(query.FieldStatus, string(model.StatusActive)))
	if err != nil {
		log.Printf("Error listing alerts: %v", err)
		return Page{Records: []model.Alert{}, Failure: storeFailure(err, "Could not load alerts. Check your connection.")}
	}
	records, hasMore := query.Trim(records, pageSize)
	page := Page{Records: records, HasMore: hasMore}
	if page.Records == nil {
		page.Records = []model.Alert{}
	}
	if len(records) > 0 {
		last := records[len(records)-1]
		page.Cursor = query.NewCursor(last.CreatedAt, last.ID)
	}
	return page
}

// ListRecent returns the n newest active alerts for the home feed.
func (r *Repository) ListRecent(ctx context.Context, n int) []model.Alert {
	if r.store == nil {
		return []model.Alert{}
	}
	if n <= 0 {
		n = RecentLimit
	}
	spec := query.Build(query.AllFilters(), n, "")
	spec.Limit = n
	records, err := r.store.Query(ctx, spec.Where(query.FieldStatus, string(model.StatusActive)))
	if err != nil {
		log.Printf("Error listing recent alerts: %v", err)
		return []model.Alert{}
	}
	return records
}

// GetByID returns the alert, or nil when it is missing or the store fails.
func (r *Repository) GetByID(ctx context.Context, id string) *model.Alert {
	if r.store == nil || strings.TrimSpace(id) == "" {
		return nil
	}
	a, err := r.store.GetAlert(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("Error fetching alert %s: %v", id, err)
		}
		return nil
	}
	return &a
}

// UpdateStatus is the moderation write; only the status field changes.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status model.AlertStatus) Result {
	if r.store == nil {
		return Result{Failure: unconfigured()}
	}
	if !status.Valid() {
		return Result{Failure: failure.Validation("status", "Invalid status.")}
	}
	if err := r.store.UpdateStatus(ctx, id, status); err != nil {
		log.Printf("Error updating alert %s: %v", id, err)
		return Result{Failure: storeFailure(err, "Could not update the alert. Try again.")}
	}
	return Result{Success: true}
}

func (r *Repository) Remove(ctx context.Context, id string) Result {
	if r.store == nil {
		return Result{Failure: unconfigured()}
	}
	if err := r.store.DeleteAlert(ctx, id); err != nil {
		log.Printf("Error removing alert %s: %v", id, err)
		return Result{Failure: storeFailure(err, "Could not remove the alert. Try again.")}
	}
	return Result{Success: true}
}

// Report files an abuse report against an alert.
func (r *Repository) Report(ctx context.Context, alertID, reason string) Result {
	if r.store == nil {
		return Result{Failure: unconfigured()}
	}
	if f := validateReason(reason); f != nil {
		return Result{Failure: f}
	}
	report := model.Report{
		ID:        uuid.NewString(),
		AlertID:   alertID,
		Reason:    strings.TrimSpace(reason),
		CreatedAt: r.now().UTC(),
	}
	if err := r.store.InsertReport(ctx, &report); err != nil {
		log.Printf("Error creating report for %s: %v", alertID, err)
		return Result{Failure: storeFailure(err, "Could not send. Try again.")}
	}
	return Result{Success: true}
}

// ListAdmin returns every alert regardless of status, newest first.
func (r *Repository) ListAdmin(ctx context.Context) []model.Alert {
	if r.store == nil {
		return []model.Alert{}
	}
	records, err := r.store.Query(ctx, query.Spec{OrderBy: query.FieldCreatedAt, Descending: true})
	if err != nil {
		log.Printf("Error listing admin alerts: %v", err)
		return []model.Alert{}
	}
	return records
}

func (r *Repository) ListReports(ctx context.Context) []model.Report {
	if r.store == nil {
		return []model.Report{}
	}
	reports, err := r.store.ListReports(ctx)
	if err != nil {
		log.Printf("Error listing reports: %v", err)
		return []model.Report{}
	}
	return reports
}

// Stats counts active and resolved alerts concurrently. A count that cannot
// be fetched is reported as zero.
func (r *Repository) Stats(ctx context.Context) Stats {
	var s Stats
	if r.store == nil {
		return s
	}
	g, gctx := errgroup.WithContext(ctx)
	count := func(status model.AlertStatus, dst *int64) func() error {
		return func() error {
			n, err := r.store.CountByStatus(gctx, status)
			if err != nil {
				log.Printf("Error counting %s alerts: %v", status, err)
				return nil
			}
			*dst = n
			return nil
		}
	}
	g.Go(count(model.StatusActive, &s.Active))
	g.Go(count(model.StatusResolved, &s.Resolved))
	_ = g.Wait()
	return s
}
