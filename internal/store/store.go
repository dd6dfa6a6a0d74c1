package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pataalerta/internal/model"
	"pataalerta/internal/query"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrUnsupportedField is returned for a Spec field the store cannot filter or sort on.
	ErrUnsupportedField = errors.New("unsupported query field")
)

// ConfigName is the name of the site configuration document.
const ConfigName = "general"

// Store defines every remote document store operation the core depends on.
type Store interface {
	// Query runs spec against the alerts collection. A zero Limit means no limit.
	Query(ctx context.Context, spec query.Spec) ([]model.Alert, error)
	GetAlert(ctx context.Context, id string) (model.Alert, error)
	InsertAlert(ctx context.Context, alert *model.Alert) error
	UpdateStatus(ctx context.Context, id string, status model.AlertStatus) error
	DeleteAlert(ctx context.Context, id string) error
	CountByStatus(ctx context.Context, status model.AlertStatus) (int64, error)
	// ExpireBefore marks active alerts whose expiry is before t as expired.
	ExpireBefore(ctx context.Context, t time.Time) (int64, error)

	InsertReport(ctx context.Context, report *model.Report) error
	ListReports(ctx context.Context) ([]model.Report, error)

	// ConfigDocument returns the raw JSON site configuration.
	ConfigDocument(ctx context.Context) (string, error)
	SaveConfigDocument(ctx context.Context, payload string) error
}

// columns maps Spec fields to alert columns.
var columns = map[string]string{
	query.FieldType:         "type",
	query.FieldSpecies:      "species",
	query.FieldNeighborhood: "neighborhood",
	query.FieldStatus:       "status",
	query.FieldCreatedAt:    "created_at",
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Query(ctx context.Context, spec query.Spec) ([]model.Alert, error) {
	tx := s.db.WithContext(ctx).Model(&model.Alert{})
	for _, c := range spec.Constraints {
		col, ok := columns[c.Field]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedField, c.Field)
		}
		tx = tx.Where(col+" = ?", c.Value)
	}

	if spec.OrderBy != "" && spec.OrderBy != query.FieldCreatedAt {
		return nil, fmt.Errorf("%w: order by %s", ErrUnsupportedField, spec.OrderBy)
	}
	dir := "ASC"
	cmp := ">"
	if spec.Descending {
		dir = "DESC"
		cmp = "<"
	}

	if spec.After != "" {
		at, id, err := spec.After.Decode()
		if err != nil {
			return nil, err
		}
		tx = tx.Where("((created_at "+cmp+" ?) OR (created_at = ? AND id "+cmp+" ?))", at, at, id)
	}

	tx = tx.Order("created_at " + dir).Order("id " + dir)
	if spec.Limit > 0 {
		tx = tx.Limit(spec.Limit)
	}

	var alerts []model.Alert
	if err := tx.Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	return alerts, nil
}

func (s *gormStore) GetAlert(ctx context.Context, id string) (model.Alert, error) {
	var alert model.Alert
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&alert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Alert{}, ErrNotFound
	}
	if err != nil {
		return model.Alert{}, fmt.Errorf("failed to get alert %s: %w", id, err)
	}
	return alert, nil
}

func (s *gormStore) InsertAlert(ctx context.Context, alert *model.Alert) error {
	if err := s.db.WithContext(ctx).Create(alert).Error; err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

func (s *gormStore) UpdateStatus(ctx context.Context, id string, status model.AlertStatus) error {
	res := s.db.WithContext(ctx).Model(&model.Alert{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update status of alert %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) DeleteAlert(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Alert{}).Error; err != nil {
		return fmt.Errorf("failed to delete alert %s: %w", id, err)
	}
	return nil
}

func (s *gormStore) CountByStatus(ctx context.Context, status model.AlertStatus) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Alert{}).Where("status = ?", status).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s alerts: %w", status, err)
	}
	return n, nil
}

func (s *gormStore) ExpireBefore(ctx context.Context, t time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.Alert{}).
		Where("status = ? AND expires_at < ?", model.StatusActive, t).
		Update("status", model.StatusExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to expire alerts: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *gormStore) InsertReport(ctx context.Context, report *model.Report) error {
	if err := s.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

func (s *gormStore) ListReports(ctx context.Context) ([]model.Report, error) {
	var reports []model.Report
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

func (s *gormStore) ConfigDocument(ctx context.Context) (string, error) {
	var doc model.ConfigDocument
	err := s.db.WithContext(ctx).Where("name = ?", ConfigName).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read config document: %w", err)
	}
	return doc.Payload, nil
}

func (s *gormStore) SaveConfigDocument(ctx context.Context, payload string) error {
	doc := model.ConfigDocument{Name: ConfigName, Payload: payload, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&doc).Error
	if err != nil {
		return fmt.Errorf("failed to save config document: %w", err)
	}
	return nil
}
