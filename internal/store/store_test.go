package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pataalerta/internal/model"
	"pataalerta/internal/query"
)

// newSQLiteStore opens an isolated in-memory sqlite database.
func newSQLiteStore(t *testing.T) Store {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.Alert{}, &model.Report{}, &model.ConfigDocument{}))
	return NewGormStore(db)
}

// A helper function to create a mock database connection.
func newMockStore(t *testing.T) (Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return NewGormStore(gormDB), mock
}

var base = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func alert(id string, minute int, typ model.AlertType, species, hood string, status model.AlertStatus) model.Alert {
	created := base.Add(time.Duration(minute) * time.Minute)
	return model.Alert{
		ID: id, Type: typ, Species: species, Neighborhood: hood, Status: status,
		Description: "brown dog with a red collar", PhotoURL: "https://img.example/" + id + ".jpg",
		City: "Curitiba", WhatsApp: "41999998888", ContactName: "Ana",
		CreatedAt: created, ExpiresAt: created.Add(30 * 24 * time.Hour), DeviceID: "dev_1",
	}
}

func seed(t *testing.T, s Store) {
	fixtures := []model.Alert{
		alert("a1", 1, model.TypeLost, "dog", "Centro", model.StatusActive),
		alert("a2", 2, model.TypeFound, "cat", "Centro", model.StatusActive),
		alert("a3", 3, model.TypeLost, "cat", "Jardim", model.StatusActive),
		alert("a4", 4, model.TypeLost, "dog", "Centro", model.StatusResolved),
		alert("a5", 5, model.TypeLost, "dog", "Jardim", model.StatusActive),
		// Same timestamp as a5; id breaks the tie.
		alert("a6", 5, model.TypeAdoption, "dog", "Centro", model.StatusActive),
	}
	for i := range fixtures {
		require.NoError(t, s.InsertAlert(context.Background(), &fixtures[i]))
	}
}

func ids(alerts []model.Alert) []string {
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.ID)
	}
	return out
}

func backends() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"sqlite": newSQLiteStore,
	}
}

func TestStore_Query(t *testing.T) {
	ctx := context.Background()
	active := query.Spec{OrderBy: query.FieldCreatedAt, Descending: true}.Where(query.FieldStatus, string(model.StatusActive))

	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			seed(t, s)

			got, err := s.Query(ctx, active)
			require.NoError(t, err)
			assert.Equal(t, []string{"a6", "a5", "a3", "a2", "a1"}, ids(got))

			got, err = s.Query(ctx, active.Where(query.FieldSpecies, "dog").Where(query.FieldNeighborhood, "Centro"))
			require.NoError(t, err)
			assert.Equal(t, []string{"a6", "a1"}, ids(got))

			got, err = s.Query(ctx, active.Where(query.FieldType, "lost").Where(query.FieldSpecies, "cat").Where(query.FieldNeighborhood, "Jardim"))
			require.NoError(t, err)
			assert.Equal(t, []string{"a3"}, ids(got))

			// Paging with a start-after cursor walks the whole set exactly once.
			var walked []string
			spec := active
			spec.Limit = 2
			for {
				page, err := s.Query(ctx, spec)
				require.NoError(t, err)
				if len(page) == 0 {
					break
				}
				walked = append(walked, ids(page)...)
				last := page[len(page)-1]
				spec.After = query.NewCursor(last.CreatedAt, last.ID)
			}
			assert.Equal(t, []string{"a6", "a5", "a3", "a2", "a1"}, walked)

			all, err := s.Query(ctx, query.Spec{OrderBy: query.FieldCreatedAt, Descending: true})
			require.NoError(t, err)
			assert.Len(t, all, 6)

			_, err = s.Query(ctx, active.Where("color", "brown"))
			assert.ErrorIs(t, err, ErrUnsupportedField)

			bad := active
			bad.After = "%%%"
			_, err = s.Query(ctx, bad)
			assert.ErrorIs(t, err, query.ErrInvalidCursor)
		})
	}
}

func TestStore_AlertLifecycle(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			seed(t, s)

			got, err := s.GetAlert(ctx, "a2")
			require.NoError(t, err)
			assert.Equal(t, "cat", got.Species)
			assert.Equal(t, "Curitiba", got.City)

			_, err = s.GetAlert(ctx, "nope")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.UpdateStatus(ctx, "a2", model.StatusResolved))
			assert.ErrorIs(t, s.UpdateStatus(ctx, "nope", model.StatusResolved), ErrNotFound)

			n, err := s.CountByStatus(ctx, model.StatusResolved)
			require.NoError(t, err)
			assert.Equal(t, int64(2), n)

			require.NoError(t, s.DeleteAlert(ctx, "a2"))
			require.NoError(t, s.DeleteAlert(ctx, "a2"), "delete is idempotent")
			_, err = s.GetAlert(ctx, "a2")
			assert.ErrorIs(t, err, ErrNotFound)

			expired, err := s.ExpireBefore(ctx, base.Add(30*24*time.Hour+3*time.Minute+time.Second))
			require.NoError(t, err)
			assert.Equal(t, int64(2), expired, "a1 and a3 are past expiry")
			n, err = s.CountByStatus(ctx, model.StatusExpired)
			require.NoError(t, err)
			assert.Equal(t, int64(2), n)
		})
	}
}

func TestStore_ReportsAndConfig(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			s := open(t)

			_, err := s.ConfigDocument(ctx)
			assert.ErrorIs(t, err, ErrNotFound)
			require.NoError(t, s.SaveConfigDocument(ctx, `{"dailyLimit":2}`))
			require.NoError(t, s.SaveConfigDocument(ctx, `{"dailyLimit":4}`))
			doc, err := s.ConfigDocument(ctx)
			require.NoError(t, err)
			assert.JSONEq(t, `{"dailyLimit":4}`, doc)

			require.NoError(t, s.InsertReport(ctx, &model.Report{ID: "r1", AlertID: "a1", Reason: "spam", CreatedAt: base}))
			require.NoError(t, s.InsertReport(ctx, &model.Report{ID: "r2", AlertID: "a1", Reason: "fake", CreatedAt: base.Add(time.Hour)}))
			reports, err := s.ListReports(ctx)
			require.NoError(t, err)
			require.Len(t, reports, 2)
			assert.Equal(t, "r2", reports[0].ID)
		})
	}
}

func TestGormStore_BackendErrors(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("connection reset by peer")

	mock.ExpectQuery(`SELECT \* FROM "alerts"`).WillReturnError(boom)
	_, err := s.GetAlert(context.Background(), "a1")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(`SELECT \* FROM "alerts" WHERE type = \$1 ORDER BY created_at DESC,id DESC LIMIT \$2`).
		WithArgs("lost", 13).
		WillReturnError(boom)
	_, err = s.Query(context.Background(), query.Build(query.Filters{Type: "lost"}, 12, ""))
	assert.ErrorIs(t, err, boom)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "alerts"`).WillReturnError(boom)
	_, err = s.CountByStatus(context.Background(), model.StatusActive)
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStore_Fail(t *testing.T) {
	s := NewMemoryStore()
	boom := errors.New("offline")
	s.Fail(boom)

	_, err := s.Query(context.Background(), query.Spec{})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.InsertAlert(context.Background(), &model.Alert{ID: "x"}), boom)

	s.Fail(nil)
	assert.NoError(t, s.InsertAlert(context.Background(), &model.Alert{ID: "x"}))
	assert.Error(t, s.InsertAlert(context.Background(), &model.Alert{ID: "x"}), "duplicate id")
}
