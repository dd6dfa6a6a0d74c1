package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pataalerta/internal/model"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

type alertMap map[string]model.Alert

func (m alertMap) GetAlert(_ context.Context, id string) (model.Alert, error) {
	a, ok := m[id]
	if !ok {
		return model.Alert{}, errors.New("document not found")
	}
	return a, nil
}

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

const subscriptionsQuery = `SELECT .* FROM "push_subscriptions" JOIN subscription_neighborhoods sn ON sn\.endpoint = push_subscriptions\.endpoint WHERE sn\.neighborhood = \$1`

func subscriptionRows(endpoint string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
		AddRow(endpoint, "test_p256dh", "test_auth", time.Now())
}

func TestWorkerPool_Dispatch(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, alertMap{}, &webpush.Options{})

	wp.Dispatch("alert-1")

	select {
	case job := <-wp.Jobs():
		assert.Equal(t, "alert-1", job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_DispatchDoesNotBlockWhenFull(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, alertMap{}, &webpush.Options{})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			wp.Dispatch("a")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a full queue")
	}
	assert.Equal(t, cap(wp.Jobs()), len(wp.Jobs()))
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	gormDB, mock := newTestDB(t)
	alerts := alertMap{
		"a1": {ID: "a1", Type: model.TypeLost, Species: "dog", PetName: "Rex", Description: "Caramel dog, red collar.", Neighborhood: "Centro", PhotoURL: "https://i.example/rex.jpg", Status: model.StatusActive},
		"a2": {ID: "a2", Type: model.TypeFound, Species: "cat", Description: "Gray cat near the bakery.", Neighborhood: "Jardim", Status: model.StatusActive},
		"a3": {ID: "a3", Type: model.TypeLost, Species: "dog", Neighborhood: "Centro", Status: model.StatusResolved},
	}
	wp := NewWorkerPool(1, gormDB, alerts, &webpush.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	t.Run("sends notification for one subscription", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)

		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				defer wg.Done()
				assert.Equal(t, "https://example.com/push", sub.Endpoint)
				var msg Message
				assert.NoError(t, json.Unmarshal(payload, &msg))
				assert.Equal(t, "Lost in Centro", msg.Title)
				assert.Equal(t, "Rex: Caramel dog, red collar.", msg.Body)
				assert.Equal(t, "#/alert/a1", msg.URL)
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(subscriptionsQuery).
			WithArgs("Centro").
			WillReturnRows(subscriptionRows("https://example.com/push"))

		wp.Dispatch("a1")
		wg.Wait()
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusGone,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(subscriptionsQuery).
			WithArgs("Jardim").
			WillReturnRows(subscriptionRows("https://example.com/expired"))

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "subscription_neighborhoods" WHERE endpoint = \$1`).
			WithArgs("https://example.com/expired").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"."endpoint" = \$1`).
			WithArgs("https://example.com/expired").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		wp.Dispatch("a2")

		// A short sleep to allow the worker to process the job
		time.Sleep(100 * time.Millisecond)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips alerts that are no longer active or missing", func(t *testing.T) {
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				t.Error("no notification expected")
				return nil, errors.New("unexpected")
			},
		}

		wp.Dispatch("a3")
		wp.Dispatch("missing")
		time.Sleep(100 * time.Millisecond)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMessageFor(t *testing.T) {
	msg := MessageFor(model.Alert{ID: "x", Type: model.TypeAdoption, Species: "cat", Neighborhood: "Vila Nova", Description: "Kitten"})
	assert.Equal(t, "For adoption in Vila Nova", msg.Title)
	assert.Equal(t, "Cat: Kitten", msg.Body)
	assert.Empty(t, msg.Image)
}
