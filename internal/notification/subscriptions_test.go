package notification

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"pataalerta/internal/model"
)

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.PushSubscription{}, &model.SubscriptionNeighborhood{}))
	return db
}

func neighborhoodsOf(sub model.PushSubscription) []string {
	var out []string
	for _, n := range sub.Neighborhoods {
		out = append(out, n.Neighborhood)
	}
	return out
}

func TestSubscriptions(t *testing.T) {
	ctx := context.Background()
	subs := NewSubscriptions(newSQLiteDB(t))

	sub := model.PushSubscription{Endpoint: "https://push.example/1", P256DH: "k1", Auth: "a1"}
	require.NoError(t, subs.Put(ctx, sub, []string{"Centro", "Jardim", "Centro", ""}))

	got, err := subs.Get(ctx, sub.Endpoint)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Centro", "Jardim"}, neighborhoodsOf(got))

	// Replacing keys and neighborhoods keeps a single subscription.
	sub.P256DH = "k2"
	require.NoError(t, subs.Put(ctx, sub, []string{"Industrial"}))
	got, err = subs.Get(ctx, sub.Endpoint)
	require.NoError(t, err)
	assert.Equal(t, "k2", got.P256DH)
	assert.Equal(t, []string{"Industrial"}, neighborhoodsOf(got))

	require.NoError(t, subs.Put(ctx, model.PushSubscription{Endpoint: "https://push.example/2", P256DH: "k", Auth: "a"}, []string{"Industrial", "Centro"}))

	following, err := subs.ForNeighborhood(ctx, "Industrial")
	require.NoError(t, err)
	assert.Len(t, following, 2)
	following, err = subs.ForNeighborhood(ctx, "Jardim")
	require.NoError(t, err)
	assert.Empty(t, following)

	require.NoError(t, subs.Delete(ctx, sub.Endpoint))
	_, err = subs.Get(ctx, sub.Endpoint)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
	following, err = subs.ForNeighborhood(ctx, "Industrial")
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "https://push.example/2", following[0].Endpoint)
}
