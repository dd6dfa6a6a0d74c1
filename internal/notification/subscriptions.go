package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pataalerta/internal/model"
)

// ErrSubscriptionNotFound is returned by Get for an unknown endpoint.
var ErrSubscriptionNotFound = errors.New("subscription not found")

// Subscriptions persists browser push subscriptions and the neighborhoods
// each one follows.
type Subscriptions struct {
	db *gorm.DB
}

func NewSubscriptions(db *gorm.DB) *Subscriptions {
	return &Subscriptions{db: db}
}

// Put creates or replaces a subscription together with its neighborhoods.
func (s *Subscriptions) Put(ctx context.Context, sub model.PushSubscription, neighborhoods []string) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	sub.Neighborhoods = nil

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(&sub).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription: %w", err)
		}

		if err := tx.Where("endpoint = ?", sub.Endpoint).Delete(&model.SubscriptionNeighborhood{}).Error; err != nil {
			return fmt.Errorf("failed to clear neighborhoods: %w", err)
		}

		seen := make(map[string]bool, len(neighborhoods))
		var rows []model.SubscriptionNeighborhood
		for _, n := range neighborhoods {
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			rows = append(rows, model.SubscriptionNeighborhood{Endpoint: sub.Endpoint, Neighborhood: n})
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to save neighborhoods: %w", err)
			}
		}
		return nil
	})
}

// Delete removes a subscription; its neighborhoods go with it.
func (s *Subscriptions) Delete(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("endpoint = ?", endpoint).Delete(&model.SubscriptionNeighborhood{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.PushSubscription{Endpoint: endpoint}).Error
	})
}

// Get returns a subscription with its neighborhoods loaded.
func (s *Subscriptions) Get(ctx context.Context, endpoint string) (model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).Preload("Neighborhoods").First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PushSubscription{}, ErrSubscriptionNotFound
	}
	if err != nil {
		return model.PushSubscription{}, fmt.Errorf("failed to load subscription: %w", err)
	}
	return sub, nil
}

// ForNeighborhood lists the subscriptions following neighborhood.
func (s *Subscriptions) ForNeighborhood(ctx context.Context, neighborhood string) ([]model.PushSubscription, error) {
	var subscriptions []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_neighborhoods sn ON sn.endpoint = push_subscriptions.endpoint").
		Where("sn.neighborhood = ?", neighborhood).
		Find(&subscriptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions for %q: %w", neighborhood, err)
	}
	return subscriptions, nil
}
