package model

import "time"

// PushSubscription holds a browser push subscription and the neighborhoods it
// wants new-alert notifications for.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	Neighborhoods []SubscriptionNeighborhood `gorm:"foreignKey:Endpoint;constraint:OnDelete:CASCADE"`
}

// SubscriptionNeighborhood maps a subscription to one neighborhood it follows.
type SubscriptionNeighborhood struct {
	Endpoint     string `gorm:"primaryKey"`
	Neighborhood string `gorm:"primaryKey;size:128;index"`
}
