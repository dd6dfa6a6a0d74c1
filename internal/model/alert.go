package model

import "time"

// AlertType is what happened to the animal.
type AlertType string

const (
	TypeLost     AlertType = "lost"
	TypeFound    AlertType = "found"
	TypeAdoption AlertType = "adoption"
)

// AlertStatus is the moderation state of an alert.
type AlertStatus string

const (
	StatusActive   AlertStatus = "active"
	StatusResolved AlertStatus = "resolved"
	StatusExpired  AlertStatus = "expired"
)

// Valid reports whether s is one of the known statuses.
func (s AlertStatus) Valid() bool {
	switch s {
	case StatusActive, StatusResolved, StatusExpired:
		return true
	}
	return false
}

// Alert is a lost/found/adoption post on the bulletin board.
type Alert struct {
	ID           string      `gorm:"primaryKey;size:64" json:"id"`
	Type         AlertType   `gorm:"size:16;not null;index:idx_alert_feed,priority:2" json:"type"`
	Species      string      `gorm:"size:32;not null;index:idx_alert_feed,priority:3" json:"species"`
	PetName      string      `gorm:"size:128" json:"petName"`
	Description  string      `gorm:"size:500;not null" json:"description"`
	PhotoURL     string      `gorm:"size:1024;not null" json:"photoUrl"`
	Neighborhood string      `gorm:"size:128;not null;index:idx_alert_feed,priority:4" json:"neighborhood"`
	City         string      `gorm:"size:128;not null" json:"city"`
	WhatsApp     string      `gorm:"size:16;not null" json:"whatsapp"`
	ContactName  string      `gorm:"size:128;not null" json:"contactName"`
	Status       AlertStatus `gorm:"size:16;not null;index:idx_alert_feed,priority:1" json:"status"`
	CreatedAt    time.Time   `gorm:"not null;index" json:"createdAt"`
	ExpiresAt    time.Time   `gorm:"not null;index" json:"expiresAt"`
	DeviceID     string      `gorm:"size:64;not null;index" json:"deviceId"`
}
