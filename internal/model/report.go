package model

import "time"

// Report is an abuse report filed against an alert.
type Report struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	AlertID   string    `gorm:"size:64;not null;index" json:"alertId"`
	Reason    string    `gorm:"size:500;not null" json:"reason"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}
