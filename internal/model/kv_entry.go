package model

import "time"

// KVEntry is one row of the device-local key/value store.
type KVEntry struct {
	Key       string    `gorm:"primaryKey;column:entry_key;size:128"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
