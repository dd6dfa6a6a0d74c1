package model

import "time"

// ConfigDocument is the remotely stored site configuration, kept as a JSON
// payload under a fixed name.
type ConfigDocument struct {
	Name      string    `gorm:"primaryKey;size:64"`
	Payload   string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
