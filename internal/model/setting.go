package model

import "time"

// Setting is a persisted key-value pair (session token, language preference).
type Setting struct {
	Key       string    `gorm:"primaryKey;column:setting_key;size:64"`
	Value     string    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
