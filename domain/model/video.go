package model

import (
	"time"
)

// Video is the uploaded source asset referenced by posts. Stored in the
// primary MySQL database; the scheduler only reads it to resolve the blob
// storage key.
type Video struct {
	ID          string    `json:"id"          gorm:"primaryKey;size:40"`
	UserID      string    `json:"user_id"     gorm:"size:40;index"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StorageKey  string    `json:"storage_key" gorm:"size:255"`
	MimeType    string    `json:"mime_type"   gorm:"size:64"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"  gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time `json:"updated_at"  gorm:"autoUpdateTime;index"`
}

func (Video) TableName() string { return "videos" }
