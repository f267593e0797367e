package models

import "time"

// RequestCounter counts requests per user, category and UTC day (YYYY-MM-DD).
type RequestCounter struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    int64  `gorm:"not null;uniqueIndex:idx_request_counters_key,priority:1"`
	Category  string `gorm:"size:64;not null;uniqueIndex:idx_request_counters_key,priority:2"`
	Day       string `gorm:"size:10;not null;uniqueIndex:idx_request_counters_key,priority:3;index"`
	Total     int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

func (RequestCounter) TableName() string { return "request_counters" }
