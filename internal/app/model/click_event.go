package model

import "time"

// ClickEvent records a visitor following a link from a public profile.
type ClickEvent struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Username  string    `json:"username" gorm:"size:64;not null;index"`
	LinkID    int64     `json:"link_id" gorm:"not null;index"`
	IP        string    `json:"ip" gorm:"size:64"`
	UserAgent string    `json:"user_agent" gorm:"type:text"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;index"`
}

// LinkClicks is the aggregated click count of one link.
type LinkClicks struct {
	LinkID int64     `json:"link_id"`
	Clicks int64     `json:"clicks"`
	LastAt time.Time `json:"last_at"`
}

const (
	ClickStreamName     = "CLICKS"
	ClickStreamSubject  = "clicks.events"
	ClickConsumerName   = "click-logger"
	ClickStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
