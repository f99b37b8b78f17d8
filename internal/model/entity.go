package model

import "time"

// WebhookCall is one audited forward to the workflow backend.
type WebhookCall struct {
	ID               int64     `gorm:"primaryKey" json:"id"`
	RequestID        string    `gorm:"size:36;index" json:"request_id"`
	Endpoint         string    `gorm:"size:64;index" json:"endpoint"`
	Method           string    `gorm:"size:8" json:"method"`
	Status           int       `json:"status"`
	DurationMs       int64     `json:"duration_ms"`
	TokenFingerprint string    `gorm:"size:32;index" json:"token_fingerprint"`
	Error            string    `gorm:"size:512" json:"error"`
	CreatedAt        time.Time `json:"created_at"`
}

func (WebhookCall) TableName() string { return "webhook_calls" }
