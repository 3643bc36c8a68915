package models

import "time"

// WebhookEvent records a provider event id that has already been applied,
// so redelivered confirmations are skipped.
type WebhookEvent struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	BookingID   string    `json:"bookingId" gorm:"index;not null"`
	Provider    string    `json:"provider" gorm:"not null"`
	ProcessedAt time.Time `json:"processedAt"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
