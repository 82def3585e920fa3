package models

import "time"

// NotificationType is the kind of event a notification announces
type NotificationType string

const (
	NotificationTypePost     NotificationType = "POST"
	NotificationTypeComment  NotificationType = "COMMENT"
	NotificationTypeReaction NotificationType = "REACTION"
)

// Notification represents a user notification (PostgreSQL). A nil RecipientID marks a global notification.
type Notification struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	Type        NotificationType `json:"type" gorm:"size:20;index"`
	Message     string           `json:"message"`
	Date        time.Time        `json:"date"`
	Link        string           `json:"link"` // timeline-posts/<post id>
	RecipientID *uint            `json:"recipient_id,omitempty" gorm:"index"`
	SenderID    *uint            `json:"sender_id,omitempty" gorm:"index"`
	IsGlobal    bool             `json:"is_global" gorm:"default:false;index"`
	IsRead      bool             `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time        `json:"created_at" gorm:"index"`
}
