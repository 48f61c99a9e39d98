package notification

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// ============= Request DTOs =============

// CreateNotificationRequest represents a request to create a notification
type CreateNotificationRequest struct {
	RecipientID string
	SenderID    *string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]interface{}
}

// MarkAsReadRequest represents a request to mark notifications as read
type MarkAsReadRequest struct {
	NotificationIDs []string `json:"notification_ids" validate:"required,min=1"`
}

func (r *MarkAsReadRequest) Validate() error {
	if errs := validator.Struct(r); len(errs) > 0 {
		return errs
	}
	return nil
}

// DefaultNoticeTitle is used when a broadcast has no title.
const DefaultNoticeTitle = "Team Notice"

// BroadcastRequest sends a notice to every active employee, or only to those in Departments.
type BroadcastRequest struct {
	Title       string   `json:"title" validate:"max=200"`
	Message     string   `json:"message" validate:"required,max=2000"`
	Departments []string `json:"departments" validate:"omitempty,dive,required"`
}

func (r *BroadcastRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Message = strings.TrimSpace(r.Message)
	for i, d := range r.Departments {
		r.Departments[i] = strings.TrimSpace(d)
	}
	if errs := validator.Struct(r); len(errs) > 0 {
		return errs
	}
	if r.Title == "" {
		r.Title = DefaultNoticeTitle
	}
	return nil
}

// ============= Response DTOs =============

type BroadcastResponse struct {
	RecipientsCount int `json:"recipients_count"`
}

// NotificationResponse represents a notification in API responses
type NotificationResponse struct {
	ID        string                 `json:"id"`
	Type      NotificationType       `json:"type"`
	Category  Category               `json:"category"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	IsRead    bool                   `json:"is_read"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// NotificationListResponse represents a paginated list of notifications
type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Total         int                    `json:"total"`
	UnreadCount   int                    `json:"unread_count"`
	Page          int                    `json:"page"`
	PageSize      int                    `json:"page_size"`
}

// UnreadCountResponse represents unread count response
type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// ============= SSE Event =============

// SSEEvent represents a Server-Sent Event
type SSEEvent struct {
	Event string               `json:"event"`
	Data  NotificationResponse `json:"data"`
}
