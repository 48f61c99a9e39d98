package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeLeaveApplied           NotificationType = "leave_applied"
	TypeLeaveApproved          NotificationType = "leave_approved"
	TypeLeaveRejected          NotificationType = "leave_rejected"
	TypeAttendanceMarkedAbsent NotificationType = "attendance_marked_absent"
	TypeNotice                 NotificationType = "notice"
)

// Category groups notifications for display.
type Category string

const (
	CategoryLeave    Category = "leave"
	CategoryApproval Category = "approval"
	CategoryNotice   Category = "notice"
	CategoryAlert    Category = "alert"
	CategorySystem   Category = "system"
)

// CategoryOf returns the display category of a notification type.
func CategoryOf(t NotificationType) Category {
	switch t {
	case TypeLeaveApplied:
		return CategoryLeave
	case TypeLeaveApproved, TypeLeaveRejected:
		return CategoryApproval
	case TypeAttendanceMarkedAbsent:
		return CategoryAlert
	case TypeNotice:
		return CategoryNotice
	default:
		return CategorySystem
	}
}

// Notification represents a notification entity
type Notification struct {
	ID          string
	RecipientID string
	SenderID    *string
	Type        NotificationType
	Category    Category
	Title       string
	Message     string
	Data        map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}
