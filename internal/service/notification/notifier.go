package notification

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/chat"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
)

const chatPostTimeout = 10 * time.Second

// Notifier turns workflow events into in-app notifications and chat posts.
// Every failure is logged and swallowed. Chat posts run in the background.
type Notifier struct {
	notifications notification.Service
	employees     employee.EmployeeRepository
	chat          chat.Poster
	log           *slog.Logger
	posts         sync.WaitGroup
}

var (
	_ leave.Notifier           = (*Notifier)(nil)
	_ notification.Broadcaster = (*Notifier)(nil)
)

func NewNotifier(notifications notification.Service, employees employee.EmployeeRepository, poster chat.Poster) *Notifier {
	if poster == nil {
		poster = chat.Discard{}
	}
	return &Notifier{
		notifications: notifications,
		employees:     employees,
		chat:          poster,
		log:           slog.Default().With("component", "notifier"),
	}
}

func (n *Notifier) employeeName(ctx context.Context, req leave.LeaveRequest) string {
	if req.EmployeeName != nil {
		return *req.EmployeeName
	}
	if e, err := n.employees.GetByID(ctx, req.EmployeeID); err == nil {
		return e.FullName
	}
	return req.EmployeeID
}

func leaveData(req leave.LeaveRequest) map[string]interface{} {
	return map[string]interface{}{
		"leave_request_id": req.ID,
		"employee_id":      req.EmployeeID,
		"leave_type":       string(req.Type),
		"start_date":       clock.DateKey(req.StartDate),
		"end_date":         clock.DateKey(req.EndDate),
		"status":           string(req.Status),
	}
}

func period(req leave.LeaveRequest) string {
	start, end := clock.DateKey(req.StartDate), clock.DateKey(req.EndDate)
	if start == end {
		return start
	}
	return start + " to " + end
}

// LeaveApplied tells every manager except the applicant about a new request.
func (n *Notifier) LeaveApplied(ctx context.Context, req leave.LeaveRequest) {
	name := n.employeeName(ctx, req)

	managers, err := n.employees.ListManagers(ctx)
	if err != nil {
		n.log.Error("failed to list managers", "leave_request_id", req.ID, "error", err)
	}

	title := "New leave request"
	message := fmt.Sprintf("%s applied for %s leave (%s)", name, req.Type, period(req))

	reqs := make([]notification.CreateNotificationRequest, 0, len(managers))
	for _, m := range managers {
		if m.ID == req.EmployeeID {
			continue
		}
		reqs = append(reqs, notification.CreateNotificationRequest{
			RecipientID: m.ID,
			SenderID:    &req.EmployeeID,
			Type:        notification.TypeLeaveApplied,
			Title:       title,
			Message:     message,
			Data:        leaveData(req),
		})
	}
	if len(reqs) > 0 {
		if err := n.notifications.QueueBulkNotification(ctx, reqs); err != nil {
			n.log.Error("failed to queue leave applied notifications", "leave_request_id", req.ID, "error", err)
		}
	}

	n.post(ctx, ":palm_tree: "+message)
}

// LeaveDecided tells the applicant about the outcome.
func (n *Notifier) LeaveDecided(ctx context.Context, req leave.LeaveRequest) {
	notifType := notification.TypeLeaveRejected
	title := "Leave request rejected"
	if req.Status == leave.LeaveRequestStatusApproved {
		notifType = notification.TypeLeaveApproved
		title = "Leave request approved"
	}

	message := fmt.Sprintf("Your %s leave (%s) was %s", req.Type, period(req), req.Status)
	if req.DecisionComment != nil && *req.DecisionComment != "" {
		message += ": " + *req.DecisionComment
	}

	err := n.notifications.QueueNotification(ctx, notification.CreateNotificationRequest{
		RecipientID: req.EmployeeID,
		SenderID:    req.DecidedBy,
		Type:        notifType,
		Title:       title,
		Message:     message,
		Data:        leaveData(req),
	})
	if err != nil {
		n.log.Error("failed to queue leave decision notification", "leave_request_id", req.ID, "error", err)
	}

	n.post(ctx, fmt.Sprintf("Leave of %s (%s) %s", n.employeeName(ctx, req), period(req), req.Status))
}

// MarkedAbsent tells every manager how many employees were marked absent for day.
func (n *Notifier) MarkedAbsent(ctx context.Context, day time.Time, employees []employee.Employee) {
	if len(employees) == 0 {
		return
	}
	date := clock.DateKey(day)

	ids := make([]string, len(employees))
	names := make([]string, len(employees))
	for i, e := range employees {
		ids[i] = e.ID
		names[i] = e.FullName
	}
	message := fmt.Sprintf("%d employee(s) marked absent for %s: %s", len(employees), date, strings.Join(names, ", "))

	managers, err := n.employees.ListManagers(ctx)
	if err != nil {
		n.log.Error("failed to list managers", "date", date, "error", err)
	}

	reqs := make([]notification.CreateNotificationRequest, len(managers))
	for i, m := range managers {
		reqs[i] = notification.CreateNotificationRequest{
			RecipientID: m.ID,
			Type:        notification.TypeAttendanceMarkedAbsent,
			Title:       "Employees marked absent",
			Message:     message,
			Data: map[string]interface{}{
				"date":         date,
				"employee_ids": ids,
			},
		}
	}
	if len(reqs) > 0 {
		if err := n.notifications.QueueBulkNotification(ctx, reqs); err != nil {
			n.log.Error("failed to queue absence notifications", "date", date, "error", err)
		}
	}

	n.post(ctx, message)
}

// Broadcast queues a notice for every active employee in req.Departments, or for
// everyone when no department is given. The sender is never a recipient.
func (n *Notifier) Broadcast(ctx context.Context, sender employee.Actor, req notification.BroadcastRequest) (notification.BroadcastResponse, error) {
	if !sender.IsManager() {
		return notification.BroadcastResponse{}, employee.ErrManagerAccessRequired
	}
	if err := req.Validate(); err != nil {
		return notification.BroadcastResponse{}, err
	}

	employees, err := n.employees.ListActive(ctx, employee.Filter{})
	if err != nil {
		return notification.BroadcastResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}

	target := "all"
	if len(req.Departments) > 0 {
		target = strings.Join(req.Departments, ", ")
	}
	data := map[string]interface{}{"target": target}

	var reqs []notification.CreateNotificationRequest
	for _, e := range employees {
		if e.ID == sender.EmployeeID {
			continue
		}
		if len(req.Departments) > 0 && !slices.Contains(req.Departments, e.Department) {
			continue
		}
		reqs = append(reqs, notification.CreateNotificationRequest{
			RecipientID: e.ID,
			SenderID:    &sender.EmployeeID,
			Type:        notification.TypeNotice,
			Title:       req.Title,
			Message:     req.Message,
			Data:        data,
		})
	}

	if len(reqs) > 0 {
		if err := n.notifications.QueueBulkNotification(ctx, reqs); err != nil {
			return notification.BroadcastResponse{}, fmt.Errorf("failed to queue notice: %w", err)
		}
	}

	n.log.InfoContext(ctx, "notice broadcast", "sender_id", sender.EmployeeID, "target", target, "recipients", len(reqs))
	n.post(ctx, fmt.Sprintf(":loudspeaker: %s (%s): %s", req.Title, target, req.Message))
	return notification.BroadcastResponse{RecipientsCount: len(reqs)}, nil
}

// post sends message without holding up the caller. The post outlives the request
// context but is bounded by chatPostTimeout.
func (n *Notifier) post(ctx context.Context, message string) {
	postCtx := context.WithoutCancel(ctx)
	n.posts.Go(func() {
		ctx, cancel := context.WithTimeout(postCtx, chatPostTimeout)
		defer cancel()
		if err := n.chat.Post(ctx, message); err != nil {
			n.log.Warn("failed to post chat message", "error", err)
		}
	})
}

// Wait blocks until every chat post in flight has finished.
func (n *Notifier) Wait() {
	n.posts.Wait()
}
