package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPoster struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (p *recordingPoster) Post(_ context.Context, message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, message)
	return p.err
}

func TestNotifier_LeaveApplied(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t, Config{BatchSize: 10, FlushInterval: time.Hour, WorkerCount: 1})

	boss := store.AddEmployee(employee.Employee{FullName: "Bima", Role: employee.RoleManager, IsActive: true})
	applicant := store.AddEmployee(employee.Employee{FullName: "Sari", Role: employee.RoleManager, IsActive: true})
	owner := store.AddEmployee(employee.Employee{FullName: "Oka", Role: employee.RoleOwner, IsActive: true})

	poster := &recordingPoster{}
	n := NewNotifier(svc, store.Employees(), poster)

	day := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	n.LeaveApplied(ctx, leave.LeaveRequest{
		ID: "lr-1", EmployeeID: applicant.ID, Type: leave.TypeSick,
		StartDate: day, EndDate: day.AddDate(0, 0, 1), Status: leave.LeaveRequestStatusPending,
	})
	svc.Stop()
	n.Wait()

	for _, id := range []string{boss.ID, owner.ID} {
		list, err := svc.GetNotifications(ctx, id, 1, 10, false)
		require.NoError(t, err)
		require.Len(t, list.Notifications, 1)
		assert.Equal(t, notification.TypeLeaveApplied, list.Notifications[0].Type)
		assert.Equal(t, "Sari applied for sick leave (2024-03-04 to 2024-03-05)", list.Notifications[0].Message)
	}
	own, err := svc.GetNotifications(ctx, applicant.ID, 1, 10, false)
	require.NoError(t, err)
	assert.Empty(t, own.Notifications)

	require.Len(t, poster.messages, 1)
	assert.Contains(t, poster.messages[0], "Sari applied")
}

func TestNotifier_LeaveDecided(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t, Config{BatchSize: 10, FlushInterval: time.Hour, WorkerCount: 1})

	emp := store.AddEmployee(employee.Employee{FullName: "Sari", IsActive: true})
	poster := &recordingPoster{err: errors.New("slack down")}
	n := NewNotifier(svc, store.Employees(), poster)

	comment := "get well soon"
	day := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	n.LeaveDecided(ctx, leave.LeaveRequest{
		ID: "lr-1", EmployeeID: emp.ID, Type: leave.TypeSick,
		StartDate: day, EndDate: day, Status: leave.LeaveRequestStatusApproved,
		DecisionComment: &comment,
	})
	svc.Stop()
	n.Wait()

	list, err := svc.GetNotifications(ctx, emp.ID, 1, 10, false)
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, notification.TypeLeaveApproved, list.Notifications[0].Type)
	assert.Equal(t, "Your sick leave (2024-03-04) was approved: get well soon", list.Notifications[0].Message)
	assert.Equal(t, []string{"Leave of Sari (2024-03-04) approved"}, poster.messages)
}

func TestNotifier_MarkedAbsent(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t, Config{BatchSize: 10, FlushInterval: time.Hour, WorkerCount: 1})

	manager := store.AddEmployee(employee.Employee{FullName: "Bima", Role: employee.RoleManager, IsActive: true})
	a := store.AddEmployee(employee.Employee{FullName: "Adi", IsActive: true})
	b := store.AddEmployee(employee.Employee{FullName: "Bela", IsActive: true})

	poster := &recordingPoster{}
	n := NewNotifier(svc, store.Employees(), poster)

	n.MarkedAbsent(ctx, time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC), []employee.Employee{a, b})
	n.MarkedAbsent(ctx, time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC), nil)
	svc.Stop()
	n.Wait()

	list, err := svc.GetNotifications(ctx, manager.ID, 1, 10, false)
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, notification.CategoryAlert, list.Notifications[0].Category)
	assert.Equal(t, "2 employee(s) marked absent for 2024-03-12: Adi, Bela", list.Notifications[0].Message)
	assert.Len(t, poster.messages, 1)
}

type blockingPoster struct {
	release  chan struct{}
	mu       sync.Mutex
	messages []string
}

func (p *blockingPoster) Post(ctx context.Context, message string) error {
	select {
	case <-p.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, message)
	return nil
}

func TestNotifier_ChatPostDoesNotBlockCaller(t *testing.T) {
	svc, store, _ := newService(t, Config{BatchSize: 10, FlushInterval: time.Hour, WorkerCount: 1})
	emp := store.AddEmployee(employee.Employee{FullName: "Sari", IsActive: true})

	poster := &blockingPoster{release: make(chan struct{})}
	n := NewNotifier(svc, store.Employees(), poster)

	reqCtx, cancel := context.WithCancel(context.Background())
	day := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	returned := make(chan struct{})
	go func() {
		n.LeaveDecided(reqCtx, leave.LeaveRequest{
			ID: "lr-1", EmployeeID: emp.ID, Type: leave.TypeSick,
			StartDate: day, EndDate: day, Status: leave.LeaveRequestStatusRejected,
		})
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("LeaveDecided waited for the chat post")
	}

	// The request finishing must not cancel the post.
	cancel()
	close(poster.release)
	n.Wait()

	poster.mu.Lock()
	defer poster.mu.Unlock()
	assert.Equal(t, []string{"Leave of Sari (2024-03-04) rejected"}, poster.messages)
}

func TestNotifier_Broadcast(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t, Config{BatchSize: 10, FlushInterval: time.Hour, WorkerCount: 1})

	boss := store.AddEmployee(employee.Employee{FullName: "Bima", Department: "Engineering", Role: employee.RoleManager, IsActive: true})
	eng := store.AddEmployee(employee.Employee{FullName: "Sari", Department: "Engineering", IsActive: true})
	sales := store.AddEmployee(employee.Employee{FullName: "Tono", Department: "Sales", IsActive: true})
	store.AddEmployee(employee.Employee{FullName: "Gone", Department: "Engineering", IsActive: false})

	poster := &recordingPoster{}
	n := NewNotifier(svc, store.Employees(), poster)
	sender := employee.Actor{EmployeeID: boss.ID, Role: employee.RoleManager}

	_, err := n.Broadcast(ctx, employee.Actor{EmployeeID: eng.ID, Role: employee.RoleEmployee}, notification.BroadcastRequest{Message: "hi"})
	assert.ErrorIs(t, err, employee.ErrManagerAccessRequired)

	_, err = n.Broadcast(ctx, sender, notification.BroadcastRequest{Message: "   "})
	assert.Error(t, err)

	resp, err := n.Broadcast(ctx, sender, notification.BroadcastRequest{Message: "Standup moved to 10:00", Departments: []string{" Engineering "}})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.RecipientsCount)

	resp, err = n.Broadcast(ctx, sender, notification.BroadcastRequest{Title: "Holiday", Message: "Office closed Friday"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.RecipientsCount)
	svc.Stop()
	n.Wait()

	list, err := svc.GetNotifications(ctx, eng.ID, 1, 10, false)
	require.NoError(t, err)
	require.Len(t, list.Notifications, 2)
	for _, got := range list.Notifications {
		assert.Equal(t, notification.TypeNotice, got.Type)
		assert.Equal(t, notification.CategoryNotice, got.Category)
	}

	list, err = svc.GetNotifications(ctx, sales.ID, 1, 10, false)
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, "Holiday", list.Notifications[0].Title)
	assert.Equal(t, "Office closed Friday", list.Notifications[0].Message)

	own, err := svc.GetNotifications(ctx, boss.ID, 1, 10, false)
	require.NoError(t, err)
	assert.Empty(t, own.Notifications)

	require.Len(t, poster.messages, 2)
	assert.Contains(t, poster.messages[0], notification.DefaultNoticeTitle)
	assert.Contains(t, poster.messages[0], "Engineering")
}
