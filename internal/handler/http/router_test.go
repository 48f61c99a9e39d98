package http

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/resolution"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/chat"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/memory"
	attendanceService "github.com/cmlabs-hris/hris-attendance-go/internal/service/attendance"
	leaveService "github.com/cmlabs-hris/hris-attendance-go/internal/service/leave"
	notificationService "github.com/cmlabs-hris/hris-attendance-go/internal/service/notification"
	reportService "github.com/cmlabs-hris/hris-attendance-go/internal/service/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerTestSecret = "test-secret-key-for-jwt"

var jakarta = time.FixedZone("WIB", 7*60*60)

type testServer struct {
	handler       http.Handler
	clock         *clock.Fixed
	notifications notification.Service
	employeeToken string
	managerToken  string
	employee      employee.Employee
	manager       employee.Employee
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore(jakarta)
	clk := clock.NewFixed(time.Date(2024, time.March, 13, 9, 0, 0, 0, jakarta))
	policy := attendance.DefaultPolicy()

	emp := store.AddEmployee(employee.Employee{EmployeeCode: "EMP-001", FullName: "Adi", Department: "Engineering", IsActive: true})
	mgr := store.AddEmployee(employee.Employee{EmployeeCode: "EMP-002", FullName: "Dewi", Department: "Management", Role: employee.RoleManager, IsActive: true})

	notifSvc := notificationService.NewNotificationService(store.Notifications(), sse.NewHub(10), notificationService.Config{BatchSize: 1, FlushInterval: time.Hour, WorkerCount: 1})
	t.Cleanup(notifSvc.Stop)
	notifier := notificationService.NewNotifier(notifSvc, store.Employees(), chat.Discard{})

	attSvc := attendanceService.NewAttendanceService(store.Transactor(), store.Attendance(), clk, policy)
	leaveSvc := leaveService.NewLeaveService(store.Transactor(), store.Leaves(), store.Employees(),
		leaveService.NewAttendanceSideEffector(store.Attendance()), notifier, clk)
	reportSvc := reportService.NewReportService(store.Attendance(), store.Leaves(), store.Employees(), clk, policy)

	tokens := jwt.NewJWTService(handlerTestSecret, time.Hour)
	employeeToken, _, err := tokens.GenerateAccessToken(emp.ID, emp.Role)
	require.NoError(t, err)
	managerToken, _, err := tokens.GenerateAccessToken(mgr.ID, mgr.Role)
	require.NoError(t, err)

	router := NewRouter(RouterOptions{}, tokens,
		NewAttendanceHandler(attSvc, reportSvc),
		NewLeaveHandler(leaveSvc),
		NewReportHandler(reportSvc),
		NewDashboardHandler(reportSvc),
		NewNotificationHandler(notifSvc, notifier),
	)

	return &testServer{
		handler:       router,
		clock:         clk,
		notifications: notifSvc,
		employeeToken: employeeToken,
		managerToken:  managerToken,
		employee:      emp,
		manager:       mgr,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, target, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func TestRouter_HealthAndAuth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/attendance/today", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/dashboard/manager", s.employeeToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/dashboard/manager", s.managerToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAttendanceHandler_CheckInOut(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/attendance/check-out", s.employeeToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/attendance/check-in", s.employeeToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var record attendance.RecordResponse
	decode(t, rec, &record)
	assert.Equal(t, attendance.StatusPresent, record.Status)
	assert.Equal(t, "2024-03-13", record.Date)

	rec = s.do(t, http.MethodPost, "/api/v1/attendance/check-in", s.employeeToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.clock.Advance(8 * time.Hour)
	rec = s.do(t, http.MethodPost, "/api/v1/attendance/check-out", s.employeeToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &record)
	assert.Equal(t, 8.0, record.TotalHours)

	rec = s.do(t, http.MethodGet, "/api/v1/attendance/today", s.employeeToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var today attendance.TodayResponse
	decode(t, rec, &today)
	assert.True(t, today.Recorded)
	assert.NotNil(t, today.CheckOutAt)
}

func TestLeaveHandler_ApplyAndDecide(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/leaves", s.employeeToken, map[string]string{"leave_type": "holiday"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec, nil)
	assert.Contains(t, env.Error.Details, "leave_type")

	rec = s.do(t, http.MethodPost, "/api/v1/leaves", s.employeeToken, leave.ApplyRequest{
		Type: "annual", Reason: "family trip", StartDate: "2024-03-10", EndDate: "2024-03-11",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/leaves", s.employeeToken, leave.ApplyRequest{
		Type: "annual", Reason: "family trip", StartDate: "2024-03-14", EndDate: "2024-03-15",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created leave.LeaveRequestResponse
	decode(t, rec, &created)
	assert.Equal(t, leave.LeaveRequestStatusPending, created.Status)
	assert.Equal(t, 2, created.TotalDays)

	rec = s.do(t, http.MethodPost, "/api/v1/leaves/"+created.ID+"/approve", s.employeeToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/leaves/"+created.ID+"/approve", s.managerToken, leave.DecideRequest{Comment: "enjoy"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var decided leave.LeaveRequestResponse
	decode(t, rec, &decided)
	assert.Equal(t, leave.LeaveRequestStatusApproved, decided.Status)

	rec = s.do(t, http.MethodPost, "/api/v1/leaves/"+created.ID+"/reject", s.managerToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/leaves/does-not-exist", s.managerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	for _, path := range []string{
		"/api/v1/leaves?employee_id=abc",
		"/api/v1/leaves/stats?employee_id=abc",
		"/api/v1/attendance/export?from=2024-03-01&to=2024-03-13&employee_id=abc",
	} {
		rec = s.do(t, http.MethodGet, path, s.managerToken, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, path)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/leaves/me", s.employeeToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine leave.ListLeaveRequestResponse
	decode(t, rec, &mine)
	assert.Equal(t, 1, mine.Total)

	rec = s.do(t, http.MethodGet, "/api/v1/attendance/history?from=2024-03-13&to=2024-03-15", s.employeeToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var history struct {
		Days []struct {
			Date   string `json:"date"`
			Status string `json:"status"`
		} `json:"days"`
	}
	decode(t, rec, &history)
	require.Len(t, history.Days, 3)
	assert.Equal(t, "2024-03-15", history.Days[0].Date)
	assert.Equal(t, string(resolution.DayLeaveApproved), history.Days[0].Status)

	// The applicant hears about the approval.
	require.Eventually(t, func() bool {
		count, err := s.notifications.GetUnreadCount(t.Context(), s.employee.ID)
		return err == nil && count == 1
	}, 2*time.Second, 10*time.Millisecond)

	rec = s.do(t, http.MethodGet, "/api/v1/notifications/unread-count", s.employeeToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var unread notification.UnreadCountResponse
	decode(t, rec, &unread)
	assert.Equal(t, 1, unread.UnreadCount)

	rec = s.do(t, http.MethodPost, "/api/v1/notifications/read-all", s.employeeToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReportHandler_Export(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/attendance/check-in", s.employeeToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/attendance/export?from=2024-03-13&to=2024-03-13", s.employeeToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/attendance/export?from=2024-03-13&to=2024-03-13&format=pdf", s.managerToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/attendance/export?from=2024-03-13&to=2024-03-12", s.managerToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/attendance/export?from=2024-03-13&to=2024-03-13&format=csv", s.managerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance_2024-03-13_2024-03-13.csv")

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Date", rows[0][0])
}

func TestAttendanceHandler_Summary(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/attendance/summary?year=2024&month=13", s.employeeToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/attendance/summary", s.employeeToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/attendance/calendar?year=2024&month=2", s.employeeToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cal struct {
		Days []json.RawMessage `json:"days"`
	}
	decode(t, rec, &cal)
	assert.Len(t, cal.Days, 29)

	rec = s.do(t, http.MethodGet, "/api/v1/attendance/team/summary", s.employeeToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/attendance/team/summary?department=Engineering", s.managerToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestManagerViews(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/attendance/check-in", s.employeeToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/attendance/all", s.employeeToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/attendance/all?from=2024-03-12&to=2024-03-13&status=present&limit=5", s.managerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var list struct {
		Rows []struct {
			EmployeeID string `json:"employee_id"`
			Date       string `json:"date"`
			Status     string `json:"status"`
		} `json:"rows"`
		Total int `json:"total"`
	}
	decode(t, rec, &list)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, s.employee.ID, list.Rows[0].EmployeeID)
	assert.Equal(t, "2024-03-13", list.Rows[0].Date)

	rec = s.do(t, http.MethodGet, "/api/v1/attendance/all?status=sleeping", s.managerToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/attendance/employees/"+s.employee.ID+"/history?from=2024-03-13&to=2024-03-13", s.employeeToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/attendance/employees/"+s.employee.ID+"/history?from=2024-03-13&to=2024-03-13", s.managerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var history struct {
		Days []struct {
			Status string `json:"status"`
		} `json:"days"`
	}
	decode(t, rec, &history)
	require.Len(t, history.Days, 1)
	assert.Equal(t, string(resolution.DayPresent), history.Days[0].Status)

	rec = s.do(t, http.MethodGet, "/api/v1/attendance/employees/abc/history?from=2024-03-13&to=2024-03-13", s.managerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotificationHandler_Broadcast(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/notifications/broadcast", s.employeeToken, notification.BroadcastRequest{Message: "hi"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/notifications/broadcast", s.managerToken, notification.BroadcastRequest{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/notifications/broadcast", s.managerToken, notification.BroadcastRequest{Message: "Town hall at 15:00"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp notification.BroadcastResponse
	decode(t, rec, &resp)
	assert.Equal(t, 1, resp.RecipientsCount)

	require.Eventually(t, func() bool {
		count, err := s.notifications.GetUnreadCount(t.Context(), s.employee.ID)
		return err == nil && count == 1
	}, 2*time.Second, 10*time.Millisecond)
}
