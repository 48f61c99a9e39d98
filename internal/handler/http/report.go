package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
)

// ReportHandler serves the manager-facing team reports.
type ReportHandler interface {
	TeamSummary(w http.ResponseWriter, r *http.Request)
	TeamCalendar(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
	ListAttendance(w http.ResponseWriter, r *http.Request)
	EmployeeHistory(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
}

func NewReportHandler(reportService report.ReportService) ReportHandler {
	return &reportHandlerImpl{reportService: reportService}
}

// TeamSummary handles GET /attendance/team/summary?year=&month=&department=
func (h *reportHandlerImpl) TeamSummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	result, err := h.reportService.TeamSummary(r.Context(), actor, periodFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// TeamCalendar handles GET /attendance/team/calendar?year=&month=&department=
func (h *reportHandlerImpl) TeamCalendar(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	result, err := h.reportService.TeamCalendar(r.Context(), actor, periodFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Export handles GET /attendance/export?from=&to=&format=csv|xlsx&department=&employee_id=
func (h *reportHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	file, err := h.reportService.Export(r.Context(), actor, report.ExportRequest{
		RangeRequest: report.RangeRequest{
			From: query.Get("from"),
			To:   query.Get("to"),
		},
		Format:     query.Get("format"),
		Department: getOptionalQueryParam(r, "department"),
		EmployeeID: getOptionalQueryParam(r, "employee_id"),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.File(w, file.Filename, file.ContentType, file.Data)
}

// ListAttendance handles GET /attendance/all?from=&to=&employee_id=&department=&status=&page=&limit=
func (h *reportHandlerImpl) ListAttendance(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	result, err := h.reportService.ListAttendance(r.Context(), actor, report.AttendanceListRequest{
		From:       query.Get("from"),
		To:         query.Get("to"),
		EmployeeID: getOptionalQueryParam(r, "employee_id"),
		Department: getOptionalQueryParam(r, "department"),
		Status:     getOptionalQueryParam(r, "status"),
		Page:       getIntQueryParam(r, "page", 1),
		Limit:      getIntQueryParam(r, "limit", report.DefaultListLimit),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, response.NewMeta(result.Page, result.Limit, result.Total))
}

// EmployeeHistory handles GET /attendance/employees/{id}/history?from=&to=
func (h *reportHandlerImpl) EmployeeHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	result, err := h.reportService.EmployeeHistory(r.Context(), actor, chi.URLParam(r, "id"), report.RangeRequest{
		From: query.Get("from"),
		To:   query.Get("to"),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
