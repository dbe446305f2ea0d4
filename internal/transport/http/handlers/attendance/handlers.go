package attendancehandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/attendance"
	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/core"
	"hrms/internal/platform/requestctx"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Handler struct {
	Service *attendance.Service
	Audit   *audit.Service

	// Now is swapped in tests to pin the clock.
	Now func() time.Time
}

func NewHandler(service *attendance.Service, auditor *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditor, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAction(auth.ResourceAttendance, "check_in")).
		Post("/attendance/check-in", h.HandleCheckIn)
	r.With(middleware.RequireAction(auth.ResourceAttendance, "check_out")).
		Post("/attendance/check-out", h.HandleCheckOut)
	r.With(middleware.RequireAction(auth.ResourceAttendance, "manual_checkout")).
		Post("/attendance/{recordID}/manual-checkout", h.HandleManualCheckout)
	r.With(middleware.RequireAction(auth.ResourceAttendance, "read")).
		Get("/attendance", h.HandleList)
}

type targetRequest struct {
	EmployeeID string `json:"employeeId"`
}

func (h *Handler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.resolveEmployee(w, r)
	if !ok {
		return
	}

	rec, err := h.Service.CheckIn(r.Context(), employeeID, h.now())
	if err != nil {
		if errors.Is(err, attendance.ErrAlreadyCheckedIn) {
			api.Fail(w, http.StatusConflict, "already_checked_in", "already checked in today", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "check_in_failed", "failed to record check-in", requestctx.GetRequestID(r.Context()))
		return
	}

	h.record(r, "attendance.check_in", rec.ID, rec)
	api.Success(w, rec, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleCheckOut(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.resolveEmployee(w, r)
	if !ok {
		return
	}

	rec, err := h.Service.CheckOut(r.Context(), employeeID, h.now())
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrNotCheckedIn):
			api.Fail(w, http.StatusConflict, "invalid_state", "no open check-in for today", requestctx.GetRequestID(r.Context()))
		case errors.Is(err, attendance.ErrAlreadyCheckedOut):
			api.Fail(w, http.StatusConflict, "already_checked_out", "already checked out today", requestctx.GetRequestID(r.Context()))
		case errors.Is(err, attendance.ErrCheckInInFuture):
			api.Fail(w, http.StatusBadRequest, "validation_error", "check-in time is after check-out time", requestctx.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "check_out_failed", "failed to record check-out", requestctx.GetRequestID(r.Context()))
		}
		return
	}

	h.record(r, "attendance.check_out", rec.ID, rec)
	api.Success(w, rec, requestctx.GetRequestID(r.Context()))
}

// HandleManualCheckout closes an arbitrary attendance record. HR only; the
// record ends up present regardless of when the check-in happened.
func (h *Handler) HandleManualCheckout(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "recordID")
	rec, err := h.Service.ManualCheckout(r.Context(), recordID, h.now())
	if err != nil {
		if errors.Is(err, attendance.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "attendance record not found", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "check_out_failed", "failed to close attendance record", requestctx.GetRequestID(r.Context()))
		return
	}

	h.record(r, "attendance.manual_checkout", rec.ID, rec)
	api.Success(w, rec, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}
	page := shared.ParsePagination(r, 25, 100)
	employeeID := strings.TrimSpace(r.URL.Query().Get("employeeId"))
	if user.Role != auth.RoleHR {
		own, err := h.Service.EmployeeIDByUserID(r.Context(), user.UserID)
		if err != nil {
			api.Fail(w, http.StatusNotFound, "not_found", "no employee profile for this account", requestctx.GetRequestID(r.Context()))
			return
		}
		employeeID = own
	}

	v := shared.NewValidator()
	var from, to *time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		if parsed, ok := v.Date("from", raw); ok {
			from = &parsed
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if parsed, ok := v.Date("to", raw); ok {
			to = &parsed
		}
	}
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}

	result, err := h.Service.List(r.Context(), employeeID, from, to, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to list attendance", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"records": result.Items,
		"total":   result.Total,
		"limit":   page.Limit,
		"offset":  page.Offset,
	}, requestctx.GetRequestID(r.Context()))
}

// resolveEmployee picks the attendance target: HR may name an employee in the
// body, everyone else acts on their own record. An empty or absent body is
// fine for self check-ins.
func (h *Handler) resolveEmployee(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return "", false
	}

	var payload targetRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return "", false
	}
	requested := strings.TrimSpace(payload.EmployeeID)
	if user.Role == auth.RoleHR && requested != "" {
		return requested, true
	}

	own, err := h.Service.EmployeeIDByUserID(r.Context(), user.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNoEmployeeProfile) {
			api.Fail(w, http.StatusNotFound, "not_found", "no employee profile for this account", requestctx.GetRequestID(r.Context()))
			return "", false
		}
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to resolve employee", requestctx.GetRequestID(r.Context()))
		return "", false
	}
	return own, true
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) record(r *http.Request, action, entityID string, after any) {
	if h.Audit == nil {
		return
	}
	actorID := ""
	if user, ok := middleware.GetUser(r.Context()); ok {
		actorID = user.UserID
	}
	if err := h.Audit.Record(r.Context(), actorID, action, "attendance", entityID,
		requestctx.GetRequestID(r.Context()), shared.ClientIP(r), nil, after); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}
