package leavehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/core"
	"hrms/internal/domain/leave"
	"hrms/internal/domain/notifications"
	"hrms/internal/platform/requestctx"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Audit   *audit.Service
	Notify  *notifications.Service
}

func NewHandler(service *leave.Service, auditor *audit.Service, notify *notifications.Service) *Handler {
	return &Handler{Service: service, Audit: auditor, Notify: notify}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAction(auth.ResourceLeave, "create")).
		Post("/leave/requests", h.HandleCreate)
	r.With(middleware.RequireAction(auth.ResourceLeave, "read")).
		Get("/leave/requests", h.HandleList)
	r.With(middleware.RequireAction(auth.ResourceLeave, "read")).
		Get("/leave/requests/{requestID}", h.HandleGet)
	r.With(middleware.RequireAction(auth.ResourceLeave, "approve")).
		Post("/leave/requests/{requestID}/approve", h.HandleApprove)
	r.With(middleware.RequireAction(auth.ResourceLeave, "reject")).
		Post("/leave/requests/{requestID}/reject", h.HandleReject)
	r.With(middleware.RequireAction(auth.ResourceLeave, "cancel")).
		Post("/leave/requests/{requestID}/cancel", h.HandleCancel)

	r.With(middleware.RequireAction(auth.ResourceLeave, "read")).
		Get("/leave/balance", h.HandleGetBalance)
	r.With(middleware.RequireAction(auth.ResourceLeave, "adjust")).
		Post("/leave/balances/{employeeID}/adjust", h.HandleAdjustBalance)
}

type createRequest struct {
	EmployeeID string `json:"employeeId"`
	Type       string `json:"type"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	Reason     string `json:"reason"`
}

type adjustRequest struct {
	CasualDelta int `json:"casualDelta"`
	SickDelta   int `json:"sickDelta"`
}

// HandleCreate files a leave request. Employees always file for themselves;
// HR may file on behalf of another employee by passing employeeId.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}
	var payload createRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Enum("type", payload.Type, leave.Types, "must be one of CASUAL, SICK, UNPAID")
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}

	employeeID, ok := h.resolveEmployee(w, r, user, payload.EmployeeID)
	if !ok {
		return
	}

	request, err := h.Service.Create(r.Context(), employeeID, strings.ToUpper(strings.TrimSpace(payload.Type)),
		strings.TrimSpace(payload.Reason), start, end)
	if err != nil {
		switch {
		case errors.Is(err, leave.ErrInvalidRange), errors.Is(err, leave.ErrInvalidType):
			api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestctx.GetRequestID(r.Context()))
		case errors.Is(err, leave.ErrDuplicateRequest):
			api.Fail(w, http.StatusConflict, "duplicate_request", "an open or decided request already covers these dates", requestctx.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create leave request", requestctx.GetRequestID(r.Context()))
		}
		return
	}

	h.record(r, "leave.create", request.ID, nil, request)
	api.Created(w, request, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}
	page := shared.ParsePagination(r, 25, 100)
	status := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))
	employeeID := strings.TrimSpace(r.URL.Query().Get("employeeId"))

	// Employees only ever see their own requests.
	if user.Role != auth.RoleHR {
		own, err := h.Service.EmployeeIDByUserID(r.Context(), user.UserID)
		if err != nil {
			api.Fail(w, http.StatusNotFound, "not_found", "no employee profile for this account", requestctx.GetRequestID(r.Context()))
			return
		}
		employeeID = own
	}

	result, err := h.Service.List(r.Context(), employeeID, status, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to list leave requests", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"requests": result.Items,
		"total":    result.Total,
		"limit":    page.Limit,
		"offset":   page.Offset,
	}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}
	request, err := h.Service.Get(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		if errors.Is(err, leave.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to load leave request", requestctx.GetRequestID(r.Context()))
		return
	}
	if user.Role != auth.RoleHR {
		own, err := h.Service.EmployeeIDByUserID(r.Context(), user.UserID)
		if err != nil || own != request.EmployeeID {
			api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", requestctx.GetRequestID(r.Context()))
			return
		}
	}
	api.Success(w, request, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	request, err := h.Service.Approve(r.Context(), chi.URLParam(r, "requestID"), user.UserID)
	if err != nil {
		switch {
		case errors.Is(err, leave.ErrNotFound):
			api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", requestctx.GetRequestID(r.Context()))
		case errors.Is(err, leave.ErrInvalidState):
			api.Fail(w, http.StatusConflict, "invalid_state", "request is no longer pending", requestctx.GetRequestID(r.Context()))
		case errors.Is(err, leave.ErrInsufficientBalance):
			api.Fail(w, http.StatusBadRequest, "insufficient_balance", "employee has insufficient leave balance", requestctx.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "approve_failed", "failed to approve leave request", requestctx.GetRequestID(r.Context()))
		}
		return
	}

	h.record(r, "leave.approve", request.ID, nil, request)
	h.notifyOwner(r, request, notifications.TypeLeaveApproved, "Leave approved",
		"Your leave request has been approved.")
	api.Success(w, request, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	request, err := h.Service.Reject(r.Context(), chi.URLParam(r, "requestID"), user.UserID)
	if err != nil {
		switch {
		case errors.Is(err, leave.ErrNotFound):
			api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", requestctx.GetRequestID(r.Context()))
		case errors.Is(err, leave.ErrInvalidState):
			api.Fail(w, http.StatusConflict, "invalid_state", "request is no longer pending", requestctx.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "reject_failed", "failed to reject leave request", requestctx.GetRequestID(r.Context()))
		}
		return
	}

	h.record(r, "leave.reject", request.ID, nil, request)
	h.notifyOwner(r, request, notifications.TypeLeaveRejected, "Leave rejected",
		"Your leave request has been rejected.")
	api.Success(w, request, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	request, err := h.Service.Cancel(r.Context(), chi.URLParam(r, "requestID"), user.UserID)
	if err != nil {
		switch {
		case errors.Is(err, leave.ErrNotFound), errors.Is(err, core.ErrNoEmployeeProfile):
			api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", requestctx.GetRequestID(r.Context()))
		case errors.Is(err, leave.ErrForbidden):
			api.Fail(w, http.StatusForbidden, "forbidden", "only the requester may cancel", requestctx.GetRequestID(r.Context()))
		case errors.Is(err, leave.ErrInvalidState):
			api.Fail(w, http.StatusConflict, "invalid_state", "only pending requests can be cancelled", requestctx.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "cancel_failed", "failed to cancel leave request", requestctx.GetRequestID(r.Context()))
		}
		return
	}

	h.record(r, "leave.cancel", request.ID, nil, request)
	api.Success(w, request, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleGetBalance(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}
	employeeID := strings.TrimSpace(r.URL.Query().Get("employeeId"))
	if user.Role != auth.RoleHR || employeeID == "" {
		own, err := h.Service.EmployeeIDByUserID(r.Context(), user.UserID)
		if err != nil {
			api.Fail(w, http.StatusNotFound, "not_found", "no employee profile for this account", requestctx.GetRequestID(r.Context()))
			return
		}
		employeeID = own
	}

	balance, err := h.Service.Balance(r.Context(), employeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to load leave balance", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, balance, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	var payload adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	if payload.CasualDelta == 0 && payload.SickDelta == 0 {
		api.Fail(w, http.StatusBadRequest, "validation_error", "at least one non-zero delta is required", requestctx.GetRequestID(r.Context()))
		return
	}

	balance, err := h.Service.AdjustBalance(r.Context(), employeeID, payload.CasualDelta, payload.SickDelta)
	if err != nil {
		switch {
		case errors.Is(err, leave.ErrNegativeBalance):
			api.Fail(w, http.StatusBadRequest, "validation_error", "balance cannot go negative", requestctx.GetRequestID(r.Context()))
		case errors.Is(err, core.ErrNotFound):
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestctx.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "adjust_failed", "failed to adjust leave balance", requestctx.GetRequestID(r.Context()))
		}
		return
	}

	h.record(r, "leave.balance_adjust", employeeID, nil, payload)
	api.Success(w, balance, requestctx.GetRequestID(r.Context()))
}

// resolveEmployee maps the request to an employee row: HR may target anyone,
// everyone else resolves to their own profile.
func (h *Handler) resolveEmployee(w http.ResponseWriter, r *http.Request, user auth.UserContext, requested string) (string, bool) {
	requested = strings.TrimSpace(requested)
	if user.Role == auth.RoleHR && requested != "" {
		return requested, true
	}
	own, err := h.Service.EmployeeIDByUserID(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "no employee profile for this account", requestctx.GetRequestID(r.Context()))
		return "", false
	}
	return own, true
}

func (h *Handler) notifyOwner(r *http.Request, request *leave.Request, ntype, title, body string) {
	if h.Notify == nil {
		return
	}
	userID, err := h.Service.Core.UserIDByEmployeeID(r.Context(), request.EmployeeID)
	if err != nil {
		return
	}
	_ = h.Notify.Create(r.Context(), userID, ntype, title, body)
}

func (h *Handler) record(r *http.Request, action, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	actorID := ""
	if user, ok := middleware.GetUser(r.Context()); ok {
		actorID = user.UserID
	}
	if err := h.Audit.Record(r.Context(), actorID, action, "leave_request", entityID,
		requestctx.GetRequestID(r.Context()), shared.ClientIP(r), before, after); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}
