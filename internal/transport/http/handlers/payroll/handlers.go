package payrollhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/payroll"
	"hrms/internal/platform/requestctx"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Handler struct {
	Service *payroll.Service
	Audit   *audit.Service
}

func NewHandler(service *payroll.Service, auditor *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAction(auth.ResourcePayroll, "periods")).
		Post("/payroll/periods", h.HandleCreatePeriod)
	r.With(middleware.RequireAction(auth.ResourcePayroll, "periods")).
		Get("/payroll/periods", h.HandleListPeriods)
	r.With(middleware.RequireAction(auth.ResourcePayroll, "periods")).
		Post("/payroll/periods/{periodID}/close", h.HandleClosePeriod)
	r.With(middleware.RequireAction(auth.ResourcePayroll, "run")).
		Post("/payroll/periods/{periodID}/run", h.HandleRun)

	r.With(middleware.RequireAction(auth.ResourcePayroll, "read")).
		Get("/payroll", h.HandleList)
	r.With(middleware.RequireAction(auth.ResourcePayroll, "generate_payslip")).
		Post("/payroll/{payrollID}/payslip", h.HandleGeneratePayslip)
	r.With(middleware.RequireAction(auth.ResourcePayroll, "download_payslip")).
		Get("/payroll/{payrollID}/payslip", h.HandleDownloadPayslip)
}

type periodRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func (h *Handler) HandleCreatePeriod(w http.ResponseWriter, r *http.Request) {
	var payload periodRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}

	period, err := h.Service.CreatePeriod(r.Context(), start, end)
	if err != nil {
		if errors.Is(err, payroll.ErrInvalidRange) {
			api.Fail(w, http.StatusBadRequest, "validation_error", "end date must not precede start date", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create payroll period", requestctx.GetRequestID(r.Context()))
		return
	}

	h.record(r, "payroll.period_create", "payroll_period", period.ID, period)
	api.Created(w, period, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Service.ListPeriods(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to list payroll periods", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"periods": periods}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleClosePeriod(w http.ResponseWriter, r *http.Request) {
	periodID := chi.URLParam(r, "periodID")
	finalized, err := h.Service.ClosePeriod(r.Context(), periodID)
	if err != nil {
		if errors.Is(err, payroll.ErrPeriodNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "payroll period not found", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to close payroll period", requestctx.GetRequestID(r.Context()))
		return
	}
	h.record(r, "payroll.period_close", "payroll_period", periodID, map[string]int{"finalized": finalized})
	api.Success(w, map[string]any{"id": periodID, "status": "closed", "finalized": finalized}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	periodID := chi.URLParam(r, "periodID")
	result, err := h.Service.RunForPeriod(r.Context(), periodID)
	if err != nil {
		switch {
		case errors.Is(err, payroll.ErrPeriodNotFound):
			api.Fail(w, http.StatusNotFound, "not_found", "payroll period not found", requestctx.GetRequestID(r.Context()))
		case errors.Is(err, payroll.ErrPeriodClosed):
			api.Fail(w, http.StatusConflict, "invalid_state", "payroll period is closed", requestctx.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "run_failed", "failed to run payroll", requestctx.GetRequestID(r.Context()))
		}
		return
	}

	h.record(r, "payroll.run", "payroll_period", periodID, result)
	api.Success(w, result, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}
	page := shared.ParsePagination(r, 25, 100)
	employeeID := strings.TrimSpace(r.URL.Query().Get("employeeId"))
	periodID := strings.TrimSpace(r.URL.Query().Get("periodId"))

	if user.Role != auth.RoleHR {
		own, err := h.Service.EmployeeIDByUserID(r.Context(), user.UserID)
		if err != nil {
			api.Fail(w, http.StatusNotFound, "not_found", "no employee profile for this account", requestctx.GetRequestID(r.Context()))
			return
		}
		employeeID = own
	}

	payrolls, err := h.Service.List(r.Context(), employeeID, periodID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to list payrolls", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"payrolls": payrolls,
		"limit":    page.Limit,
		"offset":   page.Offset,
	}, requestctx.GetRequestID(r.Context()))
}

// HandleGeneratePayslip kicks off background rendering. One caller wins the
// generation flag; concurrent callers get payslip_generating until the render
// completes or the lock goes stale.
func (h *Handler) HandleGeneratePayslip(w http.ResponseWriter, r *http.Request) {
	payrollID := chi.URLParam(r, "payrollID")
	if !h.canAccess(w, r, payrollID) {
		return
	}

	if err := h.Service.GeneratePayslip(r.Context(), payrollID); err != nil {
		switch {
		case errors.Is(err, payroll.ErrNotFound):
			api.Fail(w, http.StatusNotFound, "not_found", "payroll not found", requestctx.GetRequestID(r.Context()))
		case errors.Is(err, payroll.ErrAlreadyGenerating):
			api.Fail(w, http.StatusConflict, "payslip_generating", "payslip generation already in progress", requestctx.GetRequestID(r.Context()))
		case errors.Is(err, payroll.ErrWorkerBusy):
			api.Fail(w, http.StatusServiceUnavailable, "worker_busy", "payslip generation is temporarily unavailable, retry shortly", requestctx.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "generate_failed", "failed to start payslip generation", requestctx.GetRequestID(r.Context()))
		}
		return
	}

	h.record(r, "payroll.payslip_generate", "payroll", payrollID, nil)
	api.WriteJSON(w, http.StatusAccepted, api.Envelope{
		Success:   true,
		Data:      map[string]string{"id": payrollID, "status": "generating"},
		RequestID: requestctx.GetRequestID(r.Context()),
	})
}

func (h *Handler) HandleDownloadPayslip(w http.ResponseWriter, r *http.Request) {
	payrollID := chi.URLParam(r, "payrollID")
	if !h.canAccess(w, r, payrollID) {
		return
	}

	path, err := h.Service.PayslipPath(r.Context(), payrollID)
	if err != nil {
		switch {
		case errors.Is(err, payroll.ErrNotFound):
			api.Fail(w, http.StatusNotFound, "not_found", "payroll not found", requestctx.GetRequestID(r.Context()))
		case errors.Is(err, payroll.ErrPayslipNotReady):
			api.Fail(w, http.StatusNotFound, "not_found", "payslip not generated yet", requestctx.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to resolve payslip", requestctx.GetRequestID(r.Context()))
		}
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="payslip-`+payrollID+`.pdf"`)
	http.ServeFile(w, r, path)
}

// canAccess enforces ownership on payslip operations: employees may only
// touch payrolls belonging to their own employee record.
func (h *Handler) canAccess(w http.ResponseWriter, r *http.Request, payrollID string) bool {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return false
	}
	if user.Role == auth.RoleHR {
		return true
	}

	pr, err := h.Service.Get(r.Context(), payrollID)
	if err != nil {
		if errors.Is(err, payroll.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "payroll not found", requestctx.GetRequestID(r.Context()))
			return false
		}
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to load payroll", requestctx.GetRequestID(r.Context()))
		return false
	}
	own, err := h.Service.EmployeeIDByUserID(r.Context(), user.UserID)
	if err != nil || own != pr.EmployeeID {
		api.Fail(w, http.StatusForbidden, "forbidden", "not your payroll record", requestctx.GetRequestID(r.Context()))
		return false
	}
	return true
}

func (h *Handler) record(r *http.Request, action, entityType, entityID string, after any) {
	if h.Audit == nil {
		return
	}
	actorID := ""
	if user, ok := middleware.GetUser(r.Context()); ok {
		actorID = user.UserID
	}
	if err := h.Audit.Record(r.Context(), actorID, action, entityType, entityID,
		requestctx.GetRequestID(r.Context()), shared.ClientIP(r), nil, after); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}
