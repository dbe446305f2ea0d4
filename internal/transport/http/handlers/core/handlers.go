package corehandler

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
	"hrms/internal/domain/notifications"
	"hrms/internal/platform/requestctx"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Handler struct {
	Service *core.Service
	Audit   *audit.Service
	Notify  *notifications.Service
}

func NewHandler(service *core.Service, auditor *audit.Service, notify *notifications.Service) *Handler {
	return &Handler{Service: service, Audit: auditor, Notify: notify}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAction(auth.ResourceDepartments, "read")).
		Get("/departments", h.HandleListDepartments)
	r.With(middleware.RequireAction(auth.ResourceDepartments, "write")).
		Post("/departments", h.HandleCreateDepartment)
	r.With(middleware.RequireAction(auth.ResourceDepartments, "write")).
		Put("/departments/{departmentID}", h.HandleUpdateDepartment)
	r.With(middleware.RequireAction(auth.ResourceDepartments, "write")).
		Delete("/departments/{departmentID}", h.HandleDeleteDepartment)

	r.With(middleware.RequireAction(auth.ResourceEmployees, "me")).
		Get("/employees/me", h.HandleGetMe)
	r.With(middleware.RequireAction(auth.ResourceEmployees, "me")).
		Put("/employees/me", h.HandleSelfUpdate)

	r.With(middleware.RequireAction(auth.ResourceEmployees, "read")).
		Get("/employees", h.HandleListEmployees)
	r.With(middleware.RequireAction(auth.ResourceEmployees, "write")).
		Post("/employees", h.HandleCreateEmployee)
	r.With(middleware.RequireAction(auth.ResourceEmployees, "read")).
		Get("/employees/{employeeID}", h.HandleGetEmployee)
	r.With(middleware.RequireAction(auth.ResourceEmployees, "write")).
		Put("/employees/{employeeID}", h.HandleUpdateEmployee)
	r.With(middleware.RequireAction(auth.ResourceEmployees, "approve")).
		Post("/employees/{employeeID}/verify", h.HandleVerifyEmployee)

	r.With(middleware.RequireAction(auth.ResourcePayment, "read")).
		Get("/employees/{employeeID}/payment-profile", h.HandleGetPaymentProfile)
	r.With(middleware.RequireAction(auth.ResourcePayment, "write")).
		Put("/employees/{employeeID}/payment-profile", h.HandleUpsertPaymentProfile)
	r.With(middleware.RequireAction(auth.ResourcePayment, "mine")).
		Get("/payment-profile/me", h.HandleGetMyPaymentProfile)

	r.With(middleware.RequireAction(auth.ResourceUsers, "manage")).
		Get("/users", h.HandleListUsers)
	r.With(middleware.RequireAction(auth.ResourceUsers, "manage")).
		Post("/users/{userID}/activate", h.HandleActivateUser)
	r.With(middleware.RequireAction(auth.ResourceUsers, "manage")).
		Post("/users/{userID}/deactivate", h.HandleDeactivateUser)
}

type departmentRequest struct {
	Name string `json:"name"`
}

type employeeRequest struct {
	UserID        string `json:"userId"`
	DepartmentID  string `json:"departmentId"`
	FullName      string `json:"fullName"`
	Designation   string `json:"designation"`
	DateOfJoining string `json:"dateOfJoining"`
	BankAccount   string `json:"bankAccount"`
	IFSCCode      string `json:"ifscCode"`
}

type paymentProfileRequest struct {
	BaseSalary   float64 `json:"baseSalary"`
	OvertimeRate float64 `json:"overtimeRate"`
}

func (h *Handler) HandleListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Service.ListDepartments(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to list departments", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"departments": departments}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	var payload departmentRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Service.CreateDepartment(r.Context(), strings.TrimSpace(payload.Name))
	if err != nil {
		if errors.Is(err, core.ErrDuplicateName) {
			api.Fail(w, http.StatusConflict, "conflict", "department name already exists", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create department", requestctx.GetRequestID(r.Context()))
		return
	}
	h.record(r, "department.create", "department", id, nil, payload)
	api.Created(w, map[string]string{"id": id}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	departmentID := chi.URLParam(r, "departmentID")
	var payload departmentRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}

	if err := h.Service.UpdateDepartment(r.Context(), departmentID, strings.TrimSpace(payload.Name)); err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			api.Fail(w, http.StatusNotFound, "not_found", "department not found", requestctx.GetRequestID(r.Context()))
		case errors.Is(err, core.ErrDuplicateName):
			api.Fail(w, http.StatusConflict, "conflict", "department name already exists", requestctx.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update department", requestctx.GetRequestID(r.Context()))
		}
		return
	}
	h.record(r, "department.update", "department", departmentID, nil, payload)
	api.Success(w, map[string]string{"id": departmentID}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	departmentID := chi.URLParam(r, "departmentID")
	if err := h.Service.DeleteDepartment(r.Context(), departmentID); err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			api.Fail(w, http.StatusNotFound, "not_found", "department not found", requestctx.GetRequestID(r.Context()))
		case errors.Is(err, core.ErrDepartmentInUse):
			api.Fail(w, http.StatusConflict, "invalid_state", "department still has employees", requestctx.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "delete_failed", "failed to delete department", requestctx.GetRequestID(r.Context()))
		}
		return
	}
	h.record(r, "department.delete", "department", departmentID, nil, nil)
	api.Success(w, map[string]string{"id": departmentID}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleListEmployees(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 25, 100)
	departmentID := strings.TrimSpace(r.URL.Query().Get("departmentId"))

	employees, err := h.Service.ListEmployees(r.Context(), departmentID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to list employees", requestctx.GetRequestID(r.Context()))
		return
	}
	total, err := h.Service.CountEmployees(r.Context(), departmentID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to list employees", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"employees": employees,
		"total":     total,
		"limit":     page.Limit,
		"offset":    page.Offset,
	}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleGetEmployee(w http.ResponseWriter, r *http.Request) {
	employee, err := h.Service.GetEmployee(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to load employee", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, employee, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var payload employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("userId", payload.UserID, "userId is required")
	v.Required("fullName", payload.FullName, "fullName is required")
	var joined = v.OptionalDate("dateOfJoining", payload.DateOfJoining)
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}

	emp := core.Employee{
		UserID:       strings.TrimSpace(payload.UserID),
		DepartmentID: strings.TrimSpace(payload.DepartmentID),
		FullName:     strings.TrimSpace(payload.FullName),
		Designation:  strings.TrimSpace(payload.Designation),
		BankAccount:  strings.TrimSpace(payload.BankAccount),
		IFSCCode:     strings.TrimSpace(payload.IFSCCode),
	}
	if !joined.IsZero() {
		emp.DateOfJoining = &joined
	}

	id, err := h.Service.CreateEmployee(r.Context(), emp)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrUserAlreadyLinked):
			api.Fail(w, http.StatusConflict, "conflict", "user already has an employee profile", requestctx.GetRequestID(r.Context()))
		case errors.Is(err, core.ErrNotFound):
			api.Fail(w, http.StatusBadRequest, "validation_error", "user or department does not exist", requestctx.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create employee", requestctx.GetRequestID(r.Context()))
		}
		return
	}
	h.record(r, "employee.create", "employee", id, nil, emp)
	api.Created(w, map[string]string{"id": id}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	emp, ok := h.decodeEmployeeUpdate(w, r)
	if !ok {
		return
	}
	before, err := h.Service.GetEmployee(r.Context(), employeeID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to load employee", requestctx.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.UpdateEmployee(r.Context(), employeeID, emp); err != nil {
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update employee", requestctx.GetRequestID(r.Context()))
		return
	}
	h.record(r, "employee.update", "employee", employeeID, before, emp)
	api.Success(w, map[string]string{"id": employeeID}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleVerifyEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	if err := h.Service.VerifyEmployee(r.Context(), employeeID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to verify employee", requestctx.GetRequestID(r.Context()))
		return
	}
	h.record(r, "employee.verify", "employee", employeeID, nil, nil)

	if h.Notify != nil {
		if userID, err := h.Service.UserIDByEmployeeID(r.Context(), employeeID); err == nil {
			_ = h.Notify.Create(r.Context(), userID, notifications.TypeProfileVerified,
				"Profile verified", "Your employee profile has been verified by HR.")
		}
	}
	api.Success(w, map[string]string{"id": employeeID, "status": "verified"}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}
	employee, err := h.Service.GetEmployeeByUserID(r.Context(), user.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNoEmployeeProfile) {
			api.Fail(w, http.StatusNotFound, "not_found", "no employee profile for this account", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to load profile", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, employee, requestctx.GetRequestID(r.Context()))
}

// HandleSelfUpdate lets an employee edit their own profile. The change lands
// unverified: pending_update is set and HR has to verify again.
func (h *Handler) HandleSelfUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}
	current, err := h.Service.GetEmployeeByUserID(r.Context(), user.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNoEmployeeProfile) {
			api.Fail(w, http.StatusNotFound, "not_found", "no employee profile for this account", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to load profile", requestctx.GetRequestID(r.Context()))
		return
	}
	emp, ok := h.decodeEmployeeUpdate(w, r)
	if !ok {
		return
	}
	if err := h.Service.SelfUpdate(r.Context(), current.ID, emp); err != nil {
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update profile", requestctx.GetRequestID(r.Context()))
		return
	}
	h.record(r, "employee.self_update", "employee", current.ID, current, emp)
	api.Success(w, map[string]string{"id": current.ID, "status": "pending_verification"}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleGetPaymentProfile(w http.ResponseWriter, r *http.Request) {
	h.writePaymentProfile(w, r, chi.URLParam(r, "employeeID"))
}

func (h *Handler) HandleGetMyPaymentProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}
	employeeID, err := h.Service.EmployeeIDByUserID(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "no employee profile for this account", requestctx.GetRequestID(r.Context()))
		return
	}
	h.writePaymentProfile(w, r, employeeID)
}

func (h *Handler) writePaymentProfile(w http.ResponseWriter, r *http.Request, employeeID string) {
	profile, err := h.Service.GetPaymentProfile(r.Context(), employeeID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "payment profile not found", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to load payment profile", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, profile, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpsertPaymentProfile(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	var payload paymentProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	if payload.BaseSalary < 0 {
		v.Add("baseSalary", "baseSalary must not be negative")
	}
	if payload.OvertimeRate < 0 {
		v.Add("overtimeRate", "overtimeRate must not be negative")
	}
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}

	if err := h.Service.UpsertPaymentProfile(r.Context(), employeeID, payload.BaseSalary, payload.OvertimeRate); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to save payment profile", requestctx.GetRequestID(r.Context()))
		return
	}
	h.record(r, "payment_profile.upsert", "payment_profile", employeeID, nil, payload)
	api.Success(w, map[string]string{"employeeId": employeeID}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 25, 100)
	users, err := h.Service.ListUsers(r.Context(), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to list users", requestctx.GetRequestID(r.Context()))
		return
	}
	total, err := h.Service.CountUsers(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to list users", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"users":  users,
		"total":  total,
		"limit":  page.Limit,
		"offset": page.Offset,
	}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleActivateUser(w http.ResponseWriter, r *http.Request) {
	h.setUserActive(w, r, true)
}

func (h *Handler) HandleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	h.setUserActive(w, r, false)
}

func (h *Handler) setUserActive(w http.ResponseWriter, r *http.Request, active bool) {
	userID := chi.URLParam(r, "userID")
	if err := h.Service.SetUserActive(r.Context(), userID, active); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "user not found", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update user", requestctx.GetRequestID(r.Context()))
		return
	}
	action := "user.deactivate"
	if active {
		action = "user.activate"
		if h.Notify != nil {
			_ = h.Notify.Create(r.Context(), userID, notifications.TypeAccountActivated,
				"Account activated", "Your account has been activated by HR.")
		}
	}
	h.record(r, action, "user", userID, nil, map[string]bool{"isActive": active})
	api.Success(w, map[string]any{"id": userID, "isActive": active}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) decodeEmployeeUpdate(w http.ResponseWriter, r *http.Request) (core.Employee, bool) {
	var payload employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return core.Employee{}, false
	}
	v := shared.NewValidator()
	v.Required("fullName", payload.FullName, "fullName is required")
	joined := v.OptionalDate("dateOfJoining", payload.DateOfJoining)
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return core.Employee{}, false
	}
	emp := core.Employee{
		DepartmentID: strings.TrimSpace(payload.DepartmentID),
		FullName:     strings.TrimSpace(payload.FullName),
		Designation:  strings.TrimSpace(payload.Designation),
		BankAccount:  strings.TrimSpace(payload.BankAccount),
		IFSCCode:     strings.TrimSpace(payload.IFSCCode),
	}
	if !joined.IsZero() {
		emp.DateOfJoining = &joined
	}
	return emp, true
}

func (h *Handler) record(r *http.Request, action, entityType, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	actorID := ""
	if user, ok := middleware.GetUser(r.Context()); ok {
		actorID = user.UserID
	}
	if err := h.Audit.Record(r.Context(), actorID, action, entityType, entityID,
		requestctx.GetRequestID(r.Context()), shared.ClientIP(r), before, after); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}
