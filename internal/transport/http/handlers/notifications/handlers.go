package notificationhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/notifications"
	"hrms/internal/platform/requestctx"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Handler struct {
	Service *notifications.Service
}

func NewHandler(service *notifications.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/notifications", h.HandleList)
	r.Post("/notifications/{notificationID}/read", h.HandleMarkRead)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}
	page := shared.ParsePagination(r, 25, 100)

	items, err := h.Service.List(r.Context(), user.UserID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to list notifications", requestctx.GetRequestID(r.Context()))
		return
	}
	total, err := h.Service.Count(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to list notifications", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"notifications": items,
		"total":         total,
		"limit":         page.Limit,
		"offset":        page.Offset,
	}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}
	notificationID := chi.URLParam(r, "notificationID")
	if err := h.Service.MarkRead(r.Context(), user.UserID, notificationID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to mark notification read", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"id": notificationID, "status": "read"}, requestctx.GetRequestID(r.Context()))
}
