package audithandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/platform/requestctx"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Handler struct {
	Service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAction(auth.ResourceAudit, "read")).
		Get("/audit", h.HandleList)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	filter := audit.Filter{
		Action:     strings.TrimSpace(r.URL.Query().Get("action")),
		EntityType: strings.TrimSpace(r.URL.Query().Get("entityType")),
		ActorUser:  strings.TrimSpace(r.URL.Query().Get("actorId")),
	}
	includeDetails := r.URL.Query().Get("details") == "true"

	events, err := h.Service.List(r.Context(), filter, includeDetails, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to list audit events", requestctx.GetRequestID(r.Context()))
		return
	}
	total, err := h.Service.Count(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "query_failed", "failed to list audit events", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"events": events,
		"total":  total,
		"limit":  page.Limit,
		"offset": page.Offset,
	}, requestctx.GetRequestID(r.Context()))
}
