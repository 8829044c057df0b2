package endpoints

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/opsgate/opsgate/internal/platform/httpx"
	"github.com/opsgate/opsgate/internal/rbac"
	"github.com/opsgate/opsgate/internal/shared"
)

// Handler wires HTTP endpoints for the definition store.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers definition store routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/endpoints", func(r chi.Router) {
		r.Use(h.guard.Require(shared.PermEndpointManage))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
}

type definitionResponse struct {
	ID            int64     `json:"id"`
	Path          string    `json:"path"`
	Method        string    `json:"method"`
	Description   string    `json:"description,omitempty"`
	QueryTemplate string    `json:"queryTemplate,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toResponse(def Definition) definitionResponse {
	return definitionResponse{
		ID:            def.ID,
		Path:          def.Path,
		Method:        def.Method,
		Description:   def.Description,
		QueryTemplate: def.QueryTemplate,
		CreatedAt:     def.CreatedAt,
		UpdatedAt:     def.UpdatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	defs, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list endpoints", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]definitionResponse, 0, len(defs))
	for _, def := range defs {
		out = append(out, toResponse(def))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	def, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(def))
}

type definitionRequest struct {
	Path          string `json:"path" validate:"required"`
	Method        string `json:"method" validate:"required,oneof=GET POST PUT PATCH DELETE get post put patch delete"`
	Description   string `json:"description"`
	QueryTemplate string `json:"queryTemplate"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req definitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid body", shared.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: path and a valid method are required", shared.ErrValidation))
		return
	}
	def, err := h.service.Create(r.Context(), Definition{
		Path:          req.Path,
		Method:        req.Method,
		Description:   req.Description,
		QueryTemplate: req.QueryTemplate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(def))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req definitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid body", shared.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: path and a valid method are required", shared.ErrValidation))
		return
	}
	def, err := h.service.Update(r.Context(), Definition{
		ID:            id,
		Path:          req.Path,
		Method:        req.Method,
		Description:   req.Description,
		QueryTemplate: req.QueryTemplate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(def))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "endpoint deleted"})
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id %q", shared.ErrValidation, raw)
	}
	return id, nil
}
