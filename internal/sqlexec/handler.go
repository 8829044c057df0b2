package sqlexec

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/opsgate/opsgate/internal/platform/httpx"
	"github.com/opsgate/opsgate/internal/rbac"
	"github.com/opsgate/opsgate/internal/shared"
)

// Handler exposes the raw query execution endpoint.
type Handler struct {
	logger    *slog.Logger
	engine    *Engine
	guard     rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, engine *Engine, guard rbac.Middleware) *Handler {
	return &Handler{logger: logger, engine: engine, guard: guard, validator: validator.New()}
}

// MountRoutes registers the execution route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Require(shared.PermSQLExecute)).Post("/execute", h.execute)
}

type executeRequest struct {
	SQL string `json:"sql" validate:"required"`
}

type readResponse struct {
	Kind     string           `json:"kind"`
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"rowCount"`
}

type writeResponse struct {
	Kind     string `json:"kind"`
	Affected int64  `json:"affected"`
}

func (h *Handler) execute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid body", shared.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: statement must not be empty", shared.ErrValidation))
		return
	}
	result, err := h.engine.Execute(r.Context(), req.SQL)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if result.Kind == StatementRead {
		httpx.JSON(w, http.StatusOK, readResponse{
			Kind:     string(result.Kind),
			Columns:  result.Columns,
			Rows:     result.Rows,
			RowCount: result.RowCount,
		})
		return
	}
	httpx.JSON(w, http.StatusOK, writeResponse{Kind: string(result.Kind), Affected: result.Affected})
}
