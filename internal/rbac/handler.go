package rbac

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/opsgate/opsgate/internal/platform/httpx"
	"github.com/opsgate/opsgate/internal/shared"
)

// Handler wires HTTP endpoints for role and permission management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers role and permission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/roles", func(r chi.Router) {
		r.With(h.guard.Require(shared.PermRoleRead)).Get("/", h.listRoles)
		r.Group(func(r chi.Router) {
			r.Use(h.guard.Require(shared.PermRoleManage))
			r.Post("/", h.createRole)
			r.Delete("/{id}", h.deleteRole)
			r.Post("/toggle", h.togglePermission)
			r.Post("/test", h.testPermission)
		})
	})
	r.Route("/permissions", func(r chi.Router) {
		r.With(h.guard.Require(shared.PermPermissionRead)).Get("/", h.listPermissions)
		r.Group(func(r chi.Router) {
			r.Use(h.guard.Require(shared.PermRoleManage))
			r.Post("/", h.createPermission)
			r.Delete("/{id}", h.deletePermission)
		})
	})
}

type permissionResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type roleResponse struct {
	ID          int64                `json:"id"`
	Name        string               `json:"name"`
	CreatedAt   time.Time            `json:"createdAt"`
	Permissions []permissionResponse `json:"permissions"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		perms := make([]permissionResponse, 0, len(role.Permissions))
		for _, p := range role.Permissions {
			perms = append(perms, permissionResponse{ID: p.ID, Name: p.Name, Description: p.Description})
		}
		out = append(out, roleResponse{ID: role.ID, Name: role.Name, CreatedAt: role.CreatedAt, Permissions: perms})
	}
	httpx.JSON(w, http.StatusOK, out)
}

type createRoleRequest struct {
	Name string `json:"name" validate:"required"`
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid body", shared.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: role name required", shared.ErrValidation))
		return
	}
	role, err := h.service.CreateRole(r.Context(), req.Name)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, roleResponse{ID: role.ID, Name: role.Name, CreatedAt: role.CreatedAt, Permissions: []permissionResponse{}})
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "role deleted"})
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]permissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, permissionResponse{ID: p.ID, Name: p.Name, Description: p.Description})
	}
	httpx.JSON(w, http.StatusOK, out)
}

type createPermissionRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (h *Handler) createPermission(w http.ResponseWriter, r *http.Request) {
	var req createPermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid body", shared.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: permission name required", shared.ErrValidation))
		return
	}
	perm, err := h.service.CreatePermission(r.Context(), req.Name, req.Description)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, permissionResponse{ID: perm.ID, Name: perm.Name, Description: perm.Description})
}

func (h *Handler) deletePermission(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeletePermission(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "permission deleted"})
}

type toggleRequest struct {
	RoleID       int64 `json:"roleId" validate:"required"`
	PermissionID int64 `json:"permissionId" validate:"required"`
	Enable       *bool `json:"enable" validate:"required"`
}

func (h *Handler) togglePermission(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid body", shared.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: roleId, permissionId and enable are required", shared.ErrValidation))
		return
	}
	changed, err := h.service.TogglePermission(r.Context(), req.RoleID, req.PermissionID, *req.Enable)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	message := "grant unchanged"
	switch {
	case changed && *req.Enable:
		message = "grant added"
	case changed:
		message = "grant removed"
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": message, "changed": changed})
}

type testPermissionRequest struct {
	RoleName string `json:"roleName" validate:"required"`
	PermName string `json:"permName" validate:"required"`
}

func (h *Handler) testPermission(w http.ResponseWriter, r *http.Request) {
	var req testPermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid body", shared.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: roleName and permName are required", shared.ErrValidation))
		return
	}
	has, err := h.service.TestPermission(r.Context(), req.RoleName, req.PermName)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"has": has})
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id %q", shared.ErrValidation, raw)
	}
	return id, nil
}
