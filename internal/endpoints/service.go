package endpoints

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/opsgate/opsgate/internal/platform/db"
	"github.com/opsgate/opsgate/internal/shared"
)

// Service manages the endpoint definition store.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns all definitions ordered by id.
func (s *Service) List(ctx context.Context) ([]Definition, error) {
	return s.repo.List(ctx)
}

// Get fetches a single definition.
func (s *Service) Get(ctx context.Context, id int64) (Definition, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new definition. Paths are unique across the store.
func (s *Service) Create(ctx context.Context, def Definition) (Definition, error) {
	def.Path = normalizePath(def.Path)
	def.Method = strings.ToUpper(def.Method)
	created, err := s.repo.Create(ctx, def)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Definition{}, fmt.Errorf("%w: endpoint path %s already registered", shared.ErrConflict, def.Path)
		}
		return Definition{}, err
	}
	s.record(ctx, "endpoint.create", created.ID, map[string]any{"path": created.Path, "method": created.Method})
	return created, nil
}

// Update rewrites an existing definition. Moving onto another definition's
// path is a conflict.
func (s *Service) Update(ctx context.Context, def Definition) (Definition, error) {
	def.Path = normalizePath(def.Path)
	def.Method = strings.ToUpper(def.Method)
	updated, err := s.repo.Update(ctx, def)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Definition{}, fmt.Errorf("%w: endpoint path %s already registered", shared.ErrConflict, def.Path)
		}
		return Definition{}, err
	}
	s.record(ctx, "endpoint.update", updated.ID, map[string]any{"path": updated.Path, "method": updated.Method})
	return updated, nil
}

// Delete removes a definition.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "endpoint.delete", id, nil)
	return nil
}

// normalizePath guarantees a single leading slash and no trailing slash.
func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	p = "/" + strings.Trim(p, "/")
	return p
}

func (s *Service) record(ctx context.Context, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	var actor int64
	if id := shared.IdentityFromContext(ctx); id != nil {
		actor = id.ID
	}
	s.audit.Write(ctx, shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   "endpoint",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
}
