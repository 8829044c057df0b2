package audit

import (
	"context"

	"github.com/opsgate/opsgate/internal/shared"
)

const (
	defaultPerPage = 20
	maxPerPage     = 50
)

// Service pages through the audit trail.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns one page of matching records, newest first.
func (s *Service) List(ctx context.Context, f Filters, page, perPage int) ([]Entry, shared.Pagination, error) {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	if page <= 0 {
		page = 1
	}
	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	entries, err := s.repo.List(ctx, f, perPage, (page-1)*perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return entries, shared.NewPagination(page, perPage, total), nil
}
