package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/textileco/pettycash/internal/shared"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// Repository reads the audit log.
type Repository interface {
	Window(ctx context.Context, f TimelineFilters, offset, limit int) ([]TimelineRow, error)
	All(ctx context.Context, f TimelineFilters) ([]TimelineRow, error)
}

// Service coordinates audit timeline lookups.
type Service struct {
	repo Repository
}

// NewService builds the audit timeline service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func authorize(actor shared.Actor) error {
	return shared.RequireRole(actor, shared.RoleAccountant, shared.RoleCEO)
}

func normalize(f TimelineFilters) TimelineFilters {
	f.Entity = strings.TrimSpace(f.Entity)
	f.Action = strings.ToUpper(strings.TrimSpace(f.Action))
	if f.PageSize <= 0 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	return f
}

// Timeline returns one page of audit entries, newest first.
func (s *Service) Timeline(ctx context.Context, actor shared.Actor, filters TimelineFilters) (Result, error) {
	if err := authorize(actor); err != nil {
		return Result{}, err
	}
	if filters.From != nil && filters.To != nil && filters.To.Before(*filters.From) {
		return Result{}, fmt.Errorf("%w: to is before from", shared.ErrValidation)
	}
	f := normalize(filters)
	rows, err := s.repo.Window(ctx, f, (f.Page-1)*f.PageSize, f.PageSize+1)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > f.PageSize
	if hasNext {
		rows = rows[:f.PageSize]
	}
	if rows == nil {
		rows = []TimelineRow{}
	}
	paging := PagingInfo{Page: f.Page, PageSize: f.PageSize, HasNext: hasNext}
	if f.Page > 1 {
		paging.PrevPage = f.Page - 1
	}
	if hasNext {
		paging.NextPage = f.Page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// Export returns every matching entry without paging.
func (s *Service) Export(ctx context.Context, actor shared.Actor, filters TimelineFilters) ([]TimelineRow, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	return s.repo.All(ctx, normalize(filters))
}

// MarshalJSON exposes the snapshots as raw JSON.
func (r TimelineRow) MarshalJSON() ([]byte, error) {
	type plain TimelineRow
	return json.Marshal(struct {
		plain
		Before json.RawMessage `json:"old_values,omitempty"`
		After  json.RawMessage `json:"new_values,omitempty"`
	}{plain: plain(r), Before: rawOrNil(r.Before), After: rawOrNil(r.After)})
}

func rawOrNil(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	return json.RawMessage(b)
}
