package services

import (
	"context"
	"time"

	"github.com/creatorhub/apiserver/internal/reports"
	"github.com/creatorhub/apiserver/types"
)

const (
	MaxPublicLimit   = 100
	MaxAdminLimit    = 500
	MaxTrendingHours = 720
)

// UserSource supplies the user collection reports run over.
type UserSource interface {
	List(ctx context.Context) ([]types.User, error)
}

// ContentSource supplies the content collection reports run over.
type ContentSource interface {
	List(ctx context.Context) ([]types.Content, error)
}

// ReportService loads collections and hands them to the reports package.
type ReportService struct {
	users   UserSource
	content ContentSource
	now     func() time.Time
}

func NewReportService(users UserSource, content ContentSource) *ReportService {
	return &ReportService{users: users, content: content, now: time.Now}
}

// WithClock returns a copy of the service reading time from now.
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	clone := *s
	clone.now = now
	return &clone
}

func (s *ReportService) UsersSummary(ctx context.Context) (reports.UsersSummary, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return reports.UsersSummary{}, err
	}
	return reports.BuildUsersSummary(users, s.now()), nil
}

func (s *ReportService) ContentSummary(ctx context.Context) (reports.ContentSummary, error) {
	items, err := s.content.List(ctx)
	if err != nil {
		return reports.ContentSummary{}, err
	}
	return reports.BuildContentSummary(items), nil
}

func (s *ReportService) TopContent(ctx context.Context, contentType, sortBy string, limit int) (reports.TopContent, error) {
	if sortBy == "" {
		sortBy = reports.SortByViews
	}
	if sortBy != reports.SortByViews && sortBy != reports.SortBySales {
		return reports.TopContent{}, validation("sort_by must be one of: views, sales")
	}
	if err := checkLimit(limit, MaxPublicLimit); err != nil {
		return reports.TopContent{}, err
	}
	items, err := s.content.List(ctx)
	if err != nil {
		return reports.TopContent{}, err
	}
	return reports.BuildTopContent(items, contentType, sortBy, limit), nil
}

func (s *ReportService) AdminUsers(ctx context.Context, filter reports.UserFilter, skip, limit int) ([]reports.UserRow, error) {
	if err := checkPage(skip, limit); err != nil {
		return nil, err
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, validation("end_date must not be before start_date")
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	return reports.BuildAdminUsers(users, filter, skip, limit), nil
}

func (s *ReportService) AdminContent(ctx context.Context, filter reports.ContentFilter, skip, limit int) ([]reports.ContentRow, error) {
	if err := checkPage(skip, limit); err != nil {
		return nil, err
	}
	if filter.MinViews != nil && *filter.MinViews < 0 {
		return nil, validation("min_views must be non-negative")
	}
	if filter.MinSales != nil && *filter.MinSales < 0 {
		return nil, validation("min_sales must be non-negative")
	}
	items, err := s.content.List(ctx)
	if err != nil {
		return nil, err
	}
	return reports.BuildAdminContent(items, filter, skip, limit), nil
}

func (s *ReportService) TrendingContent(ctx context.Context, limit, windowHours int) (reports.TrendingContent, error) {
	if err := checkLimit(limit, MaxPublicLimit); err != nil {
		return reports.TrendingContent{}, err
	}
	if windowHours < 1 || windowHours > MaxTrendingHours {
		return reports.TrendingContent{}, validation("time_period_hours must be between 1 and 720")
	}
	items, err := s.content.List(ctx)
	if err != nil {
		return reports.TrendingContent{}, err
	}
	return reports.BuildTrendingContent(items, s.now(), windowHours, limit), nil
}

func checkLimit(limit, upper int) error {
	if limit < 1 || limit > upper {
		return validation("limit out of range")
	}
	return nil
}

func checkPage(skip, limit int) error {
	if skip < 0 {
		return validation("skip must be non-negative")
	}
	return checkLimit(limit, MaxAdminLimit)
}
