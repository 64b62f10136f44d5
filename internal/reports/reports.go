package reports

import (
	"math"
	"strings"
	"time"

	"github.com/creatorhub/apiserver/types"
)

// NewUserWindow is the look-back period for UsersSummary.NewUsersLast30Days.
const NewUserWindow = 30 * 24 * time.Hour

const (
	SortByViews = "views"
	SortBySales = "sales"
)

type UsersSummary struct {
	TotalUsers         int            `json:"total_users"`
	UsersByRole        map[string]int `json:"users_by_role"`
	NewUsersLast30Days int            `json:"new_users_last_30_days"`
}

type ContentSummary struct {
	TotalContentItems int            `json:"total_content_items"`
	ContentByType     map[string]int `json:"content_by_type"`
	ContentByStatus   map[string]int `json:"content_by_status"`
}

// ContentRow is the per-item shape shared by the content reports.
type ContentRow struct {
	ID        int64     `json:"id"`
	CreatorID *string   `json:"creator_id,omitempty"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Views     int64     `json:"views"`
	Sales     float64   `json:"sales"`
	CreatedAt time.Time `json:"created_at"`
}

type TopContent struct {
	TopContent []ContentRow `json:"top_content"`
	Metric     string       `json:"metric"`
}

type TrendingRow struct {
	ContentRow
	TrendScore float64 `json:"trend_score"`
}

type TrendingContent struct {
	TrendingContent []TrendingRow `json:"trending_content"`
	TimePeriodHours int           `json:"time_period_hours"`
}

type UserRow struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      types.Role `json:"role"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
}

// UserFilter narrows BuildAdminUsers. Zero values match everything. Dates are
// compared on the calendar day of CreatedAt in UTC, inclusive.
type UserFilter struct {
	Role      string
	IsActive  *bool
	StartDate *time.Time
	EndDate   *time.Time
}

// ContentFilter narrows BuildAdminContent. Type and status compare
// case-insensitively.
type ContentFilter struct {
	Type      string
	Status    string
	CreatorID string
	MinViews  *int64
	MinSales  *float64
}

func BuildUsersSummary(users []types.User, now time.Time) UsersSummary {
	summary := UsersSummary{
		TotalUsers:  len(users),
		UsersByRole: make(map[string]int),
	}
	threshold := now.Add(-NewUserWindow)
	for _, u := range users {
		summary.UsersByRole[string(u.Role)]++
		if u.CreatedAt.After(threshold) {
			summary.NewUsersLast30Days++
		}
	}
	return summary
}

func BuildContentSummary(items []types.Content) ContentSummary {
	summary := ContentSummary{
		TotalContentItems: len(items),
		ContentByType:     make(map[string]int),
		ContentByStatus:   make(map[string]int),
	}
	for _, item := range items {
		summary.ContentByType[item.Type]++
		summary.ContentByStatus[item.Status]++
	}
	return summary
}

// BuildTopContent filters by type, orders by the metric descending and keeps
// the first limit items. sortBy must be SortByViews or SortBySales.
func BuildTopContent(items []types.Content, contentType, sortBy string, limit int) TopContent {
	var preds []Predicate[types.Content]
	if contentType != "" {
		preds = append(preds, typeIs(contentType))
	}
	filtered := Filter(items, preds...)

	var sorted []types.Content
	switch sortBy {
	case SortBySales:
		sorted = SortBy(filtered, func(c types.Content) float64 { return c.Sales }, true)
	default:
		sortBy = SortByViews
		sorted = SortBy(filtered, func(c types.Content) int64 { return c.Views }, true)
	}

	return TopContent{
		TopContent: contentRows(Paginate(sorted, 0, limit)),
		Metric:     sortBy,
	}
}

func BuildAdminUsers(users []types.User, filter UserFilter, skip, limit int) []UserRow {
	var preds []Predicate[types.User]
	if filter.Role != "" {
		preds = append(preds, func(u types.User) bool {
			return strings.EqualFold(string(u.Role), filter.Role)
		})
	}
	if filter.IsActive != nil {
		want := *filter.IsActive
		preds = append(preds, func(u types.User) bool { return u.IsActive == want })
	}
	if filter.StartDate != nil {
		start := day(*filter.StartDate)
		preds = append(preds, func(u types.User) bool { return !day(u.CreatedAt).Before(start) })
	}
	if filter.EndDate != nil {
		end := day(*filter.EndDate)
		preds = append(preds, func(u types.User) bool { return !day(u.CreatedAt).After(end) })
	}

	page := Paginate(Filter(users, preds...), skip, limit)
	rows := make([]UserRow, 0, len(page))
	for _, u := range page {
		rows = append(rows, UserRow{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			Role:      u.Role,
			IsActive:  u.IsActive,
			CreatedAt: u.CreatedAt,
		})
	}
	return rows
}

func BuildAdminContent(items []types.Content, filter ContentFilter, skip, limit int) []ContentRow {
	var preds []Predicate[types.Content]
	if filter.Type != "" {
		preds = append(preds, typeIs(filter.Type))
	}
	if filter.Status != "" {
		preds = append(preds, func(c types.Content) bool { return strings.EqualFold(c.Status, filter.Status) })
	}
	if filter.CreatorID != "" {
		preds = append(preds, func(c types.Content) bool {
			return c.CreatorID != nil && *c.CreatorID == filter.CreatorID
		})
	}
	if filter.MinViews != nil {
		minViews := *filter.MinViews
		preds = append(preds, func(c types.Content) bool { return c.Views >= minViews })
	}
	if filter.MinSales != nil {
		minSales := *filter.MinSales
		preds = append(preds, func(c types.Content) bool { return c.Sales >= minSales })
	}
	return contentRows(Paginate(Filter(items, preds...), skip, limit))
}

// TrendScore weighs views, sales and recency. The recency bonus is 1000 for
// an item created at now and falls linearly to 0 at the window edge. Items
// dated after now get the full bonus.
func TrendScore(item types.Content, now time.Time, window time.Duration) float64 {
	recency := 0.0
	if window > 0 {
		elapsed := now.Sub(item.CreatedAt).Seconds() / window.Seconds()
		recency = min(max(1-elapsed, 0), 1)
	}
	return float64(item.Views)*0.5 + item.Sales*1.0 + recency*1000
}

// BuildTrendingContent ranks published items created within the last
// windowHours by TrendScore.
func BuildTrendingContent(items []types.Content, now time.Time, windowHours, limit int) TrendingContent {
	window := time.Duration(windowHours) * time.Hour
	threshold := now.Add(-window)

	recent := Filter(items,
		func(c types.Content) bool { return c.Status == types.ContentStatusPublished },
		func(c types.Content) bool { return !c.CreatedAt.Before(threshold) },
	)

	type scored struct {
		item  types.Content
		score float64
	}
	ranked := make([]scored, 0, len(recent))
	for _, item := range recent {
		ranked = append(ranked, scored{item: item, score: TrendScore(item, now, window)})
	}
	ranked = SortBy(ranked, func(s scored) float64 { return s.score }, true)

	top := Paginate(ranked, 0, limit)
	rows := make([]TrendingRow, 0, len(top))
	for _, s := range top {
		rows = append(rows, TrendingRow{
			ContentRow: toContentRow(s.item),
			TrendScore: math.Round(s.score*100) / 100,
		})
	}
	return TrendingContent{
		TrendingContent: rows,
		TimePeriodHours: windowHours,
	}
}

func typeIs(contentType string) Predicate[types.Content] {
	return func(c types.Content) bool { return strings.EqualFold(c.Type, contentType) }
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func toContentRow(item types.Content) ContentRow {
	return ContentRow{
		ID:        item.ID,
		CreatorID: item.CreatorID,
		Type:      item.Type,
		Status:    item.Status,
		Views:     item.Views,
		Sales:     item.Sales,
		CreatedAt: item.CreatedAt,
	}
}

func contentRows(items []types.Content) []ContentRow {
	rows := make([]ContentRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, toContentRow(item))
	}
	return rows
}
