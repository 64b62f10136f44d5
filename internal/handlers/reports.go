package handlers

import (
	"net/http"
	"strings"

	"github.com/creatorhub/apiserver/internal/auth"
	"github.com/creatorhub/apiserver/internal/reports"
	"github.com/creatorhub/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	defaultPublicLimit   = 10
	defaultAdminLimit    = 100
	defaultTrendingHours = 24
)

// ReportHandler serves public and administrative reports.
type ReportHandler struct {
	reportService *services.ReportService
	log           *zap.Logger
}

func NewReportHandler(reportService *services.ReportService, log *zap.Logger) *ReportHandler {
	return &ReportHandler{reportService: reportService, log: log}
}

// ReportRouter registers report routes. Admin routes require
// view_admin_reports.
func ReportRouter(r chi.Router, reportService *services.ReportService, requireUser func(http.Handler) http.Handler, log *zap.Logger) {
	handler := NewReportHandler(reportService, log)

	r.Route("/public", func(r chi.Router) {
		r.Get("/top-content", handler.TopContent)
		r.Get("/trending-content", handler.TrendingContent)
	})
	r.Route("/admin", func(r chi.Router) {
		r.Use(requireUser, RequireCapability(auth.CapViewAdminReports))
		r.Get("/users-summary", handler.UsersSummary)
		r.Get("/content-summary", handler.ContentSummary)
		r.Get("/users", handler.AdminUsers)
		r.Get("/content", handler.AdminContent)
	})
}

func (h *ReportHandler) TopContent(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultPublicLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	query := r.URL.Query()
	sortBy := strings.ToLower(strings.TrimSpace(query.Get("sort_by")))

	report, err := h.reportService.TopContent(r.Context(), strings.TrimSpace(query.Get("content_type")), sortBy, limit)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *ReportHandler) TrendingContent(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultPublicLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	hours, err := queryInt(r, "time_period_hours", defaultTrendingHours)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.reportService.TrendingContent(r.Context(), limit, hours)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *ReportHandler) UsersSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reportService.UsersSummary(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *ReportHandler) ContentSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reportService.ContentSummary(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *ReportHandler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := parseUserFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.reportService.AdminUsers(r.Context(), filter, skip, limit)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *ReportHandler) AdminContent(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := parseContentFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.reportService.AdminContent(r.Context(), filter, skip, limit)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func parsePage(r *http.Request) (skip, limit int, err error) {
	if skip, err = queryInt(r, "skip", 0); err != nil {
		return 0, 0, err
	}
	if limit, err = queryInt(r, "limit", defaultAdminLimit); err != nil {
		return 0, 0, err
	}
	return skip, limit, nil
}

func parseUserFilter(r *http.Request) (reports.UserFilter, error) {
	filter := reports.UserFilter{
		Role: strings.TrimSpace(r.URL.Query().Get("user_role")),
	}
	var err error
	if filter.IsActive, err = queryBool(r, "is_active"); err != nil {
		return reports.UserFilter{}, err
	}
	if filter.StartDate, err = queryDate(r, "start_date"); err != nil {
		return reports.UserFilter{}, err
	}
	if filter.EndDate, err = queryDate(r, "end_date"); err != nil {
		return reports.UserFilter{}, err
	}
	return filter, nil
}

func parseContentFilter(r *http.Request) (reports.ContentFilter, error) {
	query := r.URL.Query()
	filter := reports.ContentFilter{
		Type:      strings.TrimSpace(query.Get("content_type")),
		Status:    strings.TrimSpace(query.Get("content_status")),
		CreatorID: strings.TrimSpace(query.Get("creator_id")),
	}
	var err error
	if filter.MinViews, err = queryInt64(r, "min_views"); err != nil {
		return reports.ContentFilter{}, err
	}
	if filter.MinSales, err = queryFloat(r, "min_sales"); err != nil {
		return reports.ContentFilter{}, err
	}
	return filter, nil
}
