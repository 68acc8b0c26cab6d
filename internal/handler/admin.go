package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/bloodlink/bloodlink/internal/model"
)

// StatsStore defines the aggregate queries the admin endpoints need.
type StatsStore interface {
	CountUsers(ctx context.Context) (int64, error)
	CountRequests(ctx context.Context) (int64, error)
	CountRequestsByStatus(ctx context.Context, status model.RequestStatus) (int64, error)
	TotalFunding(ctx context.Context) (int64, error)
}

// AdminHandler provides admin-only statistics endpoints.
type AdminHandler struct {
	store  StatsStore
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(store StatsStore, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		store:  store,
		logger: logger,
	}
}

// StatsResponse is the dashboard summary.
type StatsResponse struct {
	TotalUsers    int64 `json:"totalUsers"`
	TotalRequests int64 `json:"totalRequests"`
	TotalFunding  int64 `json:"totalFunding"`
}

// Stats handles GET /admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	users, err := h.store.CountUsers(ctx)
	if err != nil {
		h.handleStatsError(w, err)
		return
	}

	requests, err := h.store.CountRequests(ctx)
	if err != nil {
		h.handleStatsError(w, err)
		return
	}

	funding, err := h.store.TotalFunding(ctx)
	if err != nil {
		h.handleStatsError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		TotalUsers:    users,
		TotalRequests: requests,
		TotalFunding:  funding,
	})
}

// ChartStat is one named value in the dashboard chart series.
type ChartStat struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// ChartStats handles GET /admin/chart-stats.
func (h *AdminHandler) ChartStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	users, err := h.store.CountUsers(ctx)
	if err != nil {
		h.handleStatsError(w, err)
		return
	}

	requests, err := h.store.CountRequests(ctx)
	if err != nil {
		h.handleStatsError(w, err)
		return
	}

	pending, err := h.store.CountRequestsByStatus(ctx, model.RequestStatusPending)
	if err != nil {
		h.handleStatsError(w, err)
		return
	}

	done, err := h.store.CountRequestsByStatus(ctx, model.RequestStatusDone)
	if err != nil {
		h.handleStatsError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, []ChartStat{
		{Name: "Total Users", Value: users},
		{Name: "Total Requests", Value: requests},
		{Name: "Pending Requests", Value: pending},
		{Name: "Completed Requests", Value: done},
	})
}

func (h *AdminHandler) handleStatsError(w http.ResponseWriter, err error) {
	h.logger.Error("failed to gather statistics", "error", err)
	writeMessage(w, http.StatusInternalServerError, "internal error")
}
