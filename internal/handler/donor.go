package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bloodlink/bloodlink/internal/model"
	"github.com/bloodlink/bloodlink/internal/repository"
)

// DonorSearcher defines the donor search operation.
type DonorSearcher interface {
	SearchDonors(ctx context.Context, filter repository.DonorFilter) ([]*model.User, error)
}

// DonorHandler handles the public donor search.
type DonorHandler struct {
	store  DonorSearcher
	logger *slog.Logger
}

// NewDonorHandler creates a new DonorHandler.
func NewDonorHandler(store DonorSearcher, logger *slog.Logger) *DonorHandler {
	return &DonorHandler{
		store:  store,
		logger: logger,
	}
}

// Search handles GET /donors.
// All filters are optional exact matches, AND-combined. Only active
// donors are ever returned.
func (h *DonorHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := repository.DonorFilter{
		BloodGroup: query.Get("bloodGroup"),
		District:   query.Get("district"),
		Upazila:    query.Get("upazila"),
	}

	donors, err := h.store.SearchDonors(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to search donors", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}

	if donors == nil {
		donors = []*model.User{}
	}
	writeJSON(w, http.StatusOK, donors)
}
