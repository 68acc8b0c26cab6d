package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/bloodlink/bloodlink/internal/auth"
	"github.com/bloodlink/bloodlink/internal/model"
	"github.com/bloodlink/bloodlink/internal/repository"
)

// RequestStore defines the donation request persistence operations.
type RequestStore interface {
	CreateRequest(ctx context.Context, req *model.DonationRequest) error
	GetRequestByID(ctx context.Context, id string) (*model.DonationRequest, error)
	ListRequests(ctx context.Context, filter repository.RequestFilter, limit int) ([]*model.DonationRequest, error)
	UpdateRequestStatus(ctx context.Context, id string, status model.RequestStatus, donor *model.Donor) error
	UpdateRequestFields(ctx context.Context, id string, patch repository.RequestPatch) error
	DeleteRequest(ctx context.Context, id string) error
}

// RequestHandler handles HTTP requests for the donation request lifecycle.
type RequestHandler struct {
	store  RequestStore
	logger *slog.Logger
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(store RequestStore, logger *slog.Logger) *RequestHandler {
	return &RequestHandler{
		store:  store,
		logger: logger,
	}
}

// createRequestBody is the payload for creating a donation request.
type createRequestBody struct {
	RequesterName     string `json:"requesterName"`
	RecipientName     string `json:"recipientName"`
	RecipientDistrict string `json:"recipientDistrict"`
	RecipientUpazila  string `json:"recipientUpazila"`
	HospitalName      string `json:"hospitalName"`
	FullAddress       string `json:"fullAddress"`
	BloodGroup        string `json:"bloodGroup"`
	DonationDate      string `json:"donationDate"`
	DonationTime      string `json:"donationTime"`
	RequestMessage    string `json:"requestMessage"`
}

// Create handles POST /donation-requests.
// Blocked accounts may not create requests. The requester email comes
// from the verified token, never from the body; status starts at
// pending with no donor assigned.
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if id.IsBlocked() {
		writeMessage(w, http.StatusForbidden, "blocked users cannot create donation requests")
		return
	}

	var body createRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req := &model.DonationRequest{
		ID:                ulid.Make().String(),
		RequesterName:     body.RequesterName,
		RequesterEmail:    id.Email,
		RecipientName:     body.RecipientName,
		RecipientDistrict: body.RecipientDistrict,
		RecipientUpazila:  body.RecipientUpazila,
		HospitalName:      body.HospitalName,
		FullAddress:       body.FullAddress,
		BloodGroup:        body.BloodGroup,
		DonationDate:      body.DonationDate,
		DonationTime:      body.DonationTime,
		RequestMessage:    body.RequestMessage,
		Status:            model.RequestStatusPending,
		CreatedAt:         time.Now().UTC(),
	}

	if err := h.store.CreateRequest(r.Context(), req); err != nil {
		h.logger.Error("failed to create donation request", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.logger.Info("donation_request_created",
		"request_id", req.ID,
		"blood_group", req.BloodGroup,
	)

	writeJSON(w, http.StatusCreated, req)
}

// List handles GET /donation-requests.
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := repository.RequestFilter{
		RequesterEmail: query.Get("email"),
		Status:         model.RequestStatus(query.Get("status")),
	}

	limit := 0
	if l := query.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	reqs, err := h.store.ListRequests(r.Context(), filter, limit)
	if err != nil {
		h.logger.Error("failed to list donation requests", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}

	if reqs == nil {
		reqs = []*model.DonationRequest{}
	}
	writeJSON(w, http.StatusOK, reqs)
}

// Get handles GET /donation-requests/{id}.
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	req, err := h.store.GetRequestByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleRequestError(w, err, "failed to get donation request")
		return
	}

	writeJSON(w, http.StatusOK, req)
}

// statusUpdateBody is the payload for a status transition.
type statusUpdateBody struct {
	Status model.RequestStatus `json:"status"`
	Donor  *model.Donor        `json:"donor"`
}

// UpdateStatus handles PATCH /donation-requests/status/{id}.
// Any authenticated caller may transition a request; this is how a
// donor claims one, supplying their name and email as the donor object.
func (h *RequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body statusUpdateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !model.IsValidTransitionStatus(body.Status) {
		writeMessage(w, http.StatusBadRequest, "status must be inprogress, done or canceled")
		return
	}

	if err := h.store.UpdateRequestStatus(r.Context(), id, body.Status, body.Donor); err != nil {
		h.handleRequestError(w, err, "failed to update request status")
		return
	}

	h.logger.Info("donation_request_status_updated",
		"request_id", id,
		"status", string(body.Status),
		"has_donor", body.Donor != nil,
	)

	writeMessage(w, http.StatusOK, "request status updated")
}

// patchBody is the payload for a partial update. Pointer fields
// distinguish "absent" from "set to empty".
type patchBody struct {
	RequesterName     *string `json:"requesterName"`
	RecipientName     *string `json:"recipientName"`
	RecipientDistrict *string `json:"recipientDistrict"`
	RecipientUpazila  *string `json:"recipientUpazila"`
	HospitalName      *string `json:"hospitalName"`
	FullAddress       *string `json:"fullAddress"`
	BloodGroup        *string `json:"bloodGroup"`
	DonationDate      *string `json:"donationDate"`
	DonationTime      *string `json:"donationTime"`
	RequestMessage    *string `json:"requestMessage"`
}

// Update handles PATCH /donation-requests/{id}.
// Only the allow-listed descriptive fields can change here; status,
// requester and donor are reachable solely through their dedicated
// operations. Restricted to the requester or an admin.
func (h *RequestHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !h.authorizeOwner(w, r, id) {
		return
	}

	var body patchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := repository.RequestPatch{
		RequesterName:     body.RequesterName,
		RecipientName:     body.RecipientName,
		RecipientDistrict: body.RecipientDistrict,
		RecipientUpazila:  body.RecipientUpazila,
		HospitalName:      body.HospitalName,
		FullAddress:       body.FullAddress,
		BloodGroup:        body.BloodGroup,
		DonationDate:      body.DonationDate,
		DonationTime:      body.DonationTime,
		RequestMessage:    body.RequestMessage,
	}

	if err := h.store.UpdateRequestFields(r.Context(), id, patch); err != nil {
		if errors.Is(err, repository.ErrEmptyPatch) {
			writeMessage(w, http.StatusBadRequest, "no updatable fields supplied")
			return
		}
		h.handleRequestError(w, err, "failed to update donation request")
		return
	}

	h.logger.Info("donation_request_updated", "request_id", id)
	writeMessage(w, http.StatusOK, "request updated")
}

// Delete handles DELETE /donation-requests/{id}.
// Restricted to the requester or an admin.
func (h *RequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !h.authorizeOwner(w, r, id) {
		return
	}

	if err := h.store.DeleteRequest(r.Context(), id); err != nil {
		h.handleRequestError(w, err, "failed to delete donation request")
		return
	}

	h.logger.Info("donation_request_deleted", "request_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// authorizeOwner loads the request and checks that the caller is its
// requester or an admin. Writes the error response on failure.
func (h *RequestHandler) authorizeOwner(w http.ResponseWriter, r *http.Request, requestID string) bool {
	req, err := h.store.GetRequestByID(r.Context(), requestID)
	if err != nil {
		h.handleRequestError(w, err, "failed to load donation request")
		return false
	}

	id := auth.IdentityFromContext(r.Context())
	if !id.IsAdmin() && id.Email != req.RequesterEmail {
		writeMessage(w, http.StatusForbidden, "forbidden: not the requester")
		return false
	}

	return true
}

func (h *RequestHandler) handleRequestError(w http.ResponseWriter, err error, logMsg string) {
	if errors.Is(err, repository.ErrRequestNotFound) {
		writeMessage(w, http.StatusNotFound, "donation request not found")
		return
	}
	h.logger.Error(logMsg, "error", err)
	writeMessage(w, http.StatusInternalServerError, "internal error")
}
