package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/bloodlink/bloodlink/internal/auth"
	"github.com/bloodlink/bloodlink/internal/model"
	"github.com/bloodlink/bloodlink/internal/payment"
)

// FundingStore defines the funding persistence operations.
type FundingStore interface {
	CreateFunding(ctx context.Context, f *model.Funding) error
	ListFundings(ctx context.Context, email string) ([]*model.Funding, error)
	TotalFunding(ctx context.Context) (int64, error)
}

// IntentCreator creates a payment intent with the provider.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amount int64) (*payment.Intent, error)
}

// FundingHandler handles HTTP requests for monetary contributions.
type FundingHandler struct {
	store   FundingStore
	intents IntentCreator
	logger  *slog.Logger
}

// NewFundingHandler creates a new FundingHandler.
func NewFundingHandler(store FundingStore, intents IntentCreator, logger *slog.Logger) *FundingHandler {
	return &FundingHandler{
		store:   store,
		intents: intents,
		logger:  logger,
	}
}

// fundingRequest is the payload for recording a contribution.
type fundingRequest struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

// Create handles POST /fundings.
// The contributor email comes from the verified token.
func (h *FundingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req fundingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Amount <= 0 {
		writeMessage(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	f := &model.Funding{
		ID:        ulid.Make().String(),
		Name:      req.Name,
		Email:     auth.EmailFromContext(r.Context()),
		Amount:    req.Amount,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.store.CreateFunding(r.Context(), f); err != nil {
		h.logger.Error("failed to create funding", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.logger.Info("funding_created",
		"funding_id", f.ID,
		"amount", f.Amount,
	)

	writeJSON(w, http.StatusCreated, f)
}

// List handles GET /fundings.
func (h *FundingHandler) List(w http.ResponseWriter, r *http.Request) {
	fundings, err := h.store.ListFundings(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		h.logger.Error("failed to list fundings", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}

	if fundings == nil {
		fundings = []*model.Funding{}
	}
	writeJSON(w, http.StatusOK, fundings)
}

// Total handles GET /fundings/total.
func (h *FundingHandler) Total(w http.ResponseWriter, r *http.Request) {
	total, err := h.store.TotalFunding(r.Context())
	if err != nil {
		h.logger.Error("failed to total fundings", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"total": total})
}

// intentRequest is the payload for creating a payment intent.
type intentRequest struct {
	Amount int64 `json:"amount"`
}

// CreatePaymentIntent handles POST /create-payment-intent.
// Delegates to the payment provider and returns its client secret
// verbatim for the frontend to complete the card flow.
func (h *FundingHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Amount <= 0 {
		writeMessage(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	intent, err := h.intents.CreateIntent(r.Context(), req.Amount)
	if err != nil {
		h.logger.Error("payment intent creation failed", "error", err)
		writeMessage(w, http.StatusBadGateway, "payment provider error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"clientSecret": intent.ClientSecret})
}
