package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"paygate/internal/money"
	"paygate/internal/services"
)

type createChargeRequest struct {
	Amount         string  `json:"amount"`
	Currency       string  `json:"currency"`
	Description    string  `json:"description"`
	PaymentToken   string  `json:"payment_token"`
	IdempotencyKey *string `json:"idempotency_key"`
}

func (h *Handler) CreateCharge(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.IdempotencyKey == nil {
		if header := strings.TrimSpace(r.Header.Get("Idempotency-Key")); header != "" {
			req.IdempotencyKey = &header
		}
	}
	amount, err := money.Parse(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	if strings.TrimSpace(req.Currency) == "" {
		respondError(w, http.StatusBadRequest, "currency is required")
		return
	}
	charge, err := h.charges.CreateCharge(r.Context(), services.CreateChargeRequest{
		UserID:         userID,
		Amount:         amount,
		Currency:       req.Currency,
		Description:    req.Description,
		PaymentToken:   req.PaymentToken,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidAmount) {
			respondError(w, http.StatusBadRequest, "invalid_amount")
			return
		}
		respondError(w, http.StatusInternalServerError, "charge_failed")
		return
	}
	respondJSON(w, http.StatusCreated, charge)
}

func (h *Handler) GetCharge(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	charge, err := h.charges.GetCharge(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, services.ErrChargeNotFound) {
			respondError(w, http.StatusNotFound, "charge_not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load charge")
		return
	}
	respondJSON(w, http.StatusOK, charge)
}

func (h *Handler) ListChargeLedger(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	rows, err := h.charges.ListChargeLedger(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, services.ErrChargeNotFound) {
			respondError(w, http.StatusNotFound, "charge_not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load charge ledger")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) ListCharges(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := pagination(r)
	charges, err := h.charges.ListCharges(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load charges")
		return
	}
	respondJSON(w, http.StatusOK, charges)
}
