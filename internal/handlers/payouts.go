package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"paygate/internal/money"
	"paygate/internal/services"
	"paygate/internal/store"
)

type createPayoutRequest struct {
	PayoutAccountID string `json:"payout_account_id"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
}

func (h *Handler) CreatePayout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createPayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.PayoutAccountID) == "" {
		respondError(w, http.StatusBadRequest, "payout_account_id is required")
		return
	}
	amount, err := money.Parse(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	payout, err := h.payouts.CreatePayout(r.Context(), userID, req.PayoutAccountID, amount, req.Currency)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMerchantNotFound):
			respondError(w, http.StatusNotFound, "merchant_not_found")
		case errors.Is(err, services.ErrCurrencyMismatch):
			respondError(w, http.StatusBadRequest, "currency_mismatch")
		case errors.Is(err, services.ErrBelowMinimumPayout):
			respondError(w, http.StatusBadRequest, "below_minimum_payout")
		case errors.Is(err, services.ErrInsufficientFunds):
			respondError(w, http.StatusBadRequest, "insufficient_funds")
		case errors.Is(err, services.ErrInvalidAmount):
			respondError(w, http.StatusBadRequest, "invalid_amount")
		default:
			respondError(w, http.StatusInternalServerError, "payout_failed")
		}
		return
	}
	respondJSON(w, http.StatusCreated, payout)
}

func (h *Handler) GetPayout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	payout, err := h.payouts.GetPayout(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, services.ErrPayoutNotFound) || errors.Is(err, services.ErrMerchantNotFound) {
			respondError(w, http.StatusNotFound, "payout_not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load payout")
		return
	}
	respondJSON(w, http.StatusOK, payout)
}

func (h *Handler) ListPayouts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	payouts, err := h.payouts.ListPayouts(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrMerchantNotFound) {
			respondError(w, http.StatusNotFound, "merchant_not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load payouts")
		return
	}
	respondJSON(w, http.StatusOK, payouts)
}

func (h *Handler) CancelPayout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	payout, err := h.payouts.CancelPayout(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPayoutNotFound), errors.Is(err, services.ErrMerchantNotFound):
			respondError(w, http.StatusNotFound, "payout_not_found")
		case errors.Is(err, services.ErrPayoutNotPending):
			respondError(w, http.StatusConflict, "payout_not_pending")
		default:
			respondError(w, http.StatusInternalServerError, "cancel_failed")
		}
		return
	}
	respondJSON(w, http.StatusOK, payout)
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	balance, err := h.payouts.GetBalance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrMerchantNotFound) {
			respondError(w, http.StatusNotFound, "merchant_not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load balance")
		return
	}
	respondJSON(w, http.StatusOK, balance)
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	accounts, err := h.payouts.ListAccounts(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrMerchantNotFound) {
			respondError(w, http.StatusNotFound, "merchant_not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load accounts")
		return
	}
	respondJSON(w, http.StatusOK, accounts)
}

func (h *Handler) SelfCheck(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	checks, err := h.payouts.SelfCheck(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrMerchantNotFound) {
			respondError(w, http.StatusNotFound, "merchant_not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to run self-check")
		return
	}
	respondJSON(w, http.StatusOK, checks)
}

func (h *Handler) ListLedger(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := pagination(r)
	rows, err := h.payouts.ListLedgerHistory(r.Context(), userID, limit, offset)
	if err != nil {
		if errors.Is(err, services.ErrMerchantNotFound) {
			respondError(w, http.StatusNotFound, "merchant_not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load ledger")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) GetSettlementReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	report, err := h.payouts.SettlementReport(r.Context(), userID, chi.URLParam(r, "payoutID"))
	if err != nil {
		if errors.Is(err, services.ErrPayoutNotFound) || errors.Is(err, services.ErrMerchantNotFound) {
			respondError(w, http.StatusNotFound, "payout_not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to build report")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) ListSettlementReports(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	reports, err := h.payouts.ListSettlementReports(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrMerchantNotFound) {
			respondError(w, http.StatusNotFound, "merchant_not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to build reports")
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

func (h *Handler) GetSettlementSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	schedule, err := h.payouts.GetSettlementSchedule(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrMerchantNotFound) {
			respondError(w, http.StatusNotFound, "merchant_not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load schedule")
		return
	}
	respondJSON(w, http.StatusOK, schedule)
}

type updateScheduleRequest struct {
	Schedule            *string `json:"settlement_schedule"`
	DelayDays           *int    `json:"settlement_delay_days"`
	MinimumPayoutAmount *string `json:"minimum_payout_amount"`
}

func (h *Handler) UpdateSettlementSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req updateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Schedule != nil {
		switch *req.Schedule {
		case "daily", "weekly", "monthly", "manual":
		default:
			respondError(w, http.StatusBadRequest, "invalid_schedule")
			return
		}
	}
	if req.DelayDays != nil && (*req.DelayDays < 0 || *req.DelayDays > 30) {
		respondError(w, http.StatusBadRequest, "invalid_delay_days")
		return
	}
	var minimum *decimal.Decimal
	if req.MinimumPayoutAmount != nil {
		parsed, err := money.Parse(*req.MinimumPayoutAmount)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_amount")
			return
		}
		minimum = &parsed
	}
	schedule, err := h.payouts.UpdateSettlementSchedule(r.Context(), userID, store.ScheduleInput{
		Schedule:            req.Schedule,
		DelayDays:           req.DelayDays,
		MinimumPayoutAmount: minimum,
	})
	if err != nil {
		if errors.Is(err, services.ErrMerchantNotFound) {
			respondError(w, http.StatusNotFound, "merchant_not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to update schedule")
		return
	}
	respondJSON(w, http.StatusOK, schedule)
}
