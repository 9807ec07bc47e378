package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"paygate/internal/models"
)

func (h *Handler) merchantForRequest(w http.ResponseWriter, r *http.Request) (models.Merchant, bool) {
	userID, ok := requestUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return models.Merchant{}, false
	}
	merchant, err := h.merchants.GetByUserID(r.Context(), userID)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "merchant_not_found")
		return models.Merchant{}, false
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to resolve merchant")
		return models.Merchant{}, false
	}
	return merchant, true
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	merchant, ok := h.merchantForRequest(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	logs, err := h.audit.ListByMerchant(r.Context(), merchant.ID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load audit logs")
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	merchant, ok := h.merchantForRequest(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	notifications, err := h.notifications.ListByMerchant(r.Context(), merchant.ID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load notifications")
		return
	}
	respondJSON(w, http.StatusOK, notifications)
}
