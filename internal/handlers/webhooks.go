package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"paygate/internal/services"
)

type createWebhookRequest struct {
	URL string `json:"url"`
}

func validWebhookURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func (h *Handler) CreateWebhook(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if !validWebhookURL(strings.TrimSpace(req.URL)) {
		respondError(w, http.StatusBadRequest, "invalid_url")
		return
	}
	endpoint, err := h.webhooks.CreateEndpoint(r.Context(), userID, strings.TrimSpace(req.URL))
	if err != nil {
		if errors.Is(err, services.ErrMerchantNotFound) {
			respondError(w, http.StatusNotFound, "merchant_not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to create webhook")
		return
	}
	respondJSON(w, http.StatusCreated, endpoint)
}

func (h *Handler) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	endpoints, err := h.webhooks.ListEndpoints(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrMerchantNotFound) {
			respondError(w, http.StatusNotFound, "merchant_not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load webhooks")
		return
	}
	respondJSON(w, http.StatusOK, endpoints)
}

type updateWebhookRequest struct {
	URL     *string `json:"url"`
	Enabled *bool   `json:"enabled"`
}

func (h *Handler) UpdateWebhook(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req updateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.URL != nil && !validWebhookURL(strings.TrimSpace(*req.URL)) {
		respondError(w, http.StatusBadRequest, "invalid_url")
		return
	}
	endpoint, err := h.webhooks.UpdateEndpoint(r.Context(), userID, chi.URLParam(r, "id"), req.URL, req.Enabled)
	if err != nil {
		if errors.Is(err, services.ErrEndpointNotFound) || errors.Is(err, services.ErrMerchantNotFound) {
			respondError(w, http.StatusNotFound, "webhook_not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to update webhook")
		return
	}
	respondJSON(w, http.StatusOK, endpoint)
}

func (h *Handler) DeleteWebhook(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.webhooks.DeleteEndpoint(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, services.ErrEndpointNotFound) || errors.Is(err, services.ErrMerchantNotFound) {
			respondError(w, http.StatusNotFound, "webhook_not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to delete webhook")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) ListWebhookDeliveries(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := pagination(r)
	deliveries, err := h.webhooks.ListDeliveries(r.Context(), userID, chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		if errors.Is(err, services.ErrEndpointNotFound) || errors.Is(err, services.ErrMerchantNotFound) {
			respondError(w, http.StatusNotFound, "webhook_not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load deliveries")
		return
	}
	respondJSON(w, http.StatusOK, deliveries)
}
