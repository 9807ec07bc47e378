package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"paygate/internal/config"
	"paygate/internal/websocket"
)

type Handler struct {
	cfg           config.Config
	merchants     MerchantStore
	charges       ChargeService
	payouts       PayoutService
	webhooks      WebhookService
	audit         AuditStore
	notifications NotificationStore
	hub           *websocket.Hub
}

func New(cfg config.Config, merchants MerchantStore, charges ChargeService, payouts PayoutService, webhooks WebhookService, audit AuditStore, notifications NotificationStore, hub *websocket.Hub) *Handler {
	return &Handler{
		cfg:           cfg,
		merchants:     merchants,
		charges:       charges,
		payouts:       payouts,
		webhooks:      webhooks,
		audit:         audit,
		notifications: notifications,
		hub:           hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-User-ID", "Idempotency-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/charges", h.CreateCharge)
		r.Get("/charges", h.ListCharges)
		r.Get("/charges/{id}", h.GetCharge)
		r.Get("/charges/{id}/ledger", h.ListChargeLedger)

		r.Get("/balance", h.GetBalance)
		r.Get("/ledger", h.ListLedger)
		r.Get("/accounts", h.ListAccounts)
		r.Get("/accounts/self-check", h.SelfCheck)

		r.Post("/payouts", h.CreatePayout)
		r.Get("/payouts", h.ListPayouts)
		r.Get("/payouts/{id}", h.GetPayout)
		r.Post("/payouts/{id}/cancel", h.CancelPayout)

		r.Get("/settlement/reports", h.ListSettlementReports)
		r.Get("/settlement/reports/{payoutID}", h.GetSettlementReport)
		r.Get("/settlement/schedule", h.GetSettlementSchedule)
		r.Put("/settlement/schedule", h.UpdateSettlementSchedule)

		r.Post("/webhooks", h.CreateWebhook)
		r.Get("/webhooks", h.ListWebhooks)
		r.Patch("/webhooks/{id}", h.UpdateWebhook)
		r.Delete("/webhooks/{id}", h.DeleteWebhook)
		r.Get("/webhooks/{id}/deliveries", h.ListWebhookDeliveries)

		r.Get("/audit", h.ListAuditLogs)
		r.Get("/notifications", h.ListNotifications)
	})

	router.Get("/ws/balances", h.WSBalances)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}

func (h *Handler) WSBalances(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	merchant, err := h.merchants.GetByUserID(r.Context(), userID)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "merchant_not_found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to resolve merchant")
		return
	}
	websocket.ServeWS(w, r, h.hub, merchant.ID)
}
