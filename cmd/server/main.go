package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paygate/internal/config"
	"paygate/internal/db"
	"paygate/internal/handlers"
	"paygate/internal/scheduler"
	"paygate/internal/services"
	"paygate/internal/store"
	"paygate/internal/tasks"
	"paygate/internal/websocket"
)

func main() {
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	merchants := store.NewMerchantStore(database)
	accounts := store.NewAccountStore(database)
	ledgerRows := store.NewLedgerStore(database)
	charges := store.NewChargeStore(database)
	payouts := store.NewPayoutStore(database)
	webhooks := store.NewWebhookStore(database)
	audit := store.NewAuditStore(database)
	notifications := store.NewNotificationStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	queue := tasks.NewQueue(cfg.WorkerCount, cfg.QueueSize, cfg.TaskMaxAttempts)
	ledger := services.NewLedger(accounts, ledgerRows)
	chargeService := services.NewChargeService(txRunner, merchants, accounts, charges, ledgerRows, ledger, webhooks, notifications, queue, hub, cfg.ChargeFeeRate)
	payoutService := services.NewPayoutService(txRunner, database, merchants, accounts, payouts, ledgerRows, ledger, webhooks, notifications, audit, queue, hub, cfg.PayoutFeeRate)
	settlementService := services.NewSettlementService(txRunner, merchants, accounts, ledger, webhooks, notifications, audit, queue, hub)
	webhookService := services.NewWebhookService(txRunner, webhooks, merchants, notifications, cfg.WebhookTimeout)

	queue.Register(tasks.TaskProcessCharge, func(ctx context.Context, args map[string]string) error {
		return chargeService.ProcessCharge(ctx, args["charge_id"], args["payment_token"])
	})
	queue.Register(tasks.TaskProcessPayout, func(ctx context.Context, args map[string]string) error {
		return payoutService.ProcessPayout(ctx, args["payout_id"])
	})
	queue.Register(tasks.TaskDeliverWebhook, func(ctx context.Context, args map[string]string) error {
		return webhookService.ProcessDelivery(ctx, args["delivery_id"])
	})
	queue.Register(tasks.TaskSettlePending, func(ctx context.Context, args map[string]string) error {
		return settlementService.Run(ctx)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)

	settlementTicker := scheduler.New(cfg.SettlementInterval, func(context.Context) {
		queue.Enqueue(tasks.TaskSettlePending, nil)
	})
	go settlementTicker.Run(ctx)

	handler := handlers.New(cfg, merchants, chargeService, payoutService, webhookService, audit, notifications, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("paygate API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
	cancel()
	queue.Close()
}
