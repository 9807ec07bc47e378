package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"paygate/internal/db"
	"paygate/internal/metrics"
	"paygate/internal/models"
	"paygate/internal/money"
	"paygate/internal/tasks"
	"paygate/internal/websocket"
)

type SettlementService struct {
	txRunner      db.TxRunner
	merchants     MerchantStore
	accounts      AccountStore
	ledger        LedgerApplier
	webhooks      WebhookStore
	notifications NotificationStore
	audit         AuditStore
	queue         TaskQueue
	hub           BalanceHub
}

func NewSettlementService(
	txRunner db.TxRunner,
	merchants MerchantStore,
	accounts AccountStore,
	ledger LedgerApplier,
	webhooks WebhookStore,
	notifications NotificationStore,
	audit AuditStore,
	queue TaskQueue,
	hub BalanceHub,
) *SettlementService {
	return &SettlementService{
		txRunner:      txRunner,
		merchants:     merchants,
		accounts:      accounts,
		ledger:        ledger,
		webhooks:      webhooks,
		notifications: notifications,
		audit:         audit,
		queue:         queue,
		hub:           hub,
	}
}

// Run sweeps every merchant's pending funds into their available account.
// Each merchant settles in its own transaction, so one failure never blocks
// the rest of the batch.
func (s *SettlementService) Run(ctx context.Context) error {
	metrics.SettlementRunsTotal.Inc()
	merchantIDs, err := s.merchants.ListIDs(ctx)
	if err != nil {
		return err
	}
	settled := 0
	for _, merchantID := range merchantIDs {
		if err := s.settleMerchant(ctx, merchantID); err != nil {
			metrics.SettlementMerchantErrors.Inc()
			log.Printf("settlement: merchant %s: %v", merchantID, err)
			continue
		}
		settled++
	}
	log.Printf("settlement: run complete, %d/%d merchants settled", settled, len(merchantIDs))
	return nil
}

func (s *SettlementService) settleMerchant(ctx context.Context, merchantID string) error {
	var deliveries []string
	var update *websocket.BalanceUpdate

	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		merchant, err := s.merchants.GetForUpdate(ctx, tx, merchantID)
		if err != nil {
			return err
		}
		pendingAcct, err := s.accounts.GetForUpdate(ctx, tx, &merchant.ID, models.AccountMerchantPending, merchant.Currency)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if !pendingAcct.Balance.IsPositive() {
			return nil
		}
		availableAcct, err := s.accounts.GetOrCreateForUpdate(ctx, tx, &merchant.ID, models.AccountMerchantAvailable, merchant.Currency)
		if err != nil {
			return err
		}

		amount := pendingAcct.Balance
		if _, err := s.ledger.Apply(ctx, tx, []Transfer{{
			Debit:       pendingAcct,
			Credit:      availableAcct,
			Kind:        models.LedgerCharge,
			Amount:      amount,
			MerchantID:  &merchant.ID,
			Description: "Daily settlement",
		}}); err != nil {
			return err
		}

		newAvailable := merchant.AvailableBalance.Add(amount)
		newPending := merchant.PendingBalance.Sub(amount)
		if err := s.merchants.UpdateBalances(ctx, tx, merchant.ID, newAvailable, newPending); err != nil {
			return err
		}
		if err := s.audit.Log(ctx, tx, nil, &merchant.ID, "FUNDS_SETTLED", "MERCHANT_ACCOUNT", merchant.ID,
			mustJSON(map[string]string{"amount": money.Format(amount), "currency": merchant.Currency})); err != nil {
			return err
		}
		if err := s.notifications.Create(ctx, tx, merchant.ID, &merchant.UserID, "settlement.succeeded",
			fmt.Sprintf("Settled %s %s to available balance", money.Format(amount), merchant.Currency),
			mustJSON(map[string]string{"amount": money.Format(amount)})); err != nil {
			return err
		}
		payload := map[string]string{
			"event":       "settlement.succeeded",
			"merchant_id": merchant.ID,
			"amount":      money.Format(amount),
			"currency":    merchant.Currency,
		}
		deliveries, err = recordDeliveries(ctx, tx, s.webhooks, merchant.ID, "settlement.succeeded", payload)
		if err != nil {
			return err
		}

		update = &websocket.BalanceUpdate{
			Available: money.Format(newAvailable),
			Pending:   money.Format(newPending),
			Currency:  merchant.Currency,
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, id := range deliveries {
		s.queue.Enqueue(tasks.TaskDeliverWebhook, map[string]string{"delivery_id": id})
	}
	if update != nil {
		s.hub.BroadcastBalance(merchantID, *update)
	}
	return nil
}
