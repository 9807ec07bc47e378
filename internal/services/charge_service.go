package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"paygate/internal/db"
	"paygate/internal/models"
	"paygate/internal/money"
	"paygate/internal/store"
	"paygate/internal/tasks"
	"paygate/internal/websocket"
)

var (
	ErrChargeNotFound   = errors.New("charge not found")
	ErrMerchantNotFound = errors.New("merchant account not found")
)

// Payment tokens accepted by the simulated processor.
const (
	TokenSuccess           = "tok_valid_success"
	TokenCardDeclined      = "tok_card_declined"
	TokenInsufficientFunds = "tok_insufficient_funds"
)

type ChargeService struct {
	txRunner      db.TxRunner
	merchants     MerchantStore
	accounts      AccountStore
	charges       ChargeStore
	ledgerRows    LedgerStore
	ledger        LedgerApplier
	webhooks      WebhookStore
	notifications NotificationStore
	queue         TaskQueue
	hub           BalanceHub
	feeRate       decimal.Decimal
}

func NewChargeService(
	txRunner db.TxRunner,
	merchants MerchantStore,
	accounts AccountStore,
	charges ChargeStore,
	ledgerRows LedgerStore,
	ledger LedgerApplier,
	webhooks WebhookStore,
	notifications NotificationStore,
	queue TaskQueue,
	hub BalanceHub,
	feeRate decimal.Decimal,
) *ChargeService {
	return &ChargeService{
		txRunner:      txRunner,
		merchants:     merchants,
		accounts:      accounts,
		charges:       charges,
		ledgerRows:    ledgerRows,
		ledger:        ledger,
		webhooks:      webhooks,
		notifications: notifications,
		queue:         queue,
		hub:           hub,
		feeRate:       feeRate,
	}
}

type CreateChargeRequest struct {
	UserID         string
	Amount         decimal.Decimal
	Currency       string
	Description    string
	PaymentToken   string
	IdempotencyKey *string
}

// CreateCharge records a pending charge and hands processing to the worker
// queue. With an idempotency key, a replayed request returns the original
// charge without enqueueing anything.
func (s *ChargeService) CreateCharge(ctx context.Context, req CreateChargeRequest) (models.Charge, error) {
	if !req.Amount.IsPositive() {
		return models.Charge{}, ErrInvalidAmount
	}
	currency := strings.ToUpper(req.Currency)

	var key *string
	if req.IdempotencyKey != nil && strings.TrimSpace(*req.IdempotencyKey) != "" {
		trimmed := strings.TrimSpace(*req.IdempotencyKey)
		key = &trimmed
		original, err := s.charges.GetByIdempotencyKey(ctx, req.UserID, trimmed)
		if err == nil {
			log.Printf("charge: idempotent replay key=%s charge=%s", trimmed, original.ID)
			return original, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return models.Charge{}, err
		}
	}

	chargeID := "ch_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.charges.Create(ctx, tx, store.ChargeInput{
			ID:             chargeID,
			UserID:         req.UserID,
			Amount:         req.Amount,
			Currency:       currency,
			Description:    req.Description,
			IdempotencyKey: key,
		})
	})
	if err != nil {
		// Two requests raced on the same key; the loser returns the winner's row.
		var pqErr *pq.Error
		if key != nil && errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return s.charges.GetByIdempotencyKey(ctx, req.UserID, *key)
		}
		return models.Charge{}, err
	}

	token := req.PaymentToken
	if token == "" {
		token = TokenSuccess
	}
	s.queue.Enqueue(tasks.TaskProcessCharge, map[string]string{
		"charge_id":     chargeID,
		"payment_token": token,
	})
	return s.charges.GetByID(ctx, chargeID)
}

func (s *ChargeService) GetCharge(ctx context.Context, userID, chargeID string) (models.Charge, error) {
	charge, err := s.charges.GetByID(ctx, chargeID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Charge{}, ErrChargeNotFound
	}
	if err != nil {
		return models.Charge{}, err
	}
	if charge.UserID != userID {
		return models.Charge{}, ErrChargeNotFound
	}
	return charge, nil
}

func (s *ChargeService) ListCharges(ctx context.Context, userID string, limit, offset int) ([]models.Charge, error) {
	return s.charges.ListByUser(ctx, userID, limit, offset)
}

// ListChargeLedger returns the ledger rows written when the charge settled.
// A pending or failed charge has none.
func (s *ChargeService) ListChargeLedger(ctx context.Context, userID, chargeID string) ([]models.LedgerTransaction, error) {
	if _, err := s.GetCharge(ctx, userID, chargeID); err != nil {
		return nil, err
	}
	return s.ledgerRows.ListByCharge(ctx, chargeID)
}

// ProcessCharge settles a pending charge inside one transaction: validate the
// token, lock the merchant, move the fee and the net amount through the
// ledger, refresh the cached balances and record the outbox rows. Reprocessing
// a charge that already left pending is a no-op.
func (s *ChargeService) ProcessCharge(ctx context.Context, chargeID, paymentToken string) error {
	var deliveries []string
	var merchantID string
	var update *websocket.BalanceUpdate

	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		charge, err := s.charges.GetForUpdate(ctx, tx, chargeID)
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("charge: process skipped, charge %s not found", chargeID)
			return nil
		}
		if err != nil {
			return err
		}
		if charge.Status != models.ChargePending {
			log.Printf("charge: %s already %s, skipping", charge.ID, charge.Status)
			return nil
		}

		switch paymentToken {
		case TokenCardDeclined:
			return s.charges.MarkFailed(ctx, tx, charge.ID, "Your card was declined.")
		case TokenInsufficientFunds:
			return s.charges.MarkFailed(ctx, tx, charge.ID, "Insufficient funds.")
		case TokenSuccess:
		default:
			return s.charges.MarkFailed(ctx, tx, charge.ID, "Invalid payment token provided.")
		}

		merchant, err := s.merchants.GetForUpdateByUserID(ctx, tx, charge.UserID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMerchantNotFound
		}
		if err != nil {
			return err
		}
		if merchant.Currency != charge.Currency {
			return s.charges.MarkFailed(ctx, tx, charge.ID,
				fmt.Sprintf("Currency mismatch: merchant uses %s", merchant.Currency))
		}

		// Merchant-scoped account first, then platform accounts.
		pendingAcct, err := s.accounts.GetOrCreateForUpdate(ctx, tx, &merchant.ID, models.AccountMerchantPending, charge.Currency)
		if err != nil {
			return err
		}
		holdingAcct, err := s.accounts.GetOrCreateForUpdate(ctx, tx, nil, models.AccountSystemHolding, charge.Currency)
		if err != nil {
			return err
		}
		revenueAcct, err := s.accounts.GetOrCreateForUpdate(ctx, tx, nil, models.AccountPlatformRevenue, charge.Currency)
		if err != nil {
			return err
		}

		fee := money.Fee(charge.Amount, s.feeRate)
		net := charge.Amount.Sub(fee)
		transfers := make([]Transfer, 0, 2)
		if fee.IsPositive() {
			transfers = append(transfers, Transfer{
				Debit:       holdingAcct,
				Credit:      revenueAcct,
				Kind:        models.LedgerFee,
				Amount:      fee,
				ChargeID:    &charge.ID,
				MerchantID:  &merchant.ID,
				Description: "Processing fee for charge " + charge.ID,
			})
		}
		transfers = append(transfers, Transfer{
			Debit:       holdingAcct,
			Credit:      pendingAcct,
			Kind:        models.LedgerCharge,
			Amount:      net,
			ChargeID:    &charge.ID,
			MerchantID:  &merchant.ID,
			Description: "Net amount for charge " + charge.ID,
		})
		if _, err := s.ledger.Apply(ctx, tx, transfers); err != nil {
			return err
		}

		newPending := merchant.PendingBalance.Add(net)
		if err := s.merchants.UpdateBalances(ctx, tx, merchant.ID, merchant.AvailableBalance, newPending); err != nil {
			return err
		}
		if err := s.charges.MarkSucceeded(ctx, tx, charge.ID); err != nil {
			return err
		}

		payload := map[string]string{
			"event":       "charge.succeeded",
			"charge_id":   charge.ID,
			"merchant_id": merchant.ID,
			"amount":      money.Format(charge.Amount),
			"currency":    charge.Currency,
		}
		deliveries, err = recordDeliveries(ctx, tx, s.webhooks, merchant.ID, "charge.succeeded", payload)
		if err != nil {
			return err
		}
		if err := s.notifications.Create(ctx, tx, merchant.ID, &charge.UserID, "charge.succeeded",
			fmt.Sprintf("Charge succeeded: %s %s", money.Format(charge.Amount), charge.Currency),
			mustJSON(map[string]string{"charge_id": charge.ID})); err != nil {
			return err
		}

		merchantID = merchant.ID
		update = &websocket.BalanceUpdate{
			Available: money.Format(merchant.AvailableBalance),
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
