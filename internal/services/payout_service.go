package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"paygate/internal/db"
	"paygate/internal/models"
	"paygate/internal/money"
	"paygate/internal/store"
	"paygate/internal/tasks"
	"paygate/internal/websocket"
)

var (
	ErrPayoutNotFound     = errors.New("payout not found")
	ErrPayoutNotPending   = errors.New("only pending payouts can be cancelled")
	ErrBelowMinimumPayout = errors.New("amount below minimum payout")
)

// Failure reasons stored on payouts.
const (
	reasonCancelledByUser   = "cancelled_by_user"
	reasonInsufficientFunds = "Insufficient funds at time of processing."
	reasonAccountingError   = "Internal platform accounting error."
	reasonProcessingError   = "Processing error"
)

type PayoutService struct {
	txRunner      db.TxRunner
	db            store.Selecter
	merchants     MerchantStore
	accounts      AccountStore
	payouts       PayoutStore
	ledgerRows    LedgerStore
	ledger        LedgerApplier
	webhooks      WebhookStore
	notifications NotificationStore
	audit         AuditStore
	queue         TaskQueue
	hub           BalanceHub
	feeRate       decimal.Decimal
}

func NewPayoutService(
	txRunner db.TxRunner,
	database store.Selecter,
	merchants MerchantStore,
	accounts AccountStore,
	payouts PayoutStore,
	ledgerRows LedgerStore,
	ledger LedgerApplier,
	webhooks WebhookStore,
	notifications NotificationStore,
	audit AuditStore,
	queue TaskQueue,
	hub BalanceHub,
	feeRate decimal.Decimal,
) *PayoutService {
	return &PayoutService{
		txRunner:      txRunner,
		db:            database,
		merchants:     merchants,
		accounts:      accounts,
		payouts:       payouts,
		ledgerRows:    ledgerRows,
		ledger:        ledger,
		webhooks:      webhooks,
		notifications: notifications,
		audit:         audit,
		queue:         queue,
		hub:           hub,
		feeRate:       feeRate,
	}
}

type BalanceSummary struct {
	Available string `json:"available"`
	Pending   string `json:"pending"`
	Reserved  string `json:"reserved"`
	Currency  string `json:"currency"`
}

// CreatePayout reserves the funds immediately: the payout amount plus fee
// leave the merchant's available account in the same transaction that creates
// the payout row. The worker then only finalizes status and notifications, so
// two concurrent payouts can never both spend the same balance.
func (s *PayoutService) CreatePayout(ctx context.Context, userID, payoutAccountID string, amount decimal.Decimal, currency string) (models.Payout, error) {
	if !amount.IsPositive() {
		return models.Payout{}, ErrInvalidAmount
	}
	currency = strings.ToUpper(currency)

	var payout models.Payout
	var merchantID string
	var update websocket.BalanceUpdate

	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		merchant, err := s.merchants.GetForUpdateByUserID(ctx, tx, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMerchantNotFound
		}
		if err != nil {
			return err
		}
		if currency != merchant.Currency {
			return ErrCurrencyMismatch
		}
		if merchant.MinimumPayoutAmount.Valid && amount.LessThan(merchant.MinimumPayoutAmount.Decimal) {
			return ErrBelowMinimumPayout
		}
		if amount.GreaterThan(merchant.AvailableBalance) {
			return ErrInsufficientFunds
		}

		payoutID := uuid.NewString()
		if err := s.payouts.Create(ctx, tx, store.PayoutInput{
			ID:              payoutID,
			MerchantID:      merchant.ID,
			PayoutAccountID: payoutAccountID,
			Amount:          amount,
			Currency:        currency,
		}); err != nil {
			return err
		}

		availableAcct, err := s.accounts.GetForUpdate(ctx, tx, &merchant.ID, models.AccountMerchantAvailable, currency)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInsufficientFunds
		}
		if err != nil {
			return err
		}
		payableAcct, err := s.accounts.GetOrCreateForUpdate(ctx, tx, nil, models.AccountPlatformPayable, currency)
		if err != nil {
			return err
		}

		fee := money.Fee(amount, s.feeRate)
		if availableAcct.Balance.LessThan(amount.Add(fee)) {
			return ErrInsufficientFunds
		}

		transfers := []Transfer{{
			Debit:       availableAcct,
			Credit:      payableAcct,
			Kind:        models.LedgerPayout,
			Amount:      amount,
			PayoutID:    &payoutID,
			MerchantID:  &merchant.ID,
			Description: "Reservation for payout " + payoutID,
		}}
		if fee.IsPositive() {
			revenueAcct, err := s.accounts.GetOrCreateForUpdate(ctx, tx, nil, models.AccountPlatformRevenue, currency)
			if err != nil {
				return err
			}
			transfers = append(transfers, Transfer{
				Debit:       availableAcct,
				Credit:      revenueAcct,
				Kind:        models.LedgerFee,
				Amount:      fee,
				PayoutID:    &payoutID,
				MerchantID:  &merchant.ID,
				Description: "Fee for payout " + payoutID,
			})
		}
		if _, err := s.ledger.Apply(ctx, tx, transfers); err != nil {
			return err
		}

		newAvailable := merchant.AvailableBalance.Sub(amount).Sub(fee)
		if err := s.merchants.UpdateBalances(ctx, tx, merchant.ID, newAvailable, merchant.PendingBalance); err != nil {
			return err
		}
		if err := s.audit.Log(ctx, tx, &merchant.UserID, &merchant.ID, "PAYOUT_CREATED", "PAYOUT", payoutID,
			mustJSON(map[string]string{"amount": money.Format(amount), "currency": currency})); err != nil {
			return err
		}

		payout = models.Payout{
			ID:              payoutID,
			MerchantID:      merchant.ID,
			PayoutAccountID: payoutAccountID,
			Amount:          amount,
			Currency:        currency,
			Status:          models.PayoutPending,
			CreatedAt:       time.Now().UTC(),
		}
		merchantID = merchant.ID
		update = websocket.BalanceUpdate{
			Available: money.Format(newAvailable),
			Pending:   money.Format(merchant.PendingBalance),
			Currency:  merchant.Currency,
		}
		return nil
	})
	if err != nil {
		return models.Payout{}, err
	}

	s.queue.Enqueue(tasks.TaskProcessPayout, map[string]string{"payout_id": payout.ID})
	s.hub.BroadcastBalance(merchantID, update)
	return payout, nil
}

// ProcessPayout finalizes a pending payout. Funds were reserved at creation,
// so the normal path only flips the status and emits notifications. A pending
// payout with no ledger rows means the reservation never committed; that
// reconciliation path moves the funds here, or fails the payout if the
// balance no longer covers it.
func (s *PayoutService) ProcessPayout(ctx context.Context, payoutID string) error {
	var deliveries []string
	var merchantID string
	var update *websocket.BalanceUpdate

	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		payout, err := s.payouts.GetForUpdate(ctx, tx, payoutID)
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("payout: process skipped, payout %s not found", payoutID)
			return nil
		}
		if err != nil {
			return err
		}
		if payout.Status != models.PayoutPending {
			log.Printf("payout: %s already %s, skipping", payout.ID, payout.Status)
			return nil
		}

		merchant, err := s.merchants.GetForUpdate(ctx, tx, payout.MerchantID)
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("payout: %s has no merchant account", payout.ID)
			return s.payouts.MarkFailed(ctx, tx, payout.ID, reasonAccountingError)
		}
		if err != nil {
			return err
		}

		rows, err := s.ledgerRows.ListByPayout(ctx, tx, payout.ID)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			// Reconciliation: reserve now or fail.
			if err := s.reserveLate(ctx, tx, merchant, payout); err != nil {
				return err
			}
			locked, err := s.merchants.GetForUpdate(ctx, tx, merchant.ID)
			if err != nil {
				return err
			}
			merchant = locked
		}

		settled, err := s.payouts.GetForUpdate(ctx, tx, payout.ID)
		if err != nil {
			return err
		}
		if settled.Status != models.PayoutPending {
			return nil
		}
		if err := s.payouts.MarkSucceeded(ctx, tx, payout.ID); err != nil {
			return err
		}
		if err := s.audit.Log(ctx, tx, nil, &merchant.ID, "PAYOUT_PROCESSED", "PAYOUT", payout.ID,
			mustJSON(map[string]string{"amount": money.Format(payout.Amount), "currency": payout.Currency})); err != nil {
			return err
		}
		if err := s.notifications.Create(ctx, tx, merchant.ID, &merchant.UserID, "payout.succeeded",
			fmt.Sprintf("Payout of %s %s sent", money.Format(payout.Amount), payout.Currency),
			mustJSON(map[string]string{"payout_id": payout.ID})); err != nil {
			return err
		}
		payload := map[string]string{
			"event":       "payout.succeeded",
			"payout_id":   payout.ID,
			"merchant_id": merchant.ID,
			"amount":      money.Format(payout.Amount),
			"currency":    payout.Currency,
		}
		deliveries, err = recordDeliveries(ctx, tx, s.webhooks, merchant.ID, "payout.succeeded", payload)
		if err != nil {
			return err
		}

		merchantID = merchant.ID
		update = &websocket.BalanceUpdate{
			Available: money.Format(merchant.AvailableBalance),
			Pending:   money.Format(merchant.PendingBalance),
			Currency:  merchant.Currency,
		}
		return nil
	})
	if err != nil {
		s.markProcessingError(ctx, payoutID, err)
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

// reserveLate moves the payout amount and fee out of the merchant's available
// account when no reservation rows exist. Account locks follow the usual
// order, merchant-scoped first.
func (s *PayoutService) reserveLate(ctx context.Context, tx *sqlx.Tx, merchant models.Merchant, payout models.Payout) error {
	availableAcct, err := s.accounts.GetForUpdate(ctx, tx, &merchant.ID, models.AccountMerchantAvailable, payout.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return s.payouts.MarkFailed(ctx, tx, payout.ID, reasonAccountingError)
	}
	if err != nil {
		return err
	}
	payableAcct, err := s.accounts.GetForUpdate(ctx, tx, nil, models.AccountPlatformPayable, payout.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return s.payouts.MarkFailed(ctx, tx, payout.ID, reasonAccountingError)
	}
	if err != nil {
		return err
	}

	fee := money.Fee(payout.Amount, s.feeRate)
	if availableAcct.Balance.LessThan(payout.Amount.Add(fee)) {
		return s.payouts.MarkFailed(ctx, tx, payout.ID, reasonInsufficientFunds)
	}

	transfers := []Transfer{{
		Debit:       availableAcct,
		Credit:      payableAcct,
		Kind:        models.LedgerPayout,
		Amount:      payout.Amount,
		PayoutID:    &payout.ID,
		MerchantID:  &merchant.ID,
		Description: "Reservation for payout " + payout.ID,
	}}
	if fee.IsPositive() {
		revenueAcct, err := s.accounts.GetOrCreateForUpdate(ctx, tx, nil, models.AccountPlatformRevenue, payout.Currency)
		if err != nil {
			return err
		}
		transfers = append(transfers, Transfer{
			Debit:       availableAcct,
			Credit:      revenueAcct,
			Kind:        models.LedgerFee,
			Amount:      fee,
			PayoutID:    &payout.ID,
			MerchantID:  &merchant.ID,
			Description: "Fee for payout " + payout.ID,
		})
	}
	if _, err := s.ledger.Apply(ctx, tx, transfers); err != nil {
		return err
	}
	newAvailable := merchant.AvailableBalance.Sub(payout.Amount).Sub(fee)
	return s.merchants.UpdateBalances(ctx, tx, merchant.ID, newAvailable, merchant.PendingBalance)
}

// markProcessingError fails a payout terminally after an unexpected worker
// error, in its own transaction so the failed state survives the rollback.
func (s *PayoutService) markProcessingError(ctx context.Context, payoutID string, cause error) {
	log.Printf("payout: processing %s failed: %v", payoutID, cause)
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		payout, err := s.payouts.GetForUpdate(ctx, tx, payoutID)
		if err != nil {
			return err
		}
		if payout.Status != models.PayoutPending {
			return nil
		}
		if err := s.payouts.MarkFailed(ctx, tx, payout.ID, reasonProcessingError); err != nil {
			return err
		}
		merchant, err := s.merchants.GetByID(ctx, payout.MerchantID)
		if err != nil {
			return err
		}
		return s.notifications.Create(ctx, tx, merchant.ID, &merchant.UserID, "payout.failed",
			fmt.Sprintf("Payout of %s %s failed", money.Format(payout.Amount), payout.Currency),
			mustJSON(map[string]string{"payout_id": payout.ID}))
	})
	if err != nil {
		log.Printf("payout: could not mark %s failed: %v", payoutID, err)
	}
}

// CancelPayout reverses a pending payout's reservation. Every ledger row tied
// to the payout is reversed with a refund row whose accounts are swapped and
// whose amount stays positive, then the cached available balance is restored.
func (s *PayoutService) CancelPayout(ctx context.Context, userID, payoutID string) (models.Payout, error) {
	var cancelled models.Payout
	var merchantID string
	var update websocket.BalanceUpdate

	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		merchant, err := s.merchants.GetByUserID(ctx, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMerchantNotFound
		}
		if err != nil {
			return err
		}

		payout, err := s.payouts.GetForUpdate(ctx, tx, payoutID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPayoutNotFound
		}
		if err != nil {
			return err
		}
		if payout.MerchantID != merchant.ID {
			return ErrPayoutNotFound
		}
		if payout.Status != models.PayoutPending {
			return ErrPayoutNotPending
		}

		locked, err := s.merchants.GetForUpdate(ctx, tx, payout.MerchantID)
		if err != nil {
			return err
		}

		rows, err := s.ledgerRows.ListByPayout(ctx, tx, payout.ID)
		if err != nil {
			return err
		}
		restored := decimal.Zero
		accountCache := make(map[string]models.Account)
		lockAccount := func(id string) (models.Account, error) {
			if acct, ok := accountCache[id]; ok {
				return acct, nil
			}
			acct, err := s.accounts.GetForUpdateByID(ctx, tx, id)
			if err != nil {
				return models.Account{}, err
			}
			accountCache[id] = acct
			return acct, nil
		}
		transfers := make([]Transfer, 0, len(rows))
		for _, row := range rows {
			debitAcct, err := lockAccount(row.DebitAccountID)
			if err != nil {
				return err
			}
			creditAcct, err := lockAccount(row.CreditAccountID)
			if err != nil {
				return err
			}
			transfers = append(transfers, Transfer{
				Debit:       creditAcct,
				Credit:      debitAcct,
				Kind:        models.LedgerRefund,
				Amount:      row.Amount,
				PayoutID:    &payout.ID,
				MerchantID:  &payout.MerchantID,
				Description: "Reversal for cancelled payout " + payout.ID,
			})
			if debitAcct.Kind == models.AccountMerchantAvailable && debitAcct.MerchantID != nil {
				restored = restored.Add(row.Amount)
			}
		}
		if len(transfers) > 0 {
			if _, err := s.ledger.Apply(ctx, tx, transfers); err != nil {
				return err
			}
		}

		newAvailable := locked.AvailableBalance.Add(restored)
		if err := s.merchants.UpdateBalances(ctx, tx, locked.ID, newAvailable, locked.PendingBalance); err != nil {
			return err
		}
		if err := s.payouts.MarkFailed(ctx, tx, payout.ID, reasonCancelledByUser); err != nil {
			return err
		}
		if err := s.audit.Log(ctx, tx, &userID, &locked.ID, "PAYOUT_CANCELLED", "PAYOUT", payout.ID,
			mustJSON(map[string]string{"restored": money.Format(restored)})); err != nil {
			return err
		}

		reason := reasonCancelledByUser
		cancelled = payout
		cancelled.Status = models.PayoutFailed
		cancelled.FailureReason = &reason
		merchantID = locked.ID
		update = websocket.BalanceUpdate{
			Available: money.Format(newAvailable),
			Pending:   money.Format(locked.PendingBalance),
			Currency:  locked.Currency,
		}
		return nil
	})
	if err != nil {
		return models.Payout{}, err
	}

	s.hub.BroadcastBalance(merchantID, update)
	return cancelled, nil
}

func (s *PayoutService) GetPayout(ctx context.Context, userID, payoutID string) (models.Payout, error) {
	merchant, err := s.merchants.GetByUserID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Payout{}, ErrMerchantNotFound
	}
	if err != nil {
		return models.Payout{}, err
	}
	payout, err := s.payouts.GetByID(ctx, payoutID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Payout{}, ErrPayoutNotFound
	}
	if err != nil {
		return models.Payout{}, err
	}
	if payout.MerchantID != merchant.ID {
		return models.Payout{}, ErrPayoutNotFound
	}
	return payout, nil
}

func (s *PayoutService) ListPayouts(ctx context.Context, userID string) ([]models.Payout, error) {
	merchant, err := s.merchants.GetByUserID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMerchantNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.payouts.ListByMerchant(ctx, merchant.ID)
}

func (s *PayoutService) GetBalance(ctx context.Context, userID string) (BalanceSummary, error) {
	merchant, err := s.merchants.GetByUserID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return BalanceSummary{}, ErrMerchantNotFound
	}
	if err != nil {
		return BalanceSummary{}, err
	}
	return BalanceSummary{
		Available: money.Format(merchant.AvailableBalance),
		Pending:   money.Format(merchant.PendingBalance),
		Reserved:  money.Format(merchant.ReservedBalance),
		Currency:  merchant.Currency,
	}, nil
}

type AccountView struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
}

func (s *PayoutService) ListAccounts(ctx context.Context, userID string) ([]AccountView, error) {
	merchant, err := s.merchants.GetByUserID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMerchantNotFound
	}
	if err != nil {
		return nil, err
	}
	rows, err := s.accounts.ListByMerchant(ctx, merchant.ID)
	if err != nil {
		return nil, err
	}
	views := make([]AccountView, 0, len(rows))
	for _, row := range rows {
		views = append(views, AccountView{
			ID:       row.ID,
			Kind:     row.Kind,
			Currency: row.Currency,
			Balance:  money.Format(row.Balance),
		})
	}
	return views, nil
}

type AccountCheck struct {
	AccountID     string `json:"account_id"`
	Kind          string `json:"kind"`
	StoredBalance string `json:"stored_balance"`
	LedgerBalance string `json:"ledger_balance"`
	Consistent    bool   `json:"consistent"`
}

// SelfCheck recomputes each merchant account balance from its ledger rows and
// flags any drift from the stored balance.
func (s *PayoutService) SelfCheck(ctx context.Context, userID string) ([]AccountCheck, error) {
	merchant, err := s.merchants.GetByUserID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMerchantNotFound
	}
	if err != nil {
		return nil, err
	}
	rows, err := s.accounts.ListByMerchant(ctx, merchant.ID)
	if err != nil {
		return nil, err
	}
	checks := make([]AccountCheck, 0, len(rows))
	for _, acct := range rows {
		sum, err := s.ledgerRows.SumByAccount(ctx, acct.ID)
		if err != nil {
			return nil, err
		}
		checks = append(checks, AccountCheck{
			AccountID:     acct.ID,
			Kind:          acct.Kind,
			StoredBalance: money.Format(acct.Balance),
			LedgerBalance: money.Format(sum),
			Consistent:    acct.Balance.Equal(sum),
		})
	}
	return checks, nil
}

func (s *PayoutService) ListLedgerHistory(ctx context.Context, userID string, limit, offset int) ([]models.LedgerTransaction, error) {
	merchant, err := s.merchants.GetByUserID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMerchantNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.ledgerRows.ListByMerchant(ctx, merchant.ID, limit, offset)
}

type SettlementReport struct {
	PayoutID          string     `json:"payout_id"`
	MerchantID        string     `json:"merchant_id"`
	Currency          string     `json:"currency"`
	Status            string     `json:"status"`
	TotalTransactions int        `json:"total_transactions"`
	Gross             string     `json:"gross"`
	Fees              string     `json:"fees"`
	Refunds           string     `json:"refunds"`
	Net               string     `json:"net"`
	CreatedAt         time.Time  `json:"created_at"`
	ProcessedAt       *time.Time `json:"processed_at,omitempty"`
}

// SettlementReport aggregates the ledger rows behind one payout.
func (s *PayoutService) SettlementReport(ctx context.Context, userID, payoutID string) (SettlementReport, error) {
	payout, err := s.GetPayout(ctx, userID, payoutID)
	if err != nil {
		return SettlementReport{}, err
	}
	rows, err := s.ledgerRows.ListByPayout(ctx, s.db, payout.ID)
	if err != nil {
		return SettlementReport{}, err
	}
	return buildSettlementReport(payout, rows), nil
}

func (s *PayoutService) ListSettlementReports(ctx context.Context, userID string) ([]SettlementReport, error) {
	payouts, err := s.ListPayouts(ctx, userID)
	if err != nil {
		return nil, err
	}
	reports := make([]SettlementReport, 0, len(payouts))
	for _, payout := range payouts {
		rows, err := s.ledgerRows.ListByPayout(ctx, s.db, payout.ID)
		if err != nil {
			return nil, err
		}
		reports = append(reports, buildSettlementReport(payout, rows))
	}
	return reports, nil
}

func buildSettlementReport(payout models.Payout, rows []models.LedgerTransaction) SettlementReport {
	gross := decimal.Zero
	fees := decimal.Zero
	refunds := decimal.Zero
	for _, row := range rows {
		switch row.Kind {
		case models.LedgerPayout, models.LedgerCharge:
			gross = gross.Add(row.Amount)
		case models.LedgerFee:
			fees = fees.Add(row.Amount)
		case models.LedgerRefund:
			refunds = refunds.Add(row.Amount)
		}
	}
	net := gross.Sub(fees).Sub(refunds)
	return SettlementReport{
		PayoutID:          payout.ID,
		MerchantID:        payout.MerchantID,
		Currency:          payout.Currency,
		Status:            payout.Status,
		TotalTransactions: len(rows),
		Gross:             money.Format(gross),
		Fees:              money.Format(fees),
		Refunds:           money.Format(refunds),
		Net:               money.Format(net),
		CreatedAt:         payout.CreatedAt,
		ProcessedAt:       payout.ProcessedAt,
	}
}

type ScheduleView struct {
	Schedule            string  `json:"settlement_schedule"`
	DelayDays           int     `json:"settlement_delay_days"`
	MinimumPayoutAmount *string `json:"minimum_payout_amount,omitempty"`
}

func (s *PayoutService) GetSettlementSchedule(ctx context.Context, userID string) (ScheduleView, error) {
	merchant, err := s.merchants.GetByUserID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ScheduleView{}, ErrMerchantNotFound
	}
	if err != nil {
		return ScheduleView{}, err
	}
	return scheduleView(merchant), nil
}

func (s *PayoutService) UpdateSettlementSchedule(ctx context.Context, userID string, input store.ScheduleInput) (ScheduleView, error) {
	merchant, err := s.merchants.GetByUserID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ScheduleView{}, ErrMerchantNotFound
	}
	if err != nil {
		return ScheduleView{}, err
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.merchants.UpdateSchedule(ctx, tx, merchant.ID, input)
	})
	if err != nil {
		return ScheduleView{}, err
	}
	updated, err := s.merchants.GetByID(ctx, merchant.ID)
	if err != nil {
		return ScheduleView{}, err
	}
	return scheduleView(updated), nil
}

func scheduleView(merchant models.Merchant) ScheduleView {
	view := ScheduleView{
		Schedule:  merchant.SettlementSchedule,
		DelayDays: merchant.SettlementDelayDays,
	}
	if merchant.MinimumPayoutAmount.Valid {
		formatted := money.Format(merchant.MinimumPayoutAmount.Decimal)
		view.MinimumPayoutAmount = &formatted
	}
	return view
}
