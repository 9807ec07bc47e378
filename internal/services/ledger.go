package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"paygate/internal/metrics"
	"paygate/internal/models"
	"paygate/internal/store"
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrCurrencyMismatch     = errors.New("currency mismatch")
	ErrSameAccountTransfer  = errors.New("cannot transfer within one account")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrMissingLedgerAccount = errors.New("missing ledger account")
	ErrUnbalancedTransfer   = errors.New("ledger transfers are not balanced")
)

// Transfer is one value movement between two already-locked accounts.
type Transfer struct {
	Debit       models.Account
	Credit      models.Account
	Kind        string
	Amount      decimal.Decimal
	ChargeID    *string
	PayoutID    *string
	MerchantID  *string
	Description string
}

// Ledger is the only writer of ledger rows and account balances. Apply takes a
// batch of transfers, validates each one, folds them into per-account running
// balances and persists rows plus final balances in the caller's transaction.
// Accounts must be locked (FOR UPDATE) by the caller before Apply sees them,
// merchant-scoped accounts before platform-wide ones.
type Ledger struct {
	accounts AccountStore
	ledger   LedgerStore
}

func NewLedger(accounts AccountStore, ledger LedgerStore) *Ledger {
	return &Ledger{accounts: accounts, ledger: ledger}
}

func (l *Ledger) Apply(ctx context.Context, tx store.Tx, transfers []Transfer) ([]models.LedgerTransaction, error) {
	if len(transfers) == 0 {
		return nil, nil
	}
	balances := make(map[string]decimal.Decimal)
	kinds := make(map[string]string)
	opening := make(map[string]decimal.Decimal)
	track := func(acct models.Account) {
		if _, seen := balances[acct.ID]; !seen {
			balances[acct.ID] = acct.Balance
			opening[acct.ID] = acct.Balance
			kinds[acct.ID] = acct.Kind
		}
	}
	for _, transfer := range transfers {
		if !transfer.Amount.IsPositive() {
			return nil, ErrInvalidAmount
		}
		if transfer.Debit.ID == "" || transfer.Credit.ID == "" {
			return nil, ErrMissingLedgerAccount
		}
		if transfer.Debit.ID == transfer.Credit.ID {
			return nil, ErrSameAccountTransfer
		}
		if transfer.Debit.Currency != transfer.Credit.Currency {
			return nil, ErrCurrencyMismatch
		}
		track(transfer.Debit)
		track(transfer.Credit)
		balances[transfer.Debit.ID] = balances[transfer.Debit.ID].Sub(transfer.Amount)
		balances[transfer.Credit.ID] = balances[transfer.Credit.ID].Add(transfer.Amount)
	}

	// The batch must move value around, never create or destroy it.
	delta := decimal.Zero
	for id, balance := range balances {
		delta = delta.Add(balance.Sub(opening[id]))
	}
	if !delta.IsZero() {
		return nil, ErrUnbalancedTransfer
	}

	// Merchant buckets can never go negative; platform holding accounts may.
	for id, balance := range balances {
		switch kinds[id] {
		case models.AccountMerchantAvailable, models.AccountMerchantPending:
			if balance.IsNegative() {
				return nil, ErrInsufficientFunds
			}
		}
	}

	created := make([]models.LedgerTransaction, 0, len(transfers))
	for _, transfer := range transfers {
		row := models.LedgerTransaction{
			ID:              uuid.NewString(),
			ChargeID:        transfer.ChargeID,
			PayoutID:        transfer.PayoutID,
			MerchantID:      transfer.MerchantID,
			Kind:            transfer.Kind,
			Amount:          transfer.Amount,
			Currency:        transfer.Debit.Currency,
			DebitAccountID:  transfer.Debit.ID,
			CreditAccountID: transfer.Credit.ID,
			Description:     transfer.Description,
			CreatedAt:       time.Now().UTC(),
		}
		if err := l.ledger.Insert(ctx, tx, store.LedgerTransactionInput{
			ID:              row.ID,
			ChargeID:        row.ChargeID,
			PayoutID:        row.PayoutID,
			MerchantID:      row.MerchantID,
			Kind:            row.Kind,
			Amount:          row.Amount,
			Currency:        row.Currency,
			DebitAccountID:  row.DebitAccountID,
			CreditAccountID: row.CreditAccountID,
			Description:     row.Description,
		}); err != nil {
			return nil, err
		}
		created = append(created, row)
	}
	for id, balance := range balances {
		if err := l.accounts.UpdateBalance(ctx, tx, id, balance); err != nil {
			return nil, err
		}
	}
	for _, transfer := range transfers {
		metrics.LedgerTransfersTotal.WithLabelValues(transfer.Kind).Inc()
	}
	return created, nil
}
