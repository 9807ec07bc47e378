package store

import (
	"context"

	"github.com/shopspring/decimal"

	"paygate/internal/models"
)

type LedgerStore struct {
	db DB
}

func NewLedgerStore(db DB) *LedgerStore {
	return &LedgerStore{db: db}
}

type LedgerTransactionInput struct {
	ID              string
	ChargeID        *string
	PayoutID        *string
	MerchantID      *string
	Kind            string
	Amount          decimal.Decimal
	Currency        string
	DebitAccountID  string
	CreditAccountID string
	Description     string
}

func (s *LedgerStore) Insert(ctx context.Context, tx Execer, input LedgerTransactionInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_transactions
			(id, charge_id, payout_id, merchant_id, kind, amount, currency, debit_account_id, credit_account_id, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, input.ID, input.ChargeID, input.PayoutID, input.MerchantID, input.Kind, input.Amount,
		input.Currency, input.DebitAccountID, input.CreditAccountID, input.Description)
	return err
}

func (s *LedgerStore) ListByPayout(ctx context.Context, tx Selecter, payoutID string) ([]models.LedgerTransaction, error) {
	var rows []models.LedgerTransaction
	err := tx.SelectContext(ctx, &rows, `
		SELECT id, charge_id, payout_id, merchant_id, kind, amount, currency,
		       debit_account_id, credit_account_id, description, created_at
		FROM ledger_transactions
		WHERE payout_id = $1
		ORDER BY created_at
	`, payoutID)
	return rows, err
}

func (s *LedgerStore) ListByCharge(ctx context.Context, chargeID string) ([]models.LedgerTransaction, error) {
	var rows []models.LedgerTransaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, charge_id, payout_id, merchant_id, kind, amount, currency,
		       debit_account_id, credit_account_id, description, created_at
		FROM ledger_transactions
		WHERE charge_id = $1
		ORDER BY created_at
	`, chargeID)
	return rows, err
}

func (s *LedgerStore) ListByMerchant(ctx context.Context, merchantID string, limit, offset int) ([]models.LedgerTransaction, error) {
	var rows []models.LedgerTransaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, charge_id, payout_id, merchant_id, kind, amount, currency,
		       debit_account_id, credit_account_id, description, created_at
		FROM ledger_transactions
		WHERE merchant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, merchantID, limit, offset)
	return rows, err
}

// SumByAccount returns credits minus debits for one account; it must always
// equal the account's stored balance.
func (s *LedgerStore) SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := s.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(CASE WHEN credit_account_id = $1 THEN amount ELSE -amount END), 0)
		FROM ledger_transactions
		WHERE credit_account_id = $1 OR debit_account_id = $1
	`, accountID)
	return sum, err
}
