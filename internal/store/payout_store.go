package store

import (
	"context"

	"github.com/shopspring/decimal"

	"paygate/internal/models"
)

type PayoutStore struct {
	db DB
}

func NewPayoutStore(db DB) *PayoutStore {
	return &PayoutStore{db: db}
}

type PayoutInput struct {
	ID              string
	MerchantID      string
	PayoutAccountID string
	Amount          decimal.Decimal
	Currency        string
}

func (s *PayoutStore) Create(ctx context.Context, tx Execer, input PayoutInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO payouts (id, merchant_id, payout_account_id, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, 'PENDING')
	`, input.ID, input.MerchantID, input.PayoutAccountID, input.Amount, input.Currency)
	return err
}

func (s *PayoutStore) GetByID(ctx context.Context, payoutID string) (models.Payout, error) {
	var row models.Payout
	err := s.db.GetContext(ctx, &row, `
		SELECT id, merchant_id, payout_account_id, amount, currency, status, failure_reason, created_at, processed_at
		FROM payouts
		WHERE id = $1
	`, payoutID)
	return row, err
}

func (s *PayoutStore) GetForUpdate(ctx context.Context, tx Getter, payoutID string) (models.Payout, error) {
	var row models.Payout
	err := tx.GetContext(ctx, &row, `
		SELECT id, merchant_id, payout_account_id, amount, currency, status, failure_reason, created_at, processed_at
		FROM payouts
		WHERE id = $1
		FOR UPDATE
	`, payoutID)
	return row, err
}

func (s *PayoutStore) MarkSucceeded(ctx context.Context, tx Execer, payoutID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE payouts SET status = 'SUCCEEDED', failure_reason = NULL, processed_at = NOW() WHERE id = $1
	`, payoutID)
	return err
}

func (s *PayoutStore) MarkFailed(ctx context.Context, tx Execer, payoutID, reason string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE payouts SET status = 'FAILED', failure_reason = $1 WHERE id = $2
	`, reason, payoutID)
	return err
}

func (s *PayoutStore) ListByMerchant(ctx context.Context, merchantID string) ([]models.Payout, error) {
	var rows []models.Payout
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, merchant_id, payout_account_id, amount, currency, status, failure_reason, created_at, processed_at
		FROM payouts
		WHERE merchant_id = $1
		ORDER BY created_at DESC
	`, merchantID)
	return rows, err
}
