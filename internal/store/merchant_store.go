package store

import (
	"context"

	"github.com/shopspring/decimal"

	"paygate/internal/models"
)

type MerchantStore struct {
	db DB
}

func NewMerchantStore(db DB) *MerchantStore {
	return &MerchantStore{db: db}
}

const merchantColumns = `
	merchant_id, user_id, currency, available_balance, pending_balance, reserved_balance,
	settlement_schedule, settlement_delay_days, minimum_payout_amount, created_at, updated_at
`

func (s *MerchantStore) GetByID(ctx context.Context, merchantID string) (models.Merchant, error) {
	var row models.Merchant
	err := s.db.GetContext(ctx, &row, `
		SELECT `+merchantColumns+`
		FROM merchant_accounts
		WHERE merchant_id = $1
	`, merchantID)
	return row, err
}

func (s *MerchantStore) GetByUserID(ctx context.Context, userID string) (models.Merchant, error) {
	var row models.Merchant
	err := s.db.GetContext(ctx, &row, `
		SELECT `+merchantColumns+`
		FROM merchant_accounts
		WHERE user_id = $1
	`, userID)
	return row, err
}

func (s *MerchantStore) GetForUpdate(ctx context.Context, tx Getter, merchantID string) (models.Merchant, error) {
	var row models.Merchant
	err := tx.GetContext(ctx, &row, `
		SELECT `+merchantColumns+`
		FROM merchant_accounts
		WHERE merchant_id = $1
		FOR UPDATE
	`, merchantID)
	return row, err
}

func (s *MerchantStore) GetForUpdateByUserID(ctx context.Context, tx Getter, userID string) (models.Merchant, error) {
	var row models.Merchant
	err := tx.GetContext(ctx, &row, `
		SELECT `+merchantColumns+`
		FROM merchant_accounts
		WHERE user_id = $1
		FOR UPDATE
	`, userID)
	return row, err
}

// UpdateBalances rewrites the cached balance columns; callers compute the new
// values inside the same transaction that moved the underlying ledger rows.
func (s *MerchantStore) UpdateBalances(ctx context.Context, tx Execer, merchantID string, available, pending decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE merchant_accounts
		SET available_balance = $1, pending_balance = $2, updated_at = NOW()
		WHERE merchant_id = $3
	`, available, pending, merchantID)
	return err
}

func (s *MerchantStore) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids, `
		SELECT merchant_id FROM merchant_accounts ORDER BY merchant_id
	`)
	return ids, err
}

type ScheduleInput struct {
	Schedule            *string
	DelayDays           *int
	MinimumPayoutAmount *decimal.Decimal
}

func (s *MerchantStore) UpdateSchedule(ctx context.Context, tx Execer, merchantID string, input ScheduleInput) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE merchant_accounts
		SET settlement_schedule = COALESCE($1, settlement_schedule),
		    settlement_delay_days = COALESCE($2, settlement_delay_days),
		    minimum_payout_amount = COALESCE($3, minimum_payout_amount),
		    updated_at = NOW()
		WHERE merchant_id = $4
	`, input.Schedule, input.DelayDays, input.MinimumPayoutAmount, merchantID)
	return err
}
