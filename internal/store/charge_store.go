package store

import (
	"context"

	"github.com/shopspring/decimal"

	"paygate/internal/models"
)

type ChargeStore struct {
	db DB
}

func NewChargeStore(db DB) *ChargeStore {
	return &ChargeStore{db: db}
}

type ChargeInput struct {
	ID             string
	UserID         string
	Amount         decimal.Decimal
	Currency       string
	Description    string
	IdempotencyKey *string
}

func (s *ChargeStore) Create(ctx context.Context, tx Execer, input ChargeInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO charges (id, user_id, amount, currency, description, status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6)
	`, input.ID, input.UserID, input.Amount, input.Currency, input.Description, input.IdempotencyKey)
	return err
}

func (s *ChargeStore) GetByID(ctx context.Context, chargeID string) (models.Charge, error) {
	var row models.Charge
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, amount, currency, description, status, failure_message, idempotency_key, created_at
		FROM charges
		WHERE id = $1
	`, chargeID)
	return row, err
}

func (s *ChargeStore) GetByIdempotencyKey(ctx context.Context, userID, key string) (models.Charge, error) {
	var row models.Charge
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, amount, currency, description, status, failure_message, idempotency_key, created_at
		FROM charges
		WHERE user_id = $1 AND idempotency_key = $2
	`, userID, key)
	return row, err
}

func (s *ChargeStore) GetForUpdate(ctx context.Context, tx Getter, chargeID string) (models.Charge, error) {
	var row models.Charge
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, amount, currency, description, status, failure_message, idempotency_key, created_at
		FROM charges
		WHERE id = $1
		FOR UPDATE
	`, chargeID)
	return row, err
}

func (s *ChargeStore) MarkSucceeded(ctx context.Context, tx Execer, chargeID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE charges SET status = 'succeeded', failure_message = NULL WHERE id = $1
	`, chargeID)
	return err
}

func (s *ChargeStore) MarkFailed(ctx context.Context, tx Execer, chargeID, message string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE charges SET status = 'failed', failure_message = $1 WHERE id = $2
	`, message, chargeID)
	return err
}

func (s *ChargeStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Charge, error) {
	var rows []models.Charge
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, amount, currency, description, status, failure_message, idempotency_key, created_at
		FROM charges
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return rows, err
}
