package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"paygate/internal/models"
)

type AccountStore struct {
	db DB
}

func NewAccountStore(db DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) GetByID(ctx context.Context, accountID string) (models.Account, error) {
	var row models.Account
	err := s.db.GetContext(ctx, &row, `
		SELECT id, merchant_id, kind, currency, balance, created_at
		FROM accounts
		WHERE id = $1
	`, accountID)
	return row, err
}

func (s *AccountStore) GetForUpdateByID(ctx context.Context, tx Getter, accountID string) (models.Account, error) {
	var row models.Account
	err := tx.GetContext(ctx, &row, `
		SELECT id, merchant_id, kind, currency, balance, created_at
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`, accountID)
	return row, err
}

func (s *AccountStore) GetForUpdate(ctx context.Context, tx Getter, merchantID *string, kind, currency string) (models.Account, error) {
	var row models.Account
	var err error
	if merchantID == nil {
		err = tx.GetContext(ctx, &row, `
			SELECT id, merchant_id, kind, currency, balance, created_at
			FROM accounts
			WHERE merchant_id IS NULL AND kind = $1 AND currency = $2
			FOR UPDATE
		`, kind, currency)
	} else {
		err = tx.GetContext(ctx, &row, `
			SELECT id, merchant_id, kind, currency, balance, created_at
			FROM accounts
			WHERE merchant_id = $1 AND kind = $2 AND currency = $3
			FOR UPDATE
		`, *merchantID, kind, currency)
	}
	return row, err
}

// GetOrCreateForUpdate resolves the unique (merchant, kind, currency) account,
// creating it lazily with a zero balance on first use. The returned row is
// locked for the remainder of the transaction.
func (s *AccountStore) GetOrCreateForUpdate(ctx context.Context, tx Tx, merchantID *string, kind, currency string) (models.Account, error) {
	row, err := s.GetForUpdate(ctx, tx, merchantID, kind, currency)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, err
	}
	id := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO accounts (id, merchant_id, kind, currency, balance)
		VALUES ($1, $2, $3, $4, 0)
		ON CONFLICT ((COALESCE(merchant_id, '')), kind, currency) DO NOTHING
	`, id, merchantID, kind, currency)
	if err != nil {
		return models.Account{}, err
	}
	return s.GetForUpdate(ctx, tx, merchantID, kind, currency)
}

func (s *AccountStore) UpdateBalance(ctx context.Context, tx Execer, accountID string, balance decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $1
		WHERE id = $2
	`, balance, accountID)
	return err
}

func (s *AccountStore) ListByMerchant(ctx context.Context, merchantID string) ([]models.Account, error) {
	var rows []models.Account
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, merchant_id, kind, currency, balance, created_at
		FROM accounts
		WHERE merchant_id = $1
		ORDER BY kind
	`, merchantID)
	return rows, err
}
