package store

import (
	"context"

	"paygate/internal/models"
)

type NotificationStore struct {
	db DB
}

func NewNotificationStore(db DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) Create(ctx context.Context, tx Execer, merchantID string, userID *string, notifType, message, data string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO notifications (id, merchant_id, user_id, type, message, data, is_read)
		VALUES (gen_random_uuid()::text, $1, $2, $3, $4, $5, FALSE)
	`, merchantID, userID, notifType, message, data)
	return err
}

func (s *NotificationStore) ListByMerchant(ctx context.Context, merchantID string, limit, offset int) ([]models.Notification, error) {
	var rows []models.Notification
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, merchant_id, user_id, type, message, data, is_read, created_at
		FROM notifications
		WHERE merchant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, merchantID, limit, offset)
	return rows, err
}
