package store

import (
	"context"

	"paygate/internal/models"
)

type WebhookStore struct {
	db DB
}

func NewWebhookStore(db DB) *WebhookStore {
	return &WebhookStore{db: db}
}

func (s *WebhookStore) CreateEndpoint(ctx context.Context, id, merchantID, url string, enabled bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO webhook_endpoints (id, merchant_id, url, enabled)
		VALUES ($1, $2, $3, $4)
	`, id, merchantID, url, enabled)
	return err
}

func (s *WebhookStore) GetEndpoint(ctx context.Context, endpointID string) (models.WebhookEndpoint, error) {
	var row models.WebhookEndpoint
	err := s.db.GetContext(ctx, &row, `
		SELECT id, merchant_id, url, enabled, created_at
		FROM webhook_endpoints
		WHERE id = $1
	`, endpointID)
	return row, err
}

func (s *WebhookStore) ListEndpoints(ctx context.Context, merchantID string) ([]models.WebhookEndpoint, error) {
	var rows []models.WebhookEndpoint
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, merchant_id, url, enabled, created_at
		FROM webhook_endpoints
		WHERE merchant_id = $1
		ORDER BY created_at
	`, merchantID)
	return rows, err
}

// ListEnabled runs on the caller's transaction so delivery rows are recorded
// against the endpoint set visible at commit time.
func (s *WebhookStore) ListEnabled(ctx context.Context, tx Selecter, merchantID string) ([]models.WebhookEndpoint, error) {
	var rows []models.WebhookEndpoint
	err := tx.SelectContext(ctx, &rows, `
		SELECT id, merchant_id, url, enabled, created_at
		FROM webhook_endpoints
		WHERE merchant_id = $1 AND enabled = TRUE
		ORDER BY created_at
	`, merchantID)
	return rows, err
}

func (s *WebhookStore) UpdateEndpoint(ctx context.Context, endpointID string, url *string, enabled *bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE webhook_endpoints
		SET url = COALESCE($1, url), enabled = COALESCE($2, enabled)
		WHERE id = $3
	`, url, enabled, endpointID)
	return err
}

func (s *WebhookStore) DeleteEndpoint(ctx context.Context, endpointID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM webhook_endpoints WHERE id = $1`, endpointID)
	return err
}

func (s *WebhookStore) CreateDelivery(ctx context.Context, tx Execer, id, webhookID, event, payload string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO webhook_deliveries (id, webhook_id, event, payload, status, attempts)
		VALUES ($1, $2, $3, $4, 'pending', 0)
	`, id, webhookID, event, payload)
	return err
}

func (s *WebhookStore) GetDeliveryForUpdate(ctx context.Context, tx Getter, deliveryID string) (models.WebhookDelivery, error) {
	var row models.WebhookDelivery
	err := tx.GetContext(ctx, &row, `
		SELECT id, webhook_id, event, payload, status, http_status, response_body, attempts, last_attempt_at, created_at
		FROM webhook_deliveries
		WHERE id = $1
		FOR UPDATE
	`, deliveryID)
	return row, err
}

// RecordAttempt sets the outcome of one delivery attempt and bumps the counter.
func (s *WebhookStore) RecordAttempt(ctx context.Context, tx Execer, deliveryID, status string, httpStatus *int, responseBody string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE webhook_deliveries
		SET status = $1, http_status = $2, response_body = $3,
		    attempts = attempts + 1, last_attempt_at = NOW()
		WHERE id = $4
	`, status, httpStatus, responseBody, deliveryID)
	return err
}

func (s *WebhookStore) ListDeliveries(ctx context.Context, webhookID string, limit, offset int) ([]models.WebhookDelivery, error) {
	var rows []models.WebhookDelivery
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, webhook_id, event, payload, status, http_status, response_body, attempts, last_attempt_at, created_at
		FROM webhook_deliveries
		WHERE webhook_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, webhookID, limit, offset)
	return rows, err
}
