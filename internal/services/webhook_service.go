package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"paygate/internal/db"
	"paygate/internal/metrics"
	"paygate/internal/models"
)

var ErrEndpointNotFound = errors.New("webhook endpoint not found")

const maxResponseBody = 64 << 10

type WebhookService struct {
	txRunner      db.TxRunner
	webhooks      WebhookStore
	merchants     MerchantStore
	notifications NotificationStore
	client        *http.Client
}

func NewWebhookService(txRunner db.TxRunner, webhooks WebhookStore, merchants MerchantStore, notifications NotificationStore, timeout time.Duration) *WebhookService {
	return &WebhookService{
		txRunner:      txRunner,
		webhooks:      webhooks,
		merchants:     merchants,
		notifications: notifications,
		client:        &http.Client{Timeout: timeout},
	}
}

func (s *WebhookService) CreateEndpoint(ctx context.Context, userID, url string) (models.WebhookEndpoint, error) {
	merchant, err := s.merchants.GetByUserID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WebhookEndpoint{}, ErrMerchantNotFound
	}
	if err != nil {
		return models.WebhookEndpoint{}, err
	}
	id := uuid.NewString()
	if err := s.webhooks.CreateEndpoint(ctx, id, merchant.ID, url, true); err != nil {
		return models.WebhookEndpoint{}, err
	}
	return s.webhooks.GetEndpoint(ctx, id)
}

func (s *WebhookService) ListEndpoints(ctx context.Context, userID string) ([]models.WebhookEndpoint, error) {
	merchant, err := s.merchants.GetByUserID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMerchantNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.webhooks.ListEndpoints(ctx, merchant.ID)
}

func (s *WebhookService) UpdateEndpoint(ctx context.Context, userID, endpointID string, url *string, enabled *bool) (models.WebhookEndpoint, error) {
	if _, err := s.ownedEndpoint(ctx, userID, endpointID); err != nil {
		return models.WebhookEndpoint{}, err
	}
	if err := s.webhooks.UpdateEndpoint(ctx, endpointID, url, enabled); err != nil {
		return models.WebhookEndpoint{}, err
	}
	return s.webhooks.GetEndpoint(ctx, endpointID)
}

func (s *WebhookService) DeleteEndpoint(ctx context.Context, userID, endpointID string) error {
	if _, err := s.ownedEndpoint(ctx, userID, endpointID); err != nil {
		return err
	}
	return s.webhooks.DeleteEndpoint(ctx, endpointID)
}

func (s *WebhookService) ListDeliveries(ctx context.Context, userID, endpointID string, limit, offset int) ([]models.WebhookDelivery, error) {
	if _, err := s.ownedEndpoint(ctx, userID, endpointID); err != nil {
		return nil, err
	}
	return s.webhooks.ListDeliveries(ctx, endpointID, limit, offset)
}

func (s *WebhookService) ownedEndpoint(ctx context.Context, userID, endpointID string) (models.WebhookEndpoint, error) {
	merchant, err := s.merchants.GetByUserID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WebhookEndpoint{}, ErrMerchantNotFound
	}
	if err != nil {
		return models.WebhookEndpoint{}, err
	}
	endpoint, err := s.webhooks.GetEndpoint(ctx, endpointID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WebhookEndpoint{}, ErrEndpointNotFound
	}
	if err != nil {
		return models.WebhookEndpoint{}, err
	}
	if endpoint.MerchantID != merchant.ID {
		return models.WebhookEndpoint{}, ErrEndpointNotFound
	}
	return endpoint, nil
}

// ProcessDelivery posts one outbox row to its endpoint and records the
// outcome. The delivery row is locked for the duration so two workers never
// post the same row twice. HTTP failures are recorded, not returned, so the
// queue does not retry a delivery the endpoint already rejected.
func (s *WebhookService) ProcessDelivery(ctx context.Context, deliveryID string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		delivery, err := s.webhooks.GetDeliveryForUpdate(ctx, tx, deliveryID)
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("webhook: delivery %s not found", deliveryID)
			return nil
		}
		if err != nil {
			return err
		}
		if delivery.Status == models.DeliverySuccess {
			return nil
		}

		endpoint, err := s.webhooks.GetEndpoint(ctx, delivery.WebhookID)
		if errors.Is(err, sql.ErrNoRows) {
			metrics.WebhookAttemptsTotal.WithLabelValues("failed").Inc()
			return s.webhooks.RecordAttempt(ctx, tx, delivery.ID, models.DeliveryFailed, nil, "endpoint removed")
		}
		if err != nil {
			return err
		}
		if !endpoint.Enabled {
			metrics.WebhookAttemptsTotal.WithLabelValues("failed").Inc()
			return s.webhooks.RecordAttempt(ctx, tx, delivery.ID, models.DeliveryFailed, nil, "endpoint disabled")
		}

		httpStatus, body, err := s.post(ctx, endpoint.URL, delivery.Payload)
		if err != nil {
			metrics.WebhookAttemptsTotal.WithLabelValues("failed").Inc()
			if recErr := s.webhooks.RecordAttempt(ctx, tx, delivery.ID, models.DeliveryFailed, nil, err.Error()); recErr != nil {
				return recErr
			}
			return s.notifyOutcome(ctx, tx, endpoint, delivery, models.DeliveryFailed, 0)
		}

		outcome := models.DeliverySuccess
		if httpStatus >= 400 {
			outcome = models.DeliveryFailed
		}
		metrics.WebhookAttemptsTotal.WithLabelValues(outcome).Inc()
		if err := s.webhooks.RecordAttempt(ctx, tx, delivery.ID, outcome, &httpStatus, body); err != nil {
			return err
		}
		return s.notifyOutcome(ctx, tx, endpoint, delivery, outcome, httpStatus)
	})
}

func (s *WebhookService) notifyOutcome(ctx context.Context, tx *sqlx.Tx, endpoint models.WebhookEndpoint, delivery models.WebhookDelivery, outcome string, httpStatus int) error {
	message := fmt.Sprintf("Webhook event '%s' delivery %s (http %d)", delivery.Event, outcome, httpStatus)
	return s.notifications.Create(ctx, tx, endpoint.MerchantID, nil, "webhook.delivery",
		message, mustJSON(map[string]string{"delivery_id": delivery.ID, "event": delivery.Event}))
}

func (s *WebhookService) post(ctx context.Context, url, payload string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(payload))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return resp.StatusCode, "", err
	}
	return resp.StatusCode, string(body), nil
}
