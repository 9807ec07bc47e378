package services

import (
	"context"

	"github.com/shopspring/decimal"

	"paygate/internal/models"
	"paygate/internal/store"
	"paygate/internal/websocket"
)

type AccountStore interface {
	GetByID(ctx context.Context, accountID string) (models.Account, error)
	GetForUpdateByID(ctx context.Context, tx store.Getter, accountID string) (models.Account, error)
	GetForUpdate(ctx context.Context, tx store.Getter, merchantID *string, kind, currency string) (models.Account, error)
	GetOrCreateForUpdate(ctx context.Context, tx store.Tx, merchantID *string, kind, currency string) (models.Account, error)
	UpdateBalance(ctx context.Context, tx store.Execer, accountID string, balance decimal.Decimal) error
	ListByMerchant(ctx context.Context, merchantID string) ([]models.Account, error)
}

type LedgerStore interface {
	Insert(ctx context.Context, tx store.Execer, input store.LedgerTransactionInput) error
	ListByPayout(ctx context.Context, tx store.Selecter, payoutID string) ([]models.LedgerTransaction, error)
	ListByCharge(ctx context.Context, chargeID string) ([]models.LedgerTransaction, error)
	ListByMerchant(ctx context.Context, merchantID string, limit, offset int) ([]models.LedgerTransaction, error)
	SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error)
}

type ChargeStore interface {
	Create(ctx context.Context, tx store.Execer, input store.ChargeInput) error
	GetByID(ctx context.Context, chargeID string) (models.Charge, error)
	GetByIdempotencyKey(ctx context.Context, userID, key string) (models.Charge, error)
	GetForUpdate(ctx context.Context, tx store.Getter, chargeID string) (models.Charge, error)
	MarkSucceeded(ctx context.Context, tx store.Execer, chargeID string) error
	MarkFailed(ctx context.Context, tx store.Execer, chargeID, message string) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Charge, error)
}

type PayoutStore interface {
	Create(ctx context.Context, tx store.Execer, input store.PayoutInput) error
	GetByID(ctx context.Context, payoutID string) (models.Payout, error)
	GetForUpdate(ctx context.Context, tx store.Getter, payoutID string) (models.Payout, error)
	MarkSucceeded(ctx context.Context, tx store.Execer, payoutID string) error
	MarkFailed(ctx context.Context, tx store.Execer, payoutID, reason string) error
	ListByMerchant(ctx context.Context, merchantID string) ([]models.Payout, error)
}

type MerchantStore interface {
	GetByID(ctx context.Context, merchantID string) (models.Merchant, error)
	GetByUserID(ctx context.Context, userID string) (models.Merchant, error)
	GetForUpdate(ctx context.Context, tx store.Getter, merchantID string) (models.Merchant, error)
	GetForUpdateByUserID(ctx context.Context, tx store.Getter, userID string) (models.Merchant, error)
	UpdateBalances(ctx context.Context, tx store.Execer, merchantID string, available, pending decimal.Decimal) error
	ListIDs(ctx context.Context) ([]string, error)
	UpdateSchedule(ctx context.Context, tx store.Execer, merchantID string, input store.ScheduleInput) error
}

type WebhookStore interface {
	CreateEndpoint(ctx context.Context, id, merchantID, url string, enabled bool) error
	GetEndpoint(ctx context.Context, endpointID string) (models.WebhookEndpoint, error)
	ListEndpoints(ctx context.Context, merchantID string) ([]models.WebhookEndpoint, error)
	ListEnabled(ctx context.Context, tx store.Selecter, merchantID string) ([]models.WebhookEndpoint, error)
	UpdateEndpoint(ctx context.Context, endpointID string, url *string, enabled *bool) error
	DeleteEndpoint(ctx context.Context, endpointID string) error
	ListDeliveries(ctx context.Context, webhookID string, limit, offset int) ([]models.WebhookDelivery, error)
	CreateDelivery(ctx context.Context, tx store.Execer, id, webhookID, event, payload string) error
	GetDeliveryForUpdate(ctx context.Context, tx store.Getter, deliveryID string) (models.WebhookDelivery, error)
	RecordAttempt(ctx context.Context, tx store.Execer, deliveryID, status string, httpStatus *int, responseBody string) error
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorUserID, merchantID *string, action, resourceType, resourceID, data string) error
}

type NotificationStore interface {
	Create(ctx context.Context, tx store.Execer, merchantID string, userID *string, notifType, message, data string) error
}

type TaskQueue interface {
	Enqueue(name string, args map[string]string)
}

type BalanceHub interface {
	BroadcastBalance(merchantID string, update websocket.BalanceUpdate)
}

type LedgerApplier interface {
	Apply(ctx context.Context, tx store.Tx, transfers []Transfer) ([]models.LedgerTransaction, error)
}
