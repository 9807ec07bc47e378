package handlers

import (
	"context"

	"github.com/shopspring/decimal"

	"paygate/internal/models"
	"paygate/internal/services"
	"paygate/internal/store"
)

type ChargeService interface {
	CreateCharge(ctx context.Context, req services.CreateChargeRequest) (models.Charge, error)
	GetCharge(ctx context.Context, userID, chargeID string) (models.Charge, error)
	ListCharges(ctx context.Context, userID string, limit, offset int) ([]models.Charge, error)
	ListChargeLedger(ctx context.Context, userID, chargeID string) ([]models.LedgerTransaction, error)
}

type PayoutService interface {
	CreatePayout(ctx context.Context, userID, payoutAccountID string, amount decimal.Decimal, currency string) (models.Payout, error)
	CancelPayout(ctx context.Context, userID, payoutID string) (models.Payout, error)
	GetPayout(ctx context.Context, userID, payoutID string) (models.Payout, error)
	ListPayouts(ctx context.Context, userID string) ([]models.Payout, error)
	GetBalance(ctx context.Context, userID string) (services.BalanceSummary, error)
	ListAccounts(ctx context.Context, userID string) ([]services.AccountView, error)
	SelfCheck(ctx context.Context, userID string) ([]services.AccountCheck, error)
	ListLedgerHistory(ctx context.Context, userID string, limit, offset int) ([]models.LedgerTransaction, error)
	SettlementReport(ctx context.Context, userID, payoutID string) (services.SettlementReport, error)
	ListSettlementReports(ctx context.Context, userID string) ([]services.SettlementReport, error)
	GetSettlementSchedule(ctx context.Context, userID string) (services.ScheduleView, error)
	UpdateSettlementSchedule(ctx context.Context, userID string, input store.ScheduleInput) (services.ScheduleView, error)
}

type WebhookService interface {
	CreateEndpoint(ctx context.Context, userID, url string) (models.WebhookEndpoint, error)
	ListEndpoints(ctx context.Context, userID string) ([]models.WebhookEndpoint, error)
	UpdateEndpoint(ctx context.Context, userID, endpointID string, url *string, enabled *bool) (models.WebhookEndpoint, error)
	DeleteEndpoint(ctx context.Context, userID, endpointID string) error
	ListDeliveries(ctx context.Context, userID, endpointID string, limit, offset int) ([]models.WebhookDelivery, error)
}

type MerchantStore interface {
	GetByUserID(ctx context.Context, userID string) (models.Merchant, error)
}

type AuditStore interface {
	ListByMerchant(ctx context.Context, merchantID string, limit, offset int) ([]map[string]any, error)
}

type NotificationStore interface {
	ListByMerchant(ctx context.Context, merchantID string, limit, offset int) ([]models.Notification, error)
}
