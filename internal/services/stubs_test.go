package services

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"paygate/internal/models"
	"paygate/internal/store"
	"paygate/internal/websocket"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubAccountStore struct {
	getByIDFn          func(ctx context.Context, accountID string) (models.Account, error)
	getForUpdateByIDFn func(ctx context.Context, tx store.Getter, accountID string) (models.Account, error)
	getForUpdateFn     func(ctx context.Context, tx store.Getter, merchantID *string, kind, currency string) (models.Account, error)
	getOrCreateFn      func(ctx context.Context, tx store.Tx, merchantID *string, kind, currency string) (models.Account, error)
	updateBalanceFn    func(ctx context.Context, tx store.Execer, accountID string, balance decimal.Decimal) error
	listByMerchantFn   func(ctx context.Context, merchantID string) ([]models.Account, error)
}

func (s stubAccountStore) GetByID(ctx context.Context, accountID string) (models.Account, error) {
	if s.getByIDFn == nil {
		return models.Account{}, sql.ErrNoRows
	}
	return s.getByIDFn(ctx, accountID)
}

func (s stubAccountStore) GetForUpdateByID(ctx context.Context, tx store.Getter, accountID string) (models.Account, error) {
	if s.getForUpdateByIDFn == nil {
		return models.Account{}, sql.ErrNoRows
	}
	return s.getForUpdateByIDFn(ctx, tx, accountID)
}

func (s stubAccountStore) GetForUpdate(ctx context.Context, tx store.Getter, merchantID *string, kind, currency string) (models.Account, error) {
	if s.getForUpdateFn == nil {
		return models.Account{}, sql.ErrNoRows
	}
	return s.getForUpdateFn(ctx, tx, merchantID, kind, currency)
}

func (s stubAccountStore) GetOrCreateForUpdate(ctx context.Context, tx store.Tx, merchantID *string, kind, currency string) (models.Account, error) {
	if s.getOrCreateFn == nil {
		return models.Account{}, sql.ErrNoRows
	}
	return s.getOrCreateFn(ctx, tx, merchantID, kind, currency)
}

func (s stubAccountStore) UpdateBalance(ctx context.Context, tx store.Execer, accountID string, balance decimal.Decimal) error {
	if s.updateBalanceFn == nil {
		return nil
	}
	return s.updateBalanceFn(ctx, tx, accountID, balance)
}

func (s stubAccountStore) ListByMerchant(ctx context.Context, merchantID string) ([]models.Account, error) {
	if s.listByMerchantFn == nil {
		return nil, nil
	}
	return s.listByMerchantFn(ctx, merchantID)
}

type stubLedgerStore struct {
	insertFn         func(ctx context.Context, tx store.Execer, input store.LedgerTransactionInput) error
	listByPayoutFn   func(ctx context.Context, tx store.Selecter, payoutID string) ([]models.LedgerTransaction, error)
	listByChargeFn   func(ctx context.Context, chargeID string) ([]models.LedgerTransaction, error)
	listByMerchantFn func(ctx context.Context, merchantID string, limit, offset int) ([]models.LedgerTransaction, error)
	sumByAccountFn   func(ctx context.Context, accountID string) (decimal.Decimal, error)
}

func (s stubLedgerStore) Insert(ctx context.Context, tx store.Execer, input store.LedgerTransactionInput) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, tx, input)
}

func (s stubLedgerStore) ListByPayout(ctx context.Context, tx store.Selecter, payoutID string) ([]models.LedgerTransaction, error) {
	if s.listByPayoutFn == nil {
		return nil, nil
	}
	return s.listByPayoutFn(ctx, tx, payoutID)
}

func (s stubLedgerStore) ListByCharge(ctx context.Context, chargeID string) ([]models.LedgerTransaction, error) {
	if s.listByChargeFn == nil {
		return nil, nil
	}
	return s.listByChargeFn(ctx, chargeID)
}

func (s stubLedgerStore) ListByMerchant(ctx context.Context, merchantID string, limit, offset int) ([]models.LedgerTransaction, error) {
	if s.listByMerchantFn == nil {
		return nil, nil
	}
	return s.listByMerchantFn(ctx, merchantID, limit, offset)
}

func (s stubLedgerStore) SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	if s.sumByAccountFn == nil {
		return decimal.Zero, nil
	}
	return s.sumByAccountFn(ctx, accountID)
}

type stubChargeStore struct {
	createFn        func(ctx context.Context, tx store.Execer, input store.ChargeInput) error
	getByIDFn       func(ctx context.Context, chargeID string) (models.Charge, error)
	getByIdemFn     func(ctx context.Context, userID, key string) (models.Charge, error)
	getForUpdateFn  func(ctx context.Context, tx store.Getter, chargeID string) (models.Charge, error)
	markSucceededFn func(ctx context.Context, tx store.Execer, chargeID string) error
	markFailedFn    func(ctx context.Context, tx store.Execer, chargeID, message string) error
	listByUserFn    func(ctx context.Context, userID string, limit, offset int) ([]models.Charge, error)
}

func (s stubChargeStore) Create(ctx context.Context, tx store.Execer, input store.ChargeInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubChargeStore) GetByID(ctx context.Context, chargeID string) (models.Charge, error) {
	if s.getByIDFn == nil {
		return models.Charge{ID: chargeID}, nil
	}
	return s.getByIDFn(ctx, chargeID)
}

func (s stubChargeStore) GetByIdempotencyKey(ctx context.Context, userID, key string) (models.Charge, error) {
	if s.getByIdemFn == nil {
		return models.Charge{}, sql.ErrNoRows
	}
	return s.getByIdemFn(ctx, userID, key)
}

func (s stubChargeStore) GetForUpdate(ctx context.Context, tx store.Getter, chargeID string) (models.Charge, error) {
	if s.getForUpdateFn == nil {
		return models.Charge{}, sql.ErrNoRows
	}
	return s.getForUpdateFn(ctx, tx, chargeID)
}

func (s stubChargeStore) MarkSucceeded(ctx context.Context, tx store.Execer, chargeID string) error {
	if s.markSucceededFn == nil {
		return nil
	}
	return s.markSucceededFn(ctx, tx, chargeID)
}

func (s stubChargeStore) MarkFailed(ctx context.Context, tx store.Execer, chargeID, message string) error {
	if s.markFailedFn == nil {
		return nil
	}
	return s.markFailedFn(ctx, tx, chargeID, message)
}

func (s stubChargeStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Charge, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, limit, offset)
}

type stubPayoutStore struct {
	createFn        func(ctx context.Context, tx store.Execer, input store.PayoutInput) error
	getByIDFn       func(ctx context.Context, payoutID string) (models.Payout, error)
	getForUpdateFn  func(ctx context.Context, tx store.Getter, payoutID string) (models.Payout, error)
	markSucceededFn func(ctx context.Context, tx store.Execer, payoutID string) error
	markFailedFn    func(ctx context.Context, tx store.Execer, payoutID, reason string) error
	listFn          func(ctx context.Context, merchantID string) ([]models.Payout, error)
}

func (s stubPayoutStore) Create(ctx context.Context, tx store.Execer, input store.PayoutInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubPayoutStore) GetByID(ctx context.Context, payoutID string) (models.Payout, error) {
	if s.getByIDFn == nil {
		return models.Payout{}, sql.ErrNoRows
	}
	return s.getByIDFn(ctx, payoutID)
}

func (s stubPayoutStore) GetForUpdate(ctx context.Context, tx store.Getter, payoutID string) (models.Payout, error) {
	if s.getForUpdateFn == nil {
		return models.Payout{}, sql.ErrNoRows
	}
	return s.getForUpdateFn(ctx, tx, payoutID)
}

func (s stubPayoutStore) MarkSucceeded(ctx context.Context, tx store.Execer, payoutID string) error {
	if s.markSucceededFn == nil {
		return nil
	}
	return s.markSucceededFn(ctx, tx, payoutID)
}

func (s stubPayoutStore) MarkFailed(ctx context.Context, tx store.Execer, payoutID, reason string) error {
	if s.markFailedFn == nil {
		return nil
	}
	return s.markFailedFn(ctx, tx, payoutID, reason)
}

func (s stubPayoutStore) ListByMerchant(ctx context.Context, merchantID string) ([]models.Payout, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, merchantID)
}

type stubMerchantStore struct {
	getByIDFn            func(ctx context.Context, merchantID string) (models.Merchant, error)
	getByUserIDFn        func(ctx context.Context, userID string) (models.Merchant, error)
	getForUpdateFn       func(ctx context.Context, tx store.Getter, merchantID string) (models.Merchant, error)
	getForUpdateByUserFn func(ctx context.Context, tx store.Getter, userID string) (models.Merchant, error)
	updateBalancesFn     func(ctx context.Context, tx store.Execer, merchantID string, available, pending decimal.Decimal) error
	listIDsFn            func(ctx context.Context) ([]string, error)
	updateScheduleFn     func(ctx context.Context, tx store.Execer, merchantID string, input store.ScheduleInput) error
}

func (s stubMerchantStore) GetByID(ctx context.Context, merchantID string) (models.Merchant, error) {
	if s.getByIDFn == nil {
		return models.Merchant{}, sql.ErrNoRows
	}
	return s.getByIDFn(ctx, merchantID)
}

func (s stubMerchantStore) GetByUserID(ctx context.Context, userID string) (models.Merchant, error) {
	if s.getByUserIDFn == nil {
		return models.Merchant{}, sql.ErrNoRows
	}
	return s.getByUserIDFn(ctx, userID)
}

func (s stubMerchantStore) GetForUpdate(ctx context.Context, tx store.Getter, merchantID string) (models.Merchant, error) {
	if s.getForUpdateFn == nil {
		return models.Merchant{}, sql.ErrNoRows
	}
	return s.getForUpdateFn(ctx, tx, merchantID)
}

func (s stubMerchantStore) GetForUpdateByUserID(ctx context.Context, tx store.Getter, userID string) (models.Merchant, error) {
	if s.getForUpdateByUserFn == nil {
		return models.Merchant{}, sql.ErrNoRows
	}
	return s.getForUpdateByUserFn(ctx, tx, userID)
}

func (s stubMerchantStore) UpdateBalances(ctx context.Context, tx store.Execer, merchantID string, available, pending decimal.Decimal) error {
	if s.updateBalancesFn == nil {
		return nil
	}
	return s.updateBalancesFn(ctx, tx, merchantID, available, pending)
}

func (s stubMerchantStore) ListIDs(ctx context.Context) ([]string, error) {
	if s.listIDsFn == nil {
		return nil, nil
	}
	return s.listIDsFn(ctx)
}

func (s stubMerchantStore) UpdateSchedule(ctx context.Context, tx store.Execer, merchantID string, input store.ScheduleInput) error {
	if s.updateScheduleFn == nil {
		return nil
	}
	return s.updateScheduleFn(ctx, tx, merchantID, input)
}

type stubWebhookStore struct {
	createEndpointFn func(ctx context.Context, id, merchantID, url string, enabled bool) error
	getEndpointFn    func(ctx context.Context, endpointID string) (models.WebhookEndpoint, error)
	listEndpointsFn  func(ctx context.Context, merchantID string) ([]models.WebhookEndpoint, error)
	listEnabledFn    func(ctx context.Context, tx store.Selecter, merchantID string) ([]models.WebhookEndpoint, error)
	updateEndpointFn func(ctx context.Context, endpointID string, url *string, enabled *bool) error
	deleteEndpointFn func(ctx context.Context, endpointID string) error
	createDeliveryFn func(ctx context.Context, tx store.Execer, id, webhookID, event, payload string) error
	getDeliveryFn    func(ctx context.Context, tx store.Getter, deliveryID string) (models.WebhookDelivery, error)
	recordAttemptFn  func(ctx context.Context, tx store.Execer, deliveryID, status string, httpStatus *int, responseBody string) error
	listDeliveriesFn func(ctx context.Context, webhookID string, limit, offset int) ([]models.WebhookDelivery, error)
}

func (s stubWebhookStore) CreateEndpoint(ctx context.Context, id, merchantID, url string, enabled bool) error {
	if s.createEndpointFn == nil {
		return nil
	}
	return s.createEndpointFn(ctx, id, merchantID, url, enabled)
}

func (s stubWebhookStore) GetEndpoint(ctx context.Context, endpointID string) (models.WebhookEndpoint, error) {
	if s.getEndpointFn == nil {
		return models.WebhookEndpoint{}, sql.ErrNoRows
	}
	return s.getEndpointFn(ctx, endpointID)
}

func (s stubWebhookStore) ListEndpoints(ctx context.Context, merchantID string) ([]models.WebhookEndpoint, error) {
	if s.listEndpointsFn == nil {
		return nil, nil
	}
	return s.listEndpointsFn(ctx, merchantID)
}

func (s stubWebhookStore) ListEnabled(ctx context.Context, tx store.Selecter, merchantID string) ([]models.WebhookEndpoint, error) {
	if s.listEnabledFn == nil {
		return nil, nil
	}
	return s.listEnabledFn(ctx, tx, merchantID)
}

func (s stubWebhookStore) UpdateEndpoint(ctx context.Context, endpointID string, url *string, enabled *bool) error {
	if s.updateEndpointFn == nil {
		return nil
	}
	return s.updateEndpointFn(ctx, endpointID, url, enabled)
}

func (s stubWebhookStore) DeleteEndpoint(ctx context.Context, endpointID string) error {
	if s.deleteEndpointFn == nil {
		return nil
	}
	return s.deleteEndpointFn(ctx, endpointID)
}

func (s stubWebhookStore) CreateDelivery(ctx context.Context, tx store.Execer, id, webhookID, event, payload string) error {
	if s.createDeliveryFn == nil {
		return nil
	}
	return s.createDeliveryFn(ctx, tx, id, webhookID, event, payload)
}

func (s stubWebhookStore) GetDeliveryForUpdate(ctx context.Context, tx store.Getter, deliveryID string) (models.WebhookDelivery, error) {
	if s.getDeliveryFn == nil {
		return models.WebhookDelivery{}, sql.ErrNoRows
	}
	return s.getDeliveryFn(ctx, tx, deliveryID)
}

func (s stubWebhookStore) RecordAttempt(ctx context.Context, tx store.Execer, deliveryID, status string, httpStatus *int, responseBody string) error {
	if s.recordAttemptFn == nil {
		return nil
	}
	return s.recordAttemptFn(ctx, tx, deliveryID, status, httpStatus, responseBody)
}

func (s stubWebhookStore) ListDeliveries(ctx context.Context, webhookID string, limit, offset int) ([]models.WebhookDelivery, error) {
	if s.listDeliveriesFn == nil {
		return nil, nil
	}
	return s.listDeliveriesFn(ctx, webhookID, limit, offset)
}

type stubAuditStore struct {
	logFn func(ctx context.Context, tx store.Execer, actorUserID, merchantID *string, action, resourceType, resourceID, data string) error
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorUserID, merchantID *string, action, resourceType, resourceID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorUserID, merchantID, action, resourceType, resourceID, data)
}

type stubNotificationStore struct {
	createFn func(ctx context.Context, tx store.Execer, merchantID string, userID *string, notifType, message, data string) error
}

func (s stubNotificationStore) Create(ctx context.Context, tx store.Execer, merchantID string, userID *string, notifType, message, data string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, merchantID, userID, notifType, message, data)
}

type queuedTask struct {
	name string
	args map[string]string
}

type stubQueue struct {
	calls []queuedTask
}

func (s *stubQueue) Enqueue(name string, args map[string]string) {
	s.calls = append(s.calls, queuedTask{name: name, args: args})
}

type stubHub struct {
	calls []websocket.BalanceUpdate
}

func (s *stubHub) BroadcastBalance(_ string, update websocket.BalanceUpdate) {
	s.calls = append(s.calls, update)
}

func stringPtr(value string) *string { return &value }

func mustDecimal(value string) decimal.Decimal {
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return parsed
}
