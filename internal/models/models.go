package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	AccountMerchantPending   = "merchant_pending"
	AccountMerchantAvailable = "merchant_available"
	AccountPlatformRevenue   = "platform_revenue"
	AccountPlatformPayable   = "platform_payable"
	AccountSystemHolding     = "system_holding"
)

const (
	LedgerCharge = "CHARGE"
	LedgerRefund = "REFUND"
	LedgerPayout = "PAYOUT"
	LedgerFee    = "FEE"
)

const (
	ChargePending   = "pending"
	ChargeSucceeded = "succeeded"
	ChargeFailed    = "failed"
)

const (
	PayoutPending   = "PENDING"
	PayoutSucceeded = "SUCCEEDED"
	PayoutFailed    = "FAILED"
)

const (
	DeliveryPending = "pending"
	DeliverySuccess = "success"
	DeliveryFailed  = "failed"
)

type Merchant struct {
	ID                  string              `db:"merchant_id" json:"merchant_id"`
	UserID              string              `db:"user_id" json:"user_id"`
	Currency            string              `db:"currency" json:"currency"`
	AvailableBalance    decimal.Decimal     `db:"available_balance" json:"available_balance"`
	PendingBalance      decimal.Decimal     `db:"pending_balance" json:"pending_balance"`
	ReservedBalance     decimal.Decimal     `db:"reserved_balance" json:"reserved_balance"`
	SettlementSchedule  string              `db:"settlement_schedule" json:"settlement_schedule"`
	SettlementDelayDays int                 `db:"settlement_delay_days" json:"settlement_delay_days"`
	MinimumPayoutAmount decimal.NullDecimal `db:"minimum_payout_amount" json:"minimum_payout_amount"`
	CreatedAt           time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time           `db:"updated_at" json:"updated_at"`
}

type Account struct {
	ID         string          `db:"id" json:"id"`
	MerchantID *string         `db:"merchant_id" json:"merchant_id,omitempty"`
	Kind       string          `db:"kind" json:"kind"`
	Currency   string          `db:"currency" json:"currency"`
	Balance    decimal.Decimal `db:"balance" json:"balance"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

type LedgerTransaction struct {
	ID              string          `db:"id" json:"id"`
	ChargeID        *string         `db:"charge_id" json:"charge_id,omitempty"`
	PayoutID        *string         `db:"payout_id" json:"payout_id,omitempty"`
	MerchantID      *string         `db:"merchant_id" json:"merchant_id,omitempty"`
	Kind            string          `db:"kind" json:"kind"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Currency        string          `db:"currency" json:"currency"`
	DebitAccountID  string          `db:"debit_account_id" json:"debit_account_id"`
	CreditAccountID string          `db:"credit_account_id" json:"credit_account_id"`
	Description     string          `db:"description" json:"description"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

type Charge struct {
	ID             string          `db:"id" json:"id"`
	UserID         string          `db:"user_id" json:"user_id"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	Currency       string          `db:"currency" json:"currency"`
	Description    string          `db:"description" json:"description"`
	Status         string          `db:"status" json:"status"`
	FailureMessage *string         `db:"failure_message" json:"failure_message,omitempty"`
	IdempotencyKey *string         `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

type Payout struct {
	ID              string          `db:"id" json:"id"`
	MerchantID      string          `db:"merchant_id" json:"merchant_id"`
	PayoutAccountID string          `db:"payout_account_id" json:"payout_account_id"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Currency        string          `db:"currency" json:"currency"`
	Status          string          `db:"status" json:"status"`
	FailureReason   *string         `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt     *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}

type WebhookEndpoint struct {
	ID         string    `db:"id" json:"id"`
	MerchantID string    `db:"merchant_id" json:"merchant_id"`
	URL        string    `db:"url" json:"url"`
	Enabled    bool      `db:"enabled" json:"enabled"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type WebhookDelivery struct {
	ID            string     `db:"id" json:"id"`
	WebhookID     string     `db:"webhook_id" json:"webhook_id"`
	Event         string     `db:"event" json:"event"`
	Payload       string     `db:"payload" json:"payload"`
	Status        string     `db:"status" json:"status"`
	HTTPStatus    *int       `db:"http_status" json:"http_status,omitempty"`
	ResponseBody  *string    `db:"response_body" json:"response_body,omitempty"`
	Attempts      int        `db:"attempts" json:"attempts"`
	LastAttemptAt *time.Time `db:"last_attempt_at" json:"last_attempt_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

type Notification struct {
	ID         string    `db:"id" json:"id"`
	MerchantID string    `db:"merchant_id" json:"merchant_id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Type       string    `db:"type" json:"type"`
	Message    string    `db:"message" json:"message"`
	Data       string    `db:"data" json:"data"`
	IsRead     bool      `db:"is_read" json:"is_read"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
