package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"paygate/internal/models"
	"paygate/internal/store"
	"paygate/internal/tasks"
)

func payoutMerchant(available string) models.Merchant {
	return models.Merchant{
		ID:               "m1",
		UserID:           "u1",
		Currency:         "USD",
		AvailableBalance: mustDecimal(available),
		PendingBalance:   mustDecimal("0"),
	}
}

func TestCreatePayoutInsufficientFunds(t *testing.T) {
	merchants := stubMerchantStore{
		getForUpdateByUserFn: func(context.Context, store.Getter, string) (models.Merchant, error) {
			return payoutMerchant("100"), nil
		},
	}
	service := NewPayoutService(fakeTxRunner{}, nil, merchants, stubAccountStore{}, stubPayoutStore{
		createFn: func(context.Context, store.Execer, store.PayoutInput) error {
			t.Fatalf("insufficient funds must not create a payout")
			return nil
		},
	}, stubLedgerStore{}, NewLedger(stubAccountStore{}, stubLedgerStore{}), stubWebhookStore{},
		stubNotificationStore{}, stubAuditStore{}, &stubQueue{}, &stubHub{}, mustDecimal("0.005"))

	_, err := service.CreatePayout(context.Background(), "u1", "pa_1", mustDecimal("200"), "USD")
	if err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestCreatePayoutBelowMinimum(t *testing.T) {
	merchants := stubMerchantStore{
		getForUpdateByUserFn: func(context.Context, store.Getter, string) (models.Merchant, error) {
			merchant := payoutMerchant("5000")
			merchant.MinimumPayoutAmount = decimal.NewNullDecimal(mustDecimal("100"))
			return merchant, nil
		},
	}
	service := NewPayoutService(fakeTxRunner{}, nil, merchants, stubAccountStore{}, stubPayoutStore{},
		stubLedgerStore{}, NewLedger(stubAccountStore{}, stubLedgerStore{}), stubWebhookStore{},
		stubNotificationStore{}, stubAuditStore{}, &stubQueue{}, &stubHub{}, mustDecimal("0.005"))

	_, err := service.CreatePayout(context.Background(), "u1", "pa_1", mustDecimal("50"), "USD")
	if err != ErrBelowMinimumPayout {
		t.Fatalf("expected ErrBelowMinimumPayout, got %v", err)
	}
}

func TestCreatePayoutCurrencyMismatch(t *testing.T) {
	merchants := stubMerchantStore{
		getForUpdateByUserFn: func(context.Context, store.Getter, string) (models.Merchant, error) {
			return payoutMerchant("5000"), nil
		},
	}
	service := NewPayoutService(fakeTxRunner{}, nil, merchants, stubAccountStore{}, stubPayoutStore{},
		stubLedgerStore{}, NewLedger(stubAccountStore{}, stubLedgerStore{}), stubWebhookStore{},
		stubNotificationStore{}, stubAuditStore{}, &stubQueue{}, &stubHub{}, mustDecimal("0.005"))

	_, err := service.CreatePayout(context.Background(), "u1", "pa_1", mustDecimal("50"), "EUR")
	if err != ErrCurrencyMismatch {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}
}

func TestCreatePayoutReservesAmountAndFee(t *testing.T) {
	merchants := stubMerchantStore{
		getForUpdateByUserFn: func(context.Context, store.Getter, string) (models.Merchant, error) {
			return payoutMerchant("2000"), nil
		},
	}
	var cachedAvailable decimal.Decimal
	merchants.updateBalancesFn = func(_ context.Context, _ store.Execer, _ string, available, _ decimal.Decimal) error {
		cachedAvailable = available
		return nil
	}
	accounts := stubAccountStore{
		getForUpdateFn: func(_ context.Context, _ store.Getter, merchantID *string, kind, currency string) (models.Account, error) {
			return models.Account{ID: "avail", MerchantID: merchantID, Kind: kind, Currency: currency, Balance: mustDecimal("2000")}, nil
		},
		getOrCreateFn: func(_ context.Context, _ store.Tx, merchantID *string, kind, currency string) (models.Account, error) {
			return models.Account{ID: kind, MerchantID: merchantID, Kind: kind, Currency: currency}, nil
		},
	}
	var inserted []store.LedgerTransactionInput
	ledgerRows := stubLedgerStore{
		insertFn: func(_ context.Context, _ store.Execer, input store.LedgerTransactionInput) error {
			inserted = append(inserted, input)
			return nil
		},
	}
	queue := &stubQueue{}
	service := NewPayoutService(fakeTxRunner{}, nil, merchants, accounts, stubPayoutStore{},
		ledgerRows, NewLedger(accounts, ledgerRows), stubWebhookStore{},
		stubNotificationStore{}, stubAuditStore{}, queue, &stubHub{}, mustDecimal("0.005"))

	payout, err := service.CreatePayout(context.Background(), "u1", "pa_1", mustDecimal("1000"), "USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payout.Status != models.PayoutPending {
		t.Fatalf("payout status = %s, want PENDING", payout.Status)
	}
	if len(inserted) != 2 {
		t.Fatalf("expected reservation and fee rows, got %d", len(inserted))
	}
	if inserted[0].Kind != models.LedgerPayout || !inserted[0].Amount.Equal(mustDecimal("1000")) {
		t.Fatalf("reservation row = %s %s", inserted[0].Kind, inserted[0].Amount)
	}
	if inserted[1].Kind != models.LedgerFee || !inserted[1].Amount.Equal(mustDecimal("5")) {
		t.Fatalf("fee row = %s %s, want FEE 5", inserted[1].Kind, inserted[1].Amount)
	}
	if !cachedAvailable.Equal(mustDecimal("995")) {
		t.Fatalf("cached available = %s, want 995", cachedAvailable)
	}
	if len(queue.calls) != 1 || queue.calls[0].name != tasks.TaskProcessPayout {
		t.Fatalf("expected one %s task, got %+v", tasks.TaskProcessPayout, queue.calls)
	}
}

func TestProcessPayoutFinalizesReservation(t *testing.T) {
	payouts := stubPayoutStore{
		getForUpdateFn: func(_ context.Context, _ store.Getter, payoutID string) (models.Payout, error) {
			return models.Payout{ID: payoutID, MerchantID: "m1", Amount: mustDecimal("1000"), Currency: "USD", Status: models.PayoutPending}, nil
		},
	}
	succeeded := false
	payouts.markSucceededFn = func(context.Context, store.Execer, string) error {
		succeeded = true
		return nil
	}
	merchants := stubMerchantStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.Merchant, error) {
			return payoutMerchant("995"), nil
		},
	}
	ledgerRows := stubLedgerStore{
		listByPayoutFn: func(_ context.Context, _ store.Selecter, payoutID string) ([]models.LedgerTransaction, error) {
			return []models.LedgerTransaction{{ID: "lt1", Kind: models.LedgerPayout, Amount: mustDecimal("1000")}}, nil
		},
		insertFn: func(context.Context, store.Execer, store.LedgerTransactionInput) error {
			t.Fatalf("finalize must not write new ledger rows")
			return nil
		},
	}
	var auditAction string
	audit := stubAuditStore{
		logFn: func(_ context.Context, _ store.Execer, _, _ *string, action, _, _, _ string) error {
			auditAction = action
			return nil
		},
	}
	service := NewPayoutService(fakeTxRunner{}, nil, merchants, stubAccountStore{}, payouts,
		ledgerRows, NewLedger(stubAccountStore{}, ledgerRows), stubWebhookStore{},
		stubNotificationStore{}, audit, &stubQueue{}, &stubHub{}, mustDecimal("0.005"))

	if err := service.ProcessPayout(context.Background(), "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !succeeded {
		t.Fatalf("payout was not marked succeeded")
	}
	if auditAction != "PAYOUT_PROCESSED" {
		t.Fatalf("audit action = %q", auditAction)
	}
}

func TestProcessPayoutNotPendingNoOp(t *testing.T) {
	payouts := stubPayoutStore{
		getForUpdateFn: func(_ context.Context, _ store.Getter, payoutID string) (models.Payout, error) {
			return models.Payout{ID: payoutID, MerchantID: "m1", Status: models.PayoutSucceeded}, nil
		},
		markSucceededFn: func(context.Context, store.Execer, string) error {
			t.Fatalf("settled payout must not be touched")
			return nil
		},
	}
	service := NewPayoutService(fakeTxRunner{}, nil, stubMerchantStore{}, stubAccountStore{}, payouts,
		stubLedgerStore{}, NewLedger(stubAccountStore{}, stubLedgerStore{}), stubWebhookStore{},
		stubNotificationStore{}, stubAuditStore{}, &stubQueue{}, &stubHub{}, mustDecimal("0.005"))
	if err := service.ProcessPayout(context.Background(), "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProcessPayoutReconciliationInsufficientFunds(t *testing.T) {
	var failureReason string
	payouts := stubPayoutStore{
		getForUpdateFn: func(_ context.Context, _ store.Getter, payoutID string) (models.Payout, error) {
			payout := models.Payout{ID: payoutID, MerchantID: "m1", Amount: mustDecimal("1000"), Currency: "USD", Status: models.PayoutPending}
			if failureReason != "" {
				payout.Status = models.PayoutFailed
			}
			return payout, nil
		},
		markFailedFn: func(_ context.Context, _ store.Execer, _, reason string) error {
			failureReason = reason
			return nil
		},
	}
	merchants := stubMerchantStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.Merchant, error) {
			return payoutMerchant("500"), nil
		},
	}
	accounts := stubAccountStore{
		getForUpdateFn: func(_ context.Context, _ store.Getter, merchantID *string, kind, currency string) (models.Account, error) {
			if kind == models.AccountMerchantAvailable {
				return models.Account{ID: "avail", MerchantID: merchantID, Kind: kind, Currency: currency, Balance: mustDecimal("500")}, nil
			}
			return models.Account{ID: kind, Kind: kind, Currency: currency}, nil
		},
	}
	service := NewPayoutService(fakeTxRunner{}, nil, merchants, accounts, payouts,
		stubLedgerStore{}, NewLedger(accounts, stubLedgerStore{}), stubWebhookStore{},
		stubNotificationStore{}, stubAuditStore{}, &stubQueue{}, &stubHub{}, mustDecimal("0.005"))

	if err := service.ProcessPayout(context.Background(), "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if failureReason != "Insufficient funds at time of processing." {
		t.Fatalf("failure reason = %q", failureReason)
	}
}

func TestCancelPayoutRestoresBalance(t *testing.T) {
	merchants := stubMerchantStore{
		getByUserIDFn: func(context.Context, string) (models.Merchant, error) {
			return payoutMerchant("995"), nil
		},
		getForUpdateFn: func(context.Context, store.Getter, string) (models.Merchant, error) {
			return payoutMerchant("995"), nil
		},
	}
	var cachedAvailable decimal.Decimal
	merchants.updateBalancesFn = func(_ context.Context, _ store.Execer, _ string, available, _ decimal.Decimal) error {
		cachedAvailable = available
		return nil
	}
	merchantID := "m1"
	availableAcct := models.Account{ID: "avail", MerchantID: &merchantID, Kind: models.AccountMerchantAvailable, Currency: "USD", Balance: mustDecimal("995")}
	payableAcct := models.Account{ID: "payable", Kind: models.AccountPlatformPayable, Currency: "USD", Balance: mustDecimal("1000")}
	revenueAcct := models.Account{ID: "revenue", Kind: models.AccountPlatformRevenue, Currency: "USD", Balance: mustDecimal("5")}
	accounts := stubAccountStore{
		getForUpdateByIDFn: func(_ context.Context, _ store.Getter, accountID string) (models.Account, error) {
			switch accountID {
			case "avail":
				return availableAcct, nil
			case "payable":
				return payableAcct, nil
			default:
				return revenueAcct, nil
			}
		},
	}
	var failureReason string
	payouts := stubPayoutStore{
		getForUpdateFn: func(_ context.Context, _ store.Getter, payoutID string) (models.Payout, error) {
			return models.Payout{ID: payoutID, MerchantID: "m1", Amount: mustDecimal("1000"), Currency: "USD", Status: models.PayoutPending}, nil
		},
		markFailedFn: func(_ context.Context, _ store.Execer, _, reason string) error {
			failureReason = reason
			return nil
		},
	}
	var inserted []store.LedgerTransactionInput
	ledgerRows := stubLedgerStore{
		listByPayoutFn: func(_ context.Context, _ store.Selecter, payoutID string) ([]models.LedgerTransaction, error) {
			return []models.LedgerTransaction{
				{ID: "lt1", Kind: models.LedgerPayout, Amount: mustDecimal("1000"), DebitAccountID: "avail", CreditAccountID: "payable"},
				{ID: "lt2", Kind: models.LedgerFee, Amount: mustDecimal("5"), DebitAccountID: "avail", CreditAccountID: "revenue"},
			}, nil
		},
		insertFn: func(_ context.Context, _ store.Execer, input store.LedgerTransactionInput) error {
			inserted = append(inserted, input)
			return nil
		},
	}
	service := NewPayoutService(fakeTxRunner{}, nil, merchants, accounts, payouts,
		ledgerRows, NewLedger(accounts, ledgerRows), stubWebhookStore{},
		stubNotificationStore{}, stubAuditStore{}, &stubQueue{}, &stubHub{}, mustDecimal("0.005"))

	payout, err := service.CancelPayout(context.Background(), "u1", "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payout.Status != models.PayoutFailed {
		t.Fatalf("payout status = %s, want FAILED", payout.Status)
	}
	if failureReason != "cancelled_by_user" {
		t.Fatalf("failure reason = %q", failureReason)
	}
	if len(inserted) != 2 {
		t.Fatalf("expected 2 reversal rows, got %d", len(inserted))
	}
	for _, row := range inserted {
		if row.Kind != models.LedgerRefund {
			t.Fatalf("reversal kind = %s, want REFUND", row.Kind)
		}
		if !row.Amount.IsPositive() {
			t.Fatalf("reversal amount must stay positive, got %s", row.Amount)
		}
		if row.CreditAccountID != "avail" && row.DebitAccountID == "avail" {
			t.Fatalf("reversal must credit the merchant account: %+v", row)
		}
	}
	if !cachedAvailable.Equal(mustDecimal("2000")) {
		t.Fatalf("cached available = %s, want 2000", cachedAvailable)
	}
}

func TestCancelPayoutNotPending(t *testing.T) {
	merchants := stubMerchantStore{
		getByUserIDFn: func(context.Context, string) (models.Merchant, error) {
			return payoutMerchant("0"), nil
		},
	}
	payouts := stubPayoutStore{
		getForUpdateFn: func(_ context.Context, _ store.Getter, payoutID string) (models.Payout, error) {
			return models.Payout{ID: payoutID, MerchantID: "m1", Status: models.PayoutSucceeded}, nil
		},
	}
	service := NewPayoutService(fakeTxRunner{}, nil, merchants, stubAccountStore{}, payouts,
		stubLedgerStore{}, NewLedger(stubAccountStore{}, stubLedgerStore{}), stubWebhookStore{},
		stubNotificationStore{}, stubAuditStore{}, &stubQueue{}, &stubHub{}, mustDecimal("0.005"))
	_, err := service.CancelPayout(context.Background(), "u1", "p1")
	if err != ErrPayoutNotPending {
		t.Fatalf("expected ErrPayoutNotPending, got %v", err)
	}
}

func TestSettlementReportAggregates(t *testing.T) {
	payout := models.Payout{ID: "p1", MerchantID: "m1", Currency: "USD", Status: models.PayoutSucceeded}
	rows := []models.LedgerTransaction{
		{Kind: models.LedgerPayout, Amount: mustDecimal("1000")},
		{Kind: models.LedgerFee, Amount: mustDecimal("5")},
		{Kind: models.LedgerRefund, Amount: mustDecimal("100")},
	}
	report := buildSettlementReport(payout, rows)
	if report.TotalTransactions != 3 {
		t.Fatalf("total transactions = %d, want 3", report.TotalTransactions)
	}
	if report.Gross != "1000.0000" || report.Fees != "5.0000" || report.Refunds != "100.0000" {
		t.Fatalf("unexpected totals: gross=%s fees=%s refunds=%s", report.Gross, report.Fees, report.Refunds)
	}
	if report.Net != "895.0000" {
		t.Fatalf("net = %s, want 895.0000", report.Net)
	}
}

func TestSelfCheckFlagsDrift(t *testing.T) {
	merchants := stubMerchantStore{
		getByUserIDFn: func(context.Context, string) (models.Merchant, error) {
			return payoutMerchant("0"), nil
		},
	}
	accounts := stubAccountStore{
		listByMerchantFn: func(context.Context, string) ([]models.Account, error) {
			return []models.Account{
				{ID: "a1", Kind: models.AccountMerchantAvailable, Currency: "USD", Balance: mustDecimal("100")},
				{ID: "a2", Kind: models.AccountMerchantPending, Currency: "USD", Balance: mustDecimal("50")},
			}, nil
		},
	}
	ledgerRows := stubLedgerStore{
		sumByAccountFn: func(_ context.Context, accountID string) (decimal.Decimal, error) {
			if accountID == "a2" {
				return mustDecimal("49"), nil
			}
			return mustDecimal("100"), nil
		},
	}
	service := NewPayoutService(fakeTxRunner{}, nil, merchants, accounts, stubPayoutStore{},
		ledgerRows, NewLedger(accounts, ledgerRows), stubWebhookStore{},
		stubNotificationStore{}, stubAuditStore{}, &stubQueue{}, &stubHub{}, mustDecimal("0.005"))

	checks, err := service.SelfCheck(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(checks) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(checks))
	}
	if !checks[0].Consistent {
		t.Fatalf("account a1 should be consistent: %+v", checks[0])
	}
	if checks[1].Consistent || checks[1].LedgerBalance != "49.0000" {
		t.Fatalf("account a2 drift not flagged: %+v", checks[1])
	}
}
