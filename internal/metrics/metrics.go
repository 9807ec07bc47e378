package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paygate_tasks_total",
		Help: "Task executions by task name and outcome.",
	}, []string{"task", "outcome"})

	TaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "paygate_task_duration_seconds",
		Help:    "Task execution latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	LedgerTransfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paygate_ledger_transfers_total",
		Help: "Committed ledger transfers by kind.",
	}, []string{"kind"})

	WebhookAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paygate_webhook_attempts_total",
		Help: "Webhook delivery attempts by outcome.",
	}, []string{"outcome"})

	SettlementRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paygate_settlement_runs_total",
		Help: "Completed settlement batch runs.",
	})

	SettlementMerchantErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paygate_settlement_merchant_errors_total",
		Help: "Merchants skipped by a settlement run due to errors.",
	})
)
