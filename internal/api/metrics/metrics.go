// Package metrics defines and registers all custom Prometheus metrics for the
// accounts API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Collectors are created unregistered; Register attaches them to the registry
// the router serves on /metrics.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "accounts"

// ── Account metrics ───────────────────────────────────────────────────────────

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "ok", "invalid" or "error"
var RegistrationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// ConfirmationsTotal counts confirmation attempts.
// Label:
//   - result: "ok", "rejected", "throttled" or "error"
var ConfirmationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "confirmations_total",
		Help:      "Total number of account confirmation attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "ok", "rejected", "throttled" or "error"
var LoginsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Notice metrics ────────────────────────────────────────────────────────────

// NoticesSentTotal counts confirmation notices handed to the notifier.
// Label:
//   - result: "ok", "error" or "dropped" (worker queue full)
var NoticesSentTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notices_sent_total",
		Help:      "Total number of confirmation notices delivered to the notifier, by result.",
	},
	[]string{"result"},
)

// NoticeQueueDepth tracks the current number of notices waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NoticeQueueDepth = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notice_queue_depth",
		Help:      "Current number of notices pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// Register adds every collector of this package to reg. Collectors already
// present on reg are skipped, so routers sharing a registry can call it freely.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		RegistrationsTotal,
		ConfirmationsTotal,
		LoginsTotal,
		NoticesSentTotal,
		NoticeQueueDepth,
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}
