// Package metrics exposes Prometheus collectors for reminders, backups and
// the tracked collection.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/tracker"
)

// Collector holds every subtrack metric on its own registry.
type Collector struct {
	registry *prometheus.Registry

	remindersFired  *prometheus.CounterVec
	reminderDupes   prometheus.Counter
	notifyFailures  prometheus.Counter
	backups         *prometheus.CounterVec
	subscriptions   *prometheus.GaugeVec
	monthlyCost     prometheus.Gauge
	categoryCost    *prometheus.GaugeVec
	persistFailures prometheus.Counter
}

// New registers all collectors on a fresh registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Collector{
		registry: reg,
		remindersFired: f.NewCounterVec(prometheus.CounterOpts{
			Name: "subtrack_reminders_fired_total",
			Help: "Reminders delivered, by kind.",
		}, []string{"kind"}),
		reminderDupes: f.NewCounter(prometheus.CounterOpts{
			Name: "subtrack_reminders_duplicate_total",
			Help: "Reminders skipped because the ledger already had them.",
		}),
		notifyFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "subtrack_notify_failures_total",
			Help: "Notification deliveries that returned an error.",
		}),
		backups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "subtrack_backups_total",
			Help: "Backup attempts, by result.",
		}, []string{"result"}),
		subscriptions: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "subtrack_subscriptions",
			Help: "Tracked subscriptions, by display status.",
		}, []string{"status"}),
		monthlyCost: f.NewGauge(prometheus.GaugeOpts{
			Name: "subtrack_monthly_cost",
			Help: "Monthly-equivalent cost of active subscriptions.",
		}),
		categoryCost: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "subtrack_category_monthly_cost",
			Help: "Monthly-equivalent cost of active subscriptions, by category.",
		}, []string{"category"}),
		persistFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "subtrack_persist_failures_total",
			Help: "Failed writes to the local store.",
		}),
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ReminderFired implements reminder.Recorder.
func (c *Collector) ReminderFired(kind string) { c.remindersFired.WithLabelValues(kind).Inc() }

// ReminderDuplicate implements reminder.Recorder.
func (c *Collector) ReminderDuplicate() { c.reminderDupes.Inc() }

// NotifyFailed implements reminder.Recorder.
func (c *Collector) NotifyFailed() { c.notifyFailures.Inc() }

// BackupResult counts a backup attempt; result is "written", "skipped" or "failed".
func (c *Collector) BackupResult(result string) { c.backups.WithLabelValues(result).Inc() }

// PersistFailed counts a failed store write.
func (c *Collector) PersistFailed() { c.persistFailures.Inc() }

// ObserveCollection refreshes the collection gauges.
func (c *Collector) ObserveCollection(subs []model.Subscription, today model.Date) {
	sum := tracker.Summarize(subs, today)
	c.subscriptions.WithLabelValues("active").Set(float64(sum.Active))
	c.subscriptions.WithLabelValues("paused").Set(float64(sum.Paused))
	c.subscriptions.WithLabelValues("cancelled").Set(float64(sum.Cancelled))
	c.subscriptions.WithLabelValues("expired").Set(float64(sum.Expired))
	c.monthlyCost.Set(sum.MonthlyCost)
	for cat, v := range sum.ByCategory {
		c.categoryCost.WithLabelValues(string(cat)).Set(v)
	}
}
