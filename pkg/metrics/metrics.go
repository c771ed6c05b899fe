package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 引擎
	EngineCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dcim_alert_engine_cycles_total",
			Help: "Total number of evaluation cycles",
		},
		[]string{"status"}, // ok, config_error
	)

	EngineCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dcim_alert_engine_cycle_duration_seconds",
			Help:    "Duration of one evaluation cycle",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	EngineSamplesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dcim_alert_engine_samples_total",
			Help: "Samples processed by outcome",
		},
		[]string{"outcome"}, // evaluated, unavailable, disabled, failed
	)

	TrackerDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dcim_alert_tracker_decisions_total",
			Help: "Violation tracker decisions by action",
		},
		[]string{"action"},
	)

	TrackerSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dcim_alert_tracker_entries",
			Help: "Number of live violation tracker entries",
		},
	)

	// 告警生命周期
	AlertsTriggeredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dcim_alerts_triggered_total",
			Help: "Alerts created by level",
		},
		[]string{"level", "metric_type"},
	)

	AlertTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dcim_alert_transitions_total",
			Help: "Alert lifecycle transitions",
		},
		[]string{"to", "result"}, // result: applied, noop, rejected
	)

	// 推送
	Subscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dcim_alert_subscribers",
			Help: "Current number of live notification subscribers",
		},
	)

	HeartbeatsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dcim_alert_heartbeats_dropped_total",
			Help: "Heartbeats dropped from full subscriber queues",
		},
	)

	SubscribersEvictedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dcim_alert_subscribers_evicted_total",
			Help: "Subscribers disconnected for being unresponsive",
		},
	)

	NotificationsPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dcim_alert_notifications_published_total",
			Help: "Notifications published to the subscription registry",
		},
	)

	ForwardedEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dcim_alert_forwarded_events_total",
			Help: "Notifications forwarded to downstream sinks",
		},
		[]string{"sink", "status"},
	)
)

// HubObserver 把推送中心的订阅事件记录到指标
type HubObserver struct{}

func (HubObserver) SubscribersChanged(n int) { Subscribers.Set(float64(n)) }
func (HubObserver) HeartbeatDropped()        { HeartbeatsDroppedTotal.Inc() }
func (HubObserver) SubscriberEvicted(error)  { SubscribersEvictedTotal.Inc() }
