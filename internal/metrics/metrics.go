package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	unauthorizedAttemptsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hallmonitor_unauthorized_attempts_total",
		Help: "Total number of unauthorized command attempts recorded",
	})
	escalationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hallmonitor_escalations_total",
		Help: "Escalation actions applied, by action",
	}, []string{"action"})
	channelEnforcementsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hallmonitor_channel_enforcements_total",
		Help: "Users moved out of the monitored voice channel",
	})
	actionFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hallmonitor_action_failures_total",
		Help: "Platform action failures, by action",
	}, []string{"action"})
	activeRestrictions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hallmonitor_active_restrictions",
		Help: "Users currently under an active restriction",
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry prometheus.Registerer) {
	registry.MustRegister(
		unauthorizedAttemptsTotal,
		escalationsTotal,
		channelEnforcementsTotal,
		actionFailuresTotal,
		activeRestrictions,
	)
}

// IncUnauthorizedAttempt increments the recorded attempts counter.
func IncUnauthorizedAttempt() { unauthorizedAttemptsTotal.Inc() }

// IncEscalation counts an applied escalation action.
func IncEscalation(action string) { escalationsTotal.WithLabelValues(action).Inc() }

// IncChannelEnforcement counts a relocation out of the monitored channel.
func IncChannelEnforcement() { channelEnforcementsTotal.Inc() }

// IncActionFailure counts a failed platform action.
func IncActionFailure(action string) { actionFailuresTotal.WithLabelValues(action).Inc() }

// SetActiveRestrictions records the current restricted-user count.
func SetActiveRestrictions(n int) { activeRestrictions.Set(float64(n)) }
