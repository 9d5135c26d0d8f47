// Copyright 2024-2026 Aiku AI

package relay

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "editorial_relay"

// Metrics counts relay activity. All collectors are safe for concurrent use.
type Metrics struct {
	Relayed      *prometheus.CounterVec
	Dropped      prometheus.Counter
	Replies      *prometheus.CounterVec
	Edits        *prometheus.CounterVec
	Moderation   *prometheus.CounterVec
	SendFailures *prometheus.CounterVec
}

// NewMetrics creates the relay counters and registers them with reg. A nil
// reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Relayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "relayed_messages_total",
			Help:      "User messages relayed into the group, by content kind.",
		}, []string{"kind"}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dropped_banned_total",
			Help:      "User messages dropped because the sender is banned.",
		}),
		Replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "editorial_replies_total",
			Help:      "Group replies delivered to users, by content kind.",
		}, []string{"kind"}),
		Edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "edits_total",
			Help:      "Edits of correlated group messages, by outcome.",
		}, []string{"result"}),
		Moderation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "moderation_commands_total",
			Help:      "Moderation commands, by command and outcome.",
		}, []string{"command", "result"}),
		SendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "send_failures_total",
			Help:      "Failed outbound sends, by reason.",
		}, []string{"reason"}),
	}
	if reg != nil {
		reg.MustRegister(m.Relayed, m.Dropped, m.Replies, m.Edits, m.Moderation, m.SendFailures)
	}
	return m
}

// RegisterStateGauges exposes the current size of the correlation table and
// the ban list.
func RegisterStateGauges(reg prometheus.Registerer, ct *CorrelationTable, bl *BanList) error {
	correlations := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "correlations",
		Help:      "Message correlations currently held in memory.",
	}, func() float64 { return float64(ct.Len()) })
	banned := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "banned_users",
		Help:      "Users currently on the ban list.",
	}, func() float64 { return float64(bl.Len()) })
	if err := reg.Register(correlations); err != nil {
		return err
	}
	return reg.Register(banned)
}

func contentKind(media Media, isMedia bool) string {
	if isMedia {
		return string(media.Kind)
	}
	return "text"
}
