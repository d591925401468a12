package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultWin = "win"
	resultTie = "tie"
)

// Metrics - a nil *Metrics is valid and records nothing.
type Metrics struct {
	Moves             prometheus.Counter
	RoundsArchived    *prometheus.CounterVec
	RoundGroupsClosed prometheus.Counter
	ExternalChanges   prometheus.Counter
	Observers         prometheus.Gauge
}

func New(namespace string, registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		Moves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_total",
			Help:      "Number of accepted moves",
		}),
		RoundsArchived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_archived_total",
			Help:      "Number of finished games moved to the scoreboard",
		}, []string{"result"}),
		RoundGroupsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "round_groups_closed_total",
			Help:      "Number of new rounds started",
		}),
		ExternalChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_changes_total",
			Help:      "Number of writes observed from other contexts",
		}),
		Observers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "observers",
			Help:      "Number of connected passive observers",
		}),
	}

	registerer.MustRegister(
		m.Moves,
		m.RoundsArchived,
		m.RoundGroupsClosed,
		m.ExternalChanges,
		m.Observers,
	)

	return m
}

func (that *Metrics) MoveAccepted() {
	if that == nil {
		return
	}

	that.Moves.Inc()
}

func (that *Metrics) RoundArchived(hasWinner bool) {
	if that == nil {
		return
	}

	result := resultTie
	if hasWinner {
		result = resultWin
	}

	that.RoundsArchived.WithLabelValues(result).Inc()
}

func (that *Metrics) RoundGroupClosed() {
	if that == nil {
		return
	}

	that.RoundGroupsClosed.Inc()
}

func (that *Metrics) ExternalChange() {
	if that == nil {
		return
	}

	that.ExternalChanges.Inc()
}

func (that *Metrics) ObserverConnected() {
	if that == nil {
		return
	}

	that.Observers.Inc()
}

func (that *Metrics) ObserverDisconnected() {
	if that == nil {
		return
	}

	that.Observers.Dec()
}
