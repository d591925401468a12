package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	t.Run("Counters follow recorded events", func(t *testing.T) {
		// Given: metrics on a private registry
		m := New("tictactoe", prometheus.NewRegistry())

		// When: recording events
		m.MoveAccepted()
		m.MoveAccepted()
		m.RoundArchived(true)
		m.RoundArchived(false)
		m.RoundArchived(false)
		m.RoundGroupClosed()
		m.ObserverConnected()
		m.ObserverConnected()
		m.ObserverDisconnected()

		// Then: the collectors hold the totals
		assert.InDelta(t, 2, testutil.ToFloat64(m.Moves), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.RoundsArchived.WithLabelValues(resultWin)), 0)
		assert.InDelta(t, 2, testutil.ToFloat64(m.RoundsArchived.WithLabelValues(resultTie)), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.RoundGroupsClosed), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.Observers), 0)
	})

	t.Run("Nil metrics record nothing", func(t *testing.T) {
		var m *Metrics

		assert.NotPanics(t, func() {
			m.MoveAccepted()
			m.RoundArchived(true)
			m.RoundGroupClosed()
			m.ExternalChange()
			m.ObserverConnected()
			m.ObserverDisconnected()
		})
	})
}
