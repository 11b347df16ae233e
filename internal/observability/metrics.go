package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const laneCount = 3

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hdmirx",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hdmirx",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	laneInvalid = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hdmirx",
			Subsystem: "lane",
			Name:      "invalid_symbols_total",
			Help:      "Code words outside both alphabets, per lane.",
		},
		[]string{"node", "lane"},
	)
	laneTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hdmirx",
			Subsystem: "lane",
			Name:      "lock_transitions_total",
			Help:      "Lock state transitions, per lane and target state.",
		},
		[]string{"node", "lane", "state"},
	)
	laneLocked = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "hdmirx",
			Subsystem: "lane",
			Name:      "locked",
			Help:      "1 while the lane is locked.",
		},
		[]string{"node", "lane"},
	)
	syncCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hdmirx",
			Subsystem: "sync",
			Name:      "cycles_total",
			Help:      "Synchronizer cycles by outcome.",
		},
		[]string{"node", "outcome"},
	)
	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hdmirx",
			Subsystem: "video",
			Name:      "frames_total",
			Help:      "Assembled frames by result.",
		},
		[]string{"node", "result"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, laneInvalid, laneTransitions, laneLocked, syncCycles, framesTotal)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordFrame counts one assembled frame. result is "match", "mismatch",
// "partial" or "unchecked".
func RecordFrame(node, result string) {
	RegisterMetrics()
	framesTotal.WithLabelValues(node, result).Inc()
}

// ReceiverMetrics feeds receiver events into Prometheus. Label children are
// resolved once so per-tick updates stay cheap.
type ReceiverMetrics struct {
	invalid  [laneCount]prometheus.Counter
	locks    [laneCount]prometheus.Counter
	unlocks  [laneCount]prometheus.Counter
	locked   [laneCount]prometheus.Gauge
	outcomes map[string]prometheus.Counter
}

func NewReceiverMetrics(node string) *ReceiverMetrics {
	RegisterMetrics()
	m := &ReceiverMetrics{outcomes: make(map[string]prometheus.Counter, 3)}
	for i := 0; i < laneCount; i++ {
		l := strconv.Itoa(i)
		m.invalid[i] = laneInvalid.WithLabelValues(node, l)
		m.locks[i] = laneTransitions.WithLabelValues(node, l, "locked")
		m.unlocks[i] = laneTransitions.WithLabelValues(node, l, "searching")
		m.locked[i] = laneLocked.WithLabelValues(node, l)
		m.locked[i].Set(0)
	}
	for _, o := range []string{"control", "data", "hold"} {
		m.outcomes[o] = syncCycles.WithLabelValues(node, o)
	}
	return m
}

func (m *ReceiverMetrics) LaneLockChanged(lane int, locked bool) {
	if lane < 0 || lane >= laneCount {
		return
	}
	if locked {
		m.locks[lane].Inc()
		m.locked[lane].Set(1)
		return
	}
	m.unlocks[lane].Inc()
	m.locked[lane].Set(0)
}

func (m *ReceiverMetrics) InvalidSymbol(lane int) {
	if lane < 0 || lane >= laneCount {
		return
	}
	m.invalid[lane].Inc()
}

func (m *ReceiverMetrics) SyncOutcome(outcome string) {
	if c, ok := m.outcomes[outcome]; ok {
		c.Inc()
	}
}
