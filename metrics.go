package authcore

import "sync/atomic"

// MetricID identifies a counter in the in-process metrics system.
type MetricID uint16

const (
	// MetricLoginSuccess counts completed password stages.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts invalid-credential outcomes.
	MetricLoginFailure
	// MetricLoginDenied counts approval-gate and verification-gate denials.
	MetricLoginDenied
	// MetricMFASuccess counts completed MFA verifications.
	MetricMFASuccess
	// MetricMFAFailure counts rejected challenges.
	MetricMFAFailure
	// MetricLogout counts logouts.
	MetricLogout
	// MetricRegisterSuccess counts created accounts.
	MetricRegisterSuccess
	// MetricRegisterDuplicate counts suppressed duplicate registrations.
	MetricRegisterDuplicate
	// MetricEmailVerified counts successful email verifications.
	MetricEmailVerified
	// MetricEmailVerifyFailure counts rejected verification codes.
	MetricEmailVerifyFailure
	// MetricApprovalGranted counts ApproveUser successes, including
	// idempotent repeats.
	MetricApprovalGranted
	// MetricDispatchFailure counts failed out-of-band code deliveries.
	MetricDispatchFailure
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds atomic counters. All operations are no-ops when disabled.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates a Metrics instance configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc increments a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Get reads a single counter.
func (m *Metrics) Get(id MetricID) uint64 {
	if m == nil || !m.enabled || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricIDCount)}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return snap
}
