// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package credentials

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels for store operation metrics.
const (
	ResultOK          = "ok"
	ResultConflict    = "conflict"
	ResultUnavailable = "unavailable"
	ResultError       = "error"
)

// StoreOperations counts credential store calls.
// Use RegisterMetrics to register this with a Prometheus registry.
var StoreOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "trackpanel_credential_store_operations_total",
		Help: "Total number of credential store operations by backend, operation and result",
	},
	[]string{"backend", "operation", "result"},
)

// StoreDuration is the histogram of credential store call latency.
var StoreDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "trackpanel_credential_store_duration_seconds",
		Help:    "Credential store operation duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"backend", "operation"},
)

// RegisterMetrics registers credential store metrics with reg.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(StoreOperations)
	reg.MustRegister(StoreDuration)
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, ErrVersionConflict):
		return ResultConflict
	case errors.Is(err, ErrUnavailable):
		return ResultUnavailable
	default:
		return ResultError
	}
}

// InstrumentedStore records metrics for every call to the wrapped Store.
type InstrumentedStore struct {
	backend string
	next    Store
}

// Instrument wraps next so its calls are counted under backend.
func Instrument(backend string, next Store) *InstrumentedStore {
	return &InstrumentedStore{backend: backend, next: next}
}

// Read implements Store.
func (s *InstrumentedStore) Read(ctx context.Context) (*Record, Version, error) {
	start := time.Now()
	rec, v, err := s.next.Read(ctx)
	s.observe("read", start, err)
	return rec, v, err
}

// Write implements Store.
func (s *InstrumentedStore) Write(ctx context.Context, rec *Record, expected Version, change string) (Version, error) {
	start := time.Now()
	v, err := s.next.Write(ctx, rec, expected, change)
	s.observe("write", start, err)
	return v, err
}

func (s *InstrumentedStore) observe(op string, start time.Time, err error) {
	StoreDuration.WithLabelValues(s.backend, op).Observe(time.Since(start).Seconds())
	StoreOperations.WithLabelValues(s.backend, op, resultOf(err)).Inc()
}
