// MIT License
//
// Copyright (c) 2024 sphinx-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of signature operations.
type Metrics struct {
	Operations     *prometheus.CounterVec
	Duration       *prometheus.HistogramVec
	VerifyFailures *prometheus.CounterVec
	RegistryKeys   prometheus.Gauge
}

// New initializes the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hbss_operations_total",
				Help: "Number of signature operations performed",
			},
			[]string{"op", "scheme"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hbss_operation_duration_seconds",
				Help:    "Latency of signature operations",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"op", "scheme"},
		),
		VerifyFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hbss_verify_failures_total",
				Help: "Number of signatures that failed verification",
			},
			[]string{"scheme"},
		),
		RegistryKeys: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hbss_registry_keys",
				Help: "Number of key pairs held in the in-memory registry",
			},
		),
	}
	for _, c := range []prometheus.Collector{m.Operations, m.Duration, m.VerifyFailures, m.RegistryKeys} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObservePhase records one operation and its latency.
func (m *Metrics) ObservePhase(scheme, phase string, d time.Duration) {
	m.Operations.WithLabelValues(phase, scheme).Inc()
	m.Duration.WithLabelValues(phase, scheme).Observe(d.Seconds())
}

// ObserveVerification counts failed verifications.
func (m *Metrics) ObserveVerification(scheme string, ok bool) {
	if !ok {
		m.VerifyFailures.WithLabelValues(scheme).Inc()
	}
}

// SetRegistryKeys reports the current registry size.
func (m *Metrics) SetRegistryKeys(n int) {
	m.RegistryKeys.Set(float64(n))
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
