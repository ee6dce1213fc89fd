package metrics

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	TrainPhase      = "train"
	ValidationPhase = "validation"
)

// Metrics records the progress of a training run.
// A nil *Metrics is valid and records nothing.
// It is safe for concurrent use, as are the collectors behind it.
type Metrics struct {
	prometheus Prometheus
}

// New creates the metrics of the given run.
func New(run string) *Metrics {
	return &Metrics{
		prometheus: NewPrometheusMetrics(run),
	}
}

// Register adds the collectors to the registry.
func (m *Metrics) Register(registry prometheus.Registerer) error {
	for _, c := range m.prometheus.collectors() {
		if err := registry.Register(c); err != nil {
			return fmt.Errorf("could not register collector: %w", err)
		}
	}
	return nil
}

// Train records one training step.
func (m *Metrics) Train(errorRate float64) {
	if m == nil {
		return
	}
	m.prometheus.Cycles.Inc()
	m.prometheus.Examples.WithLabelValues(TrainPhase).Inc()
	m.prometheus.Error.Set(errorRate)
}

// Epoch records the end of an epoch.
func (m *Metrics) Epoch() {
	if m == nil {
		return
	}
	m.prometheus.Epochs.Inc()
}

// Validate records a validation pass over the given number of examples.
func (m *Metrics) Validate(examples int, loss float64) {
	if m == nil {
		return
	}
	m.prometheus.Examples.WithLabelValues(ValidationPhase).Add(float64(examples))
	m.prometheus.ValidationLoss.Set(loss)
}

// Serve exposes the registry on /metrics at the given address.
// The server runs until it is closed.
func Serve(addr string, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()
	log.Info().Str("addr", addr).Msg("serving metrics")
	return srv
}
