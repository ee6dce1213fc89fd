package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "ann"

// Prometheus holds the collectors of a training run.
type Prometheus struct {
	Cycles         prometheus.Counter
	Epochs         prometheus.Counter
	Examples       *prometheus.CounterVec
	Error          prometheus.Gauge
	ValidationLoss prometheus.Gauge
}

// NewPrometheusMetrics creates the collectors, labelled with the given run.
func NewPrometheusMetrics(run string) Prometheus {
	labels := prometheus.Labels{"run": run}
	return Prometheus{
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "training_cycles_total",
			Help:        "Number of training steps.",
			ConstLabels: labels,
		}),
		Epochs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "epochs_total",
			Help:        "Number of completed epochs.",
			ConstLabels: labels,
		}),
		Examples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "examples_total",
			Help:        "Number of examples seen, by phase.",
			ConstLabels: labels,
		}, []string{"phase"}),
		Error: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "error_rate",
			Help:        "Error rate of the most recent training step.",
			ConstLabels: labels,
		}),
		ValidationLoss: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "validation_loss",
			Help:        "Average loss over the validation set.",
			ConstLabels: labels,
		}),
	}
}

func (p Prometheus) collectors() []prometheus.Collector {
	return []prometheus.Collector{p.Cycles, p.Epochs, p.Examples, p.Error, p.ValidationLoss}
}
