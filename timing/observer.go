package timing

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Observer is told about every completed measurement.
type Observer interface {
	Observe(name string, elapsed time.Duration)
}

type multiObserver []Observer

// Observers fans a measurement out to every non-nil observer in order.
func Observers(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m multiObserver) Observe(name string, elapsed time.Duration) {
	for _, o := range m {
		o.Observe(name, elapsed)
	}
}

// LogObserver logs measurements through zap.
type LogObserver struct {
	logger *zap.Logger
	level  zap.AtomicLevel
}

// NewLogObserver creates a LogObserver writing at debug level.
func NewLogObserver(logger *zap.Logger) *LogObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogObserver{logger: logger, level: zap.NewAtomicLevelAt(zap.DebugLevel)}
}

// AtLevel changes the level measurements are logged at.
func (o *LogObserver) AtLevel(l zap.AtomicLevel) *LogObserver {
	o.level = l
	return o
}

func (o *LogObserver) Observe(name string, elapsed time.Duration) {
	if ce := o.logger.Check(o.level.Level(), "unit timed"); ce != nil {
		ce.Write(
			zap.String("name", name),
			zap.Duration("elapsed", elapsed),
			zap.Float64("seconds", elapsed.Seconds()),
		)
	}
}

// DefaultBuckets spans sub-millisecond calls up to multi-second waits.
var DefaultBuckets = []float64{.0001, .001, .01, .1, .5, 1, 2.5, 5, 10, 30}

// NewHistogram creates a histogram vector labelled by unit name.
// The caller registers it.
func NewHistogram(namespace string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "unit_duration_seconds",
		Help:      "Wall-clock duration of timed units of work.",
		Buckets:   DefaultBuckets,
	}, []string{"unit"})
}

// HistogramObserver records measurements into a Prometheus histogram
// vector with a single "unit" label.
type HistogramObserver struct {
	vec prometheus.ObserverVec
}

// NewHistogramObserver wraps vec.
func NewHistogramObserver(vec prometheus.ObserverVec) *HistogramObserver {
	return &HistogramObserver{vec: vec}
}

func (o *HistogramObserver) Observe(name string, elapsed time.Duration) {
	if name == "" {
		name = "unnamed"
	}
	o.vec.WithLabelValues(name).Observe(elapsed.Seconds())
}
