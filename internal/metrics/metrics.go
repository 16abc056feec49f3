package metrics

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/srediag/shmbridge/pkg/datum"
)

const namespace = "shmbridge"

// Metrics holds the prometheus collectors for shared memory transfers.
// It implements datum.Recorder.
type Metrics struct {
	transfers *prometheus.CounterVec
	bytes     *prometheus.CounterVec
	failures  *prometheus.CounterVec
	regions   prometheus.GaugeFunc
}

var _ datum.Recorder = (*Metrics)(nil)

// New creates the collectors and registers them on reg. tracked, when not
// nil, reports the number of regions currently held.
func New(reg prometheus.Registerer, tracked func() int) (*Metrics, error) {
	m := &Metrics{
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Values moved through shared memory.",
		}, []string{"direction", "kind"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_bytes_total",
			Help:      "Payload bytes moved through shared memory.",
		}, []string{"direction", "kind"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_failures_total",
			Help:      "Reads the region manager could not serve and writes it could not place.",
		}, []string{"direction", "kind"}),
	}
	collectors := []prometheus.Collector{m.transfers, m.bytes, m.failures}
	if tracked != nil {
		m.regions = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "regions",
			Help:      "Shared memory regions currently tracked.",
		}, func() float64 { return float64(tracked()) })
		collectors = append(collectors, m.regions)
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveTransfer(direction string, kind datum.Kind, size int) {
	m.transfers.WithLabelValues(direction, kind.String()).Inc()
	m.bytes.WithLabelValues(direction, kind.String()).Add(float64(size))
}

func (m *Metrics) ObserveFailure(direction string, kind datum.Kind) {
	m.failures.WithLabelValues(direction, kind.String()).Inc()
}

// RegisterFreeSpace registers a shmbridge_dir_free_bytes gauge per directory,
// read through free on every scrape. A directory free cannot stat reports NaN.
func RegisterFreeSpace(reg prometheus.Registerer, dirs []string, free func(dir string) (uint64, error)) error {
	seen := make(map[string]bool, len(dirs))
	for _, dir := range dirs {
		if seen[dir] {
			continue
		}
		seen[dir] = true
		dir := dir
		g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "dir_free_bytes",
			Help:        "Free bytes on the filesystem holding a region directory.",
			ConstLabels: prometheus.Labels{"dir": dir},
		}, func() float64 {
			n, err := free(dir)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		})
		if err := reg.Register(g); err != nil {
			return err
		}
	}
	return nil
}
