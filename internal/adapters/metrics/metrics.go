// Package metrics collects prometheus counters for registry and download activity.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.trai.ch/modman/internal/core/domain"
	"go.trai.ch/modman/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Metrics = (*Prometheus)(nil)

// Config configures the Prometheus metrics adapter.
type Config struct {
	// Namespace is the metrics namespace (default: "modman").
	Namespace string

	// Buckets are the histogram buckets for request and download durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// OutputPath is the node-exporter textfile written by Flush. Empty disables the export.
	OutputPath string
}

// Option configures the Prometheus metrics adapter.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithOutputPath sets the textfile written by Flush.
func WithOutputPath(path string) Option {
	return func(c *Config) {
		c.OutputPath = path
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "modman",
		Buckets:   prometheus.DefBuckets,
	}
}

// Prometheus implements ports.Metrics on a private prometheus registry.
type Prometheus struct {
	registry *prometheus.Registry

	mu         sync.Mutex
	outputPath string

	registryRequests *prometheus.CounterVec
	registryDuration *prometheus.HistogramVec
	downloads        *prometheus.CounterVec
	downloadBytes    prometheus.Counter
	downloadDuration prometheus.Histogram
	reconcileItems   *prometheus.GaugeVec
}

// New creates a new Prometheus metrics adapter.
func New(opts ...Option) *Prometheus {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Prometheus{
		registry:   registry,
		outputPath: cfg.OutputPath,

		registryRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "registry_requests_total",
			Help:      "Total number of registry API requests by endpoint and status",
		}, []string{"endpoint", "status"}),

		registryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "registry_request_duration_seconds",
			Help:      "Registry API request duration in seconds",
			Buckets:   cfg.Buckets,
		}, []string{"endpoint"}),

		downloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "downloads_total",
			Help:      "Total number of artifact downloads by outcome",
		}, []string{"status"}),

		downloadBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "download_bytes_total",
			Help:      "Total number of artifact bytes received",
		}),

		downloadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "download_duration_seconds",
			Help:      "Artifact download duration in seconds",
			Buckets:   cfg.Buckets,
		}),

		reconcileItems: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "reconcile_items",
			Help:      "Number of items in the last reconcile report by category",
		}, []string{"category"}),
	}
}

// Registry returns the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// SetOutputPath changes the textfile written by Flush.
func (p *Prometheus) SetOutputPath(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outputPath = path
}

// ObserveRegistryRequest records one registry call.
func (p *Prometheus) ObserveRegistryRequest(endpoint string, status int, elapsed time.Duration) {
	p.registryRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	p.registryDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveDownload records one finished download.
func (p *Prometheus) ObserveDownload(outcome domain.DownloadOutcome, bytes int64, elapsed time.Duration) {
	p.downloads.WithLabelValues(outcome.Status.String()).Inc()
	if bytes > 0 {
		p.downloadBytes.Add(float64(bytes))
	}
	p.downloadDuration.Observe(elapsed.Seconds())
}

// ObserveReconcile records the size of each category of a reconcile report.
func (p *Prometheus) ObserveReconcile(report *domain.ReconcileReport) {
	if report == nil {
		return
	}
	p.reconcileItems.WithLabelValues("missing_dependencies").Set(float64(len(report.MissingDependencies)))
	p.reconcileItems.WithLabelValues("new_mods").Set(float64(len(report.NewMods)))
	p.reconcileItems.WithLabelValues("reinstall_bad_checksum").Set(float64(len(report.ReinstallBadChecksum)))
	p.reconcileItems.WithLabelValues("adopted").Set(float64(len(report.Adopted)))
	p.reconcileItems.WithLabelValues("localized").Set(float64(len(report.Localized)))
	p.reconcileItems.WithLabelValues("pruned").Set(float64(len(report.Pruned)))
	p.reconcileItems.WithLabelValues("unidentified").Set(float64(len(report.Unidentified)))
}

// Flush writes the registry in text exposition format when an output path is set.
func (p *Prometheus) Flush() error {
	p.mu.Lock()
	path := p.outputPath
	p.mu.Unlock()

	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, p.registry); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write metrics file"), "path", path)
	}
	return nil
}
