package dbow

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/dbow/internal/fs"
	"github.com/hupe1980/dbow/persistence"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	directIndex      bool
	directLevels     int
	compression      persistence.Compression
	fileSystem       fs.FileSystem
	concurrency      int
}

// Option configures Vocabulary and Database constructor/load behavior.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &dbow.BasicMetricsCollector{}
//	db, _ := dbow.NewDatabase(voc, dbow.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Queries: %d, Avg latency: %dns\n", stats.QueryCount, stats.QueryAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := dbow.NewJSONLogger(slog.LevelInfo)
//	voc, _ := dbow.Create(ctx, corpus, cfg, dbow.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithDirectIndex enables the direct index of a Database. For every
// document it records, per vocabulary node levelsUp levels above the
// leaves, which descriptors passed through that node. levelsUp is clamped
// to [0, DepthLevels]. Only NewDatabase honors this option; a loaded
// database keeps the setting it was saved with.
func WithDirectIndex(levelsUp int) Option {
	return func(o *options) {
		o.directIndex = true
		o.directLevels = levelsUp
	}
}

// WithCompression selects the payload compression used when saving.
// Defaults to persistence.DefaultCompression (zstd).
func WithCompression(c persistence.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithFileSystem sets the file system used by the *File save and load
// variants. Defaults to the local file system.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys == nil {
			fsys = fs.Default
		}
		o.fileSystem = fsys
	}
}

// WithConcurrency bounds the number of goroutines used by Database.AddBatch.
// Values below 1 select runtime.GOMAXPROCS(0).
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

func defaultOptions() options {
	return options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		compression:      persistence.DefaultCompression,
		fileSystem:       fs.Default,
		concurrency:      runtime.GOMAXPROCS(0),
	}
}

func applyOptions(optFns []Option) options {
	o := defaultOptions()
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.concurrency < 1 {
		o.concurrency = runtime.GOMAXPROCS(0)
	}
	return o
}

// withDefaults substitutes defaults for the zero options of a Vocabulary or
// Database that was declared rather than constructed.
func (o options) withDefaults() options {
	if o.logger == nil {
		return defaultOptions()
	}
	return o
}
