package pushhub

import "github.com/quantflow/pushhub/types"

// Option configures a Manager with optional dependencies.
type Option func(*managerOptions)

// managerOptions holds optional Manager configuration.
type managerOptions struct {
	logger  types.Logger
	metrics types.MetricsCollector
	sources []types.ChangeSource
}

// WithLogger sets a logger.
//
// Example:
//
//	mgr, err := pushhub.NewManager(&cfg, engine, pushhub.WithLogger(myLogger))
func WithLogger(logger types.Logger) Option {
	return func(o *managerOptions) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics collector.
//
// Example:
//
//	collector := metrics.NewPrometheus(nil, "pushhub")
//	mgr, err := pushhub.NewManager(&cfg, engine, pushhub.WithMetrics(collector))
func WithMetrics(metrics types.MetricsCollector) Option {
	return func(o *managerOptions) {
		o.metrics = metrics
	}
}

// WithChangeSources sets the external change sources every session is
// registered against at handshake and unregistered from at teardown.
//
// Example:
//
//	feed := changefeed.NewNATS(nc, "", logger)
//	mgr, err := pushhub.NewManager(&cfg, engine, pushhub.WithChangeSources(feed))
func WithChangeSources(sources ...types.ChangeSource) Option {
	return func(o *managerOptions) {
		o.sources = append(o.sources, sources...)
	}
}
