package groupstream

import "github.com/arloliu/groupstream/types"

// Option configures a group-by operator with optional dependencies.
type Option func(*operatorOptions)

// operatorOptions holds optional operator configuration.
type operatorOptions struct {
	config  Config
	logger  types.Logger
	metrics types.MetricsCollector
}

// WithConfig sets the operator configuration.
//
// Missing fields are filled with defaults; invalid values make the
// constructor return an error wrapping ErrInvalidConfig.
//
// Parameters:
//   - cfg: Operator configuration
//
// Returns:
//   - Option: Functional option for GroupBy / GroupByValues
//
// Example:
//
//	op, err := groupstream.GroupBy(src, keyFn,
//	    groupstream.WithConfig(groupstream.Config{Prefetch: 64}))
func WithConfig(cfg Config) Option {
	return func(o *operatorOptions) {
		o.config = cfg
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with zap.SugaredLogger)
//
// Returns:
//   - Option: Functional option for GroupBy / GroupByValues
//
// Example:
//
//	logger := logging.NewSlogDefault()
//	op, err := groupstream.GroupBy(src, keyFn, groupstream.WithLogger(logger))
func WithLogger(logger types.Logger) Option {
	return func(o *operatorOptions) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for GroupBy / GroupByValues
func WithMetrics(metrics types.MetricsCollector) Option {
	return func(o *operatorOptions) {
		o.metrics = metrics
	}
}
