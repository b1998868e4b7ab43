package conf

import (
	"fmt"
	"net"

	"github.com/spirit-labs/tekagg/errors"
	"github.com/spirit-labs/tekagg/types"
)

const (
	DefaultMaxBatchRows      = 1024
	DefaultWindowRows        = 0
	DefaultRegistryCacheSize = 256
	DefaultMetricsEnabled    = false
	DefaultMetricsBind       = "localhost:9102"
	DefaultDebugDumpBatches  = false
)

type Config struct {
	// Maximum rows per batch when loading input into a table
	MaxBatchRows *int `name:"max-batch-rows" help:"Maximum number of rows in a batch loaded into a table."`
	// Mark a window boundary every WindowRows input rows, zero never marks one
	WindowRows        *int `name:"window-rows" help:"Tag end-of-window every N input rows. 0 disables."`
	RegistryCacheSize *int `name:"registry-cache-size" help:"Size of the aggregate function resolution cache."`

	MetricsEnabled *bool   `name:"metrics-enabled" help:"Serve Prometheus metrics."`
	MetricsBind    *string `name:"metrics-bind" help:"Bind address for Prometheus metrics." env:"METRICS_BIND"`

	DebugDumpBatches *bool `name:"debug-dump-batches" help:"Log every batch emitted by the aggregate at debug level."`
}

func (c *Config) ApplyDefaults() {
	if c.MaxBatchRows == nil {
		c.MaxBatchRows = types.AddressOf(DefaultMaxBatchRows)
	}
	if c.WindowRows == nil {
		c.WindowRows = types.AddressOf(DefaultWindowRows)
	}
	if c.RegistryCacheSize == nil {
		c.RegistryCacheSize = types.AddressOf(DefaultRegistryCacheSize)
	}
	if c.MetricsEnabled == nil {
		c.MetricsEnabled = types.AddressOf(DefaultMetricsEnabled)
	}
	if c.MetricsBind == nil {
		c.MetricsBind = types.AddressOf(DefaultMetricsBind)
	}
	if c.DebugDumpBatches == nil {
		c.DebugDumpBatches = types.AddressOf(DefaultDebugDumpBatches)
	}
}

func (c *Config) Validate() error {
	if c.MaxBatchRows != nil && *c.MaxBatchRows < 1 {
		return errors.NewInvalidConfigurationError("max-batch-rows must be > 0")
	}
	if c.WindowRows != nil && *c.WindowRows < 0 {
		return errors.NewInvalidConfigurationError("window-rows must be >= 0")
	}
	if c.RegistryCacheSize != nil && *c.RegistryCacheSize < 1 {
		return errors.NewInvalidConfigurationError("registry-cache-size must be > 0")
	}
	if c.MetricsEnabled != nil && *c.MetricsEnabled {
		if c.MetricsBind == nil || *c.MetricsBind == "" {
			return errors.NewInvalidConfigurationError("metrics-bind must be specified if metrics-enabled is true")
		}
		if _, _, err := net.SplitHostPort(*c.MetricsBind); err != nil {
			return errors.NewInvalidConfigurationError(fmt.Sprintf("metrics-bind '%s' is not a valid address", *c.MetricsBind))
		}
	}
	return nil
}
