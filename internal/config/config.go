// Package config loads the server configuration from flags, environment
// variables and an optional YAML file, and validates it.
package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Schema    SchemaConfig    `mapstructure:"schema"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Addr               string        `mapstructure:"addr"`
	Timeout            time.Duration `mapstructure:"timeout"`
	Pretty             bool          `mapstructure:"pretty"`
	MaxBodyBytes       int64         `mapstructure:"max_body_bytes"`
	GraphiQL           bool          `mapstructure:"graphiql"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
	// ForwardHeaders lists request headers made available to resolvers.
	ForwardHeaders []string `mapstructure:"forward_headers"`
}

// SchemaConfig holds the execution options of the schema.
type SchemaConfig struct {
	Introspection  bool `mapstructure:"introspection"`
	Federation     bool `mapstructure:"federation"`
	QueryCacheSize int  `mapstructure:"query_cache_size"`
	MaxConcurrency int  `mapstructure:"max_concurrency"`
	// ApolloTracing adds resolver timings to every response.
	ApolloTracing bool `mapstructure:"apollo_tracing"`
}

// LogConfig holds logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export parameters.
type TelemetryConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	Metrics      bool   `mapstructure:"metrics"`
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var result *multierror.Error
	if c.Server.Addr == "" {
		result = multierror.Append(result, fmt.Errorf("server.addr must not be empty"))
	}
	if c.Server.Timeout < 0 {
		result = multierror.Append(result, fmt.Errorf("server.timeout must not be negative"))
	}
	if c.Server.MaxBodyBytes < 0 {
		result = multierror.Append(result, fmt.Errorf("server.max_body_bytes must not be negative"))
	}
	if c.Schema.QueryCacheSize < 0 {
		result = multierror.Append(result, fmt.Errorf("schema.query_cache_size must not be negative"))
	}
	if c.Schema.MaxConcurrency < 0 {
		result = multierror.Append(result, fmt.Errorf("schema.max_concurrency must not be negative"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		result = multierror.Append(result, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}
	if c.Telemetry.ServiceName == "" {
		result = multierror.Append(result, fmt.Errorf("telemetry.service_name must not be empty"))
	}
	return result.ErrorOrNil()
}
