package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables read by Load, e.g.
// GRAPHCORE_SERVER_ADDR for server.addr.
const EnvPrefix = "GRAPHCORE"

// DefineFlags adds the configuration flags to fs. Flag names are the
// canonical dotted keys.
func DefineFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "Config file path")

	fs.String("server.addr", "", "HTTP listen address")
	fs.Duration("server.timeout", 0, "Per-request timeout")
	fs.Bool("server.pretty", false, "Pretty-print JSON responses")
	fs.Int64("server.max_body_bytes", 0, "Maximum request body size in bytes")
	fs.Bool("server.graphiql", false, "Serve the GraphiQL IDE")
	fs.StringSlice("server.cors_allowed_origins", nil, "Allowed CORS origins (comma-separated or repeated)")
	fs.StringSlice("server.forward_headers", nil, "Request headers forwarded to resolvers (comma-separated or repeated)")

	fs.Bool("schema.introspection", false, "Enable GraphQL introspection")
	fs.Bool("schema.federation", false, "Enable federation support")
	fs.Int("schema.query_cache_size", 0, "Number of parsed queries to cache (0 disables)")
	fs.Int("schema.max_concurrency", 0, "Maximum concurrent resolvers per selection set (0 is unlimited)")
	fs.Bool("schema.apollo_tracing", false, "Add Apollo tracing timings to responses")

	fs.String("log.level", "", "Log level (debug, info, warn, error)")
	fs.String("log.format", "", "Log format (text, json)")

	fs.String("telemetry.service_name", "", "Service name for telemetry")
	fs.String("telemetry.otlp_endpoint", "", "OTLP gRPC collector endpoint for traces and logs")
	fs.Bool("telemetry.otlp_insecure", false, "Dial the OTLP collector without TLS")
	fs.Bool("telemetry.metrics", false, "Expose Prometheus metrics on /metrics")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.timeout", 10*time.Second)
	v.SetDefault("server.pretty", false)
	v.SetDefault("server.max_body_bytes", int64(1<<20))
	v.SetDefault("server.graphiql", true)
	v.SetDefault("server.cors_allowed_origins", []string{})
	v.SetDefault("server.forward_headers", []string{})

	v.SetDefault("schema.introspection", true)
	v.SetDefault("schema.federation", false)
	v.SetDefault("schema.query_cache_size", 1000)
	v.SetDefault("schema.max_concurrency", 0)
	v.SetDefault("schema.apollo_tracing", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("telemetry.service_name", "graphcore")
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_insecure", false)
	v.SetDefault("telemetry.metrics", false)
}

// Load parses args with fs, which must carry DefineFlags, and loads the
// configuration with the following precedence:
//  1. Command line flags
//  2. Environment variables
//  3. Config file
//  4. Default values
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfgPath, _ := fs.GetString("config")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.SetConfigName("graphcore")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/graphcore/")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	bindChangedFlags(v, fs)

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// bindChangedFlags sets the flags given on the command line, so that flags
// left at their zero value do not shadow env and file settings.
func bindChangedFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.Visit(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		switch f.Value.Type() {
		case "bool":
			val, _ := fs.GetBool(f.Name)
			v.Set(f.Name, val)
		case "int":
			val, _ := fs.GetInt(f.Name)
			v.Set(f.Name, val)
		case "int64":
			val, _ := fs.GetInt64(f.Name)
			v.Set(f.Name, val)
		case "duration":
			val, _ := fs.GetDuration(f.Name)
			v.Set(f.Name, val)
		case "stringSlice":
			val, _ := fs.GetStringSlice(f.Name)
			v.Set(f.Name, val)
		default:
			v.Set(f.Name, f.Value.String())
		}
	})
}
