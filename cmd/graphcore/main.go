package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	otelapi "go.opentelemetry.io/otel"

	"github.com/hanpama/graphcore/internal/catalog"
	"github.com/hanpama/graphcore/internal/config"
	"github.com/hanpama/graphcore/internal/eventbus"
	"github.com/hanpama/graphcore/internal/extensions"
	"github.com/hanpama/graphcore/internal/logging"
	"github.com/hanpama/graphcore/internal/otel"
	"github.com/hanpama/graphcore/internal/schema"
	"github.com/hanpama/graphcore/internal/server"
)

const rootUsage = `graphcore: GraphQL server runtime

USAGE:
  graphcore <command> [flags]

COMMANDS:
  serve            Serve the catalog schema over HTTP
  sdl              Print the catalog schema SDL
  help             Show help for any command
`

const sdlUsage = `sdl FLAGS:
  --federation     Print the federation service SDL with @key directives
`

// shutdownTimeout bounds the graceful shutdown of the HTTP server.
const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "graphcore:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd, cmdArgs := args[0], args[1:]
	switch cmd {
	case "serve":
		return cmdServe(ctx, cmdArgs, stderr)
	case "sdl":
		return cmdSDL(cmdArgs, stdout, stderr)
	case "help", "-h", "--help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func serveFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	config.DefineFlags(fs)
	return fs
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Fprintf(stdout, "serve FLAGS:\n%s\nEvery flag can also be set with a %s_ environment variable, e.g. %s_SERVER_ADDR.\n",
			serveFlags().FlagUsages(), config.EnvPrefix, config.EnvPrefix)
	case "sdl":
		fmt.Fprint(stdout, sdlUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

func cmdSDL(args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("sdl", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	federation := fs.Bool("federation", false, "Print the federation service SDL")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, sdlUsage)
		return err
	}
	s, err := catalog.New(catalog.NewStore(), catalog.NewBroker(), schemaOptions(config.SchemaConfig{Introspection: true, Federation: *federation})...)
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}
	_, err = fmt.Fprint(stdout, s.SDL(*federation))
	return err
}

func cmdServe(ctx context.Context, args []string, stderr io.Writer) error {
	cfg, err := config.Load(serveFlags(), args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return cmdHelp([]string{"serve"}, stderr)
		}
		return err
	}

	bus := eventbus.New()
	eventbus.Use(bus)
	defer eventbus.Use(nil)

	tel, err := otel.Setup(ctx, otel.Config{
		ServiceName:  cfg.Telemetry.ServiceName,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		Insecure:     cfg.Telemetry.OTLPInsecure,
		Metrics:      cfg.Telemetry.Metrics,
	}, bus)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(sctx); err != nil {
			fmt.Fprintln(stderr, "telemetry shutdown:", err)
		}
	}()

	logger := logging.NewLogger(logging.Config{
		Level:          cfg.Log.Level,
		Format:         cfg.Log.Format,
		LoggerProvider: tel.LoggerProvider(),
		Output:         stderr,
	})
	slog.SetDefault(logger.Logger)

	handler, err := newHandler(cfg, logger, tel.MetricsHandler())
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("GraphQL server listening", "addr", cfg.Server.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	}
}

// newHandler builds the catalog schema and the HTTP routes serving it.
// metrics may be nil.
func newHandler(cfg *config.Config, logger *logging.Logger, metrics http.Handler) (http.Handler, error) {
	opts := schemaOptions(cfg.Schema)
	opts = append(opts,
		schema.WithExtension(extensions.NewLogger),
		schema.WithExtension(extensions.NewTracing(otelapi.Tracer("graphcore"))),
	)
	if metrics != nil {
		rec, err := extensions.NewMetricsRecorder(otelapi.Meter("graphcore"))
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		opts = append(opts, schema.WithExtension(rec.Factory()))
	}
	if cfg.Schema.ApolloTracing {
		opts = append(opts, schema.WithExtension(extensions.NewApolloTracing))
	}

	s, err := catalog.New(catalog.NewStore(), catalog.NewBroker(), opts...)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}

	sopts := []server.Option{
		server.WithTimeout(cfg.Server.Timeout),
		server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		server.WithGraphiQL(cfg.Server.GraphiQL),
		server.WithLogger(logger),
	}
	if cfg.Server.Pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(cfg.Server.CORSAllowedOrigins...))
	}
	if len(cfg.Server.ForwardHeaders) > 0 {
		sopts = append(sopts, server.WithForwardHeaders(cfg.Server.ForwardHeaders...))
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", otelhttp.NewHandler(server.New(s, sopts...), "graphql"))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok\n")
	})
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	return mux, nil
}

func schemaOptions(cfg config.SchemaConfig) []schema.Option {
	opts := []schema.Option{
		schema.WithQueryCacheSize(cfg.QueryCacheSize),
		schema.WithMaxConcurrency(cfg.MaxConcurrency),
	}
	if !cfg.Introspection {
		opts = append(opts, schema.WithoutIntrospection())
	}
	if cfg.Federation {
		opts = append(opts, schema.WithFederation())
	}
	return opts
}
