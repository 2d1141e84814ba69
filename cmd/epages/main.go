package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"epages-rest-layer/internal/application"
	"epages-rest-layer/internal/domain"
	"epages-rest-layer/internal/infrastructure/cache"
	"epages-rest-layer/internal/infrastructure/config"
	"epages-rest-layer/internal/infrastructure/logging"
	"epages-rest-layer/internal/infrastructure/rest"
	"epages-rest-layer/internal/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	rootCmd = &cobra.Command{
		Use:           "epages",
		Short:         "Command line client for the ePages REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	configFile *string
	envFile    *string
	logLevel   *string
	logSink    *string
	output     *string
	metrics    *bool

	store    = config.NewStore()
	registry = prometheus.NewRegistry()
	logger   = zerolog.Nop()
	closer   io.Closer
)

func init() {
	configFile = rootCmd.PersistentFlags().StringP("config", "c", "", "YAML configuration file")
	envFile = rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file with EPAGES_* variables")
	logLevel = rootCmd.PersistentFlags().String("log-level", "", "NOTIFICATION, WARNING, ERROR or NONE")
	logSink = rootCmd.PersistentFlags().String("log-sink", "", `"screen" or a log file path`)
	output = rootCmd.PersistentFlags().StringP("output", "o", "json", "Output format: json or yaml")
	metrics = rootCmd.PersistentFlags().Bool("metrics", false, "Print request metrics to stderr when done")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnv(store, *envFile); err != nil {
			return err
		}
		if *configFile != "" {
			if err := config.LoadFile(store, *configFile); err != nil {
				return err
			}
		}
		overrides := map[string]any{}
		if *logLevel != "" {
			overrides[config.KeyLogLevel] = *logLevel
		}
		if *logSink != "" {
			overrides[config.KeyLogSink] = *logSink
		}
		if len(overrides) > 0 {
			store.Extend(overrides, config.ModuleClient)
		}

		settings := store.Get(config.ModuleClient)
		level, _ := settings[config.KeyLogLevel].(string)
		sink, _ := settings[config.KeyLogSink].(string)
		l, c, err := logging.New(level, sink)
		if err != nil {
			return err
		}
		logger, closer = l, c
		return nil
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if *metrics {
			if err := dumpMetrics(os.Stderr); err != nil {
				return err
			}
		}
		if closer != nil {
			return closer.Close()
		}
		return nil
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// shopClient is what the resource commands work with.
type shopClient struct {
	client     *rest.Client
	cacheOpts  application.CacheOptions
	perPage    int
	closeStore func() error
}

// connect builds a connected client from the loaded configuration.
func connect(ctx context.Context) (*shopClient, error) {
	cfg, err := config.ClientConfigFrom(store)
	if err != nil {
		return nil, err
	}
	conn, err := config.ConnectorConfigFrom(store)
	if err != nil {
		return nil, err
	}

	session := domain.NewSession()
	var ok bool
	if cfg.Token == "" {
		ok = session.ConnectAnonymous(cfg.Host, cfg.Shop, cfg.TLS)
	} else {
		ok = session.Connect(cfg.Host, cfg.Shop, cfg.Token, cfg.TLS)
	}
	if !ok {
		if err := session.LastError(); err != nil {
			return nil, err
		}
		return nil, domain.NewError(domain.KindValidation, "connect", domain.ErrNotConnected)
	}
	logging.Force(logger.With().Str("shop", cfg.Shop).Str("host", cfg.Host).Logger(), "Connected")

	client := rest.NewClientWithOptions(session, rest.Options{
		Timeout:        cfg.Timeout,
		ConnectTimeout: cfg.ConnectTimeout,
		UserAgent:      cfg.UserAgent,
		RateLimiter:    rest.NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		Metrics:        clientMetrics(),
	}, logger)

	snapshots, closeStore, err := snapshotStore(ctx, conn)
	if err != nil {
		return nil, err
	}
	return &shopClient{
		client: client,
		cacheOpts: application.CacheOptions{
			Store:     snapshots,
			Wait:      conn.CacheWait,
			Namespace: cfg.Shop,
		},
		perPage:    conn.ResultsPerPage,
		closeStore: closeStore,
	}, nil
}

func snapshotStore(ctx context.Context, conn config.ConnectorConfig) (ports.SnapshotStore, func() error, error) {
	if conn.RedisAddr == "" {
		return cache.NewMemoryStore(), func() error { return nil }, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rs, err := cache.NewRedisStoreFromAddr(ctx, conn.RedisAddr, conn.RedisPassword, conn.RedisDB, logger)
	if err != nil {
		return nil, nil, err
	}
	return rs, rs.Close, nil
}

func (s *shopClient) Close() {
	if err := s.closeStore(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close snapshot store")
	}
}

// printResult writes v to stdout in the selected output format.
func printResult(v any) error {
	switch *output {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		// Through JSON so that raw passthrough attributes and decimals render
		// as values.
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(generic)
	default:
		return fmt.Errorf("unknown output format %q", *output)
	}
}

var (
	metricsOnce sync.Once
	metricsVal  *rest.Metrics
)

func clientMetrics() *rest.Metrics {
	metricsOnce.Do(func() { metricsVal = rest.NewMetrics(registry) })
	return metricsVal
}

// dumpMetrics writes one line per request counter series.
func dumpMetrics(w io.Writer) error {
	families, err := registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := ""
			for _, l := range m.GetLabel() {
				labels += fmt.Sprintf(" %s=%s", l.GetName(), l.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(w, "%s%s %g\n", mf.GetName(), labels, m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				fmt.Fprintf(w, "%s%s count=%d sum=%.3fs\n", mf.GetName(), labels, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
	return nil
}
