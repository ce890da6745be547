package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shelfside/bookrun/internal/cache"
	httpiface "github.com/shelfside/bookrun/internal/interfaces/http"
	"github.com/shelfside/bookrun/internal/persistence"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the evaluation HTTP service",
		Long: `Starts the HTTP service: POST /v1/evaluate runs the pipeline,
GET /v1/stream pushes finished evaluations over a websocket, and /health
and /metrics serve operations. Redis caching and PostgreSQL history are
enabled when their flags are set.`,
		RunE: runServe,
	}

	cmd.Flags().String("host", "127.0.0.1", "Listen host")
	cmd.Flags().Int("port", 8090, "Listen port")
	cmd.Flags().String("redis", "", "Redis address for the evaluation cache (empty disables)")
	cmd.Flags().String("dsn", "", "PostgreSQL DSN for evaluation history (empty disables)")
	cmd.Flags().Float64("rate-limit", 50, "Requests per second (0 disables throttling)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")
	redisAddr, _ := cmd.Flags().GetString("redis")
	dsn, _ := cmd.Flags().GetString("dsn")
	rateLimit, _ := cmd.Flags().GetFloat64("rate-limit")
	configDir, _ := cmd.Flags().GetString("config")

	evaluator, err := buildEvaluator(configDir)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	var evalCache *cache.EvalCache
	if redisAddr != "" {
		cfg := cache.DefaultConfig()
		cfg.Addr = redisAddr
		if evalCache, err = cache.New(ctx, cfg); err != nil {
			return err
		}
		log.Info().Str("addr", redisAddr).Msg("evaluation cache enabled")
	}

	var store *persistence.Store
	if dsn != "" {
		cfg := persistence.DefaultConfig()
		cfg.DSN = dsn
		if store, err = persistence.Open(ctx, cfg); err != nil {
			return err
		}
		defer store.Close()
		log.Info().Msg("evaluation history enabled")
	}

	serverCfg := httpiface.DefaultServerConfig()
	serverCfg.Host = host
	serverCfg.Port = port
	serverCfg.RateLimit = rateLimit

	handlers := httpiface.NewHandlers(evaluator, evalCache, store)
	server, err := httpiface.NewServer(serverCfg, handlers)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
