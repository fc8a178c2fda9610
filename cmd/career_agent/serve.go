package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-transitions/internal/server"
	"github.com/jonathan/career-transitions/internal/server/ratelimit"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that answers questions on POST /answer and serves stored transitions
on GET /transitions. When a JWT secret is configured those endpoints require a bearer token;
GET /health is always public.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config, 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()
	if cfg.DirectoryURL == "" {
		logger.Warn("no directory URL configured, company questions will fail")
	}

	executor, err := a.executor(nil)
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}

	opts := server.Options{
		Port:        cfg.Port,
		Answerer:    executor,
		Transitions: a.store,
		RateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
		Logger:      logger,
		TopK:        cfg.TopK,
	}
	if cfg.AuthEnabled() {
		jwtConfig, err := cfg.JWT()
		if err != nil {
			return fmt.Errorf("invalid JWT config: %w", err)
		}
		opts.JWT = server.NewJWTService(jwtConfig)
	} else {
		logger.Warn("no JWT secret configured, query endpoints are unauthenticated")
	}

	srv, err := server.New(opts)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start(ctx)
}
