package main

import (
	"fmt"
	"log/slog"

	"github.com/felixbrock/careerprep/internal/app"
	"github.com/spf13/cobra"
)

var (
	servePort        string
	serveAPIURL      string
	serveRateLimit   float64
	serveRateBurst   int
	serveStalePolicy string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the career prep form",
	Long:  `Start the web app that renders the form and forwards submissions to <api-url>/generate.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default $GOPORT or 8000)")
	serveCmd.Flags().StringVar(&serveAPIURL, "api-url", "", "Base URL of the guidance service (default $API_URL)")
	serveCmd.Flags().Float64Var(&serveRateLimit, "rate-limit", -1, "Requests per second per client, 0 disables (default $RATE_LIMIT_RPS or 5)")
	serveCmd.Flags().IntVar(&serveRateBurst, "rate-burst", -1, "Burst per client (default $RATE_LIMIT_BURST or 10)")
	serveCmd.Flags().StringVar(&serveStalePolicy, "stale-policy", "last-completed", "How overlapping submissions settle: last-completed or latest-issued")
	rootCmd.AddCommand(serveCmd)
}

func serveConfig() (app.Config, error) {
	cfg := config()

	if servePort != "" {
		cfg.Port = servePort
	}
	if serveAPIURL != "" {
		cfg.APIURL = serveAPIURL
	}
	if serveRateLimit >= 0 {
		cfg.RateLimit = serveRateLimit
	}
	if serveRateBurst >= 0 {
		cfg.RateBurst = serveRateBurst
	}

	policy, err := app.ParseStalePolicy(serveStalePolicy)
	if err != nil {
		return app.Config{}, err
	}
	cfg.StalePolicy = policy

	if err := cfg.Validate(); err != nil {
		return app.Config{}, err
	}

	return cfg, nil
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := serveConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger()
	slog.SetDefault(logger)

	a := app.New(cfg, newRepo(cfg), logger)

	return a.Start()
}
