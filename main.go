package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/felixbrock/careerprep/internal/app"
	"github.com/felixbrock/careerprep/internal/persistence"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:          "careerprep",
	Short:        "Career Prep AI Agent",
	Long:         "Career Prep AI Agent collects a target role, experience and career goal and shows resume feedback, interview questions and a learning roadmap from the guidance service.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output")
}

// config reads the environment. Flags override these values.
func config() app.Config {
	port := os.Getenv("GOPORT")
	if port == "" {
		port = "8000"
	}

	rps := 5.0
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			slog.Error("RATE_LIMIT_RPS is not a number, using default", slog.String("value", v))
		} else {
			rps = parsed
		}
	}

	burst := 10
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			slog.Error("RATE_LIMIT_BURST is not an integer, using default", slog.String("value", v))
		} else {
			burst = parsed
		}
	}

	ttl := 30 * time.Minute
	if v := os.Getenv("SESSION_TTL"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			slog.Error("SESSION_TTL is not a duration, using default", slog.String("value", v))
		} else {
			ttl = parsed
		}
	}

	return app.Config{
		Port:       port,
		APIURL:     os.Getenv("API_URL"),
		RateLimit:  rps,
		RateBurst:  burst,
		SessionTTL: ttl,
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newRepo(cfg app.Config) persistence.GuidanceRepo {
	return persistence.GuidanceRepo{BaseUrl: cfg.APIURL}
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
