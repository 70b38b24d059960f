package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	sdk "github.com/weatherengine/maritime/sdk/go"
)

// Version info (set by ldflags)
var version = "dev"

// cliOptions are the global flags shared by every subcommand
type cliOptions struct {
	server     string
	apiKey     string
	timeout    time.Duration
	jsonOutput bool
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		// Error already printed by cobra
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:   "weatherctl",
		Short: "Operator CLI for the maritime weather engine",
		Long: `weatherctl talks to a running weatherengine over its /v1 API.

  weatherctl alerts list [--filter high]   List alerts
  weatherctl alerts ack <id>               Acknowledge one alert
  weatherctl forecast [--city Mumbai]      Show the 10-day forecast
  weatherctl recommendations analyze ...   Re-run recommendations for conditions`,
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.server, "server", envOr("WEATHERENGINE_URL", "http://localhost:8080"), "weatherengine base URL")
	rootCmd.PersistentFlags().StringVar(&opts.apiKey, "api-key", os.Getenv("WEATHERENGINE_API_KEY"), "operator API key")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(
		newAlertsCmd(opts),
		newForecastCmd(opts),
		newRecommendationsCmd(opts),
		newKeysCmd(),
	)
	return rootCmd
}

func (o *cliOptions) client() *sdk.Client {
	c := sdk.New(o.server, o.apiKey)
	c.HTTP.Timeout = o.timeout
	return c
}

func (o *cliOptions) requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.timeout)
}

// printJSON writes v indented when --json is set and reports whether it did
func (o *cliOptions) printJSON(cmd *cobra.Command, v any) (bool, error) {
	if !o.jsonOutput {
		return false, nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return true, enc.Encode(v)
}

func parseIDArg(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", arg)
	}
	return id, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
