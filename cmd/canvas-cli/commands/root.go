package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"canvas-access/cmd/canvas-cli/globals"
	"canvas-access/internal/canvas"
	"canvas-access/internal/components/configutil"
	"canvas-access/internal/components/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath        *string
	verbose           *bool
	baseUrl           *string
	apiKey            *string
	timezone          *string
	requestsPerSecond *float64
)

// shutdown flushes the telemetry exporters once the command has run.
var shutdown []func(context.Context) error

func init() {
	flags := rootCmd.PersistentFlags()
	configPath = flags.String("config", "canvas.json5", "The configuration file, searched for in parent directories when not found.")
	verbose = flags.BoolP("verbose", "v", false, "Print debug logs.")
	baseUrl = flags.String("base-url", "", "The base url of the Canvas instance (ex. https://school.instructure.com).")
	apiKey = flags.String("api-key", "", "The Canvas API access token.")
	timezone = flags.String("timezone", "", "The IANA timezone dates are displayed in (ex. America/Los_Angeles).")
	requestsPerSecond = flags.Float64("rps", 0, "The maximum number of requests per second sent to Canvas, 0 is unlimited.")
}

var rootCmd = &cobra.Command{
	Use:   "canvas-cli",
	Short: "canvas-cli is a CLI for browsing a Canvas LMS instance and building gradebooks.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(os.Stderr, *verbose)

		config, err := readConfig(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		shutdownTracing, err := telemetry.SetupTracing(ctx, "canvas-cli", config.Otlp)
		if err != nil {
			return fmt.Errorf("setup tracing: %w", err)
		}
		shutdownMetrics, err := telemetry.SetupMetrics(ctx, "canvas-cli", config.Otlp)
		if err != nil {
			return fmt.Errorf("setup metrics: %w", err)
		}
		shutdown = append(shutdown, shutdownTracing, shutdownMetrics)

		var tel telemetry.API = telemetry.SlogAPI{}
		if config.Otlp.Enabled() {
			tel = telemetry.NewMeteredAPI(tel, "canvas-cli")
		}

		value := &globals.Value{Config: config, Tel: tel}
		if config.BaseUrl != "" && config.ApiKey != "" {
			value.Session, err = canvas.NewSession(canvas.Options{
				BaseUrl:           config.BaseUrl,
				ApiKey:            config.ApiKey,
				Timezone:          config.Timezone,
				RequestsPerSecond: config.RequestsPerSecond,
				Timeout:           time.Minute,
				Tel:               tel,
			})
			if err != nil {
				return err
			}
		}
		cmd.SetContext(globals.Set(ctx, value))
		return nil
	},
}

// readConfig reads the configuration file and applies the flags that were given on top
// of it. A missing configuration file is not an error.
func readConfig(cmd *cobra.Command) (globals.Config, error) {
	var config globals.Config
	var err error
	if cmd.Flags().Changed("config") {
		config, err = configutil.ReadConfig[globals.Config](*configPath)
	} else {
		config, err = configutil.ReadRecursively[globals.Config](*configPath)
	}
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no configuration file found", "name", *configPath)
	} else if err != nil {
		return config, fmt.Errorf("read config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		config.BaseUrl = *baseUrl
	}
	if flags.Changed("api-key") {
		config.ApiKey = *apiKey
	}
	if flags.Changed("timezone") {
		config.Timezone = *timezone
	}
	if flags.Changed("rps") {
		config.RequestsPerSecond = *requestsPerSecond
	}
	return config, nil
}

func ExecuteContext(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)

	for _, fn := range shutdown {
		shutdownErr := fn(context.Background())
		if shutdownErr != nil {
			slog.Warn("failed to shutdown telemetry", "err", shutdownErr)
		}
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
