package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/scentadmin/internal/api"
	"github.com/JonMunkholm/scentadmin/internal/config"
	"github.com/JonMunkholm/scentadmin/internal/core"
	"github.com/JonMunkholm/scentadmin/internal/logging"
)

type rootOptions struct {
	APIURL   string
	Token    string
	EnvFile  string
	LogLevel string
}

// runtime is what a subcommand needs once flags and environment are read.
type runtime struct {
	cfg     *config.Config
	client  *api.Client
	service *core.Service
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:           "scentctl",
		Short:         "Export and import perfume catalog CSV files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.APIURL, "api-url", "", "backend base URL (default $API_BASE_URL)")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", "", "admin bearer token (default $API_TOKEN)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file to read if present")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "debug, info, warn or error (default $LOG_LEVEL)")

	cmd.AddCommand(newLoginCmd(&opts))
	cmd.AddCommand(newEntitiesCmd())
	cmd.AddCommand(newPlanCmd(&opts))
	cmd.AddCommand(newExportCmd(&opts))
	cmd.AddCommand(newImportCmd(&opts))
	return cmd
}

// lookup overlays flag values on the process environment.
func (o *rootOptions) lookup(key string) string {
	switch {
	case key == "API_BASE_URL" && o.APIURL != "":
		return o.APIURL
	case key == "API_TOKEN" && o.Token != "":
		return o.Token
	case key == "LOG_LEVEL" && o.LogLevel != "":
		return o.LogLevel
	}
	return os.Getenv(key)
}

// setup loads configuration, installs a stderr logger and builds the
// client and service. Commands that talk to the admin API need a token.
func (o *rootOptions) setup(cmd *cobra.Command, needToken bool) (*runtime, error) {
	if o.EnvFile != "" {
		if err := config.LoadDotEnv(o.EnvFile); err != nil {
			return nil, err
		}
	}

	cfg, err := config.LoadFrom(o.lookup)
	if err != nil {
		return nil, err
	}
	logging.Setup(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	if needToken && cfg.Backend.Token == "" {
		return nil, fmt.Errorf("no token: pass --token, set API_TOKEN or run scentctl login")
	}

	client, err := api.NewClient(cfg.Backend.BaseURL, api.StaticToken(cfg.Backend.Token), api.Options{
		Timeout:   cfg.Backend.Timeout,
		UserAgent: cfg.Backend.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	service := core.NewService(client, nil, core.Config{
		BatchSize:         cfg.Export.BatchSize,
		Delay:             cfg.Export.BatchDelay,
		DownloadTTL:       cfg.Export.DownloadTTL,
		MaxFileSize:       cfg.Import.MaxFileSize,
		MaxConcurrentJobs: cfg.Export.MaxConcurrent,
	})
	return &runtime{cfg: cfg, client: client, service: service}, nil
}

// Execute runs the CLI until it finishes or is interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorText(err))
		stop()
		os.Exit(1)
	}
}

// errorText prefixes the mapped user message and code to the raw error.
// Errors without a known mapping print as they are.
func errorText(err error) string {
	msg := core.MapError(err)
	if msg.Code == "ERR000" {
		return "error: " + err.Error()
	}
	text := fmt.Sprintf("error [%s]: %s", msg.Code, msg.Message)
	if msg.Action != "" {
		text += ". " + msg.Action
	}
	return text + "\n  " + err.Error()
}
