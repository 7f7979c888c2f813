package main

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/sharepoint-go/internal/config"
	"github.com/tonimelisma/sharepoint-go/internal/logging"
	"github.com/tonimelisma/sharepoint-go/pkg/sharepoint"
)

// version is set at build time via ldflags.
var version = "dev"

// dialKeepAlive is the TCP keep-alive period for transfer connections.
const dialKeepAlive = 30 * time.Second

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagEnvFile    string
	flagLogFile    string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// resolvedCfg holds the effective configuration loaded by PersistentPreRunE.
var resolvedCfg *config.Config

// newClient builds the API client for a command. Tests replace it to point
// at a fake server.
var newClient = defaultNewClient

// skipConfigCommands lists commands that never talk to the API.
var skipConfigCommands = map[string]bool{
	"sharepoint-go share-token": true,
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sharepoint-go",
		Short:   "SharePoint document library client",
		Long:    "Browse SharePoint sites and drives, and upload or download documents through Microsoft Graph.",
		Version: version,
		// Errors are printed by main.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipConfigCommands[cmd.CommandPath()] {
				return nil
			}

			return loadConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path (.yaml, .yml or .toml)")
	cmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "dotenv file with SHAREPOINT_* variables")
	cmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "also write JSON logs to this file")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "only log errors and suppress status output")

	cmd.AddCommand(newSitesCmd())
	cmd.AddCommand(newSiteCmd())
	cmd.AddCommand(newDrivesCmd())
	cmd.AddCommand(newLsCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newPutCmd())
	cmd.AddCommand(newShareTokenCmd())

	return cmd
}

// loadConfig resolves the effective configuration and stores it in
// resolvedCfg. --verbose and --quiet map onto the log level so they win
// over every other layer.
func loadConfig() error {
	o := config.Overrides{
		ConfigPath: flagConfigPath,
		EnvFile:    flagEnvFile,
		LogFile:    flagLogFile,
	}

	if flagVerbose {
		o.LogLevel = "debug"
	}

	if flagQuiet {
		o.LogLevel = "error"
	}

	cfg, err := config.Resolve(o)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	resolvedCfg = cfg

	return nil
}

// buildLogger creates the process logger from the resolved config. Without
// a config (share-token) only the CLI flags apply.
func buildLogger() (*slog.Logger, io.Closer) {
	opts := logging.Options{Level: slog.LevelInfo}

	if resolvedCfg != nil {
		if level, err := logging.ParseLevel(resolvedCfg.LogLevel); err == nil {
			opts.Level = level
		}

		opts.File = resolvedCfg.LogFile
		opts.JSON = resolvedCfg.LogFormat == "json"
		opts.MaxSizeMB = resolvedCfg.LogMaxSizeMB
		opts.MaxBackups = resolvedCfg.LogMaxBackups
		opts.MaxAgeDays = resolvedCfg.LogRetentionDays
	}

	if flagVerbose {
		opts.Level = slog.LevelDebug
	}

	if flagQuiet {
		opts.Level = slog.LevelError
	}

	return logging.New(opts)
}

// defaultHTTPClient returns the client for metadata requests, bounded as a
// whole by the configured timeout.
func defaultHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.HTTPTimeout()}
}

// transferHTTPClient returns the client for uploads and downloads. It has no
// overall timeout, so a large file is never cut off mid-body; the configured
// timeout bounds dialing, the TLS handshake and the wait for headers.
func transferHTTPClient(cfg *config.Config) *http.Client {
	timeout := cfg.HTTPTimeout()

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: timeout, KeepAlive: dialKeepAlive}).DialContext
	transport.TLSHandshakeTimeout = timeout
	transport.ResponseHeaderTimeout = timeout

	return &http.Client{Transport: transport}
}

func defaultNewClient(cfg *config.Config, logger *slog.Logger) (*sharepoint.Client, error) {
	opts := []sharepoint.Option{
		sharepoint.WithHTTPClient(defaultHTTPClient(cfg)),
		sharepoint.WithTransferHTTPClient(transferHTTPClient(cfg)),
		sharepoint.WithLogger(logger),
	}

	if !cfg.DisableDownloadValidation {
		opts = append(opts, sharepoint.WithHashCheck())
	}

	if cfg.MaxRetries > 0 {
		opts = append(opts, sharepoint.WithRetry(uint(cfg.MaxRetries)+1, cfg.RetryBackoff()))
	}

	return sharepoint.New(cfg.Credentials(), opts...)
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
