package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"procproxy/internal/client"
	"procproxy/internal/config"
	"procproxy/internal/proxy"
)

// rootOptions carries persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	upstream   string
	tokenFile  string

	cfg config.Config
	log zerolog.Logger
}

func buildRootCmd(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "procproxy",
		Short:         "Authenticated proxy and terminal viewer for owned processes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("PROCPROXY_CONFIG"), "Config file (.yaml, .json or .toml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides config)")
	root.PersistentFlags().StringVar(&opts.upstream, "upstream", "", "Upstream API base URL (overrides config)")
	root.PersistentFlags().StringVar(&opts.tokenFile, "token-file", "", "File holding the access token, bare or JSON-wrapped")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return opts.resolve(cmd.ErrOrStderr())
	}

	root.AddCommand(newServeCmd(opts), newViewCmd(opts), newFetchCmd(opts))

	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(cmd.OutOrStdout(), true) }})
	root.AddCommand(completionCmd)
	return root
}

// resolve merges file, environment and flag settings, in that order of
// increasing precedence, and builds the logger.
func (o *rootOptions) resolve(stderr io.Writer) error {
	var cfg config.Config
	if o.configPath != "" {
		c, err := config.Load(o.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.upstream != "" {
		cfg.UpstreamBaseURL = o.upstream
	}
	if o.tokenFile != "" {
		cfg.TokenFile = o.tokenFile
	}
	cfg.ApplyDefaults()
	o.cfg = cfg
	o.log = newLogger(stderr, cfg.LogLevel)
	return nil
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(lvl).With().Timestamp().Logger()
}

// newService builds the upstream-facing service from the resolved config.
func (o *rootOptions) newService() (*proxy.Service, error) {
	if o.cfg.UpstreamBaseURL == "" {
		return nil, fmt.Errorf("no upstream configured: set --upstream, upstream_base_url or PROCPROXY_UPSTREAM_BASE_URL")
	}
	return proxy.New(proxy.Config{
		BaseURL:         o.cfg.UpstreamBaseURL,
		ConnectTimeout:  o.cfg.ConnectTimeout(),
		ReadTimeout:     o.cfg.ReadTimeout(),
		MaxRetries:      o.cfg.MaxRetries,
		BackoffUnit:     o.cfg.BackoffUnit(),
		MaxPreviewBytes: o.cfg.MaxPreviewBytes,
		Logger:          o.log,
	}), nil
}

// credentials prefers the token file and falls back to PROCPROXY_TOKEN.
func (o *rootOptions) credentials() client.CredentialSource {
	if o.cfg.TokenFile != "" {
		return client.FileCredentials{Path: o.cfg.TokenFile}
	}
	return client.EnvCredentials{Var: "PROCPROXY_TOKEN"}
}

// fetcher talks to a running proxy when proxy_url is set, otherwise
// directly to the upstream.
func (o *rootOptions) fetcher() (client.Fetcher, error) {
	if o.cfg.ProxyURL != "" {
		return client.NewRemoteFetcher(o.cfg.ProxyURL, o.cfg.ReadTimeout(), o.log), nil
	}
	return o.newService()
}
