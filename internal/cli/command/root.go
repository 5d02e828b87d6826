package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/ledgermesh-go/internal/cli/config"
	"github.com/yndnr/ledgermesh-go/internal/cli/connection"
	"github.com/yndnr/ledgermesh-go/internal/cli/output"
	"github.com/yndnr/ledgermesh-go/internal/infra/buildinfo"
	"github.com/yndnr/ledgermesh-go/internal/infra/tlsroots"
)

const (
	metaConfig     = "cliConfig"
	metaConfigPath = "cliConfigPath"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:     "ledgermesh-cli",
		Usage:    "LedgerMesh account ledger command-line tool",
		Version:  buildinfo.String(),
		Flags:    globalFlags(),
		Metadata: map[string]any{},
		Commands: []*cli.Command{
			AccountCommand(),
			TransferCommand(),
			SystemCommand(),
			ConfigCommand(),
		},
		Before: loadConfig,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config file",
			EnvVars: []string{"LEDGERMESH_CLI_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "LedgerMesh server address (e.g., localhost:5080)",
			EnvVars: []string{"LEDGERMESH_SERVER"},
			Value:   "localhost:5080",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.StringFlag{
			Name:    "ca-file",
			Usage:   "CA bundle used to verify the server certificate",
			EnvVars: []string{"LEDGERMESH_CA_FILE"},
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "Skip server certificate verification",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout",
		},
	}
}

// loadConfig reads the config file and lays explicitly set flags over it.
func loadConfig(c *cli.Context) error {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if c.IsSet("server") {
		cfg.Server = c.String("server")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("ca-file") {
		cfg.CAFile = c.String("ca-file")
	}
	if c.IsSet("insecure") {
		cfg.Insecure = c.Bool("insecure")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}

	c.App.Metadata[metaConfig] = cfg
	c.App.Metadata[metaConfigPath] = path
	return nil
}

// CLIConfig returns the effective configuration for this invocation.
func CLIConfig(c *cli.Context) *config.CLIConfig {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.CLIConfig); ok {
		return cfg
	}
	return config.Default()
}

// NewClient builds an HTTP client from the effective configuration.
// TLS is used for https:// servers or when a CA file or --insecure is given.
func NewClient(c *cli.Context) (*connection.HTTPClient, error) {
	cfg := CLIConfig(c)
	opts := connection.Options{
		Server:  cfg.Server,
		Timeout: cfg.Timeout,
	}
	if cfg.CAFile != "" || cfg.Insecure || strings.HasPrefix(cfg.Server, "https://") {
		tlsCfg, err := tlsroots.ClientTLSConfig(cfg.CAFile, cfg.Insecure)
		if err != nil {
			return nil, fmt.Errorf("tls: %w", err)
		}
		opts.TLS = tlsCfg
	}
	return connection.NewHTTPClient(opts), nil
}

// render writes data in the configured output format.
func render(c *cli.Context, data any) error {
	formatter, err := output.NewFormatter(output.Format(CLIConfig(c).Output))
	if err != nil {
		return err
	}
	return formatter.Format(c.App.Writer, data)
}

// requireArgs checks the positional argument count.
func requireArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return fmt.Errorf("%s: expected %d argument(s) %s, got %d",
			c.Command.Name, n, c.Command.ArgsUsage, c.NArg())
	}
	return nil
}
