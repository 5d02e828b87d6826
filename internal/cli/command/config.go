package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/ledgermesh-go/internal/cli/config"
	"github.com/yndnr/ledgermesh-go/internal/cli/output"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "CLI configuration commands",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: configShow,
			},
			{
				Name:  "init",
				Usage: "Write the effective configuration to the config file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Overwrite an existing file",
					},
				},
				Action: configInit,
			},
		},
	}
}

// configView adds a table layout to the CLI configuration.
type configView struct {
	config.CLIConfig `yaml:",inline"`
}

func (v configView) Table() *output.Table {
	return output.KeyValue(
		"server", v.Server,
		"output", v.Output,
		"ca_file", v.CAFile,
		"insecure", fmt.Sprint(v.Insecure),
		"timeout", v.Timeout.String(),
	)
}

func configShow(c *cli.Context) error {
	return render(c, configView{*CLIConfig(c)})
}

func configInit(c *cli.Context) error {
	path, _ := c.App.Metadata[metaConfigPath].(string)
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(CLIConfig(c), path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
	return nil
}
