package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/ledgermesh-go/internal/cli/connection"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Server health and lock registry commands",
		Subcommands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check server liveness",
				Action: systemHealth,
			},
			{
				Name:   "ready",
				Usage:  "Check server readiness (storage reachable)",
				Action: systemReady,
			},
			{
				Name:   "locks",
				Usage:  "Show lock registry statistics",
				Action: systemLocks,
			},
			{
				Name:   "sweep",
				Usage:  "Evict idle lock entries now",
				Action: systemSweep,
			},
		},
	}
}

func systemHealth(c *cli.Context) error {
	client, err := NewClient(c)
	if err != nil {
		return err
	}
	var view HealthView
	if err := client.Get(c.Context, "/health", &view); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	view.Target = client.BaseURL()
	return render(c, view)
}

func systemReady(c *cli.Context) error {
	client, err := NewClient(c)
	if err != nil {
		return err
	}
	var view ReadyView
	err = client.Get(c.Context, "/ready", &view)

	var apiErr *connection.APIError
	if errors.As(err, &apiErr) && view.Status != "" {
		if renderErr := render(c, view); renderErr != nil {
			return renderErr
		}
		return fmt.Errorf("server not ready: %s", view.Error)
	}
	if err != nil {
		return err
	}
	return render(c, view)
}

func systemLocks(c *cli.Context) error {
	client, err := NewClient(c)
	if err != nil {
		return err
	}
	var view LockStatsView
	if err := client.Get(c.Context, "/admin/v1/locks", &view); err != nil {
		return err
	}
	return render(c, view)
}

func systemSweep(c *cli.Context) error {
	client, err := NewClient(c)
	if err != nil {
		return err
	}
	var view SweepView
	if err := client.Post(c.Context, "/admin/v1/locks/sweep", nil, &view); err != nil {
		return err
	}
	return render(c, view)
}
