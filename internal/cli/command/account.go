package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/ledgermesh-go/internal/core/domain"
)

// AccountCommand returns the account subcommand group.
func AccountCommand() *cli.Command {
	return &cli.Command{
		Name:    "account",
		Aliases: []string{"acct"},
		Usage:   "Account management commands",
		Subcommands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Open an account with an initial balance",
				ArgsUsage: "<account-id> <initial-balance>",
				Action:    accountCreate,
			},
			{
				Name:      "get",
				Aliases:   []string{"show"},
				Usage:     "Show an account balance",
				ArgsUsage: "<account-id>",
				Action:    accountGet,
			},
			{
				Name:      "deposit",
				Usage:     "Add funds to an account",
				ArgsUsage: "<account-id> <amount>",
				Action:    accountDeposit,
			},
			{
				Name:      "withdraw",
				Usage:     "Remove funds from an account",
				ArgsUsage: "<account-id> <amount>",
				Action:    accountWithdraw,
			},
		},
	}
}

func accountCreate(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	id, err := domain.ParseAccountID(c.Args().Get(0))
	if err != nil {
		return err
	}

	client, err := NewClient(c)
	if err != nil {
		return err
	}
	req := map[string]any{
		"account_id":      id,
		"initial_balance": c.Args().Get(1),
	}
	var view AccountView
	if err := client.Post(c.Context, "/accounts", req, &view); err != nil {
		return err
	}
	return render(c, view)
}

func accountGet(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	id, err := domain.ParseAccountID(c.Args().Get(0))
	if err != nil {
		return err
	}

	client, err := NewClient(c)
	if err != nil {
		return err
	}
	var view AccountView
	if err := client.Get(c.Context, "/accounts/"+id.String(), &view); err != nil {
		return err
	}
	return render(c, view)
}

func accountDeposit(c *cli.Context) error {
	return balanceChange(c, "deposit")
}

func accountWithdraw(c *cli.Context) error {
	return balanceChange(c, "withdraw")
}

func balanceChange(c *cli.Context, action string) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	id, err := domain.ParseAccountID(c.Args().Get(0))
	if err != nil {
		return err
	}

	client, err := NewClient(c)
	if err != nil {
		return err
	}
	var view AccountView
	path := fmt.Sprintf("/accounts/%s/%s", id, action)
	if err := client.Post(c.Context, path, map[string]string{"amount": c.Args().Get(1)}, &view); err != nil {
		return err
	}
	return render(c, view)
}
