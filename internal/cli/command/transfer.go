package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/ledgermesh-go/internal/core/domain"
)

// TransferCommand returns the transfer command.
func TransferCommand() *cli.Command {
	return &cli.Command{
		Name:      "transfer",
		Aliases:   []string{"tx"},
		Usage:     "Move funds between two accounts",
		ArgsUsage: "<from-account-id> <to-account-id> <amount>",
		Action:    transfer,
	}
}

func transfer(c *cli.Context) error {
	if err := requireArgs(c, 3); err != nil {
		return err
	}
	from, err := domain.ParseAccountID(c.Args().Get(0))
	if err != nil {
		return err
	}
	to, err := domain.ParseAccountID(c.Args().Get(1))
	if err != nil {
		return err
	}

	client, err := NewClient(c)
	if err != nil {
		return err
	}
	req := map[string]any{
		"from_account_id": from,
		"to_account_id":   to,
		"amount":          c.Args().Get(2),
	}
	var view TransferView
	if err := client.Post(c.Context, "/transfers", req, &view); err != nil {
		return err
	}
	return render(c, view)
}
