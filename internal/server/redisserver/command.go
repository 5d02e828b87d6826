package redisserver

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yndnr/ledgermesh-go/internal/core/domain"
	"github.com/yndnr/ledgermesh-go/internal/server/httpserver/handler"
	"github.com/yndnr/ledgermesh-go/internal/telemetry/logger"
)

// command describes one supported command. arity counts the command name;
// a negative arity is a minimum.
type command struct {
	arity int
	run   func(h *CommandHandler, ctx context.Context, w *Writer, args [][]byte) error
}

var commands = map[string]command{
	"PING":        {arity: -1, run: (*CommandHandler).ping},
	"ECHO":        {arity: 2, run: (*CommandHandler).echo},
	"CLIENT":      {arity: -2, run: (*CommandHandler).client},
	"COMMAND":     {arity: -1, run: (*CommandHandler).commandDocs},
	"LM.CREATE":   {arity: 3, run: (*CommandHandler).create},
	"LM.BALANCE":  {arity: 2, run: (*CommandHandler).balance},
	"LM.DEPOSIT":  {arity: 3, run: (*CommandHandler).deposit},
	"LM.WITHDRAW": {arity: 3, run: (*CommandHandler).withdraw},
	"LM.TRANSFER": {arity: 4, run: (*CommandHandler).transfer},
}

// CommandHandler executes ledger commands.
type CommandHandler struct {
	ledger handler.Ledger
}

// NewCommandHandler creates a CommandHandler.
func NewCommandHandler(ledger handler.Ledger) *CommandHandler {
	return &CommandHandler{ledger: ledger}
}

// Handle runs one command and writes its reply. It returns the metric
// label for the command and the error reported to the client, if any.
func (h *CommandHandler) Handle(ctx context.Context, w *Writer, args [][]byte) (string, error) {
	name := commandName(args[0])
	cmd, ok := commands[name]
	if !ok {
		w.Error("ERR unknown command '" + name + "'")
		return "unknown", errUnknownCommand
	}
	if (cmd.arity > 0 && len(args) != cmd.arity) || (cmd.arity < 0 && len(args) < -cmd.arity) {
		w.Error("ERR wrong number of arguments for '" + strings.ToLower(name) + "' command")
		return name, errArity
	}

	if err := cmd.run(h, ctx, w, args); err != nil {
		logger.L(ctx).Debug("command failed", "command", name, "error", err)
		w.Error(formatError(err))
		return name, err
	}
	return name, nil
}

var (
	errUnknownCommand = domain.ErrBadRequest.WithDetails("unknown command")
	errArity          = domain.ErrBadRequest.WithDetails("wrong number of arguments")
)

// formatError renders err as "ERR <code> <message>". Details of server-side
// failures stay in the log.
func formatError(err error) string {
	de, ok := domain.AsDomainError(err)
	if !ok {
		return "ERR " + domain.ErrInternalServer.Code + " " + domain.ErrInternalServer.Message
	}
	msg := "ERR " + de.Code + " " + de.Message
	if de.Details != "" && de.Status() < 500 {
		msg += ": " + de.Details
	}
	return msg
}

// statusOf maps a command outcome onto an HTTP-style status for metrics.
func statusOf(err error) int {
	if err == nil {
		return 200
	}
	if de, ok := domain.AsDomainError(err); ok {
		return de.Status()
	}
	return 500
}

func (h *CommandHandler) ping(_ context.Context, w *Writer, args [][]byte) error {
	if len(args) > 1 {
		w.Bulk(string(args[1]))
		return nil
	}
	w.Simple("PONG")
	return nil
}

func (h *CommandHandler) echo(_ context.Context, w *Writer, args [][]byte) error {
	w.Bulk(string(args[1]))
	return nil
}

// client accepts CLIENT SETNAME/SETINFO so stock clients can connect.
func (h *CommandHandler) client(_ context.Context, w *Writer, _ [][]byte) error {
	w.Simple("OK")
	return nil
}

// commandDocs answers COMMAND with an empty list.
func (h *CommandHandler) commandDocs(_ context.Context, w *Writer, _ [][]byte) error {
	w.Array(0)
	return nil
}

func (h *CommandHandler) create(ctx context.Context, w *Writer, args [][]byte) error {
	id, err := domain.ParseAccountID(string(args[1]))
	if err != nil {
		return err
	}
	initial, err := domain.ParseAmount(string(args[2]))
	if err != nil {
		return err
	}
	if err := h.ledger.Create(ctx, id, initial); err != nil {
		return err
	}
	w.Simple("OK")
	return nil
}

func (h *CommandHandler) balance(ctx context.Context, w *Writer, args [][]byte) error {
	id, err := domain.ParseAccountID(string(args[1]))
	if err != nil {
		return err
	}
	acct, err := h.ledger.Read(ctx, id)
	if err != nil {
		return err
	}
	w.Bulk(acct.Balance.String())
	return nil
}

func (h *CommandHandler) deposit(ctx context.Context, w *Writer, args [][]byte) error {
	return h.change(ctx, w, args, h.ledger.Deposit)
}

func (h *CommandHandler) withdraw(ctx context.Context, w *Writer, args [][]byte) error {
	return h.change(ctx, w, args, h.ledger.Withdraw)
}

func (h *CommandHandler) change(ctx context.Context, w *Writer, args [][]byte,
	op func(context.Context, decimal.Decimal, domain.AccountID) error) error {
	id, err := domain.ParseAccountID(string(args[1]))
	if err != nil {
		return err
	}
	amount, err := domain.ParseAmount(string(args[2]))
	if err != nil {
		return err
	}
	if err := op(ctx, amount, id); err != nil {
		return err
	}
	acct, err := h.ledger.Read(ctx, id)
	if err != nil {
		return err
	}
	w.Bulk(acct.Balance.String())
	return nil
}

func (h *CommandHandler) transfer(ctx context.Context, w *Writer, args [][]byte) error {
	from, err := domain.ParseAccountID(string(args[1]))
	if err != nil {
		return err
	}
	to, err := domain.ParseAccountID(string(args[2]))
	if err != nil {
		return err
	}
	amount, err := domain.ParseAmount(string(args[3]))
	if err != nil {
		return err
	}
	receipt, err := h.ledger.Transfer(ctx, amount, from, to)
	if err != nil {
		return err
	}
	w.Bulk(receipt.TransactionID)
	return nil
}

// commandContext bounds a command by timeout; zero means no bound.
func commandContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
