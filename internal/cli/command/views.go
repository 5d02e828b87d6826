package command

import (
	"strconv"

	"github.com/yndnr/ledgermesh-go/internal/cli/output"
	"github.com/yndnr/ledgermesh-go/internal/infra/buildinfo"
)

// AccountView is an account as printed by the CLI.
type AccountView struct {
	AccountID int64  `json:"account_id" yaml:"account_id"`
	Balance   string `json:"balance" yaml:"balance"`
}

// Table implements output.Tabular.
func (v AccountView) Table() *output.Table {
	t := &output.Table{Headers: []string{"ACCOUNT", "BALANCE"}}
	t.AddRow(strconv.FormatInt(v.AccountID, 10), v.Balance)
	return t
}

// TransferView is a transfer receipt.
type TransferView struct {
	TransactionID string `json:"transaction_id" yaml:"transaction_id"`
	FromAccountID int64  `json:"from_account_id" yaml:"from_account_id"`
	ToAccountID   int64  `json:"to_account_id" yaml:"to_account_id"`
	Amount        string `json:"amount" yaml:"amount"`
	Message       string `json:"message" yaml:"message"`
}

// Table implements output.Tabular.
func (v TransferView) Table() *output.Table {
	return output.KeyValue(
		"transaction", v.TransactionID,
		"from", strconv.FormatInt(v.FromAccountID, 10),
		"to", strconv.FormatInt(v.ToAccountID, 10),
		"amount", v.Amount,
		"result", v.Message,
	)
}

// HealthView is the liveness answer.
type HealthView struct {
	Status string         `json:"status" yaml:"status"`
	Time   string         `json:"time" yaml:"time"`
	Build  buildinfo.Info `json:"build" yaml:"build"`
	Target string         `json:"-" yaml:"-"`
}

// Table implements output.Tabular.
func (v HealthView) Table() *output.Table {
	return output.KeyValue(
		"status", v.Status,
		"server", v.Target,
		"version", v.Build.Version,
		"commit", v.Build.Commit,
		"time", v.Time,
	)
}

// ReadyView is the readiness answer.
type ReadyView struct {
	Status  string `json:"status" yaml:"status"`
	Storage string `json:"storage,omitempty" yaml:"storage,omitempty"`
	Breaker string `json:"breaker,omitempty" yaml:"breaker,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Table implements output.Tabular.
func (v ReadyView) Table() *output.Table {
	t := output.KeyValue("status", v.Status, "storage", v.Storage, "breaker", v.Breaker)
	if v.Error != "" {
		t.AddRow("error", v.Error)
	}
	return t
}

// LockStatsView mirrors the lock registry statistics.
type LockStatsView struct {
	Entries    int    `json:"entries" yaml:"entries"`
	Pinned     int    `json:"pinned" yaml:"pinned"`
	MaxEntries int    `json:"max_entries" yaml:"max_entries"`
	Sweeping   bool   `json:"sweeping" yaml:"sweeping"`
	Sweeps     uint64 `json:"sweeps" yaml:"sweeps"`
	Evicted    uint64 `json:"evicted" yaml:"evicted"`
}

// Table implements output.Tabular.
func (v LockStatsView) Table() *output.Table {
	return output.KeyValue(
		"entries", strconv.Itoa(v.Entries),
		"pinned", strconv.Itoa(v.Pinned),
		"max_entries", strconv.Itoa(v.MaxEntries),
		"sweeping", strconv.FormatBool(v.Sweeping),
		"sweeps", strconv.FormatUint(v.Sweeps, 10),
		"evicted_total", strconv.FormatUint(v.Evicted, 10),
	)
}

// SweepView is the result of a forced sweep.
type SweepView struct {
	Evicted int           `json:"evicted" yaml:"evicted"`
	Stats   LockStatsView `json:"stats" yaml:"stats"`
}

// Table implements output.Tabular.
func (v SweepView) Table() *output.Table {
	t := v.Stats.Table()
	t.Rows = append([][]string{{"evicted", strconv.Itoa(v.Evicted)}}, t.Rows...)
	return t
}
