// Package command provides CLI command definitions for ledgermesh-cli.
//
// It uses urfave/cli/v2 for command parsing. Every command talks to a
// running ledgermesh-server over its HTTP API and renders the result with
// the output package.
package command
