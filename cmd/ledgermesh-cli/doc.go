// Package main provides the entry point for ledgermesh-cli.
//
// The CLI talks to a ledgermesh-server over HTTP:
//
//   - account create, get, deposit and withdraw
//   - transfer between accounts
//   - health, readiness and lock registry administration
//   - local configuration (~/.ledgermesh/cli.yaml)
//
// Usage:
//
//	ledgermesh-cli [global flags] <command> [args]
//	ledgermesh-cli account create 1 1000
//	ledgermesh-cli -o json transfer 1 2 250
package main
