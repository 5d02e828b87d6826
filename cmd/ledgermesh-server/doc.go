// Package main provides the entry point for ledgermesh-server.
//
// The server hosts the account ledger behind an HTTP API:
//
//   - account create, read, deposit and withdraw
//   - transfers between two accounts under per-account locks
//   - liveness, readiness and Prometheus metrics endpoints
//   - an admin API for lock registry statistics and sweeps
//
// With server.resp.enabled the same operations are served to Redis
// clients as LM.* commands.
//
// Usage:
//
//	ledgermesh-server [flags]
//	ledgermesh-server --config /etc/ledgermesh/server.yaml
//	ledgermesh-server --set storage.engine=badger --set lock.max_entries=500
//
// Configuration is read from the defaults, the YAML file, LEDGERMESH_*
// environment variables and --set flags, in that order. Changing log.level in the file takes
// effect without a restart.
package main
