// Package config holds ledgermesh-cli defaults, read from
// ~/.ledgermesh/cli.yaml. Command-line flags and LEDGERMESH_* environment
// variables override the file.
package config
