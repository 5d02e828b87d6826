// Package buildinfo exposes build metadata for the server and CLI.
//
// Version, Commit and BuildTime are injected with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/ledgermesh-go/internal/infra/buildinfo.Version=v1.0.0"
//
// The Go version always comes from the running binary.
package buildinfo
