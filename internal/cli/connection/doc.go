// Package connection is the CLI's HTTP client for ledgermesh-server.
//
// It unwraps the server's response envelope and turns error envelopes into
// *APIError values that keep the server's error code.
package connection
