// Package tlsroots loads TLS material for the HTTP listener and the CLI.
//
// ClientTLSConfig builds the roots the CLI uses to verify the server.
// KeyPair serves the listener certificate and reloads it when the files on
// disk are replaced, so certificates can rotate without a restart.
package tlsroots
