// Package httpserver serves the ledger API over HTTP or HTTPS.
//
// It uses net/http with Go 1.22 method patterns. NewRouter puts every
// route behind the middleware chain:
//
//   - Recover, RequestID and Audit on all requests
//   - Tracing and Metrics per route, labelled with the route pattern
//   - RateLimit and Timeout on API and admin routes
//   - NetworkACL on admin routes
package httpserver
