// Package metric provides Prometheus metrics for LedgerMesh.
//
// Registry owns a dedicated prometheus.Registry with Go runtime and process
// collectors and the application metrics:
//
//   - ledgermesh_requests_total / ledgermesh_request_duration_seconds
//   - ledgermesh_ledger_operations_total / ledgermesh_ledger_operation_duration_seconds
//   - ledgermesh_lock_* counters and the lock wait histogram
//
// Registry implements lockreg.Observer and service.OperationObserver, so it
// can be handed directly to the lock registry and the ledger service.
// Collector exports point-in-time lock registry statistics at scrape time.
//
// Metrics are exposed at /metrics in Prometheus text format.
package metric
