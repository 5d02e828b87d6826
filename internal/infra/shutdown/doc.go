// Package shutdown coordinates graceful process termination.
//
// Components register named hooks with OnShutdown; Wait blocks for SIGINT,
// SIGTERM or context cancellation and then runs the hooks newest first under
// a shared deadline:
//
//	h := shutdown.NewHandler(15*time.Second, log)
//	h.OnShutdown("http", srv.Shutdown)
//	h.OnShutdown("storage", func(context.Context) error { return engine.Close() })
//	return h.Wait(ctx)
package shutdown
