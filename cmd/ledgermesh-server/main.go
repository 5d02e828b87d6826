package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"

	"github.com/yndnr/ledgermesh-go/internal/core/lockreg"
	"github.com/yndnr/ledgermesh-go/internal/core/service"
	"github.com/yndnr/ledgermesh-go/internal/infra/buildinfo"
	"github.com/yndnr/ledgermesh-go/internal/infra/confloader"
	"github.com/yndnr/ledgermesh-go/internal/infra/shutdown"
	"github.com/yndnr/ledgermesh-go/internal/infra/tlsroots"
	"github.com/yndnr/ledgermesh-go/internal/server/config"
	"github.com/yndnr/ledgermesh-go/internal/server/httpserver"
	"github.com/yndnr/ledgermesh-go/internal/server/httpserver/handler"
	"github.com/yndnr/ledgermesh-go/internal/server/redisserver"
	"github.com/yndnr/ledgermesh-go/internal/storage"
	"github.com/yndnr/ledgermesh-go/internal/telemetry/logger"
	"github.com/yndnr/ledgermesh-go/internal/telemetry/metric"
	"github.com/yndnr/ledgermesh-go/internal/telemetry/tracer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		overrides   = confloader.Overrides{}
	)
	flag.Func("set", "Override a configuration key, e.g. --set lock.max_entries=500 (repeatable)", overrides.Set)
	flag.Parse()

	if *showVersion {
		fmt.Printf("ledgermesh-server %s\n", buildinfo.String())
		return nil
	}

	// Load configuration
	loader := newLoader(*configFile, overrides)
	cfg, err := loadConfig(loader)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Initialize logger
	log, err := logger.New(cfg.LoggerConfig())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	defer logger.Sync(log)

	info := buildinfo.Get()
	log.Info("starting ledgermesh-server",
		"version", info.Version,
		"commit", info.Commit,
		"config_sources", loader.Sources())
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	ctx := context.Background()

	// Tracing
	tp, err := tracer.New(ctx, cfg.TracerConfig())
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	tp.Install()

	// Metrics and storage
	metrics := metric.NewRegistry()
	store, err := storage.Open(ctx, cfg.StorageConfig(), log, metrics.Registerer())
	if err != nil {
		_ = tp.Shutdown(ctx)
		return fmt.Errorf("init storage: %w", err)
	}

	// Ledger
	locks := lockreg.New(append(cfg.LockOptions(),
		lockreg.WithObserver(metrics),
		lockreg.WithLogger(log),
	)...)
	metrics.WatchLockRegistry(locks)

	ledger := service.NewLedgerService(store, locks,
		service.WithMinAmount(cfg.MinAmount()),
		service.WithOperationObserver(metrics),
		service.WithTracer(tp.Tracer("ledgermesh/ledger")),
		service.WithLedgerLogger(log),
	)
	log.Info("ledger initialized",
		"storage", store.Name(),
		"lock_max_entries", cfg.Lock.MaxEntries,
		"retry_ceiling", cfg.Lock.RetryCeiling,
		"min_amount", cfg.MinAmount().String())

	// HTTP
	httpCfg := cfg.Server.HTTP
	routerCfg := &httpserver.RouterConfig{
		Handler:        handler.New(ledger, locks, store, log),
		Logger:         log,
		RequestTimeout: httpCfg.RequestTimeout,
		AdminAllowList: httpCfg.AdminAllowList,
		EnableAudit:    httpCfg.EnableAudit,
	}
	if cfg.Telemetry.MetricsEnabled {
		routerCfg.Metrics = metrics
	}
	if httpCfg.RateLimit.Enabled {
		routerCfg.RateLimit = httpserver.RateLimitConfig{
			RPS:   httpCfg.RateLimit.RPS,
			Burst: httpCfg.RateLimit.Burst,
		}
	}

	srvCfg := httpserver.Config{Addr: httpCfg.Addr}
	var keyPair *tlsroots.KeyPair
	if httpCfg.TLSCertFile != "" {
		keyPair, err = tlsroots.LoadKeyPair(httpCfg.TLSCertFile, httpCfg.TLSKeyFile, tlsroots.WithLogger(log))
		if err != nil {
			_ = store.Close()
			return fmt.Errorf("load tls key pair: %w", err)
		}
		if err := keyPair.Watch(); err != nil {
			log.Warn("certificate hot reload disabled", "error", err)
		}
		srvCfg.TLS = keyPair.ServerTLSConfig()
	}

	httpServer := httpserver.New(srvCfg, httpserver.NewRouter(routerCfg), log)
	ln, err := httpServer.Listen()
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("listen %s: %w", httpCfg.Addr, err)
	}

	// RESP
	var respServer *redisserver.Server
	var respLn net.Listener
	if respCfg := cfg.Server.RESP; respCfg.Enabled {
		var rec redisserver.Recorder
		if cfg.Telemetry.MetricsEnabled {
			rec = metrics
		}
		rc := redisserver.Config{
			Addr:           respCfg.Addr,
			ReadTimeout:    respCfg.ReadTimeout,
			WriteTimeout:   respCfg.WriteTimeout,
			IdleTimeout:    respCfg.IdleTimeout,
			CommandTimeout: respCfg.CommandTimeout,
			RateLimit:      respCfg.RateLimit,
		}
		if respCfg.TLS {
			rc.TLS = srvCfg.TLS
		}
		respServer = redisserver.New(rc, ledger, rec, log)
		if respLn, err = respServer.Listen(); err != nil {
			_ = ln.Close()
			_ = store.Close()
			return fmt.Errorf("listen %s: %w", respCfg.Addr, err)
		}
	}

	// Setup graceful shutdown; hooks run in reverse order of registration.
	shutdownHandler := shutdown.NewHandler(httpCfg.ShutdownTimeout, log)
	shutdownHandler.OnShutdown("storage", func(context.Context) error {
		return store.Close()
	})
	shutdownHandler.OnShutdown("tracer", tp.Shutdown)
	if keyPair != nil {
		shutdownHandler.OnShutdown("tls-watcher", func(context.Context) error {
			keyPair.Stop()
			return nil
		})
	}
	shutdownHandler.OnShutdown("http", httpServer.Shutdown)
	if respServer != nil {
		shutdownHandler.OnShutdown("resp", respServer.Shutdown)
	}

	if watcher := watchConfig(loader, log); watcher != nil {
		shutdownHandler.OnShutdown("config-watcher", func(context.Context) error {
			return watcher.Stop()
		})
	}

	serveCtx, stopServing := context.WithCancelCause(ctx)
	go func() {
		if err := httpServer.Serve(ln); err != nil {
			log.Error("HTTP server error", "error", err)
			stopServing(err)
		}
	}()

	if respServer != nil {
		go func() {
			if err := respServer.Serve(respLn); err != nil {
				log.Error("RESP server error", "error", err)
				stopServing(err)
			}
		}()
	}

	log.Info("server started",
		"addr", ln.Addr().String(),
		"tls", srvCfg.TLS != nil,
		"resp", cfg.Server.RESP.Enabled,
		"metrics", cfg.Telemetry.MetricsEnabled)

	shutdownErr := shutdownHandler.Wait(serveCtx)
	if serveErr := context.Cause(serveCtx); serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return errors.Join(serveErr, shutdownErr)
	}
	if shutdownErr != nil {
		log.Error("shutdown error", "error", shutdownErr)
		return shutdownErr
	}

	log.Info("server stopped gracefully")
	return nil
}

func newLoader(configFile string, overrides confloader.Overrides) *confloader.Loader {
	opts := []confloader.Option{confloader.WithOverrides(overrides)}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	return confloader.NewLoader(opts...)
}

// loadConfig loads defaults, file and environment, then validates.
func loadConfig(loader *confloader.Loader) (*config.ServerConfig, error) {
	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// watchConfig re-reads the config file on change and applies the settings
// that can change at runtime (log level). It returns nil without a file.
func watchConfig(loader *confloader.Loader, log logger.Logger) *confloader.Watcher {
	path := loader.FilePath()
	if path == "" {
		return nil
	}

	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		log.Warn("config watcher disabled", "error", err)
		return nil
	}
	if err := watcher.Watch(path); err != nil {
		log.Warn("config watcher disabled", "error", err)
		_ = watcher.Stop()
		return nil
	}

	watcher.OnChange(func(string) {
		cfg := config.Default()
		if err := loader.Load(cfg); err != nil {
			log.Error("config reload failed", "error", err)
			return
		}
		if err := config.Verify(cfg); err != nil {
			log.Error("reloaded config rejected", "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	watcher.StartAsync()
	return watcher
}
