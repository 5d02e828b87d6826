package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/yndnr/ledgermesh-go/internal/core/domain"
	"github.com/yndnr/ledgermesh-go/internal/storage/memory"
	"github.com/yndnr/ledgermesh-go/internal/telemetry/logger"
)

// Common errors. They share identity with the memory store errors so
// callers can test any backend the same way.
var (
	ErrKeyNotFound = memory.ErrNotFound
	ErrKeyExists   = memory.ErrExists
	ErrClosed      = errors.New("balance store closed")
)

const badgerKeyPrefix = "acct:"

func badgerKey(id domain.AccountID) []byte {
	return []byte(badgerKeyPrefix + strconv.FormatInt(int64(id), 10))
}

// BadgerStore is a durable balance store on Badger v3.
type BadgerStore struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger logger.Logger
	closed atomic.Bool

	lastGCTime       atomic.Int64 // Unix milliseconds
	gcBytesReclaimed atomic.Uint64

	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsLastGCTime   prometheus.Gauge
	metricsGCReclaimed  prometheus.Counter
	metricsMu           sync.Mutex
	reportedReclaimed   uint64

	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

// NewBadgerStore opens (or creates) a Badger database in cfg.Dir.
func NewBadgerStore(cfg BadgerConfig, log logger.Logger) (*BadgerStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if log == nil {
		log = logger.Default()
	}
	log = log.With("component", "badger")

	opts := badger.DefaultOptions(cfg.Dir)
	opts.Logger = &badgerLogger{logger: log}
	if cfg.CacheSize > 0 {
		opts.BlockCacheSize = cfg.CacheSize
	}
	if cfg.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = cfg.ValueLogFileSize
	}
	opts.SyncWrites = cfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	s := &BadgerStore{
		db:     db,
		cfg:    cfg,
		logger: log,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go s.gcLoop()

	log.Info("badger store opened",
		"dir", cfg.Dir,
		"sync_writes", cfg.SyncWrites,
		"gc_interval", cfg.GCInterval)
	return s, nil
}

// Fetch returns the stored account.
func (s *BadgerStore) Fetch(_ context.Context, id domain.AccountID) (domain.Account, bool, error) {
	if s.closed.Load() {
		return domain.Account{}, false, ErrClosed
	}

	var (
		bal   decimal.Decimal
		found bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			d, err := decimal.NewFromString(string(v))
			if err != nil {
				return fmt.Errorf("decode balance of %s: %w", id, err)
			}
			bal, found = d, true
			return nil
		})
	})
	if err != nil {
		return domain.Account{}, false, fmt.Errorf("badger: fetch: %w", err)
	}
	if !found {
		return domain.Account{}, false, nil
	}
	return domain.Account{ID: id, Balance: bal}, true, nil
}

// Persist overwrites the balance of an existing account.
func (s *BadgerStore) Persist(_ context.Context, id domain.AccountID, balance decimal.Decimal) error {
	return s.update(id, balance, true)
}

// Insert adds a new account.
func (s *BadgerStore) Insert(_ context.Context, id domain.AccountID, balance decimal.Decimal) error {
	return s.update(id, balance, false)
}

// update writes balance in one transaction. mustExist selects between
// overwrite (Persist) and create (Insert) semantics.
func (s *BadgerStore) update(id domain.AccountID, balance decimal.Decimal, mustExist bool) error {
	if s.closed.Load() {
		return ErrClosed
	}
	key := badgerKey(id)
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			if mustExist {
				return ErrKeyNotFound
			}
		case err != nil:
			return fmt.Errorf("badger: read %s: %w", id, err)
		case !mustExist:
			return ErrKeyExists
		}
		return txn.Set(key, []byte(balance.String()))
	})
}

// Count returns the number of stored accounts.
func (s *BadgerStore) Count(ctx context.Context) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

// GC runs value log garbage collection until nothing is left to rewrite.
// The returned byte count is an estimate.
func (s *BadgerStore) GC(ctx context.Context) (uint64, error) {
	start := time.Now()
	var reclaimed uint64
	for ctx.Err() == nil {
		err := s.db.RunValueLogGC(s.cfg.GCThreshold)
		if errors.Is(err, badger.ErrNoRewrite) {
			break
		}
		if err != nil {
			return reclaimed, fmt.Errorf("gc: %w", err)
		}
		reclaimed += 1 << 20
	}

	s.lastGCTime.Store(time.Now().UnixMilli())
	s.gcBytesReclaimed.Add(reclaimed)
	s.logger.Debug("gc completed", "bytes_reclaimed", reclaimed, "elapsed", time.Since(start))
	return reclaimed, nil
}

// Ping reports whether the store is open.
func (s *BadgerStore) Ping(context.Context) error {
	if s.closed.Load() || s.db.IsClosed() {
		return ErrClosed
	}
	return nil
}

// Close stops background work and closes the database.
func (s *BadgerStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stopCh)
		<-s.doneCh
		if cerr := s.db.Close(); cerr != nil {
			err = fmt.Errorf("close db: %w", cerr)
		}
		s.logger.Info("badger store closed")
	})
	return err
}

// RegisterMetrics registers Badger size and GC metrics with reg and starts
// a loop that refreshes them.
func (s *BadgerStore) RegisterMetrics(reg prometheus.Registerer) *BadgerStore {
	s.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledgermesh",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})
	s.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledgermesh",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})
	s.metricsLastGCTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledgermesh",
		Subsystem: "badger",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last Badger GC run",
	})
	s.metricsGCReclaimed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ledgermesh",
		Subsystem: "badger",
		Name:      "gc_bytes_reclaimed_total",
		Help:      "Estimated bytes reclaimed by Badger garbage collection",
	})
	reg.MustRegister(s.metricsLSMSize, s.metricsValueLogSize, s.metricsLastGCTime, s.metricsGCReclaimed)

	s.refreshMetrics()
	go s.metricsLoop()
	return s
}

func (s *BadgerStore) refreshMetrics() {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()

	lsm, vlog := s.db.Size()
	s.metricsLSMSize.Set(float64(lsm))
	s.metricsValueLogSize.Set(float64(vlog))
	if ts := s.lastGCTime.Load(); ts > 0 {
		s.metricsLastGCTime.Set(float64(ts) / 1000.0)
	}
	total := s.gcBytesReclaimed.Load()
	if total > s.reportedReclaimed {
		s.metricsGCReclaimed.Add(float64(total - s.reportedReclaimed))
		s.reportedReclaimed = total
	}
}

func (s *BadgerStore) metricsLoop() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.refreshMetrics()
		case <-s.stopCh:
			return
		}
	}
}

func (s *BadgerStore) gcLoop() {
	defer close(s.doneCh)

	interval, err := time.ParseDuration(s.cfg.GCInterval)
	if err != nil || interval <= 0 {
		s.logger.Warn("invalid gc_interval, using default 10m", "value", s.cfg.GCInterval)
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if _, err := s.GC(ctx); err != nil {
				s.logger.Error("auto gc failed", "error", err)
			}
			cancel()
		case <-s.stopCh:
			return
		}
	}
}

// badgerLogger adapts logger.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
