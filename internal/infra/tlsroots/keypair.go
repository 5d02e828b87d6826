package tlsroots

import (
	"crypto/tls"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yndnr/ledgermesh-go/internal/telemetry/logger"
)

// KeyPair holds the listener certificate and reloads it when the
// certificate or key file changes.
type KeyPair struct {
	certFile string
	keyFile  string

	mu   sync.RWMutex
	cert *tls.Certificate

	debounce   time.Duration
	reloadMu   sync.Mutex
	lastReload time.Time

	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
	logger   logger.Logger
}

// KeyPairOption configures a KeyPair.
type KeyPairOption func(*KeyPair)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) KeyPairOption {
	return func(k *KeyPair) {
		if l != nil {
			k.logger = l
		}
	}
}

// WithDebounce sets the minimum interval between reloads.
func WithDebounce(d time.Duration) KeyPairOption {
	return func(k *KeyPair) {
		k.debounce = d
	}
}

// LoadKeyPair loads certFile and keyFile. Call Watch to follow changes.
func LoadKeyPair(certFile, keyFile string, opts ...KeyPairOption) (*KeyPair, error) {
	k := &KeyPair{
		certFile: certFile,
		keyFile:  keyFile,
		debounce: 500 * time.Millisecond,
		done:     make(chan struct{}),
		logger:   logger.Default(),
	}
	for _, opt := range opts {
		opt(k)
	}
	k.logger = k.logger.With("component", "tls")

	if err := k.reload(); err != nil {
		return nil, fmt.Errorf("tlsroots: initial load: %w", err)
	}
	return k, nil
}

// ServerTLSConfig returns a listener config that always presents the most
// recently loaded certificate.
func (k *KeyPair) ServerTLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: k.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}

// GetCertificate implements tls.Config.GetCertificate.
func (k *KeyPair) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.cert, nil
}

// Watch starts following the certificate files in the background.
func (k *KeyPair) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}

	certDir := filepath.Dir(k.certFile)
	keyDir := filepath.Dir(k.keyFile)
	if err := w.Add(certDir); err != nil {
		w.Close()
		return fmt.Errorf("tlsroots: watch cert dir %s: %w", certDir, err)
	}
	if keyDir != certDir {
		if err := w.Add(keyDir); err != nil {
			w.Close()
			return fmt.Errorf("tlsroots: watch key dir %s: %w", keyDir, err)
		}
	}
	k.watcher = w

	k.logger.Info("certificate watcher started", "cert_file", k.certFile, "key_file", k.keyFile)
	go k.loop()
	return nil
}

// Stop stops the watcher. It is safe to call more than once.
func (k *KeyPair) Stop() {
	k.stopOnce.Do(func() { close(k.done) })
}

func (k *KeyPair) loop() {
	certBase := filepath.Base(k.certFile)
	keyBase := filepath.Base(k.keyFile)

	for {
		select {
		case event, ok := <-k.watcher.Events:
			if !ok {
				return
			}
			base := filepath.Base(event.Name)
			if base != certBase && base != keyBase {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := k.debouncedReload(); err != nil {
				// The previous certificate keeps serving.
				k.logger.Error("certificate reload failed", "error", err, "cert_file", k.certFile)
			}
		case err, ok := <-k.watcher.Errors:
			if !ok {
				return
			}
			k.logger.Error("certificate watcher error", "error", err)
		case <-k.done:
			k.watcher.Close()
			return
		}
	}
}

func (k *KeyPair) debouncedReload() error {
	k.reloadMu.Lock()
	defer k.reloadMu.Unlock()

	now := time.Now()
	if now.Sub(k.lastReload) < k.debounce {
		return nil
	}
	k.lastReload = now

	// Writers often replace cert and key in two steps.
	time.Sleep(100 * time.Millisecond)
	return k.reload()
}

func (k *KeyPair) reload() error {
	cert, err := tls.LoadX509KeyPair(k.certFile, k.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}

	k.mu.Lock()
	k.cert = &cert
	k.mu.Unlock()

	k.logger.Info("certificate loaded", "cert_file", k.certFile)
	return nil
}
