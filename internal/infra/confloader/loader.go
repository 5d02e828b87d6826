package confloader

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "LEDGERMESH_"

// envLevelSep separates nesting levels in environment variable names.
// A single underscore stays part of the key.
const envLevelSep = "__"

// Loader layers configuration sources over a struct holding defaults.
// It is safe for concurrent use; Load may be called again to reload.
type Loader struct {
	envPrefix string
	filePath  string
	overrides Overrides

	mu      sync.RWMutex
	k       *koanf.Koanf
	sources []string
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) { l.envPrefix = prefix }
}

// WithConfigFile sets the YAML file to load. A missing file is an error.
func WithConfigFile(path string) Option {
	return func(l *Loader) { l.filePath = path }
}

// WithOverrides sets values that win over every other source, typically
// collected from --set flags.
func WithOverrides(o Overrides) Option {
	return func(l *Loader) { l.overrides = o }
}

// NewLoader creates a loader. Nothing is read until Load.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FilePath returns the configuration file path, or "".
func (l *Loader) FilePath() string {
	return l.filePath
}

// Load reads file, environment and overrides, in that order, and
// unmarshals the merged result into target. Keys no source sets keep the
// value already in target.
//
// Every call starts from scratch, so a key removed from the file since the
// previous Load falls back to the target's value.
func (l *Loader) Load(target any) error {
	k := koanf.New(".")
	var sources []string

	if l.filePath != "" {
		if err := k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return fmt.Errorf("load file %s: %w", l.filePath, err)
		}
		sources = append(sources, "file:"+l.filePath)
	}

	if err := k.Load(l.envProvider(), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	if l.envKeysPresent() {
		sources = append(sources, "env:"+l.envPrefix+"*")
	}

	if len(l.overrides) > 0 {
		if err := k.Load(l.overrides, nil); err != nil {
			return fmt.Errorf("load overrides: %w", err)
		}
		sources = append(sources, fmt.Sprintf("overrides:%d", len(l.overrides)))
	}

	if err := k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	l.mu.Lock()
	l.k = k
	l.sources = sources
	l.mu.Unlock()
	return nil
}

// envProvider maps LEDGERMESH_SERVER__HTTP__ADDR to server.http.addr and
// LEDGERMESH_LOCK__MAX_ENTRIES to lock.max_entries.
func (l *Loader) envProvider() *env.Env {
	return env.Provider(l.envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
		return strings.ReplaceAll(s, envLevelSep, ".")
	})
}

func (l *Loader) envKeysPresent() bool {
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, l.envPrefix) {
			return true
		}
	}
	return false
}

// Sources describes the sources that contributed to the last Load, lowest
// priority first. Defaults are implied and not listed.
func (l *Loader) Sources() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.sources...)
}

// Keys returns every key set by a source during the last Load.
func (l *Loader) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.k == nil {
		return nil
	}
	return l.k.Keys()
}
