package confloader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/maps"
)

// ErrReadBytesNotSupported is returned by Overrides.ReadBytes; koanf reads
// overrides through Read.
var ErrReadBytesNotSupported = errors.New("confloader: overrides have no byte form")

// Overrides holds flat dotted keys such as "lock.max_entries". It is a
// koanf provider.
type Overrides map[string]any

// ReadBytes implements koanf.Provider.
func (o Overrides) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytesNotSupported
}

// Read implements koanf.Provider, nesting the dotted keys.
func (o Overrides) Read() (map[string]any, error) {
	flat := make(map[string]any, len(o))
	for k, v := range o {
		flat[k] = v
	}
	return maps.Unflatten(flat, "."), nil
}

// Set parses one "key=value" assignment. The key is lower-cased; the value
// is kept as a string and converted when unmarshalled.
func (o Overrides) Set(assignment string) error {
	key, value, ok := strings.Cut(assignment, "=")
	key = strings.ToLower(strings.TrimSpace(key))
	if !ok || key == "" || strings.HasPrefix(key, ".") || strings.HasSuffix(key, ".") {
		return fmt.Errorf("confloader: override %q is not key=value", assignment)
	}
	o[key] = value
	return nil
}
