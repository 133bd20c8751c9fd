package webclient

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/raysh454/alignscore/internal/logging"
)

// BackendConstructor builds the transport the scoring client posts through.
type BackendConstructor func(cfg Config, logger logging.Logger) (WebClient, error)

// backends maps WEBCLIENT_BACKEND values to constructors. nethttp is always
// present; tests add stubs.
var backends = struct {
	sync.RWMutex
	byName map[string]BackendConstructor
}{byName: map[string]BackendConstructor{
	BackendNetHTTP: func(cfg Config, logger logging.Logger) (WebClient, error) {
		return NewNetHTTPClient(cfg, logger, nil)
	},
}}

func backendName(s string) string {
	if s = strings.ToLower(strings.TrimSpace(s)); s == "" {
		return BackendNetHTTP
	}
	return s
}

// RegisterBackend adds or replaces a transport under name. Empty names and
// nil constructors are ignored.
func RegisterBackend(name string, ctor BackendConstructor) {
	if strings.TrimSpace(name) == "" || ctor == nil {
		return
	}
	backends.Lock()
	backends.byName[backendName(name)] = ctor
	backends.Unlock()
}

// HasBackend reports whether WEBCLIENT_BACKEND=name would resolve.
func HasBackend(name string) bool {
	backends.RLock()
	defer backends.RUnlock()
	_, ok := backends.byName[backendName(name)]
	return ok
}

// NewWebClient builds the transport named by cfg.Backend, nethttp when empty.
func NewWebClient(cfg Config, logger logging.Logger) (WebClient, error) {
	name := backendName(cfg.Backend)

	backends.RLock()
	ctor, ok := backends.byName[name]
	backends.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown webclient backend %q (have %v)", name, ListBackends())
	}

	wc, err := ctor(cfg, logger)
	switch {
	case err != nil:
		return nil, fmt.Errorf("webclient backend %q: %w", name, err)
	case wc == nil:
		return nil, errors.New("webclient backend " + name + " returned nil")
	}
	return wc, nil
}

// ListBackends returns the known backend names in sorted order.
func ListBackends() []string {
	backends.RLock()
	defer backends.RUnlock()
	return slices.Sorted(maps.Keys(backends.byName))
}
