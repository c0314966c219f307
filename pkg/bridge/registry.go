package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownCallback is returned by Invoke for names nothing has installed.
var ErrUnknownCallback = errors.New("no callback installed")

// Registry is the in-process CallbackRegistry. Transports that receive
// native callbacks (HTTP ingress, the Pub/Sub relay, an embedding host) call
// Invoke with the ecb name they were given.
type Registry struct {
	mu        sync.RWMutex
	callbacks map[string]CallbackFunc
}

func NewRegistry() *Registry {
	return &Registry{callbacks: make(map[string]CallbackFunc)}
}

func (r *Registry) Install(ecb string, fn CallbackFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[ecb] = fn
}

// Invoke runs the callback installed under ecb. The callback runs outside the
// registry lock so it may itself install or invoke.
func (r *Registry) Invoke(ecb string, payload json.RawMessage) error {
	r.mu.RLock()
	fn, ok := r.callbacks[ecb]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCallback, ecb)
	}
	fn(payload)
	return nil
}

// Installed reports whether a callback exists for ecb.
func (r *Registry) Installed(ecb string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.callbacks[ecb]
	return ok
}
