package handler

import "sync"

type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.Kind()] = h
}

func (r *Registry) Get(kind string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}

func (r *Registry) All() map[string]Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string]Handler, len(r.handlers))
	for k, v := range r.handlers {
		result[k] = v
	}
	return result
}

// DefaultRegistry returns a registry with every artifact handler
// registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewDNSHandler())
	r.Register(NewTLSHandler())
	r.Register(NewProxyHandler())
	r.Register(NewTunnelHandler())
	r.Register(NewStackHandler())
	r.Register(NewScriptHandler())
	r.Register(NewFirewallHandler())
	return r
}
