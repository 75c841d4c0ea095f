package scene

import (
	"errors"
	"sync"
)

// ErrRevoked is returned by Handle accessors once the backend behind the
// handle is gone.
var ErrRevoked = errors.New("scene: render context revoked")

// Handle is the RenderContext lent to components. The host owns it; when
// the host recreates its backend it revokes the old handle and gives a new
// one to the coordinator, which rebinds every dependent.
//
// Components must fetch the backend through Backend after every blocking
// call instead of caching it.
type Handle struct {
	mu      sync.RWMutex
	backend Backend
	revoked bool
}

// NewHandle wraps a live backend.
func NewHandle(b Backend) *Handle {
	return &Handle{backend: b}
}

// Backend returns the live backend or ErrRevoked. A nil handle is treated
// as revoked so unbound components fail the same way.
func (h *Handle) Backend() (Backend, error) {
	if h == nil {
		return nil, ErrRevoked
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.revoked || h.backend == nil || h.backend.Closed() {
		return nil, ErrRevoked
	}
	return h.backend, nil
}

// Revoke makes every later access fail. It does not close the backend.
func (h *Handle) Revoke() {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.revoked = true
	h.mu.Unlock()
}

// Revoked reports whether Backend would fail.
func (h *Handle) Revoked() bool {
	_, err := h.Backend()
	return err != nil
}
