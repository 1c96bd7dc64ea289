// Package observability provides hooks for metrics, tracing, and logging.
//
// Hooks let a binary attach an observability backend without the manifest
// packages depending on one. Every hook set has a no-op default; main
// registers real implementations at startup.
//
// # Usage
//
//	func main() {
//	    observability.SetManifestHooks(&myManifestHooks{})
//	    observability.SetHTTPHooks(&myHTTPHooks{})
//	    // ... run application
//	}
//
// Callers emit events around the operations they perform:
//
//	start := time.Now()
//	err := w.Write(m, false)
//	observability.Manifest().OnWrite(ctx, w.Path(), written, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Manifest Hooks
// =============================================================================

// ManifestHooks receives events about manifest files.
type ManifestHooks interface {
	// OnRead records a lookup. found is false when no manifest exists.
	OnRead(ctx context.Context, path string, found bool, duration time.Duration, err error)

	// OnWrite records a write attempt. written is false when the content was
	// unchanged and the file was left alone.
	OnWrite(ctx context.Context, path string, written bool, duration time.Duration, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP server.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records a completed response.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopManifestHooks is a no-op implementation of ManifestHooks.
type NoopManifestHooks struct{}

func (NoopManifestHooks) OnRead(context.Context, string, bool, time.Duration, error)  {}
func (NoopManifestHooks) OnWrite(context.Context, string, bool, time.Duration, error) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                     {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	manifestHooks ManifestHooks = NoopManifestHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetManifestHooks registers custom manifest hooks.
// This should be called once at application startup.
func SetManifestHooks(h ManifestHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		manifestHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Manifest returns the registered manifest hooks.
func Manifest() ManifestHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return manifestHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	manifestHooks = NoopManifestHooks{}
	httpHooks = NoopHTTPHooks{}
}
