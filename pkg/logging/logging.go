// Package logging provides structured logging for the analysis
// kernels, built on the standard library slog package, plus a
// process-wide callback registry so host applications can route log
// lines into their own sinks.
//
// The registry is the only process-wide state in the module. Lifecycle
// is register -> unregister with no implicit teardown; callbacks may
// fire from worker goroutines.
package logging

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

// Level mirrors slog levels for callers that do not import slog.
type Level = slog.Level

// Levels accepted by the callback registry.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Callback receives one formatted log line.
type Callback func(level Level, message string)

// Handle identifies a registered callback.
type Handle uint64

var registry = struct {
	sync.Mutex
	next      Handle
	callbacks map[Handle]Callback
}{callbacks: make(map[Handle]Callback)}

// RegisterCallback adds a log sink and returns its handle. Safe to
// call from any goroutine.
func RegisterCallback(cb Callback) Handle {
	registry.Lock()
	defer registry.Unlock()
	registry.next++
	h := registry.next
	registry.callbacks[h] = cb
	return h
}

// UnregisterCallback removes a previously registered sink. Unknown
// handles are ignored.
func UnregisterCallback(h Handle) {
	registry.Lock()
	defer registry.Unlock()
	delete(registry.callbacks, h)
}

func dispatchCallbacks(level Level, message string) {
	registry.Lock()
	cbs := make([]Callback, 0, len(registry.callbacks))
	for _, cb := range registry.callbacks {
		cbs = append(cbs, cb)
	}
	registry.Unlock()
	for _, cb := range cbs {
		cb(level, message)
	}
}

// callbackHandler fans slog records out to the registry on top of a
// wrapped handler.
type callbackHandler struct {
	inner slog.Handler
}

func (h callbackHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h callbackHandler) Handle(ctx context.Context, r slog.Record) error {
	dispatchCallbacks(r.Level, r.Message)
	return h.inner.Handle(ctx, r)
}

func (h callbackHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return callbackHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h callbackHandler) WithGroup(name string) slog.Handler {
	return callbackHandler{inner: h.inner.WithGroup(name)}
}

var defaultLogger = slog.New(callbackHandler{
	inner: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}),
})

// Default returns the module logger: stderr text output with callback
// fan-out.
func Default() *slog.Logger { return defaultLogger }

// New builds a logger at the given level writing to stderr, with
// callback fan-out.
func New(level Level) *slog.Logger {
	return slog.New(callbackHandler{
		inner: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	})
}
