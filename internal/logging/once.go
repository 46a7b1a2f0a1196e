// Package logging provides logging helpers shared across the service.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

// Once deduplicates warnings by condition key so a persistently failing
// collaborator (a down provider, a misconfigured key) produces a single log
// line per process lifetime instead of one per request.
type Once struct {
	mu     sync.Mutex
	seen   map[string]struct{}
	logger *zap.Logger
}

// NewOnce creates a deduplicating warner on top of the given logger.
func NewOnce(logger *zap.Logger) *Once {
	return &Once{
		seen:   make(map[string]struct{}),
		logger: logger,
	}
}

// Warn logs the message with the given fields the first time the key is seen
// and is a no-op for every subsequent call with the same key.
func (o *Once) Warn(key, msg string, fields ...zap.Field) {
	o.mu.Lock()

	if _, ok := o.seen[key]; ok {
		o.mu.Unlock()
		return
	}

	o.seen[key] = struct{}{}
	o.mu.Unlock()

	o.logger.Warn(msg, fields...)
}

// Seen reports whether the key has already been logged.
func (o *Once) Seen(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	_, ok := o.seen[key]

	return ok
}

// Reset forgets all previously logged keys. Used for test isolation.
func (o *Once) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.seen = make(map[string]struct{})
}
