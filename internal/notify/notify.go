// internal/notify/notify.go
package notify

import (
	"log/slog"
	"sync"
)

// Notifier receives the outcome of user-visible operations, primarily
// mutations. Implementations render it however they like (log line,
// terminal notice, chat message); callers never depend on rendering.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Log is the default Notifier: structured log lines via slog.
type Log struct {
	Logger *slog.Logger
}

func NewLog() *Log {
	return &Log{Logger: slog.Default()}
}

func (l *Log) Success(message string) {
	l.Logger.Info("notify", "outcome", "success", "message", message)
}

func (l *Log) Error(message string) {
	l.Logger.Warn("notify", "outcome", "error", "message", message)
}

// Registry fans one notification out to every registered Notifier.
type Registry struct {
	mu        sync.RWMutex
	notifiers []Notifier
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a notifier to the fan-out set.
func (r *Registry) Register(n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifiers = append(r.notifiers, n)
}

func (r *Registry) Success(message string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range r.notifiers {
		n.Success(message)
	}
}

func (r *Registry) Error(message string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range r.notifiers {
		n.Error(message)
	}
}
