package pipeline

import (
	"log/slog"
	"sync"
)

// errAgg counts messages and keeps the first few for a summary log line.
type errAgg struct {
	mu    sync.Mutex
	limit int
	count int
	first []string
}

func newErrAgg(limit int) *errAgg {
	return &errAgg{limit: limit}
}

func (a *errAgg) add(msg string) {
	a.mu.Lock()
	if a.count < a.limit {
		a.first = append(a.first, msg)
	}
	a.count++
	a.mu.Unlock()
}

// log emits one warning with the total and the sampled messages.
func (a *errAgg) log(logger *slog.Logger, what string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.count == 0 {
		return
	}
	logger.Warn(what, "count", a.count, "first", a.first)
}
