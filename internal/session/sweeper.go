package session

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically evicts expired sessions and tokens.
type Sweeper struct {
	store    *Store
	tokens   *Tokens
	interval time.Duration
	logger   *slog.Logger
	stop     chan struct{}
}

// NewSweeper wires the stores to be swept on the given interval.
func NewSweeper(store *Store, tokens *Tokens, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{store: store, tokens: tokens, interval: interval, logger: logger}
}

// Start begins the eviction ticker.
func (s *Sweeper) Start(ctx context.Context) {
	if s.stop != nil {
		return
	}

	s.stop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				sessions := s.store.Sweep(now)
				tokens := s.tokens.Sweep(now)
				if sessions+tokens > 0 {
					s.logger.Debug("session sweep", "sessions", sessions, "tokens", tokens)
				}
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop halts the ticker goroutine.
func (s *Sweeper) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
}
