package queueaccess

import (
	"fmt"
	"log/slog"

	"dugout/internal/config"
	"dugout/internal/ipc"
	"dugout/internal/queue"
)

// Session pairs an Access with the cleanup for whichever backend it wraps.
type Session struct {
	Access Access
	close  func() error
}

// Close releases resources associated with the session.
func (s Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenWithFallback tries IPC-backed access first, then falls back to opening
// the queue database directly so maintenance commands keep working while the
// daemon is down.
func OpenWithFallback(
	cfg *config.Config,
	logger *slog.Logger,
	dial func() (*ipc.Client, error),
	openStore func() (*queue.Store, error),
) (Session, error) {
	if dial != nil {
		if client, err := dial(); err == nil {
			return Session{
				Access: NewIPCAccess(client),
				close:  client.Close,
			}, nil
		}
	}

	if openStore == nil {
		return Session{}, fmt.Errorf("open queue store: no store opener configured")
	}
	store, err := openStore()
	if err != nil {
		return Session{}, fmt.Errorf("open queue store: %w", err)
	}
	return Session{
		Access: NewStoreAccess(cfg, store, logger),
		close:  store.Close,
	}, nil
}
