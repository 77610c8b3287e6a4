// Package ports declares the interfaces the room engine needs from the
// outside world: durable load/save-with-expiry storage and an event sink
// for asynchronous deliveries. Adapters live in subpackages.
package ports

import (
	"context"
	"errors"
	"time"

	"ascent/internal/domain"
)

// ErrNotFound is returned by stores when a key has no live record.
var ErrNotFound = errors.New("record not found")

// RoomStore persists room snapshots keyed by room code. Every Save refreshes
// the record's expiry; a room that stops receiving writes is reclaimed by
// the store once the ttl lapses.
type RoomStore interface {
	Load(ctx context.Context, code string) (*domain.Room, error)
	Save(ctx context.Context, room *domain.Room, ttl time.Duration) error
	Delete(ctx context.Context, code string) error
}

// StatsStore persists per-token counters, with a lifetime independent of any
// room record. Loading an unknown token returns zero counters, not an error.
type StatsStore interface {
	Load(ctx context.Context, token string) (domain.Stats, error)
	Save(ctx context.Context, token string, stats domain.Stats, ttl time.Duration) error
}
