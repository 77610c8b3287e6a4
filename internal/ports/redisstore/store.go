// Package redisstore adapts the room and stats stores onto Redis. Records
// are JSON blobs written with SET EX, so expiry refresh rides on every save.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ascent/internal/domain"
	"ascent/internal/ports"
)

const (
	roomKeyPrefix  = "room:"
	statsKeyPrefix = "stats:"
)

// Rooms implements ports.RoomStore on a Redis client.
type Rooms struct {
	rdb *redis.Client
}

// NewRooms wraps an existing client.
func NewRooms(rdb *redis.Client) *Rooms {
	return &Rooms{rdb: rdb}
}

func (s *Rooms) Load(ctx context.Context, code string) (*domain.Room, error) {
	data, err := s.rdb.Get(ctx, roomKeyPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", code, err)
	}
	var room domain.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", code, err)
	}
	return &room, nil
}

func (s *Rooms) Save(ctx context.Context, room *domain.Room, ttl time.Duration) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", room.Code, err)
	}
	if err := s.rdb.Set(ctx, roomKeyPrefix+room.Code, data, ttl).Err(); err != nil {
		return fmt.Errorf("save room %s: %w", room.Code, err)
	}
	return nil
}

func (s *Rooms) Delete(ctx context.Context, code string) error {
	if err := s.rdb.Del(ctx, roomKeyPrefix+code).Err(); err != nil {
		return fmt.Errorf("delete room %s: %w", code, err)
	}
	return nil
}

// Stats implements ports.StatsStore on a Redis client.
type Stats struct {
	rdb *redis.Client
}

// NewStats wraps an existing client.
func NewStats(rdb *redis.Client) *Stats {
	return &Stats{rdb: rdb}
}

func (s *Stats) Load(ctx context.Context, token string) (domain.Stats, error) {
	data, err := s.rdb.Get(ctx, statsKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Stats{}, nil
	}
	if err != nil {
		return domain.Stats{}, fmt.Errorf("load stats: %w", err)
	}
	var stats domain.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return domain.Stats{}, fmt.Errorf("decode stats: %w", err)
	}
	return stats, nil
}

func (s *Stats) Save(ctx context.Context, token string, stats domain.Stats, ttl time.Duration) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := s.rdb.Set(ctx, statsKeyPrefix+token, data, ttl).Err(); err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	return nil
}
