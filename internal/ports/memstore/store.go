// Package memstore is an in-process store adapter used by tests and
// single-node deployments. Records are kept as JSON blobs so loads return
// detached snapshots with the same semantics as the durable backend.
package memstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ascent/internal/domain"
	"ascent/internal/ports"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

type kv struct {
	mu    sync.RWMutex
	items map[string]entry
}

func newKV() *kv {
	return &kv{items: make(map[string]entry)}
}

func (s *kv) get(key string) ([]byte, bool) {
	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.data, true
}

func (s *kv) set(key string, data []byte, ttl time.Duration) {
	s.mu.Lock()
	s.items[key] = entry{data: data, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
}

func (s *kv) delete(key string) {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

func (s *kv) sweep() {
	now := time.Now()
	s.mu.Lock()
	for key, e := range s.items {
		if now.After(e.expiresAt) {
			delete(s.items, key)
		}
	}
	s.mu.Unlock()
}

// Store holds rooms and stats in memory with per-record expiry. Close stops
// the background sweeper.
type Store struct {
	rooms *kv
	stats *kv
	stop  chan struct{}
	once  sync.Once
}

// New builds a Store sweeping expired records at the given interval.
func New(sweepEvery time.Duration) *Store {
	s := &Store{
		rooms: newKV(),
		stats: newKV(),
		stop:  make(chan struct{}),
	}
	go s.janitor(sweepEvery)
	return s
}

func (s *Store) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.rooms.sweep()
			s.stats.sweep()
		case <-s.stop:
			return
		}
	}
}

// Close stops the sweeper. Safe to call more than once.
func (s *Store) Close() {
	s.once.Do(func() { close(s.stop) })
}

// Rooms returns the room-facing view of the store.
func (s *Store) Rooms() ports.RoomStore { return roomStore{s.rooms} }

// Stats returns the stats-facing view of the store.
func (s *Store) Stats() ports.StatsStore { return statsStore{s.stats} }

type roomStore struct{ kv *kv }

func (r roomStore) Load(_ context.Context, code string) (*domain.Room, error) {
	data, ok := r.kv.get(code)
	if !ok {
		return nil, ports.ErrNotFound
	}
	var room domain.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (r roomStore) Save(_ context.Context, room *domain.Room, ttl time.Duration) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	r.kv.set(room.Code, data, ttl)
	return nil
}

func (r roomStore) Delete(_ context.Context, code string) error {
	r.kv.delete(code)
	return nil
}

type statsStore struct{ kv *kv }

func (s statsStore) Load(_ context.Context, token string) (domain.Stats, error) {
	data, ok := s.kv.get(token)
	if !ok {
		return domain.Stats{}, nil
	}
	var stats domain.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}

func (s statsStore) Save(_ context.Context, token string, stats domain.Stats, ttl time.Duration) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	s.kv.set(token, data, ttl)
	return nil
}
