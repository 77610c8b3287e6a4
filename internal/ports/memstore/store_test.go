package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ascent/internal/domain"
	"ascent/internal/ports"
)

func TestRoomRoundTrip(t *testing.T) {
	s := New(time.Minute)
	defer s.Close()
	ctx := context.Background()

	room, err := domain.NewRoom("R1", 3)
	require.NoError(t, err)
	room.Seat("A", "alice")

	require.NoError(t, s.Rooms().Save(ctx, room, time.Minute))

	loaded, err := s.Rooms().Load(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, "R1", loaded.Code)
	assert.Equal(t, 3, loaded.MaxPlayers)
	assert.Equal(t, "alice", loaded.Players["A"].Name)
	assert.Equal(t, 1, loaded.Piles[domain.PileUp1].Top)

	// Loads are detached snapshots, not aliases.
	loaded.Players["A"].Name = "mallory"
	again, err := s.Rooms().Load(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Players["A"].Name)
}

func TestRoomExpiry(t *testing.T) {
	s := New(time.Minute)
	defer s.Close()
	ctx := context.Background()

	room, err := domain.NewRoom("R1", 2)
	require.NoError(t, err)
	require.NoError(t, s.Rooms().Save(ctx, room, 10*time.Millisecond))

	time.Sleep(30 * time.Millisecond)

	_, err = s.Rooms().Load(ctx, "R1")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRoomDelete(t *testing.T) {
	s := New(time.Minute)
	defer s.Close()
	ctx := context.Background()

	room, err := domain.NewRoom("R1", 2)
	require.NoError(t, err)
	require.NoError(t, s.Rooms().Save(ctx, room, time.Minute))
	require.NoError(t, s.Rooms().Delete(ctx, "R1"))

	_, err = s.Rooms().Load(ctx, "R1")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestStatsUnknownTokenIsZero(t *testing.T) {
	s := New(time.Minute)
	defer s.Close()
	ctx := context.Background()

	stats, err := s.Stats().Load(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, stats)

	require.NoError(t, s.Stats().Save(ctx, "A", domain.Stats{GamesPlayed: 2, Wins: 1, Losses: 1}, time.Minute))
	stats, err = s.Stats().Load(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.GamesPlayed)
	assert.Equal(t, 1, stats.Wins)
}
