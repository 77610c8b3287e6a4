package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"ascent/internal/domain"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureSink) Publish(_ string, events []Event) {
	c.mu.Lock()
	c.events = append(c.events, events...)
	c.mu.Unlock()
}

func (c *captureSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestPilePingValidation(t *testing.T) {
	svc, store := newTestService(t, Options{})
	ctx := context.Background()
	playingRoom(t, store)

	if _, err := svc.PilePing(ctx, "R1", "up1", "loudly"); rejectCode(t, err) != "VALIDATION" {
		t.Error("unknown ping kind must be rejected")
	}
	if _, err := svc.PilePing(ctx, "R1", "nope", "have"); rejectCode(t, err) != "INVALID_PILE" {
		t.Error("unknown pile must be rejected")
	}
}

func TestPilePingOverwriteAndExpiry(t *testing.T) {
	svc, store := newTestService(t, Options{PingTTL: 200 * time.Millisecond})
	sink := &captureSink{}
	svc.SetSink(sink)
	ctx := context.Background()
	playingRoom(t, store)

	state := findState(t, mustEvents(t)(svc.PilePing(ctx, "R1", "up1", "have")))
	if ping, ok := state.Pings[domain.PileUp1]; !ok || ping.Kind != domain.PingHave {
		t.Fatalf("expected a live have-ping, got %+v", state.Pings)
	}

	// A newer ping on the same pile overwrites the old one.
	time.Sleep(100 * time.Millisecond)
	state = findState(t, mustEvents(t)(svc.PilePing(ctx, "R1", "up1", "dont")))
	if ping := state.Pings[domain.PileUp1]; ping.Kind != domain.PingDont {
		t.Fatalf("expected the newer ping to win, got %+v", ping)
	}

	// The first ping's timer fires now; its stale timestamp must not clear
	// the newer ping.
	time.Sleep(150 * time.Millisecond)
	room := loadRoom(t, store, "R1")
	if ping, ok := room.Pings[domain.PileUp1]; !ok || ping.Kind != domain.PingDont {
		t.Fatalf("stale expiry erased a newer ping: %+v", room.Pings)
	}

	// The second timer clears it and broadcasts through the sink.
	time.Sleep(200 * time.Millisecond)
	room = loadRoom(t, store, "R1")
	if _, ok := room.Pings[domain.PileUp1]; ok {
		t.Fatal("ping should have expired")
	}
	if sink.count() == 0 {
		t.Error("expiry should publish a refreshed snapshot")
	}
}

func TestSnapshotFiltersStalePings(t *testing.T) {
	svc, store := newTestService(t, Options{PingTTL: 50 * time.Millisecond})
	room := playingRoom(t, store)
	room.Pings[domain.PileDown1] = domain.PilePing{
		Kind: domain.PingHave,
		At:   time.Now().Add(-time.Second).UnixMilli(),
	}
	saveRoom(t, store, room)

	// Stale pings are invisible even if no timer ever cleared them.
	state := findState(t, mustEvents(t)(svc.Join(context.Background(), "R1", "A", "")))
	if _, ok := state.Pings[domain.PileDown1]; ok {
		t.Error("snapshot must filter pings past their ttl")
	}
}
