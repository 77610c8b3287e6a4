package domain

import (
	"errors"
	"math/rand"
	"testing"
)

func TestNewRoomValidatesCapacity(t *testing.T) {
	for _, n := range []int{-1, 0, 1, 5} {
		if _, err := NewRoom("R1", n); !errors.Is(err, ErrBadMaxPlayers) {
			t.Errorf("maxPlayers=%d: expected ErrBadMaxPlayers, got %v", n, err)
		}
	}
	r, err := NewRoom("R1", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Status != StatusWaiting {
		t.Errorf("new room should be waiting, got %s", r.Status)
	}
}

func TestDealFillsHandsAndResets(t *testing.T) {
	r, _ := NewRoom("R1", 2)
	r.Seat("A", "alice")
	r.Seat("B", "bob")

	r.Deal(rand.New(rand.NewSource(7)), DefaultHandSize)

	if r.Status != StatusChoosingStart {
		t.Fatalf("expected choosing_start, got %s", r.Status)
	}
	if len(r.Deck) != DeckSize-2*DefaultHandSize {
		t.Errorf("expected %d cards left in deck, got %d", DeckSize-2*DefaultHandSize, len(r.Deck))
	}
	for _, token := range []string{"A", "B"} {
		if got := len(r.Players[token].Hand); got != DefaultHandSize {
			t.Errorf("player %s: expected hand of %d, got %d", token, DefaultHandSize, got)
		}
	}

	// Deck plus hands plus non-seed pile tops must be exactly 2..99.
	seen := map[int]int{}
	for _, c := range r.Deck {
		seen[c]++
	}
	for _, p := range r.Players {
		for _, c := range p.Hand {
			seen[c]++
		}
	}
	for c := MinCard; c <= MaxCard; c++ {
		if seen[c] != 1 {
			t.Fatalf("card %d appears %d times across deck and hands", c, seen[c])
		}
	}
}

func TestNextConnectedAfter(t *testing.T) {
	r, _ := NewRoom("R1", 4)
	r.Seat("A", "a")
	r.Seat("B", "b")
	r.Seat("C", "c")

	if got := r.NextConnectedAfter("A"); got != "B" {
		t.Errorf("expected B, got %s", got)
	}

	r.Players["B"].Connected = false
	if got := r.NextConnectedAfter("A"); got != "C" {
		t.Errorf("disconnected B should be skipped, got %s", got)
	}

	// Wraps past the end.
	if got := r.NextConnectedAfter("C"); got != "A" {
		t.Errorf("expected wrap to A, got %s", got)
	}

	// Sole connected player keeps the turn.
	r.Players["C"].Connected = false
	if got := r.NextConnectedAfter("A"); got != "A" {
		t.Errorf("sole connected player should be returned, got %s", got)
	}

	r.Players["A"].Connected = false
	if got := r.NextConnectedAfter("A"); got != "" {
		t.Errorf("no connected players should yield empty token, got %s", got)
	}
}

func TestPickStarter(t *testing.T) {
	r, _ := NewRoom("R1", 3)
	r.Seat("A", "a")
	r.Seat("B", "b")
	r.Seat("C", "c")

	r.CastVote("A", PrefCannot)
	r.CastVote("B", PrefCan)
	if r.AllVoted() {
		t.Fatal("vote should not resolve before every seat has voted")
	}
	r.CastVote("C", PrefCannot)
	if !r.AllVoted() {
		t.Fatal("expected all votes in")
	}

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 20; i++ {
		if got := r.PickStarter(rng); got != "B" {
			t.Fatalf("only willing voter is B, got %s", got)
		}
	}

	// Nobody willing: starter still drawn from all seats.
	r.CastVote("B", PrefCannot)
	starter := r.PickStarter(rng)
	if _, ok := r.Players[starter]; !ok {
		t.Errorf("starter %q is not a seated token", starter)
	}
}

func TestCastVoteIsIdempotentOverwrite(t *testing.T) {
	r, _ := NewRoom("R1", 2)
	r.Seat("A", "a")
	r.Seat("B", "b")

	r.CastVote("A", PrefCannot)
	r.CastVote("A", PrefCan)
	if v := r.Votes["A"]; v.Pref != PrefCan || !v.Voted {
		t.Errorf("re-vote should overwrite, got %+v", v)
	}
}

func TestResetForRematch(t *testing.T) {
	r, _ := NewRoom("R1", 2)
	r.Seat("A", "a")
	r.Seat("B", "b")
	r.Deal(rand.New(rand.NewSource(1)), DefaultHandSize)
	r.Status = StatusWin
	r.TurnToken = "A"
	r.Pings[PileUp1] = PilePing{Kind: PingHave, At: 42}
	r.Players["B"].Connected = false

	r.ResetForRematch()

	if r.Status != StatusWaiting {
		t.Errorf("expected waiting, got %s", r.Status)
	}
	if len(r.Deck) != 0 || r.TurnToken != "" || len(r.Votes) != 0 || len(r.Pings) != 0 {
		t.Error("card and turn state should be discarded")
	}
	if len(r.Players) != 2 || len(r.Order) != 2 {
		t.Error("identities must survive a rematch")
	}
	if r.Players["B"].Connected {
		t.Error("connected flags must survive a rematch")
	}
	for _, p := range r.Players {
		if len(p.Hand) != 0 {
			t.Errorf("hand of %s should be cleared", p.Token)
		}
	}
	if r.Piles[PileUp1].Top != 1 || r.Piles[PileDown1].Top != 100 {
		t.Error("piles should be back at seed values")
	}
}
