package domain

import (
	"math/rand"
	"testing"
)

func playingRoom(t *testing.T) *Room {
	t.Helper()
	r, err := NewRoom("R1", 2)
	if err != nil {
		t.Fatal(err)
	}
	r.Seat("A", "a")
	r.Seat("B", "b")
	r.Deal(rand.New(rand.NewSource(1)), DefaultHandSize)
	r.Status = StatusPlaying
	r.TurnToken = "A"
	return r
}

func TestEvaluateOutcomeWin(t *testing.T) {
	r := playingRoom(t)
	r.Deck = nil
	r.Players["A"].Hand = nil
	r.Players["B"].Hand = nil

	if got := EvaluateOutcome(r); got != StatusWin {
		t.Fatalf("expected win, got %s", got)
	}

	// Latched: a terminal room is never re-evaluated.
	r.Status = StatusWin
	r.Players["A"].Hand = []int{50}
	if got := EvaluateOutcome(r); got != StatusWin {
		t.Errorf("terminal room must stay %s, got %s", StatusWin, got)
	}
}

func TestEvaluateOutcomeLose(t *testing.T) {
	r := playingRoom(t)
	// Pin the piles so nothing in either hand is playable.
	r.Piles = map[PileID]*Pile{
		PileUp1:   {ID: PileUp1, Kind: PileAscending, Top: 99},
		PileUp2:   {ID: PileUp2, Kind: PileAscending, Top: 99},
		PileDown1: {ID: PileDown1, Kind: PileDescending, Top: 2},
		PileDown2: {ID: PileDown2, Kind: PileDescending, Top: 2},
	}
	r.Players["A"].Hand = []int{50}
	r.Players["B"].Hand = []int{60}

	if got := EvaluateOutcome(r); got != StatusLose {
		t.Fatalf("expected lose, got %s", got)
	}

	// Decade jumps keep the room alive.
	r.Players["A"].Hand = []int{89}
	if got := EvaluateOutcome(r); got != StatusPlaying {
		t.Errorf("89 on top=99 is a decade jump; expected playing, got %s", got)
	}
}

func TestEvaluateOutcomeIgnoresDisconnectedHands(t *testing.T) {
	r := playingRoom(t)
	r.Piles[PileUp1].Top = 99
	r.Piles[PileUp2].Top = 99
	r.Piles[PileDown1].Top = 2
	r.Piles[PileDown2].Top = 2
	r.Players["A"].Hand = []int{89} // playable, but A is gone
	r.Players["A"].Connected = false
	r.Players["B"].Hand = []int{60}

	if got := EvaluateOutcome(r); got != StatusLose {
		t.Errorf("only connected hands count for the lose check, got %s", got)
	}
}

func TestEvaluateOutcomeWithNobodyConnected(t *testing.T) {
	r := playingRoom(t)
	r.Players["A"].Connected = false
	r.Players["B"].Connected = false
	r.Players["A"].Hand = []int{50}
	r.Players["B"].Hand = []int{60}

	if got := EvaluateOutcome(r); got != StatusPlaying {
		t.Errorf("an abandoned room should idle rather than lose, got %s", got)
	}
}
