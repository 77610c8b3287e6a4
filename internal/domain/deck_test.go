package domain

import (
	"math/rand"
	"testing"
)

func TestNewDeckIsPermutationOfRange(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewSource(1)))

	if len(deck) != DeckSize {
		t.Fatalf("expected %d cards, got %d", DeckSize, len(deck))
	}

	seen := map[int]bool{}
	for _, c := range deck {
		if c < MinCard || c > MaxCard {
			t.Errorf("card %d out of range", c)
		}
		if seen[c] {
			t.Errorf("duplicate card %d", c)
		}
		seen[c] = true
	}
}

func TestNewDeckIsShuffled(t *testing.T) {
	a := NewDeck(rand.New(rand.NewSource(1)))
	b := NewDeck(rand.New(rand.NewSource(2)))

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("two decks from different seeds came out identical")
	}
}

func TestMinPlaysRequired(t *testing.T) {
	tests := []struct {
		name     string
		deckLen  int
		expected int
	}{
		{name: "full deck", deckLen: 98, expected: 2},
		{name: "one card left", deckLen: 1, expected: 2},
		{name: "empty deck", deckLen: 0, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MinPlaysRequired(tt.deckLen); got != tt.expected {
				t.Errorf("MinPlaysRequired(%d) = %d, want %d", tt.deckLen, got, tt.expected)
			}
		})
	}
}

func TestRemoveCard(t *testing.T) {
	hand, ok := RemoveCard([]int{4, 9, 31}, 9)
	if !ok {
		t.Fatal("expected card to be found")
	}
	if len(hand) != 2 || hand[0] != 4 || hand[1] != 31 {
		t.Errorf("unexpected hand after removal: %v", hand)
	}

	if _, ok := RemoveCard([]int{4, 9, 31}, 77); ok {
		t.Error("expected missing card to report false")
	}
}
