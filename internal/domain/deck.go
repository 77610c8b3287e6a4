package domain

import "math/rand"

const (
	// MinCard and MaxCard bound the playable card range. The pile seed
	// values 1 and 100 are never part of the deck.
	MinCard = 2
	MaxCard = 99

	// DeckSize is the number of cards in a fresh deck.
	DeckSize = MaxCard - MinCard + 1

	// DefaultHandSize is how many cards a player holds when fully topped up.
	DefaultHandSize = 6
)

// NewDeck returns a uniformly shuffled permutation of the cards 2..99.
// Draws pop from the end of the slice.
func NewDeck(rng *rand.Rand) []int {
	deck := make([]int, 0, DeckSize)
	for c := MinCard; c <= MaxCard; c++ {
		deck = append(deck, c)
	}
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

// MinPlaysRequired returns how many cards the turn holder must play before
// ending the turn: two while draws remain, one once the deck is exhausted.
func MinPlaysRequired(deckLen int) int {
	if deckLen > 0 {
		return 2
	}
	return 1
}

// RemoveCard removes one occurrence of card from the hand and reports
// whether it was present.
func RemoveCard(hand []int, card int) ([]int, bool) {
	for i, c := range hand {
		if c == card {
			return append(hand[:i], hand[i+1:]...), true
		}
	}
	return hand, false
}
