package domain

// PileKind is the direction a pile climbs in.
type PileKind string

const (
	// PileAscending piles start at 1 and grow toward 99.
	PileAscending PileKind = "ascending"
	// PileDescending piles start at 100 and shrink toward 2.
	PileDescending PileKind = "descending"
)

// PileID identifies one of the four shared piles.
type PileID string

const (
	PileUp1   PileID = "up1"
	PileUp2   PileID = "up2"
	PileDown1 PileID = "down1"
	PileDown2 PileID = "down2"
)

// PileIDs lists the four pile ids in stable display order.
var PileIDs = []PileID{PileUp1, PileUp2, PileDown1, PileDown2}

// Pile is one shared stack. Only the top value matters.
type Pile struct {
	ID   PileID   `json:"id"`
	Kind PileKind `json:"kind"`
	Top  int      `json:"top"`
}

// NewPiles returns the four piles reset to their seed values.
func NewPiles() map[PileID]*Pile {
	return map[PileID]*Pile{
		PileUp1:   {ID: PileUp1, Kind: PileAscending, Top: 1},
		PileUp2:   {ID: PileUp2, Kind: PileAscending, Top: 1},
		PileDown1: {ID: PileDown1, Kind: PileDescending, Top: 100},
		PileDown2: {ID: PileDown2, Kind: PileDescending, Top: 100},
	}
}

// CanPlay reports whether the card is legal on the pile. Ascending piles
// accept any higher card or the card exactly ten below the top (the decade
// jump); descending piles mirror that. The decade jump is intentionally not
// clamped to the 2..99 range.
func CanPlay(card int, pile *Pile) bool {
	switch pile.Kind {
	case PileAscending:
		return card > pile.Top || card == pile.Top-10
	case PileDescending:
		return card < pile.Top || card == pile.Top+10
	}
	return false
}

// AnyLegalMove reports whether any card in the hand can be played on any pile.
func AnyLegalMove(hand []int, piles map[PileID]*Pile) bool {
	for _, card := range hand {
		for _, pile := range piles {
			if CanPlay(card, pile) {
				return true
			}
		}
	}
	return false
}
