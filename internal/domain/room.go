package domain

import (
	"errors"
	"fmt"
	"math/rand"
)

// Status is the lifecycle stage of a room.
type Status string

const (
	// StatusWaiting is the lobby state where players can take seats.
	StatusWaiting Status = "waiting"
	// StatusChoosingStart is the pre-game vote on who plays first.
	StatusChoosingStart Status = "choosing_start"
	// StatusPlaying is the active game state.
	StatusPlaying Status = "playing"
	// StatusWin and StatusLose are terminal; card state never mutates again.
	StatusWin  Status = "win"
	StatusLose Status = "lose"
)

// Terminal reports whether the status is a latched end state.
func (s Status) Terminal() bool {
	return s == StatusWin || s == StatusLose
}

// PingKind is the flavor of an ephemeral pile signal.
type PingKind string

const (
	PingHave PingKind = "have"
	PingDont PingKind = "dont"
)

// PilePing is a best-effort, non-authoritative signal on a pile. At is a
// unix-millisecond stamp used for compare-and-clear expiry.
type PilePing struct {
	Kind PingKind `json:"kind"`
	At   int64    `json:"at"`
}

// Player holds the durable per-seat state. The live connection handle is
// transport-owned and never stored here.
type Player struct {
	Token     string `json:"token"`
	Name      string `json:"name"`
	Hand      []int  `json:"hand"`
	Connected bool   `json:"connected"`
}

// StartVote is one seated token's recorded preference.
type StartVote struct {
	Pref  string `json:"pref"` // "can" or "cannot"
	Voted bool   `json:"voted"`
}

const (
	PrefCan    = "can"
	PrefCannot = "cannot"
)

var (
	ErrBadMaxPlayers = errors.New("max players must be between 2 and 4")
)

// Room is the authoritative aggregate for one game room. All fields are
// concrete and serializable; the store round-trips it as JSON.
type Room struct {
	Code       string               `json:"code"`
	Status     Status               `json:"status"`
	MaxPlayers int                  `json:"maxPlayers"`
	Deck       []int                `json:"deck"`
	Piles      map[PileID]*Pile     `json:"piles"`
	Players    map[string]*Player   `json:"players"`
	Order      []string             `json:"order"` // tokens in stable join order
	TurnToken  string               `json:"turnToken"`
	Played     map[string]int       `json:"played"` // cards played this turn, per token
	Votes      map[string]StartVote `json:"votes"`
	Pings      map[PileID]PilePing  `json:"pings"`
}

// NewRoom constructs a waiting room with seeded piles and no deck dealt.
func NewRoom(code string, maxPlayers int) (*Room, error) {
	if maxPlayers < 2 || maxPlayers > 4 {
		return nil, fmt.Errorf("%w: got %d", ErrBadMaxPlayers, maxPlayers)
	}
	return &Room{
		Code:       code,
		Status:     StatusWaiting,
		MaxPlayers: maxPlayers,
		Piles:      NewPiles(),
		Players:    map[string]*Player{},
		Played:     map[string]int{},
		Votes:      map[string]StartVote{},
		Pings:      map[PileID]PilePing{},
	}, nil
}

// Full reports whether every seat is taken.
func (r *Room) Full() bool {
	return len(r.Players) >= r.MaxPlayers
}

// Seat adds a new connected player in join order. The caller checks capacity.
func (r *Room) Seat(token, name string) *Player {
	p := &Player{Token: token, Name: name, Connected: true}
	r.Players[token] = p
	r.Order = append(r.Order, token)
	return p
}

// Deal resets card state and moves the room into the start vote: fresh
// shuffled deck, piles back to seeds, hands refilled from empty, per-turn
// counters and votes cleared.
func (r *Room) Deal(rng *rand.Rand, handSize int) {
	r.Deck = NewDeck(rng)
	r.Piles = NewPiles()
	r.TurnToken = ""
	r.Played = map[string]int{}
	r.Votes = map[string]StartVote{}
	r.Pings = map[PileID]PilePing{}
	for _, token := range r.Order {
		p := r.Players[token]
		p.Hand = nil
		r.RefillHand(p, handSize)
	}
	r.Status = StatusChoosingStart
}

// Draw pops one card from the deck, reporting false when it is empty.
func (r *Room) Draw() (int, bool) {
	if len(r.Deck) == 0 {
		return 0, false
	}
	card := r.Deck[len(r.Deck)-1]
	r.Deck = r.Deck[:len(r.Deck)-1]
	return card, true
}

// RefillHand tops the player's hand up to handSize, or fewer if the deck
// runs short.
func (r *Room) RefillHand(p *Player, handSize int) {
	for len(p.Hand) < handSize {
		card, ok := r.Draw()
		if !ok {
			return
		}
		p.Hand = append(p.Hand, card)
	}
}

// NextConnectedAfter returns the next connected token after the given one in
// stable join order, wrapping. When the given token is the sole connected
// player it is returned unchanged; when nobody is connected it returns "".
func (r *Room) NextConnectedAfter(token string) string {
	start := -1
	for i, t := range r.Order {
		if t == token {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}
	for i := 1; i <= len(r.Order); i++ {
		next := r.Order[(start+i)%len(r.Order)]
		if r.Players[next].Connected {
			return next
		}
	}
	return ""
}

// ConnectedCount returns how many seated players hold a live connection.
func (r *Room) ConnectedCount() int {
	n := 0
	for _, p := range r.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

// CastVote records or overwrites a start preference for a seated token.
func (r *Room) CastVote(token, pref string) {
	r.Votes[token] = StartVote{Pref: pref, Voted: true}
}

// AllVoted reports whether every currently seated token has voted.
func (r *Room) AllVoted() bool {
	for _, token := range r.Order {
		if !r.Votes[token].Voted {
			return false
		}
	}
	return len(r.Order) > 0
}

// PickStarter selects the first turn holder: uniformly among tokens that
// voted "can", or among all seated tokens when nobody did.
func (r *Room) PickStarter(rng *rand.Rand) string {
	var willing []string
	for _, token := range r.Order {
		if r.Votes[token].Voted && r.Votes[token].Pref == PrefCan {
			willing = append(willing, token)
		}
	}
	if len(willing) == 0 {
		willing = r.Order
	}
	return willing[rng.Intn(len(willing))]
}

// ResetForRematch keeps seats, identities and capacity but discards all card
// and turn state, returning the room to the lobby.
func (r *Room) ResetForRematch() {
	r.Status = StatusWaiting
	r.Deck = nil
	r.Piles = NewPiles()
	r.TurnToken = ""
	r.Played = map[string]int{}
	r.Votes = map[string]StartVote{}
	r.Pings = map[PileID]PilePing{}
	for _, p := range r.Players {
		p.Hand = nil
	}
}
