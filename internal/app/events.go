package app

import "ascent/internal/domain"

// EventKind identifies outbound events for transport dispatch.
type EventKind string

const (
	// EventState is the public room snapshot broadcast to every member.
	EventState EventKind = "state"
	// EventHand is a private full card list for one identity.
	EventHand EventKind = "hand"
	// EventStats is a private counter snapshot for one identity.
	EventStats EventKind = "stats"
	// EventCreated acknowledges room creation to the requester.
	EventCreated EventKind = "created"
)

// Event is an outbound message with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // tokens; empty means broadcast to the whole room
}

// Sink receives events produced outside a request/response cycle, such as
// ping expiry. The transport adapter implements it; deliveries are
// fire-and-forget.
type Sink interface {
	Publish(room string, events []Event)
}

// PileView is the public face of one pile.
type PileView struct {
	ID   domain.PileID   `json:"id"`
	Kind domain.PileKind `json:"kind"`
	Top  int             `json:"top"`
}

// PlayerView is the public face of one seated player. Hands are counted,
// never listed.
type PlayerView struct {
	Token     string `json:"token"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	HandCount int    `json:"handCount"`
	Voted     bool   `json:"voted"`
}

// PingView is a live pile signal included in the public snapshot.
type PingView struct {
	Kind domain.PingKind `json:"kind"`
	At   int64           `json:"at"`
}

// StatePayload is the public room snapshot.
type StatePayload struct {
	Room       string                     `json:"room"`
	Status     domain.Status              `json:"status"`
	MaxPlayers int                        `json:"maxPlayers"`
	Piles      []PileView                 `json:"piles"`
	DeckCount  int                        `json:"deckCount"`
	TurnToken  string                     `json:"turnToken"`
	Played     map[string]int             `json:"played"`
	Players    []PlayerView               `json:"players"`
	Pings      map[domain.PileID]PingView `json:"pings"`
}

// HandPayload is the private card list for one identity.
type HandPayload struct {
	Token string `json:"token"`
	Cards []int  `json:"cards"`
}

// StatsPayload is the private counter snapshot for one identity.
type StatsPayload struct {
	Token       string `json:"token"`
	GamesPlayed int    `json:"gamesPlayed"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
}

// CreatedPayload acknowledges a create request, echoing the room code the
// server settled on.
type CreatedPayload struct {
	Room string `json:"room"`
}
