package app

import (
	"time"

	"github.com/samber/lo"

	"ascent/internal/domain"
)

// snapshotEvent builds the public state broadcast for a room. Pile pings past
// their ttl are filtered out here, so expiry holds even if the scheduled
// compare-and-clear never ran (e.g. across a process restart).
func (s *Service) snapshotEvent(room *domain.Room) Event {
	cutoff := time.Now().Add(-s.opts.PingTTL).UnixMilli()
	livePings := lo.PickBy(room.Pings, func(_ domain.PileID, ping domain.PilePing) bool {
		return ping.At >= cutoff
	})

	piles := lo.Map(domain.PileIDs, func(id domain.PileID, _ int) PileView {
		p := room.Piles[id]
		return PileView{ID: p.ID, Kind: p.Kind, Top: p.Top}
	})

	players := make([]PlayerView, 0, len(room.Order))
	for _, token := range room.Order {
		p := room.Players[token]
		players = append(players, PlayerView{
			Token:     p.Token,
			Name:      p.Name,
			Connected: p.Connected,
			HandCount: len(p.Hand),
			Voted:     room.Votes[token].Voted,
		})
	}

	pings := make(map[domain.PileID]PingView, len(livePings))
	for id, ping := range livePings {
		pings[id] = PingView{Kind: ping.Kind, At: ping.At}
	}

	played := make(map[string]int, len(room.Played))
	for token, n := range room.Played {
		played[token] = n
	}

	return Event{
		Kind: EventState,
		Payload: StatePayload{
			Room:       room.Code,
			Status:     room.Status,
			MaxPlayers: room.MaxPlayers,
			Piles:      piles,
			DeckCount:  len(room.Deck),
			TurnToken:  room.TurnToken,
			Played:     played,
			Players:    players,
			Pings:      pings,
		},
	}
}

// handEvent builds the private hand delivery for one token.
func handEvent(room *domain.Room, token string) Event {
	cards := append([]int(nil), room.Players[token].Hand...)
	return Event{
		Kind:       EventHand,
		Payload:    HandPayload{Token: token, Cards: cards},
		Recipients: []string{token},
	}
}

func statsEvent(token string, stats domain.Stats) Event {
	return Event{
		Kind: EventStats,
		Payload: StatsPayload{
			Token:       token,
			GamesPlayed: stats.GamesPlayed,
			Wins:        stats.Wins,
			Losses:      stats.Losses,
		},
		Recipients: []string{token},
	}
}
