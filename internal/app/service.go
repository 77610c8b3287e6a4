// Package app contains the room engine use-cases: lobby formation, the
// start vote, move legality and turn rotation, outcome latching and stats.
// Operations load a room snapshot from the store, mutate it and save it
// back, serialized per room code.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"ascent/internal/domain"
	"ascent/internal/ports"
)

const (
	roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	roomCodeLength   = 6
)

// Options are the engine tunables. Zero values fall back to defaults.
type Options struct {
	HandSize int
	RoomTTL  time.Duration
	StatsTTL time.Duration
	PingTTL  time.Duration
}

func (o *Options) fillDefaults() {
	if o.HandSize <= 0 {
		o.HandSize = domain.DefaultHandSize
	}
	if o.RoomTTL <= 0 {
		o.RoomTTL = 24 * time.Hour
	}
	if o.StatsTTL <= 0 {
		o.StatsTTL = 30 * 24 * time.Hour
	}
	if o.PingTTL <= 0 {
		o.PingTTL = 4 * time.Second
	}
}

// Service implements the per-room state machine over injected stores.
type Service struct {
	rooms      ports.RoomStore
	stats      ports.StatsStore
	log        *zap.Logger
	opts       Options
	locks      *keyedLocks
	statsLocks *keyedLocks

	rngMu sync.Mutex
	rng   *rand.Rand

	sinkMu sync.RWMutex
	sink   Sink
}

// NewService constructs a Service with the provided rng or a time-seeded
// default.
func NewService(rooms ports.RoomStore, stats ports.StatsStore, rng *rand.Rand, log *zap.Logger, opts Options) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if log == nil {
		log = zap.NewNop()
	}
	opts.fillDefaults()
	return &Service{
		rooms:      rooms,
		stats:      stats,
		log:        log,
		opts:       opts,
		locks:      newKeyedLocks(),
		statsLocks: newKeyedLocks(),
		rng:        rng,
	}
}

// SetSink attaches the transport used for asynchronous deliveries such as
// ping expiry broadcasts.
func (s *Service) SetSink(sink Sink) {
	s.sinkMu.Lock()
	s.sink = sink
	s.sinkMu.Unlock()
}

func (s *Service) publish(room string, events []Event) {
	s.sinkMu.RLock()
	sink := s.sink
	s.sinkMu.RUnlock()
	if sink != nil && len(events) > 0 {
		sink.Publish(room, events)
	}
}

// withRoom runs fn against the current room snapshot under the room's lock
// and persists the result. A returned error aborts the save, so rejects
// leave the stored room untouched.
func (s *Service) withRoom(ctx context.Context, code string, fn func(*domain.Room) ([]Event, error)) ([]Event, error) {
	unlock := s.locks.acquire(code)
	defer unlock()

	room, err := s.rooms.Load(ctx, code)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("load room %s: %w", code, err)
	}

	events, err := fn(room)
	if err != nil {
		return nil, err
	}

	if err := s.rooms.Save(ctx, room, s.opts.RoomTTL); err != nil {
		return nil, fmt.Errorf("save room %s: %w", code, err)
	}
	return events, nil
}

// Create makes a room for the code if absent; creating an existing room is a
// no-op that re-broadcasts its snapshot. An empty code asks the server to
// generate one.
func (s *Service) Create(ctx context.Context, code string, maxPlayers int) (string, []Event, error) {
	if code == "" {
		generated, err := gonanoid.Generate(roomCodeAlphabet, roomCodeLength)
		if err != nil {
			return "", nil, fmt.Errorf("generate room code: %w", err)
		}
		code = generated
	}

	unlock := s.locks.acquire(code)
	defer unlock()

	existing, err := s.rooms.Load(ctx, code)
	if err == nil {
		return code, []Event{
			{Kind: EventCreated, Payload: CreatedPayload{Room: code}},
			s.snapshotEvent(existing),
		}, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return "", nil, fmt.Errorf("load room %s: %w", code, err)
	}

	room, err := domain.NewRoom(code, maxPlayers)
	if err != nil {
		return "", nil, errValidation("%v", err)
	}
	if err := s.rooms.Save(ctx, room, s.opts.RoomTTL); err != nil {
		return "", nil, fmt.Errorf("save room %s: %w", code, err)
	}

	s.log.Info("room created", zap.String("room", code), zap.Int("maxPlayers", maxPlayers))
	return code, []Event{
		{Kind: EventCreated, Payload: CreatedPayload{Room: code}},
		s.snapshotEvent(room),
	}, nil
}

// Join seats a new identity or reconnects a known one. A known token is
// never capacity-checked; an unknown token bounces off a full room.
func (s *Service) Join(ctx context.Context, code, token, name string) ([]Event, error) {
	if token == "" {
		return nil, errValidation("missing player token")
	}

	return s.withRoom(ctx, code, func(room *domain.Room) ([]Event, error) {
		if p, ok := room.Players[token]; ok {
			return s.reconnect(ctx, room, p, name), nil
		}

		if room.Full() {
			return nil, ErrRoomFull
		}

		room.Seat(token, name)
		s.log.Info("player seated",
			zap.String("room", room.Code),
			zap.String("token", token),
			zap.Int("seated", len(room.Players)))

		events := []Event{}
		if room.Full() {
			s.deal(room)
		}
		events = append(events, s.snapshotEvent(room))
		if room.Status == domain.StatusChoosingStart {
			for _, t := range room.Order {
				events = append(events, handEvent(room, t))
			}
		}
		if ev, ok := s.loadStatsEvent(ctx, token); ok {
			events = append(events, ev)
		}
		return events, nil
	})
}

// reconnect reattaches a known identity: the hand and seat are untouched,
// and a turn stuck on a disconnected holder moves on.
func (s *Service) reconnect(ctx context.Context, room *domain.Room, p *domain.Player, name string) []Event {
	p.Connected = true
	if name != "" {
		p.Name = name
	}

	if room.Status == domain.StatusPlaying && room.TurnToken != "" {
		if holder, ok := room.Players[room.TurnToken]; ok && !holder.Connected {
			if next := room.NextConnectedAfter(room.TurnToken); next != "" {
				room.TurnToken = next
			}
		}
	}

	s.log.Info("player reconnected", zap.String("room", room.Code), zap.String("token", p.Token))

	events := []Event{s.snapshotEvent(room), handEvent(room, p.Token)}
	if ev, ok := s.loadStatsEvent(ctx, p.Token); ok {
		events = append(events, ev)
	}
	return events
}

// StartPref records a start-vote preference; the vote resolves once every
// seated token has voted at least once.
func (s *Service) StartPref(ctx context.Context, code, token, pref string) ([]Event, error) {
	if pref != domain.PrefCan && pref != domain.PrefCannot {
		return nil, errValidation("unknown start preference %q", pref)
	}

	return s.withRoom(ctx, code, func(room *domain.Room) ([]Event, error) {
		if _, ok := room.Players[token]; !ok {
			return nil, ErrNotSeated
		}
		if room.Status != domain.StatusChoosingStart {
			return nil, ErrBadState
		}

		room.CastVote(token, pref)

		if room.AllVoted() {
			starter := s.pickStarter(room)
			room.Status = domain.StatusPlaying
			room.TurnToken = starter
			room.Played = map[string]int{}
			s.log.Info("start vote resolved",
				zap.String("room", room.Code),
				zap.String("starter", starter))
		}

		return []Event{s.snapshotEvent(room)}, nil
	})
}

// Play validates and applies a single card onto a pile. The acting player
// draws nothing here; draws happen only when the turn ends.
func (s *Service) Play(ctx context.Context, code, token string, card int, pileID string) ([]Event, error) {
	return s.withRoom(ctx, code, func(room *domain.Room) ([]Event, error) {
		if room.Status != domain.StatusPlaying {
			return nil, ErrBadState
		}
		if room.TurnToken != token {
			return nil, ErrNotYourTurn
		}
		pile, ok := room.Piles[domain.PileID(pileID)]
		if !ok {
			return nil, ErrInvalidPile
		}
		p := room.Players[token]
		if !lo.Contains(p.Hand, card) {
			return nil, ErrInvalidCard
		}
		if !domain.CanPlay(card, pile) {
			return nil, ErrIllegalMove
		}

		p.Hand, _ = domain.RemoveCard(p.Hand, card)
		pile.Top = card
		room.Played[token]++

		statsEvents := s.latchIfTerminal(ctx, room)

		events := []Event{s.snapshotEvent(room), handEvent(room, token)}
		return append(events, statsEvents...), nil
	})
}

// EndTurn processes an explicit end-of-turn request from the current holder:
// enforce the minimum-plays rule (with the pass exception), refill the hand,
// evaluate the outcome and rotate the turn to the next connected token.
func (s *Service) EndTurn(ctx context.Context, code, token string) ([]Event, error) {
	return s.withRoom(ctx, code, func(room *domain.Room) ([]Event, error) {
		if room.Status != domain.StatusPlaying {
			return nil, ErrBadState
		}
		if room.TurnToken != token {
			return nil, ErrNotYourTurn
		}

		p := room.Players[token]
		required := domain.MinPlaysRequired(len(room.Deck))
		if room.Played[token] < required && domain.AnyLegalMove(p.Hand, room.Piles) {
			return nil, errMustPlayMore(required)
		}

		room.RefillHand(p, s.opts.HandSize)
		room.Played[token] = 0

		statsEvents := s.latchIfTerminal(ctx, room)
		if !room.Status.Terminal() {
			if next := room.NextConnectedAfter(token); next != "" {
				room.TurnToken = next
			}
		}

		events := []Event{s.snapshotEvent(room), handEvent(room, token)}
		return append(events, statsEvents...), nil
	})
}

// PilePing records an ephemeral signal on a pile, overwriting any prior one,
// and schedules its compare-and-clear expiry.
func (s *Service) PilePing(ctx context.Context, code, pileID, kind string) ([]Event, error) {
	pingKind := domain.PingKind(kind)
	if pingKind != domain.PingHave && pingKind != domain.PingDont {
		return nil, errValidation("unknown ping kind %q", kind)
	}

	pid := domain.PileID(pileID)
	return s.withRoom(ctx, code, func(room *domain.Room) ([]Event, error) {
		if _, ok := room.Piles[pid]; !ok {
			return nil, ErrInvalidPile
		}

		at := time.Now().UnixMilli()
		room.Pings[pid] = domain.PilePing{Kind: pingKind, At: at}

		time.AfterFunc(s.opts.PingTTL, func() {
			s.expirePing(context.Background(), code, pid, at)
		})

		return []Event{s.snapshotEvent(room)}, nil
	})
}

// errNoop aborts a withRoom cycle without persisting or surfacing anything.
var errNoop = errors.New("no-op")

// expirePing clears a pile ping only if its timestamp still matches the one
// that scheduled the expiry, then broadcasts the refreshed snapshot.
func (s *Service) expirePing(ctx context.Context, code string, pid domain.PileID, at int64) {
	events, err := s.withRoom(ctx, code, func(room *domain.Room) ([]Event, error) {
		ping, ok := room.Pings[pid]
		if !ok || ping.At != at {
			return nil, errNoop
		}
		delete(room.Pings, pid)
		return []Event{s.snapshotEvent(room)}, nil
	})
	if err != nil {
		if !errors.Is(err, errNoop) && !errors.Is(err, ErrRoomNotFound) {
			s.log.Warn("ping expiry failed", zap.String("room", code), zap.Error(err))
		}
		return
	}
	s.publish(code, events)
}

// Rematch keeps seats, identities and stats but discards all card state,
// returning to the lobby; a still-full room re-deals immediately.
func (s *Service) Rematch(ctx context.Context, code string) ([]Event, error) {
	return s.withRoom(ctx, code, func(room *domain.Room) ([]Event, error) {
		room.ResetForRematch()
		if room.Full() {
			s.deal(room)
		}

		s.log.Info("rematch", zap.String("room", room.Code), zap.String("status", string(room.Status)))

		events := []Event{s.snapshotEvent(room)}
		if room.Status == domain.StatusChoosingStart {
			for _, t := range room.Order {
				events = append(events, handEvent(room, t))
			}
		}
		return events, nil
	})
}

// Disconnect marks an identity as away. Hand, seat and stats persist; a turn
// held by the leaver advances immediately so the room cannot stall. Unknown
// rooms and tokens are silently ignored since disconnects race room expiry.
// A finished room emptied of its last connection is reclaimed on the spot.
func (s *Service) Disconnect(ctx context.Context, code, token string) ([]Event, error) {
	unlock := s.locks.acquire(code)
	defer unlock()

	room, err := s.rooms.Load(ctx, code)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load room %s: %w", code, err)
	}

	p, ok := room.Players[token]
	if !ok || !p.Connected {
		return nil, nil
	}
	p.Connected = false

	if room.Status == domain.StatusPlaying && room.TurnToken == token {
		if next := room.NextConnectedAfter(token); next != "" && next != token {
			room.TurnToken = next
			room.Played[token] = 0
		}
	}

	statsEvents := s.latchIfTerminal(ctx, room)

	if room.Status.Terminal() && room.ConnectedCount() == 0 {
		if err := s.rooms.Delete(ctx, code); err != nil {
			return nil, fmt.Errorf("delete room %s: %w", code, err)
		}
		s.log.Info("finished room reclaimed", zap.String("room", code))
		return nil, nil
	}

	if err := s.rooms.Save(ctx, room, s.opts.RoomTTL); err != nil {
		return nil, fmt.Errorf("save room %s: %w", code, err)
	}

	s.log.Info("player disconnected", zap.String("room", room.Code), zap.String("token", token))
	return append([]Event{s.snapshotEvent(room)}, statsEvents...), nil
}

// latchIfTerminal evaluates the outcome and, exactly once at the transition
// into win or lose, bumps the counters of every token seated at that
// instant. Stats failures are logged and skipped; the latch itself is never
// rolled back.
func (s *Service) latchIfTerminal(ctx context.Context, room *domain.Room) []Event {
	outcome := domain.EvaluateOutcome(room)
	if !outcome.Terminal() || room.Status == outcome {
		return nil
	}
	room.Status = outcome

	events := make([]Event, 0, len(room.Order))
	for _, token := range room.Order {
		stats, ok := s.bumpStats(ctx, token, outcome)
		if !ok {
			continue
		}
		events = append(events, statsEvent(token, stats))
	}

	s.log.Info("game over",
		zap.String("room", room.Code),
		zap.String("outcome", string(outcome)))
	return events
}

// bumpStats increments one token's counters under its own lock. A token can
// sit in several rooms; only its room lock is held here, so two rooms
// latching at once must not interleave their load-modify-save cycles.
func (s *Service) bumpStats(ctx context.Context, token string, outcome domain.Status) (domain.Stats, bool) {
	unlock := s.statsLocks.acquire(token)
	defer unlock()

	stats, err := s.stats.Load(ctx, token)
	if err != nil {
		s.log.Warn("stats load failed", zap.String("token", token), zap.Error(err))
		return domain.Stats{}, false
	}
	stats.GamesPlayed++
	if outcome == domain.StatusWin {
		stats.Wins++
	} else {
		stats.Losses++
	}
	if err := s.stats.Save(ctx, token, stats, s.opts.StatsTTL); err != nil {
		s.log.Warn("stats save failed", zap.String("token", token), zap.Error(err))
	}
	return stats, true
}

func (s *Service) deal(room *domain.Room) {
	s.rngMu.Lock()
	room.Deal(s.rng, s.opts.HandSize)
	s.rngMu.Unlock()
}

func (s *Service) pickStarter(room *domain.Room) string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return room.PickStarter(s.rng)
}

func (s *Service) loadStatsEvent(ctx context.Context, token string) (Event, bool) {
	stats, err := s.stats.Load(ctx, token)
	if err != nil {
		s.log.Warn("stats load failed", zap.String("token", token), zap.Error(err))
		return Event{}, false
	}
	return statsEvent(token, stats), true
}
