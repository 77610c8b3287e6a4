package domain

// EvaluateOutcome inspects a playing room and returns its next status. The
// result is latched: a terminal room is returned unchanged and never
// re-evaluated. A win requires the deck and every seated hand to be empty.
// A loss requires cards left somewhere and no connected player holding a
// legal move; with zero connected players the room is left as-is so it can
// resume if someone rejoins within the retention window.
func EvaluateOutcome(r *Room) Status {
	if r.Status != StatusPlaying {
		return r.Status
	}

	allEmpty := true
	for _, p := range r.Players {
		if len(p.Hand) > 0 {
			allEmpty = false
			break
		}
	}
	if len(r.Deck) == 0 && allEmpty {
		return StatusWin
	}

	if r.ConnectedCount() == 0 {
		return r.Status
	}
	for _, p := range r.Players {
		if p.Connected && AnyLegalMove(p.Hand, r.Piles) {
			return r.Status
		}
	}
	return StatusLose
}

// Stats are cumulative per-token counters with a lifetime independent of any
// single room.
type Stats struct {
	GamesPlayed int `json:"gamesPlayed"`
	Wins        int `json:"wins"`
	Losses      int `json:"losses"`
}
