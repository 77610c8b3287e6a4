package app

import "fmt"

// Reject is a rule- or validation-level refusal. It carries the wire code the
// client keys its messaging on. Rejects never imply any room mutation; any
// other error reaching the transport is an infrastructure failure.
type Reject struct {
	Code    string
	Message string
}

func (e *Reject) Error() string {
	return e.Message
}

var (
	ErrRoomNotFound = &Reject{Code: "NOT_FOUND", Message: "room does not exist"}
	ErrRoomFull     = &Reject{Code: "FULL", Message: "room is full"}
	ErrNotYourTurn  = &Reject{Code: "NOT_YOUR_TURN", Message: "it is not your turn"}
	ErrInvalidCard  = &Reject{Code: "INVALID_CARD", Message: "card is not in your hand"}
	ErrInvalidPile  = &Reject{Code: "INVALID_PILE", Message: "unknown pile"}
	ErrIllegalMove  = &Reject{Code: "ILLEGAL_MOVE", Message: "card cannot go on that pile"}
	ErrNotSeated    = &Reject{Code: "VALIDATION", Message: "token is not seated in this room"}
	ErrBadState     = &Reject{Code: "BAD_STATE", Message: "event not valid in the room's current state"}
)

func errValidation(format string, args ...any) *Reject {
	return &Reject{Code: "VALIDATION", Message: fmt.Sprintf(format, args...)}
}

func errMustPlayMore(required int) *Reject {
	return &Reject{
		Code:    "MUST_PLAY_MORE",
		Message: fmt.Sprintf("you must play at least %d cards this turn", required),
	}
}
