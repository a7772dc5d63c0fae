package game

import (
	"errors"
	"fmt"
)

var (
	ErrWrongPhase       = errors.New("action not allowed in current phase")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrInvalidSeat      = errors.New("invalid seat")
	ErrSeatTaken        = errors.New("seat already taken")
	ErrInvalidDeck      = errors.New("invalid deck")
	ErrInvalidCardIndex = errors.New("invalid card index")
	ErrForeignZone      = errors.New("zone belongs to the opponent")
	ErrIllegalLine      = errors.New("card not allowed in line")
	ErrInvalidChat      = errors.New("invalid chat message")
)

// RuleError is a recoverable rule violation. Message is shown to the player
// who caused it; the match carries on unchanged.
type RuleError struct {
	Err     error
	Message string
}

func (e *RuleError) Error() string {
	return e.Err.Error()
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

func reject(err error, message string, args ...any) error {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	return &RuleError{Err: err, Message: message}
}

// UserMessage extracts the player-facing text of a rule violation.
func UserMessage(err error) (string, bool) {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Message, true
	}
	return "", false
}
