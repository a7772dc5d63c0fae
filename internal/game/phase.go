package game

import "fmt"

// Phase is the state of the match state machine.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseInRound
	PhaseRoundResolution
	PhaseGameOver
)

var phaseNames = map[Phase]string{
	PhaseLobby:           "LOBBY",
	PhaseInRound:         "IN_ROUND",
	PhaseRoundResolution: "ROUND_RESOLUTION",
	PhaseGameOver:        "GAME_OVER",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// Started reports whether decks have been dealt.
func (p Phase) Started() bool {
	return p != PhaseLobby
}
