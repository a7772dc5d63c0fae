package protocol

import (
	"encoding/json"

	"github.com/lineclash/lineclash-server/internal/game"
)

// Server to client message types.
const (
	TypeWelcome            = "welcome"
	TypePlayerReady        = "player_ready"
	TypeGameUpdate         = "game_update"
	TypeChatMessage        = "chat_message"
	TypePlayerDisconnected = "player_disconnected"
)

// Client to server actions.
const (
	ActionReady       = "ready"
	ActionPlaceCard   = "place_card"
	ActionPassTurn    = "pass_turn"
	ActionChatMessage = "chat_message"
)

// Welcome assigns a seat to a new connection. PlayerID is zero based.
type Welcome struct {
	Type       string `json:"type"`
	PlayerID   int    `json:"player_id"`
	PlayerName string `json:"player_name"`
	MatchID    string `json:"match_id"`
}

// PlayerReady announces a newly ready player. Player is one based.
type PlayerReady struct {
	Type         string `json:"type"`
	Player       int    `json:"player"`
	ReadyPlayers int    `json:"ready_players"`
}

// GameUpdate carries a rendering of the match.
type GameUpdate struct {
	Type string `json:"type"`
	game.View
}

// ChatMessage relays a chat line. Player is one based.
type ChatMessage struct {
	Type       string `json:"type"`
	Player     int    `json:"player"`
	PlayerName string `json:"player_name"`
	Message    string `json:"message"`
}

// PlayerDisconnected tells the remaining client its opponent left. Player is
// one based.
type PlayerDisconnected struct {
	Type   string `json:"type"`
	Player int    `json:"player"`
}

// NewWelcome creates the welcome message for a newly seated connection.
func NewWelcome(seat int, name, matchID string) Welcome {
	return Welcome{Type: TypeWelcome, PlayerID: seat, PlayerName: name, MatchID: matchID}
}

// NewPlayerReady announces that seat submitted a valid deck.
func NewPlayerReady(seat, ready int) PlayerReady {
	return PlayerReady{Type: TypePlayerReady, Player: seat + 1, ReadyPlayers: ready}
}

// NewGameUpdate wraps a rendered view.
func NewGameUpdate(v game.View) GameUpdate {
	return GameUpdate{Type: TypeGameUpdate, View: v}
}

// NewChatMessage creates a chat relay from seat.
func NewChatMessage(seat int, name, text string) ChatMessage {
	return ChatMessage{Type: TypeChatMessage, Player: seat + 1, PlayerName: name, Message: text}
}

// NewPlayerDisconnected tells the remaining client that seat left.
func NewPlayerDisconnected(seat int) PlayerDisconnected {
	return PlayerDisconnected{Type: TypePlayerDisconnected, Player: seat + 1}
}

// Action is a decoded client request. Only the fields of the named action
// are meaningful.
type Action struct {
	Action    string   `json:"action"`
	DeckCards []string `json:"deck_cards,omitempty"`
	CardIndex *int     `json:"card_index,omitempty"`
	LineKey   string   `json:"line_key,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// DecodeAction parses a client frame.
func DecodeAction(payload []byte) (Action, error) {
	var a Action
	err := json.Unmarshal(payload, &a)
	return a, err
}
