package protocol

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"testing"

	"github.com/lineclash/lineclash-server/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte(`{"a":1}`)))

	raw := buf.Bytes()
	require.Len(t, raw, 11)
	assert.Equal(t, uint32(7), binary.BigEndian.Uint32(raw[:4]))
	assert.Equal(t, `{"a":1}`, string(raw[4:]))

	payload, err := ReadFrame(&buf, DefaultMaxFrameBytes)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(payload))

	_, err = ReadFrame(&buf, DefaultMaxFrameBytes)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrameErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		max  int
		want error
	}{
		{name: "too large", raw: []byte{0, 0, 0, 9, 'x'}, max: 8, want: ErrFrameTooLarge},
		{name: "empty", raw: []byte{0, 0, 0, 0}, max: 8, want: ErrEmptyFrame},
		{name: "truncated body", raw: []byte{0, 0, 0, 5, 'a', 'b'}, max: 8, want: io.ErrUnexpectedEOF},
		{name: "truncated header", raw: []byte{0, 0}, max: 8, want: io.ErrUnexpectedEOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFrame(bytes.NewReader(tt.raw), tt.max)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecodeAction(t *testing.T) {
	a, err := DecodeAction([]byte(`{"action":"place_card","card_index":0,"line_key":"p1_front"}`))
	require.NoError(t, err)
	assert.Equal(t, ActionPlaceCard, a.Action)
	require.NotNil(t, a.CardIndex)
	assert.Equal(t, 0, *a.CardIndex)
	assert.Equal(t, "p1_front", a.LineKey)

	a, err = DecodeAction([]byte(`{"action":"ready","deck_cards":["Witcher","Gnome"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Witcher", "Gnome"}, a.DeckCards)
	assert.Nil(t, a.CardIndex)

	_, err = DecodeAction([]byte(`not json`))
	assert.Error(t, err)
}

func TestGameUpdateIsFlat(t *testing.T) {
	msg := NewGameUpdate(game.View{
		MatchID: "m",
		State:   game.StateView{Round: 2},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, msg))

	var decoded map[string]json.RawMessage
	require.NoError(t, ReadMessage(&buf, DefaultMaxFrameBytes, &decoded))
	assert.JSONEq(t, `"game_update"`, string(decoded["type"]))
	assert.Contains(t, decoded, "game_state")
	assert.Contains(t, decoded, "line_cards")
	assert.Contains(t, decoded, "hands")
}

func TestMessageSeatNumbering(t *testing.T) {
	assert.Equal(t, 0, NewWelcome(0, "Player 1", "m").PlayerID)
	assert.Equal(t, 2, NewPlayerReady(1, 2).Player)
	assert.Equal(t, 1, NewChatMessage(0, "Player 1", "hi").Player)
	assert.Equal(t, 2, NewPlayerDisconnected(1).Player)
}
