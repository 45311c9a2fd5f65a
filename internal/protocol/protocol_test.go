package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActions(t *testing.T) {
	a, err := ParseTableAction("play_without_9")
	require.NoError(t, err)
	assert.Equal(t, PlayWithoutNine, a)
	assert.Equal(t, "play_without_9", a.String())

	_, err = ParseTableAction("fly_away")
	assert.ErrorIs(t, err, ErrUnknownAction)

	p, err := ParsePlayerAction("is_spectator_only")
	require.NoError(t, err)
	assert.Equal(t, MakeSpectatorOnly, p)
	_, err = ParsePlayerAction("")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestEventFrame(t *testing.T) {
	ev := ToRoom("t1", NextTrick, NextTrickPayload{TableID: "t1", CurrentPlayerID: "p2"})
	assert.Equal(t, "t1", ev.Room)
	assert.Empty(t, ev.Session)

	frame, err := ev.Frame()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(frame, &msg))
	assert.Equal(t, NextTrick, msg.Type)

	var payload NextTrickPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "p2", payload.CurrentPlayerID)
}

func TestRequestCardID(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"table_id":"t1","card_id":0,"cards_hand_ids":[3,4]}`), &req))
	require.NotNil(t, req.CardID)
	assert.Equal(t, 0, *req.CardID)
	assert.Equal(t, []int{3, 4}, req.CardsHandIDs)
}
