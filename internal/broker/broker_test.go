package broker

import (
	"encoding/json"
	"testing"

	"doko3000/internal/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "doko.room.t1", Subject(protocol.ToRoom("t1", protocol.NextTrick, nil)))
	assert.Equal(t, "doko.session.p_1", Subject(protocol.ToSession("p.1", protocol.YourCards, nil)))
	assert.Equal(t, "doko.all", Subject(protocol.Broadcast(protocol.IndexListChanged, nil)))
	assert.Equal(t, "doko.room.a__b", Subject(protocol.ToRoom("a*>b", protocol.NextTrick, nil)))
}

func TestDecodeKeepsPayload(t *testing.T) {
	data, err := json.Marshal(envelope{
		Name:    protocol.IndexListChanged,
		Payload: json.RawMessage(`{"table":"tables"}`),
	})
	require.NoError(t, err)

	ev, err := decode(data)
	require.NoError(t, err)
	assert.Equal(t, protocol.IndexListChanged, ev.Name)

	frame, err := ev.Frame()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"index-list-changed","payload":{"table":"tables"}}`, string(frame))
}
