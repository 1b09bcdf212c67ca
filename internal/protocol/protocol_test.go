package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope_NilPayloadIsEmptyObject(t *testing.T) {
	env, err := NewEnvelope(StartGame, nil)
	require.NoError(t, err)

	b, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"START_GAME","data":{}}`, string(b))
}

func TestNewEnvelope_SubmitWordShape(t *testing.T) {
	env, err := NewEnvelope(SubmitWord, SubmitWordData{
		Word: "CAT",
		Path: []Coord{{0, 0}, {0, 1}, {1, 1}},
	})
	require.NoError(t, err)
	env.PlayerID = "p1"
	env.RoomCode = "AB12"

	b, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type":"SUBMIT_WORD",
		"data":{"word":"CAT","path":[{"row":0,"col":0},{"row":0,"col":1},{"row":1,"col":1}]},
		"playerId":"p1",
		"roomCode":"AB12"
	}`, string(b))
}

func TestDecode(t *testing.T) {
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(`{"type":"ROOM_STATE","data":{"hostId":"h","maxPlayers":4,"players":[{"id":"h","name":"Alice","ready":true}]}}`), &env))
	assert.Equal(t, RoomState, env.Type)

	rs, err := Decode[RoomStateData](env.Data)
	require.NoError(t, err)
	assert.Equal(t, 4, rs.MaxPlayers)
	require.Len(t, rs.Players, 1)
	assert.True(t, rs.Players[0].Ready)
	assert.Nil(t, rs.PlayersCount)

	empty, err := Decode[GameStartingData](nil)
	require.NoError(t, err)
	assert.Zero(t, empty.Countdown)

	_, err = Decode[GameStartingData](json.RawMessage(`{"countdown":"x"}`))
	require.Error(t, err)
}
