package rules

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawing(t *testing.T) {
	t.Parallel()
	e := NewDrawing()
	s := e.InitialState()

	stroke, err := e.DecodeMove(EventDraw, []byte(`{"x":1,"y":2}`))
	require.NoError(t, err)
	s, err = e.ApplyMove(s, stroke, "alice")
	require.NoError(t, err)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"canvas":{"x":1,"y":2}}`, string(data))

	wipe, err := e.DecodeMove(EventClearCanvas, nil)
	require.NoError(t, err)
	s, err = e.ApplyMove(s, wipe, "alice")
	require.NoError(t, err)

	data, err = json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"canvas":null}`, string(data))

	_, err = e.DecodeMove(EventDraw, []byte(`{broken`))
	assert.ErrorIs(t, err, ErrMalformedMove)
}
