package protocol

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameRoundTripRequest(t *testing.T) {
	var buf bytes.Buffer
	w := NewFrameWriter(&buf)
	require.NoError(t, w.WriteFrame(NewSetRequest("key1", "value1")))

	var got Request
	r := NewFrameReader(&buf)
	require.NoError(t, r.ReadFrame(&got))
	require.Equal(t, NewSetRequest("key1", "value1"), got)
}

func TestFrameRoundTripResponse(t *testing.T) {
	var buf bytes.Buffer
	w := NewFrameWriter(&buf)
	require.NoError(t, w.WriteFrame(ValueResponse("value1", true)))

	var got Response
	r := NewFrameReader(&buf)
	require.NoError(t, r.ReadFrame(&got))
	require.Equal(t, ValueResponse("value1", true), got)
}

func TestFrameMultipleMessagesInOrder(t *testing.T) {
	var buf bytes.Buffer
	w := NewFrameWriter(&buf)
	require.NoError(t, w.WriteFrame(NewGetRequest("a")))
	require.NoError(t, w.WriteFrame(NewGetRequest("b")))

	r := NewFrameReader(&buf)
	var first, second Request
	require.NoError(t, r.ReadFrame(&first))
	require.NoError(t, r.ReadFrame(&second))
	require.Equal(t, "a", first.Key)
	require.Equal(t, "b", second.Key)
}

func TestFrameReadEOFBetweenFrames(t *testing.T) {
	var buf bytes.Buffer
	r := NewFrameReader(&buf)
	var req Request
	err := r.ReadFrame(&req)
	require.ErrorIs(t, err, io.EOF)
}
