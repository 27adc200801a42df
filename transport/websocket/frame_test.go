package websocket

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConn(buf *bytes.Buffer) *conn {
	return &conn{bufrw: bufio.NewReadWriter(bufio.NewReader(buf), bufio.NewWriter(buf))}
}

// maskedTextFrame builds a single masked text frame the way a browser sends it.
func maskedTextFrame(payload []byte) []byte {
	mask := [4]byte{0x1f, 0x2e, 0x3d, 0x4c}

	frame := []byte{finBit | opText, maskBit | byte(len(payload))}
	frame = append(frame, mask[:]...)
	for i, b := range payload {
		frame = append(frame, b^mask[i%4])
	}

	return frame
}

func TestConn_ReadMessage(t *testing.T) {
	t.Run("Masked client frame is unmasked", func(t *testing.T) {
		// Given: a masked text frame on the wire
		var buf bytes.Buffer
		buf.Write(maskedTextFrame([]byte(`{"action":"game:state"}`)))

		// When: the frame is read
		payload, err := newTestConn(&buf).readMessage()

		// Then: the payload comes back unmasked
		require.NoError(t, err)
		assert.Equal(t, `{"action":"game:state"}`, string(payload))
	})

	t.Run("Close frame is acknowledged and reported", func(t *testing.T) {
		// Given: a masked close frame with no payload
		var buf bytes.Buffer
		buf.Write([]byte{finBit | opClose, maskBit | 0, 0x1f, 0x2e, 0x3d, 0x4c})

		c := newTestConn(&buf)

		// When: the frame is read
		_, err := c.readMessage()

		// Then: the closing handshake completes with a close frame in reply
		require.ErrorIs(t, err, errClientClosed)
		assert.Equal(t, []byte{finBit | opClose, 0}, buf.Bytes())
	})

	t.Run("Fragmented frame is rejected", func(t *testing.T) {
		// Given: a text frame without the fin bit
		var buf bytes.Buffer
		buf.Write([]byte{opText, 0})

		// When: the frame is read
		_, err := newTestConn(&buf).readMessage()

		// Then: the fragment is rejected instead of surfacing as garbage
		require.Error(t, err)
		assert.NotErrorIs(t, err, errClientClosed)
	})

	t.Run("Non-text opcode is rejected", func(t *testing.T) {
		// Given: a binary frame
		var buf bytes.Buffer
		buf.Write([]byte{finBit | 2, 0})

		_, err := newTestConn(&buf).readMessage()

		require.Error(t, err)
	})
}

func TestConn_WriteMessage(t *testing.T) {
	t.Run("Server frame round-trips through the reader", func(t *testing.T) {
		// Given: a payload written by the server
		var buf bytes.Buffer
		c := newTestConn(&buf)

		require.NoError(t, c.writeMessage([]byte(`{"action":"game:turn"}`)))

		// When: the unmasked frame is read back
		payload, err := newTestConn(&buf).readMessage()

		// Then: the payload survives unchanged
		require.NoError(t, err)
		assert.Equal(t, `{"action":"game:turn"}`, string(payload))
	})

	t.Run("Extended length header covers medium payloads", func(t *testing.T) {
		// Given: a payload above the 125-byte short-length limit
		var buf bytes.Buffer
		c := newTestConn(&buf)

		payload := bytes.Repeat([]byte("x"), 300)
		require.NoError(t, c.writeMessage(payload))

		// When: the frame is read back
		got, err := newTestConn(&buf).readMessage()

		// Then: the full payload survives
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})
}
