package websocket

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

const (
	opText  = 1
	opClose = 8

	finBit  = 0x80
	maskBit = 0x80
)

// errClientClosed reports a close frame from the client after the closing
// handshake was acknowledged.
var errClientClosed = errors.New("client closed the connection")

// conn wraps the hijacked connection. Writes are serialized because delayed
// bot-turn pushes run on their own goroutine.
type conn struct {
	bufrw *bufio.ReadWriter

	writeMu sync.Mutex
}

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func parseMessage(raw []byte) (*Message, error) {
	var message Message
	if err := json.Unmarshal(raw, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	return &message, nil
}

// writeMessage sends a single-frame text message.
func (that *conn) writeMessage(payload []byte) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	header := make([]byte, 2, 10)
	header[0] = finBit | opText

	switch length := uint64(len(payload)); {
	case length < 126:
		header[1] = byte(length)
	case length < 1<<16:
		header[1] = 126
		header = binary.BigEndian.AppendUint16(header, uint16(length))
	default:
		header[1] = 127
		header = binary.BigEndian.AppendUint64(header, length)
	}

	if _, err := that.bufrw.Write(append(header, payload...)); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	if err := that.bufrw.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer: %w", err)
	}

	return nil
}

// readMessage reads one client frame and returns its unmasked payload. A
// close frame is acknowledged and reported as errClientClosed; fragmented
// messages and non-text opcodes are rejected.
func (that *conn) readMessage() ([]byte, error) {
	header := make([]byte, 2)
	if _, err := io.ReadFull(that.bufrw, header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	fin := header[0]&finBit != 0
	opCode := header[0] & 0x0f
	masked := header[1]&maskBit != 0

	length, err := that.readLength(header[1] & 0x7f)
	if err != nil {
		return nil, err
	}

	var mask []byte
	if masked {
		mask = make([]byte, 4)
		if _, err = io.ReadFull(that.bufrw, mask); err != nil {
			return nil, fmt.Errorf("failed to read mask: %w", err)
		}
	}

	payload := make([]byte, length)
	if _, err = io.ReadFull(that.bufrw, payload); err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	if mask != nil {
		for i := range payload {
			payload[i] ^= mask[i%4]
		}
	}

	if opCode == opClose {
		if err = that.writeClose(); err != nil {
			return nil, fmt.Errorf("failed to acknowledge close: %w", err)
		}

		return nil, errClientClosed
	}

	if !fin || opCode != opText {
		return nil, fmt.Errorf("unsupported frame: opcode %d, fin %t", opCode, fin)
	}

	return payload, nil
}

// writeClose sends an empty close frame completing the closing handshake.
func (that *conn) writeClose() error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if _, err := that.bufrw.Write([]byte{finBit | opClose, 0}); err != nil {
		return fmt.Errorf("failed to write close frame: %w", err)
	}

	if err := that.bufrw.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer: %w", err)
	}

	return nil
}

func (that *conn) readLength(short byte) (uint64, error) {
	switch short {
	case 126:
		extended := make([]byte, 2)
		if _, err := io.ReadFull(that.bufrw, extended); err != nil {
			return 0, fmt.Errorf("failed to read payload length: %w", err)
		}
		return uint64(binary.BigEndian.Uint16(extended)), nil
	case 127:
		extended := make([]byte, 8)
		if _, err := io.ReadFull(that.bufrw, extended); err != nil {
			return 0, fmt.Errorf("failed to read payload length: %w", err)
		}
		return binary.BigEndian.Uint64(extended), nil
	default:
		return uint64(short), nil
	}
}
