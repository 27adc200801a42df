package pkg

import (
	"crypto/rand"
	"crypto/sha1" //nolint: gosec // mandated by RFC 6455 for the accept key
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// websocketMagicGUID is the fixed GUID from RFC 6455 section 1.3.
const websocketMagicGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// joinCodeAlphabet skips easily confused characters (0/O, 1/I/L).
const joinCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const joinCodeLength = 6

// GenerateSessionID returns a fresh id for a game session.
func GenerateSessionID() string {
	return uuid.NewString()
}

// GenerateJoinCode returns a short code for sharing a session out of band.
func GenerateJoinCode() string {
	buf := make([]byte, joinCodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Errorf("crypto/rand is unavailable: %w", err))
	}

	code := make([]byte, joinCodeLength)
	for i, b := range buf {
		code[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}

	return string(code)
}

// GenerateAcceptKey derives the Sec-WebSocket-Accept value for a handshake.
func GenerateAcceptKey(key string) string {
	hash := sha1.Sum([]byte(key + websocketMagicGUID)) //nolint: gosec // mandated by RFC 6455
	return base64.StdEncoding.EncodeToString(hash[:])
}
