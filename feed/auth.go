package feed

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	handshakeMagic = "ZXF1\x00"
	handshakeAck   = "OK\x00"
	nonceSize      = 32

	kdfSalt       = "zxbridge-feed-v1"
	kdfIterations = 100000
	authContext   = "zxbridge-auth-v1"
)

// ErrAuthFailed is returned when the challenge/response does not verify.
var ErrAuthFailed = errors.New("feed: authentication failed")

// DeriveKey stretches the shared feed key to 32 bytes with PBKDF2.
func DeriveKey(password string) ([]byte, error) {
	if password == "" {
		return nil, errors.New("feed: key cannot be empty")
	}
	return pbkdf2.Key([]byte(password), []byte(kdfSalt), kdfIterations, 32, sha256.New), nil
}

// authProof computes the HMAC binding both nonces to the derived key.
func authProof(key, serverNonce, clientNonce []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(authContext))
	mac.Write(serverNonce)
	mac.Write(clientNonce)
	return mac.Sum(nil)
}

// clientHandshake runs the client side of the feed handshake:
// send magic + nonce, receive ack + server nonce, prove key possession.
func clientHandshake(rw io.ReadWriter, key []byte) error {
	clientNonce := make([]byte, nonceSize)
	if _, err := rand.Read(clientNonce); err != nil {
		return fmt.Errorf("generate client nonce: %w", err)
	}
	hello := append([]byte(handshakeMagic), clientNonce...)
	if _, err := rw.Write(hello); err != nil {
		return fmt.Errorf("write hello: %w", err)
	}

	ack := make([]byte, len(handshakeAck)+nonceSize)
	if _, err := io.ReadFull(rw, ack); err != nil {
		return fmt.Errorf("read server handshake: %w", err)
	}
	if string(ack[:len(handshakeAck)]) != handshakeAck {
		return ErrAuthFailed
	}
	serverNonce := ack[len(handshakeAck):]

	if _, err := rw.Write(authProof(key, serverNonce, clientNonce)); err != nil {
		return fmt.Errorf("write proof: %w", err)
	}

	final := make([]byte, len(handshakeAck))
	if _, err := io.ReadFull(rw, final); err != nil {
		return fmt.Errorf("read auth result: %w", err)
	}
	if string(final) != handshakeAck {
		return ErrAuthFailed
	}
	return nil
}

// serverHandshake runs the server side of the feed handshake. The magic
// bytes must already be consumed by the caller.
func serverHandshake(rw io.ReadWriter, key []byte) error {
	clientNonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rw, clientNonce); err != nil {
		return fmt.Errorf("read client nonce: %w", err)
	}

	serverNonce := make([]byte, nonceSize)
	if _, err := rand.Read(serverNonce); err != nil {
		return fmt.Errorf("generate server nonce: %w", err)
	}
	if _, err := rw.Write(append([]byte(handshakeAck), serverNonce...)); err != nil {
		return fmt.Errorf("write server handshake: %w", err)
	}

	proof := make([]byte, sha256.Size)
	if _, err := io.ReadFull(rw, proof); err != nil {
		return fmt.Errorf("read proof: %w", err)
	}
	want := authProof(key, serverNonce, clientNonce)
	if subtle.ConstantTimeCompare(proof, want) != 1 {
		return ErrAuthFailed
	}

	if _, err := rw.Write([]byte(handshakeAck)); err != nil {
		return fmt.Errorf("write auth result: %w", err)
	}
	return nil
}
