// Package codec turns question and answer text into Fernet tokens that the
// scoring service can reverse with the same pre-shared key.
//
// The key is shared with the remote party, so this is obfuscation in transit.
// It does not authenticate the caller.
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"
)

var (
	ErrEmptyKey     = errors.New("empty key")
	ErrInvalidToken = errors.New("token malformed, expired, or signed with another key")
)

// DecodeError is returned when a key or token cannot be decoded.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string { return "codec " + e.Op + ": " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

// version(1) + timestamp(8) + iv(16) + one AES block(16) + hmac(32)
const minTokenLen = 73

// Codec encodes with one key. It is safe for concurrent use.
type Codec struct {
	key *fernet.Key
	// TTL bounds token age on Decode; zero accepts tokens of any age.
	TTL time.Duration
}

// NewCodec parses a URL-safe base64 encoded 32-byte Fernet key.
func NewCodec(key string) (*Codec, error) {
	if key == "" {
		return nil, &DecodeError{Op: "parse key", Err: ErrEmptyKey}
	}
	k, err := fernet.DecodeKey(key)
	if err != nil {
		return nil, &DecodeError{Op: "parse key", Err: err}
	}
	return &Codec{key: k}, nil
}

// Encode returns a time-stamped, signed, URL-safe token for plaintext.
func (c *Codec) Encode(plaintext string) (string, error) {
	tok, err := fernet.EncryptAndSign([]byte(plaintext), c.key)
	if err != nil {
		return "", fmt.Errorf("codec encode: %w", err)
	}
	return string(tok), nil
}

// Decode reverses Encode and returns the exact original text.
func (c *Codec) Decode(token string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil || len(raw) < minTokenLen {
		return "", &DecodeError{Op: "decode", Err: ErrInvalidToken}
	}

	ttl := c.TTL
	if ttl <= 0 {
		// negative ttl skips the age check in fernet-go
		ttl = -1
	}
	msg := fernet.VerifyAndDecrypt([]byte(token), ttl, []*fernet.Key{c.key})
	if msg == nil {
		return "", &DecodeError{Op: "decode", Err: ErrInvalidToken}
	}
	return string(msg), nil
}

// GenerateKey returns a new random key in the encoding NewCodec accepts.
func GenerateKey() (string, error) {
	var k fernet.Key
	if err := k.Generate(); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return k.Encode(), nil
}
