package accesscode

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	iterations = 65536
	keyLen     = 32

	// The IV is half random nonce, half truncated HMAC of nonce and plaintext.
	nonceLen = 8
	tagLen   = aes.BlockSize - nonceLen
)

var encoding = base64.StdEncoding.Strict()

// Details is the tuple carried by an access code.
type Details struct {
	CaseID      string
	RequestedBy string
	CreatedAt   time.Time
}

// Codec encrypts and decrypts access codes. Safe for concurrent use.
type Codec struct {
	block  cipher.Block
	macKey []byte
	now    func() time.Time
}

// New derives the AES key from the shared secret and salt with PBKDF2-HMAC-SHA256.
func New(secret, salt string) (*Codec, error) {
	if strings.TrimSpace(secret) == "" || strings.TrimSpace(salt) == "" {
		return nil, errors.New("access code secret and salt must not be empty")
	}
	derived := pbkdf2.Key([]byte(secret), []byte(salt), iterations, 2*keyLen, sha256.New)
	block, err := aes.NewCipher(derived[:keyLen])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return &Codec{block: block, macKey: derived[keyLen:], now: time.Now}, nil
}

// Encode returns base64(IV || AES-CBC(caseID/requesterID/timestamp)).
func (c *Codec) Encode(caseID, requesterID string) (string, error) {
	if caseID == "" || requesterID == "" {
		return "", errors.New("case id and requester id are required")
	}
	if strings.Contains(caseID, "/") || strings.Contains(requesterID, "/") {
		return "", errors.New("case id and requester id must not contain '/'")
	}
	plaintext := []byte(fmt.Sprintf("%s/%s/%s", caseID, requesterID, c.now().UTC().Format(time.RFC3339Nano)))

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv[:nonceLen]); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}
	copy(iv[nonceLen:], c.tag(iv[:nonceLen], plaintext))

	padded := pad(plaintext)
	out := make([]byte, aes.BlockSize+len(padded))
	copy(out, iv)
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out[aes.BlockSize:], padded)
	return encoding.EncodeToString(out), nil
}

// Decode reverses Encode. Any malformed, tampered or foreign code reports ok=false.
// Only the canonical encoding is accepted, so a code has exactly one spelling and
// denylist lookups by string cannot be sidestepped.
func (c *Codec) Decode(code string) (Details, bool) {
	if code == "" {
		return Details{}, false
	}
	raw, err := encoding.DecodeString(code)
	if err != nil || encoding.EncodeToString(raw) != code {
		return Details{}, false
	}
	if len(raw) < 2*aes.BlockSize || len(raw)%aes.BlockSize != 0 {
		return Details{}, false
	}
	iv, body := raw[:aes.BlockSize], raw[aes.BlockSize:]
	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plain, body)

	plaintext, ok := unpad(plain)
	if !ok {
		return Details{}, false
	}
	if !hmac.Equal(iv[nonceLen:], c.tag(iv[:nonceLen], plaintext)) {
		return Details{}, false
	}

	parts := strings.Split(string(plaintext), "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return Details{}, false
	}
	createdAt, err := time.Parse(time.RFC3339Nano, parts[2])
	if err != nil {
		return Details{}, false
	}
	return Details{CaseID: parts[0], RequestedBy: parts[1], CreatedAt: createdAt}, true
}

func (c *Codec) tag(nonce, plaintext []byte) []byte {
	mac := hmac.New(sha256.New, c.macKey)
	mac.Write(nonce)
	mac.Write(plaintext)
	return mac.Sum(nil)[:tagLen]
}

func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	return append(append([]byte{}, b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte) ([]byte, bool) {
	if len(b) == 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, false
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, false
		}
	}
	return b[:len(b)-n], true
}
