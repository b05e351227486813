// Package signing computes and verifies the keyed signatures that bind a media path,
// a subject and an expiry time together.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

const (
	DefaultSignatureLength = 20
	MinSignatureLength     = 16
	MaxSignatureLength     = sha256.Size * 2
)

// Signer signs (subject, path, expiry) triples. It is safe for concurrent use.
type Signer struct {
	secret []byte
	length int
}

// NewSigner creates a signer. length is the number of hex characters kept from the
// HMAC-SHA256 digest; zero selects the default and other values are clamped to 16..64.
func NewSigner(secret string, length int) *Signer {
	switch {
	case length == 0:
		length = DefaultSignatureLength
	case length < MinSignatureLength:
		length = MinSignatureLength
	case length > MaxSignatureLength:
		length = MaxSignatureLength
	}
	return &Signer{secret: []byte(secret), length: length}
}

// Configured reports whether the signer has a secret
func (s *Signer) Configured() bool {
	return len(s.secret) > 0
}

// Sign returns the truncated hex signature, or "" when no secret is configured
func (s *Signer) Sign(path string, subjectID int, expiresAt time.Time) string {
	if !s.Configured() {
		return ""
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(message(path, subjectID, expiresAt))
	return hex.EncodeToString(mac.Sum(nil))[:s.length]
}

// Verify recomputes the signature and compares it in constant time.
// It always returns false when no secret is configured.
func (s *Signer) Verify(path string, subjectID int, expiresAt time.Time, signature string) bool {
	if !s.Configured() || len(signature) != s.length {
		return false
	}
	return hmac.Equal([]byte(s.Sign(path, subjectID, expiresAt)), []byte(signature))
}

// message is "subject:path:expires" with expires in RFC 3339, UTC, whole seconds
func message(path string, subjectID int, expiresAt time.Time) []byte {
	expires := expiresAt.UTC().Truncate(time.Second).Format(time.RFC3339)
	b := make([]byte, 0, len(path)+len(expires)+24)
	b = strconv.AppendInt(b, int64(subjectID), 10)
	b = append(b, ':')
	b = append(b, path...)
	b = append(b, ':')
	b = append(b, expires...)
	return b
}
