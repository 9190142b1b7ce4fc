package binance

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"time"
)

// Signer handles Binance SIGNED endpoint authentication
type Signer struct {
	apiKey    string
	secretKey string
	now       func() time.Time
}

// NewSigner creates a new Signer instance
func NewSigner(apiKey, secretKey string) *Signer {
	return &Signer{
		apiKey:    apiKey,
		secretKey: secretKey,
		now:       time.Now,
	}
}

// APIKey is sent in the X-MBX-APIKEY header.
func (s *Signer) APIKey() string {
	return s.apiKey
}

// Sign adds timestamp and recvWindow to params and returns the encoded
// query string with the signature appended as the last parameter.
// The signature is HMAC-SHA256 (hex) over the exact encoded string.
func (s *Signer) Sign(params url.Values, recvWindow int64) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("timestamp", strconv.FormatInt(s.now().UnixMilli(), 10))
	if recvWindow > 0 {
		params.Set("recvWindow", strconv.FormatInt(recvWindow, 10))
	}

	payload := params.Encode()
	return payload + "&signature=" + computeHmacSha256Hex(payload, s.secretKey)
}

func computeHmacSha256Hex(message string, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}
