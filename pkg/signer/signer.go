package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"strings"
)

type signer struct {
	key []byte
}

func New(secret string) *signer {
	return &signer{key: []byte(secret)}
}

// Encode percent-encodes a URL so it fits into a single path segment.
func Encode(rawURL string) string {
	return url.PathEscape(rawURL)
}

// Sign returns the url-safe, unpadded base64 HMAC-SHA256 of data.
func (s *signer) Sign(data string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (s *signer) Verify(data, token string) bool {
	return hmac.Equal([]byte(s.Sign(data)), []byte(token))
}

// PreviewURL wraps a remote image URL into a relay link served by this process.
func (s *signer) PreviewURL(baseURL, remoteURL string) string {
	encoded := Encode(remoteURL)
	return strings.TrimRight(baseURL, "/") + "/preview-image/" + s.Sign(encoded) + "/" + encoded
}
