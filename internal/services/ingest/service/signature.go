package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignaturePrefix precedes the hex digest in signature headers
const SignaturePrefix = "sha256="

// Sign returns the header value for body under secret
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return SignaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// verify checks header against body in constant time; an empty secret never verifies
func verify(secret string, body []byte, header string) bool {
	if secret == "" {
		return false
	}
	h := strings.TrimSpace(header)
	if len(h) < len(SignaturePrefix) || !strings.EqualFold(h[:len(SignaturePrefix)], SignaturePrefix) {
		return false
	}
	got, err := hex.DecodeString(h[len(SignaturePrefix):])
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
