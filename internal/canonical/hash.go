package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// Domain prefixes for fingerprints. The version suffix allows the algorithm
// to change without colliding with old journals.
const (
	DomainRequest = "restq/request/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RequestFingerprint identifies a request by method, URL and body. The
// method is upper-cased and URL query parameters are sorted, so equivalent
// requests share a fingerprint.
func RequestFingerprint(method, rawURL string, body any) (string, error) {
	canonicalBody, err := toGeneric(body)
	if err != nil {
		return "", fmt.Errorf("request fingerprint: %w", err)
	}

	data, err := Marshal(map[string]any{
		"method": strings.ToUpper(method),
		"url":    normalizeURL(rawURL),
		"body":   canonicalBody,
	})
	if err != nil {
		return "", fmt.Errorf("request fingerprint: %w", err)
	}
	return hashWithDomain(DomainRequest, data), nil
}

func normalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	// Encode sorts by key.
	u.RawQuery = u.Query().Encode()
	return u.String()
}
