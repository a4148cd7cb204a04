package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// CacheKey identifies a cached provider response.
type CacheKey struct {
	// Endpoint is the provider path, e.g. "/domains"
	Endpoint string

	// QueryParams are the request query parameters
	QueryParams url.Values

	// Account is the credential fingerprint (see Fingerprint)
	Account string
}

// String generates a deterministic key.
// Format: mail:endpoint:query1=val1,val2:acct=fingerprint
//
// Example:
//
//	mail:templates:page=2:project_id=p1:acct=3f2a9c0d11be
func (k CacheKey) String() string {
	parts := []string{"mail"}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, strings.Join(k.QueryParams[key], ",")))
		}
	}

	if k.Account != "" {
		parts = append(parts, "acct="+k.Account)
	}

	return strings.Join(parts, ":")
}

// Fingerprint returns the first 12 hex characters of the SHA-256 of an API key.
func Fingerprint(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])[:12]
}
