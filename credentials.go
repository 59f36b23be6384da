package genproxy

import "strings"

// ResolveAPIKey applies the credential precedence: the caller's key wins,
// then the configured fallback. An empty result means no credential.
func ResolveAPIKey(requestKey, fallback string) string {
	if key := strings.TrimSpace(requestKey); key != "" {
		return key
	}
	return strings.TrimSpace(fallback)
}
