package common

import "strings"

// MaskedValue is the replacement used for masked header and credential values.
const MaskedValue = "***MASKED***"

// sensitiveHeaders lists header names whose values must never appear in logs
// or debug output, regardless of which header carries the credential.
var sensitiveHeaders = map[string]struct{}{
	"authorization":       {},
	"proxy-authorization": {},
	"x-api-key":           {},
	"x-auth-token":        {},
	"api-key":             {},
}

// IsSensitiveHeader reports whether a header name is credential-bearing.
// The comparison is case-insensitive.
func IsSensitiveHeader(name string) bool {
	_, ok := sensitiveHeaders[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// MaskHeaders returns a copy of headers with credential-bearing values
// replaced by MaskedValue. Extra names (e.g., a per-app auth header) can be
// passed to extend the sensitive set for this call.
func MaskHeaders(headers map[string]string, extra ...string) map[string]string {
	if headers == nil {
		return nil
	}
	extraSet := make(map[string]struct{}, len(extra))
	for _, name := range extra {
		extraSet[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	masked := make(map[string]string, len(headers))
	for k, v := range headers {
		lower := strings.ToLower(strings.TrimSpace(k))
		if _, ok := sensitiveHeaders[lower]; ok {
			masked[k] = MaskedValue
			continue
		}
		if _, ok := extraSet[lower]; ok {
			masked[k] = MaskedValue
			continue
		}
		masked[k] = v
	}
	return masked
}

// MaskIfContains replaces s entirely when it contains the given secret value.
// Used to scrub error strings before they reach logs or attempt records.
func MaskIfContains(s, secret string) string {
	if secret == "" || s == "" {
		return s
	}
	if strings.Contains(s, secret) {
		return strings.ReplaceAll(s, secret, MaskedValue)
	}
	return s
}
