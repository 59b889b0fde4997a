package httpx

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// sensitiveKeywords classifies a header or query-parameter name as
// sensitive if its normalised form (lowercased, separators removed)
// contains any of these substrings, or matches one of the vendor patterns
// below (§4.1).
var sensitiveKeywords = []string{
	"accessid", "apikey", "token", "authorization", "password", "passwd",
	"secret", "clientsecret", "clientassertion", "nonce", "state", "code",
	"saml", "session", "cookie", "privatetoken",
}

var vendorHeaderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^x-goog-.*`),
	regexp.MustCompile(`(?i)^private-token$`),
	regexp.MustCompile(`(?i)^ocp-apim-subscription-key$`),
}

// normaliseKey lowercases key and removes common separators before the
// sensitivity check, per §4.1 step 1.
func normaliseKey(key string) string {
	s := strings.ToLower(key)
	s = strings.NewReplacer("-", "", "_", "", ".", "", " ", "").Replace(s)
	return s
}

// IsSensitiveName reports whether name (a header or query-parameter name)
// should be treated as carrying a credential.
func IsSensitiveName(name string) bool {
	norm := normaliseKey(name)
	for _, kw := range sensitiveKeywords {
		if strings.Contains(norm, kw) {
			return true
		}
	}
	for _, pat := range vendorHeaderPatterns {
		if pat.MatchString(name) {
			return true
		}
	}
	return false
}

func stripSensitiveHeaders(h http.Header, extra []string) {
	for name := range h {
		if IsSensitiveName(name) {
			h.Del(name)
		}
	}
	for _, name := range extra {
		h.Del(name)
	}
}

const redactedMarker = "[REDACTED]"

// reveal returns the redaction marker, optionally prefixed/suffixed with a
// couple of leading/trailing characters when the secret is long enough to
// do so safely (§4.1 step 3: reveal at most 2+2 chars for secrets >= 20
// chars, otherwise reveal nothing).
func reveal(secret string) string {
	if len(secret) >= 20 {
		return secret[:2] + redactedMarker + secret[len(secret)-2:]
	}
	return redactedMarker
}

var kvPairRe = regexp.MustCompile(`(?i)([\w.\-]+)\s*=\s*("[^"]*"|[^\s&]+)`)

// RedactText applies the free-text key=value / key="quoted value" pass of
// §4.1 step 2 to an arbitrary string (log line, exception message, stack
// trace excerpt). It is applied before any escape/encode step so the
// redaction cannot be defeated by encoding sensitive bytes first.
func RedactText(s string) string {
	return kvPairRe.ReplaceAllStringFunc(s, func(m string) string {
		parts := kvPairRe.FindStringSubmatch(m)
		key, val := parts[1], parts[2]
		if !IsSensitiveName(key) {
			return m
		}
		quoted := strings.HasPrefix(val, `"`) && strings.HasSuffix(val, `"`)
		bare := strings.Trim(val, `"`)
		out := reveal(bare)
		if quoted {
			return key + `="` + out + `"`
		}
		return key + "=" + out
	})
}

// RedactURL redacts userinfo, query parameters and the fragment (parsed as
// a query string) of raw, per §4.1 step 2's ordering.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		// Fall back to the free-text pass; an unparseable URL may still
		// contain key=value credentials worth catching.
		return RedactText(raw)
	}
	if u.User != nil {
		u.User = url.User(redactedMarker)
	}
	if u.RawQuery != "" {
		u.RawQuery = redactQueryString(u.RawQuery)
	}
	if u.Fragment != "" {
		u.Fragment = redactQueryString(u.Fragment)
		u.RawFragment = u.Fragment
	}
	return u.String()
}

func redactQueryString(raw string) string {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return RedactText(raw)
	}
	out := url.Values{}
	for k, vs := range values {
		if IsSensitiveName(k) {
			for range vs {
				out.Add(k, reveal(vs[0]))
			}
			continue
		}
		for _, v := range vs {
			out.Add(k, v)
		}
	}
	return out.Encode()
}

// RedactHeaders returns a copy of h with every sensitive header's value
// replaced per §4.1 step 3.
func RedactHeaders(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, vs := range h {
		if IsSensitiveName(k) {
			redacted := make([]string, len(vs))
			for i, v := range vs {
				redacted[i] = reveal(v)
			}
			out[k] = redacted
			continue
		}
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// Redact is the all-in-one entry point used when cmd/refresh logs a
// provider's refresh error: it applies RedactURL, then RedactText, to cover
// both structured URL content and any free-text key=value occurrences
// remaining in an error or log message.
func Redact(s string) string {
	return RedactText(RedactURL(s))
}
