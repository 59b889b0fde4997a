package httpx

import (
	"net/http"
	"net/url"
	"strings"
)

// checkRedirect enforces the redirect policy of §4.1: at most 5 hops, the
// target must itself pass the same URL validation, and any hop that
// crosses origin (host, port or scheme change) has its sensitive headers
// stripped before the next request is sent.
func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= c.cfg.MaxRedirects {
		return &ErrRedirectRejected{Reason: "exceeded maximum of 5 redirects"}
	}
	if _, err := validateURL(req.URL.String()); err != nil {
		return &ErrRedirectRejected{Reason: "redirect target failed URL validation: " + err.Error()}
	}

	prev := via[len(via)-1]
	if crossesOrigin(prev.URL, req.URL) {
		stripSensitiveHeaders(req.Header, c.cfg.SensitiveHeaders)
	}
	return nil
}

// crossesOrigin reports whether b differs from a in host, port or scheme.
func crossesOrigin(a, b *url.URL) bool {
	return a.Hostname() != b.Hostname() || effectivePort(a) != effectivePort(b) || a.Scheme != b.Scheme
}

func effectivePort(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	if u.Scheme == "https" {
		return "443"
	}
	return "80"
}
