package httpx

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	defaultTimeout         = 15 * time.Second
	defaultMaxResponseSize = 10 << 20 // 10 MiB
	defaultMaxRedirects    = 5
	defaultMaxRetries      = 4
)

// Config configures a Client. A zero value is not usable; use NewClient
// which applies the documented defaults for anything left unset.
type Config struct {
	Timeout          time.Duration
	MaxResponseBytes int64
	MaxRedirects     int
	MaxRetries       int
	SensitiveHeaders []string // additional header names beyond the built-in set
}

// Client is the hardened HTTP client of §4.1: every outbound request made
// through it is validated against the SSRF guard, peer-address-checked
// after connect, subject to the bounded redirect policy, size-capped and
// retried on transient failure.
type Client struct {
	cfg    Config
	inner  *http.Client
	nowFn  func() time.Time
}

// NewClient builds a Client, filling in documented defaults. Modeled on
// the teacher's cmn.NewClient(TransportArgs) / ais/backend/http.go
// construction of a provider-scoped *http.Client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = defaultMaxResponseSize
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = defaultMaxRedirects
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}

	c := &Client{cfg: cfg, nowFn: time.Now}

	resolver := net.DefaultResolver
	dialer := &net.Dialer{Timeout: 10 * time.Second}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, _ := splitHostPort(addr)
			if err := resolveAndCheck(ctx, resolver, host); err != nil {
				return nil, err
			}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, &ErrTransport{Cause: err}
			}
			// RebindingRejected: re-check the address we actually
			// connected to, since DNS may have returned a different
			// record between the lookup above and the TCP handshake.
			if tcpAddr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
				if isBlockedIP(tcpAddr.IP) {
					conn.Close()
					return nil, &ErrRebindingRejected{Addr: tcpAddr.IP.String()}
				}
			}
			return conn, nil
		},
		MaxIdleConns:        20,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	c.inner = &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return c.checkRedirect(req, via)
		},
	}
	return c
}

// Request is the input contract of §4.1.
type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    io.Reader
}

// Response is the bounded output contract: status, headers, and up to
// MaxResponseBytes of body.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Do validates req, performs it (subject to the redirect and dial hooks
// installed in NewClient) and returns a size-capped Response, or one of
// the §4.1 error kinds. It does not retry; see Client.DoWithRetry for the
// retry/backoff policy of §4.1.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	u, err := validateURL(req.URL)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), req.Body)
	if err != nil {
		return nil, &ErrTransport{Cause: err}
	}
	if req.Headers != nil {
		httpReq.Header = req.Headers.Clone()
	}

	resp, err := c.inner.Do(httpReq)
	if err != nil {
		if ue, ok := asURLError(err); ok {
			return nil, ue
		}
		if isTimeout(err) {
			return nil, &ErrTimeout{Budget: c.cfg.Timeout.String()}
		}
		return nil, &ErrTransport{Cause: err}
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, c.cfg.MaxResponseBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, &ErrTransport{Cause: err}
	}
	if int64(len(body)) > c.cfg.MaxResponseBytes {
		return nil, &ErrResponseTooLarge{LimitBytes: c.cfg.MaxResponseBytes}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, nil
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	var t timeouter
	for e := err; e != nil; {
		if tt, ok := e.(timeouter); ok {
			t = tt
			break
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	return t != nil && t.Timeout()
}

// asURLError unwraps the httpx-specific errors our own hooks (dial,
// redirect) may have produced, which net/http wraps in a *url.Error.
func asURLError(err error) (error, bool) {
	type unwrapper interface{ Unwrap() error }
	for e := err; e != nil; {
		switch v := e.(type) {
		case *ErrURLRejected, *ErrRebindingRejected, *ErrRedirectRejected, *ErrResponseTooLarge, *ErrTransport:
			return e.(error), true
		default:
			_ = v
		}
		u, ok := e.(unwrapper)
		if !ok {
			return nil, false
		}
		e = u.Unwrap()
	}
	return nil, false
}
