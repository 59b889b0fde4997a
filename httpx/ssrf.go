package httpx

import (
	"context"
	"net"
	"net/url"
	"strings"
)

var blockedTLDs = map[string]bool{
	"test": true, "example": true, "invalid": true, "localhost": true,
	"local": true, "internal": true, "arpa": true, "intranet": true,
	"corp": true, "home": true, "lan": true, "kubernetes": true,
}

// validateURL applies the static checks of §4.1 that do not require a
// network round-trip: scheme, non-empty host, allowed port, blocked TLD.
// DNS-resolved address-range checks happen separately in resolveAndCheck,
// since they require a lookup.
func validateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &ErrURLRejected{Reason: "unparseable URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &ErrURLRejected{Reason: "scheme not in {http, https}"}
	}
	host := u.Hostname()
	if host == "" {
		return nil, &ErrURLRejected{Reason: "empty host"}
	}
	port := u.Port()
	if port == "" {
		if u.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}
	if port != "80" && port != "443" {
		return nil, &ErrURLRejected{Reason: "port outside {80, 443}"}
	}
	if tld := lastLabel(host); blockedTLDs[strings.ToLower(tld)] {
		return nil, &ErrURLRejected{Reason: "TLD " + tld + " is blocked"}
	}
	// A literal IP host is checked directly; no DNS lookup needed.
	if ip := net.ParseIP(host); ip != nil && isBlockedIP(ip) {
		return nil, &ErrURLRejected{Reason: "host resolves to a blocked address range"}
	}
	return u, nil
}

func lastLabel(host string) string {
	host = strings.TrimSuffix(host, ".")
	if i := strings.LastIndexByte(host, '.'); i >= 0 {
		return host[i+1:]
	}
	return host
}

// isBlockedIP reports whether ip falls into any of the ranges spec.md
// §4.1 requires rejecting: loopback, link-local, site-local (unique
// local / IPv4 private), multicast, unspecified, and the historical
// broadcast address.
func isBlockedIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsMulticast() || ip.IsUnspecified() || ip.IsPrivate() {
		return true
	}
	if ip4 := ip.To4(); ip4 != nil {
		if ip4.Equal(net.IPv4bcast) {
			return true
		}
		// 100.64.0.0/10 carrier-grade NAT, 192.0.0.0/24 IETF protocol
		// assignments, 192.0.2.0/24 / 198.51.100.0/24 / 203.0.113.0/24
		// documentation ranges: all reserved, none are legitimate public
		// upstream endpoints for this deployment.
		for _, blk := range reservedV4 {
			if blk.Contains(ip4) {
				return true
			}
		}
	}
	return false
}

var reservedV4 = mustParseCIDRs(
	"100.64.0.0/10",
	"192.0.0.0/24",
	"192.0.2.0/24",
	"198.51.100.0/24",
	"203.0.113.0/24",
	"240.0.0.0/4",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(err)
		}
		nets = append(nets, n)
	}
	return nets
}

// resolveAndCheck looks up every A/AAAA record for host and rejects the
// URL if any of them falls into a blocked range, per §4.1's "hostname
// resolves (all A/AAAA records) to any loopback/link-local/... range".
func resolveAndCheck(ctx context.Context, resolver *net.Resolver, host string) error {
	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return &ErrURLRejected{Reason: "host resolves to a blocked address range"}
		}
		return nil
	}
	addrs, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return &ErrTransport{Cause: err}
	}
	if len(addrs) == 0 {
		return &ErrURLRejected{Reason: "host does not resolve"}
	}
	for _, a := range addrs {
		if isBlockedIP(a.IP) {
			return &ErrURLRejected{Reason: "host resolves to a blocked address range"}
		}
	}
	return nil
}

// splitHostPort is a small helper used by the dial hook to recover the
// bare host from a "host:port" dial address.
func splitHostPort(hostport string) (host, port string) {
	h, p, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport, ""
	}
	return h, p
}
