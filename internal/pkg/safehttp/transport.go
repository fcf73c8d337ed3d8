// Package safehttp builds the HTTP clients used for provider calls.
package safehttp

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

// dialTimeout bounds connection setup to a provider.
const dialTimeout = 5 * time.Second

// ErrPrivateAddress is returned when a provider resolves to a non-public address.
type ErrPrivateAddress struct {
	IP net.IP
}

func (e *ErrPrivateAddress) Error() string {
	return fmt.Sprintf("access to private IP %s is denied", e.IP)
}

// NewTransport returns a transport for provider traffic. Unless
// allowPrivate is set it rejects connections to loopback, private and
// link-local addresses to reduce SSRF risk from configured base URLs.
func NewTransport(allowPrivate bool) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	dialer := &net.Dialer{Timeout: dialTimeout}
	if allowPrivate {
		transport.DialContext = dialer.DialContext
		return transport
	}

	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		host, _, _ := net.SplitHostPort(conn.RemoteAddr().String())
		ip := net.ParseIP(host)
		if ip == nil {
			conn.Close()
			return nil, fmt.Errorf("failed to parse remote IP for %q", addr)
		}

		if !IsPublic(ip) {
			conn.Close()
			return nil, &ErrPrivateAddress{IP: ip}
		}
		return conn, nil
	}
	return transport
}

// NewClient returns a client using NewTransport.
func NewClient(allowPrivate bool) *http.Client {
	return &http.Client{Transport: NewTransport(allowPrivate)}
}

// IsPublic reports whether ip is routable on the public internet.
func IsPublic(ip net.IP) bool {
	return !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsLinkLocalUnicast() && !ip.IsUnspecified()
}
