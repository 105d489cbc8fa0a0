package httpfetch

import (
	"context"
	"fmt"
	"net"
	"net/url"

	tls2 "github.com/refraction-networking/utls"
)

// chromeUA is sent on every plain-HTTP fetch so the TLS fingerprint (via
// utls below) and the declared User-Agent agree with each other.
const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// dialTLSChrome dials addr and performs a TLS handshake with a Chrome
// ClientHello fingerprint, routing through proxy first when one is set.
// Only http/https/socks5 proxy schemes are understood; anything else is
// ignored and the connection is dialed directly.
func dialTLSChrome(ctx context.Context, network, addr, proxy string) (net.Conn, error) {
	dialer := &net.Dialer{}
	var rawConn net.Conn
	var err error

	if proxy != "" {
		if proxyURL, parseErr := url.Parse(proxy); parseErr == nil &&
			(proxyURL.Scheme == "socks5" || proxyURL.Scheme == "socks5h") {
			rawConn, err = dialer.DialContext(ctx, "tcp", proxyURL.Host)
			if err != nil {
				return nil, fmt.Errorf("socks5 dial: %w", err)
			}
		}
	}

	if rawConn == nil {
		rawConn, err = dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls2.UClient(rawConn, &tls2.Config{
		ServerName: host,
	}, tls2.HelloChrome_Auto)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}
