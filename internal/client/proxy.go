// ABOUTME: SSH+SOCKS5 dialer for reaching a backend behind a jump host
// ABOUTME: Accepts ssh+socks5://user@host:port?private-key=/path/to/key

package client

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cloudfoundry/socks5-proxy"
	"github.com/spf13/afero"
)

// DialContextFunc matches http.Transport.DialContext.
type DialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

// ParseProxyURL validates an all-proxy URL and returns the jump host, the SSH
// username, and the private key path.
func ParseProxyURL(allProxy string) (host, username, keyPath string, err error) {
	trimmed := strings.TrimPrefix(allProxy, "ssh+")

	proxyURL, err := url.Parse(trimmed)
	if err != nil {
		return "", "", "", fmt.Errorf("invalid proxy URL: %w", err)
	}
	if proxyURL.Scheme != "socks5" {
		return "", "", "", fmt.Errorf("unsupported proxy scheme %q (want ssh+socks5)", proxyURL.Scheme)
	}
	if proxyURL.Host == "" {
		return "", "", "", fmt.Errorf("proxy URL is missing a host")
	}

	keyPath = proxyURL.Query().Get("private-key")
	if keyPath == "" {
		return "", "", "", fmt.Errorf("proxy URL is missing the 'private-key' query param")
	}

	if proxyURL.User != nil {
		username = proxyURL.User.Username()
	}
	return proxyURL.Host, username, keyPath, nil
}

// NewProxyDialer builds a dial function that tunnels connections through an
// SSH jump host. The SSH session is established lazily on first dial and
// reused afterwards.
func NewProxyDialer(fs afero.Fs, allProxy string, logger *slog.Logger) (DialContextFunc, error) {
	host, username, keyPath, err := ParseProxyURL(allProxy)
	if err != nil {
		return nil, err
	}

	key, err := afero.ReadFile(fs, keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH private key %s: %w", keyPath, err)
	}

	socks5Proxy := proxy.NewSocks5Proxy(proxy.NewHostKey(), slog.NewLogLogger(logger.Handler(), slog.LevelDebug), 1*time.Minute)

	var (
		dialer proxy.DialFunc
		mut    sync.RWMutex
	)

	return func(ctx context.Context, network, address string) (net.Conn, error) {
		mut.RLock()
		d := dialer
		mut.RUnlock()

		if d != nil {
			return d(network, address)
		}

		mut.Lock()
		defer mut.Unlock()
		if dialer == nil {
			proxyDialer, err := socks5Proxy.Dialer(username, string(key), host)
			if err != nil {
				return nil, fmt.Errorf("error creating SOCKS5 dialer: %w", err)
			}
			dialer = proxyDialer
		}
		return dialer(network, address)
	}, nil
}
