package client

import (
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/opsdesk/opsdesk/internal/logger"
)

func TestParseProxyURL(t *testing.T) {
	host, user, key, err := ParseProxyURL("ssh+socks5://jump@bastion.example.com:22?private-key=/keys/id_rsa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host != "bastion.example.com:22" || user != "jump" || key != "/keys/id_rsa" {
		t.Errorf("unexpected parse: %s %s %s", host, user, key)
	}
}

func TestParseProxyURL_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing key":  "ssh+socks5://jump@bastion:22",
		"wrong scheme": "http://bastion:22?private-key=/k",
		"no host":      "ssh+socks5://?private-key=/k",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			if _, _, _, err := ParseProxyURL(raw); err == nil {
				t.Errorf("expected error for %q", raw)
			}
		})
	}
}

func TestNewProxyDialer_MissingKeyFile(t *testing.T) {
	_, err := NewProxyDialer(afero.NewMemMapFs(), "ssh+socks5://jump@bastion:22?private-key=/nope", logger.Discard())
	if err == nil || !strings.Contains(err.Error(), "private key") {
		t.Errorf("expected key read error, got %v", err)
	}
}

func TestNewProxyDialer_DefersConnection(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/keys/id", []byte("not-a-real-key"), 0600)

	dial, err := NewProxyDialer(fs, "ssh+socks5://jump@bastion:22?private-key=/keys/id", logger.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dial == nil {
		t.Fatal("expected a dial function")
	}
}
