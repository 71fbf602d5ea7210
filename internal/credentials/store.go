// ABOUTME: Single-slot bearer token store used by every outgoing request
// ABOUTME: Reads fail safe to "absent"; writes report whether they were persisted

package credentials

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// TokenKey is the fixed key (file name) the token is persisted under.
const TokenKey = "token"

// Store is the credential slot. At most one token is active at a time.
type Store interface {
	// Token returns the current token, or false if none is available.
	// It never fails: unavailable storage reads as absent.
	Token() (string, bool)

	// SetToken replaces the token. Persistence is best-effort.
	SetToken(token string) WriteResult

	// Clear removes the token.
	Clear() WriteResult
}

// WriteResult reports the outcome of a best-effort write.
type WriteResult struct {
	Written bool
	Reason  string
}

// Written is the result of a successful write.
func Written() WriteResult {
	return WriteResult{Written: true}
}

// Ignored is the result of a write that was dropped, with the reason.
func Ignored(reason string) WriteResult {
	return WriteResult{Reason: reason}
}

// DefaultConfigDir returns the default config directory, honouring XDG_CONFIG_HOME.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "opsdesk")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "opsdesk")
}

// FileStore persists the token in a file under a config directory.
type FileStore struct {
	fs        afero.Fs
	configDir string
	mu        sync.RWMutex
}

// NewFileStore creates a store rooted at configDir on the given filesystem.
func NewFileStore(fs afero.Fs, configDir string) *FileStore {
	return &FileStore{fs: fs, configDir: configDir}
}

// NewOSFileStore creates a store on the real filesystem.
func NewOSFileStore(configDir string) *FileStore {
	return NewFileStore(afero.NewOsFs(), configDir)
}

// Path returns the location of the token file.
func (s *FileStore) Path() string {
	return filepath.Join(s.configDir, TokenKey)
}

func (s *FileStore) Token() (string, bool) {
	if s.configDir == "" {
		return "", false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := afero.ReadFile(s.fs, s.Path())
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", false
	}
	return token, true
}

func (s *FileStore) SetToken(token string) WriteResult {
	if s.configDir == "" {
		return Ignored("no config directory available")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.MkdirAll(s.configDir, 0700); err != nil {
		return Ignored("create config directory: " + err.Error())
	}

	// Write to a temp file and rename so readers never see a partial token.
	tmp := s.Path() + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, []byte(token+"\n"), 0600); err != nil {
		return Ignored("write token: " + err.Error())
	}
	if err := s.fs.Rename(tmp, s.Path()); err != nil {
		_ = s.fs.Remove(tmp)
		return Ignored("replace token: " + err.Error())
	}
	return Written()
}

func (s *FileStore) Clear() WriteResult {
	if s.configDir == "" {
		return Ignored("no config directory available")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.fs.Remove(s.Path())
	if err != nil && !os.IsNotExist(err) {
		return Ignored("remove token: " + err.Error())
	}
	return Written()
}

// MemoryStore keeps the token for the life of the process only.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore creates a store holding token (empty means absent).
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (m *MemoryStore) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != ""
}

func (m *MemoryStore) SetToken(token string) WriteResult {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return Written()
}

func (m *MemoryStore) Clear() WriteResult {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return Written()
}

// Override layers a fixed token over another store. Reads return the fixed
// token; writes go to the underlying store.
type Override struct {
	Store
	token string
}

// WithOverride returns s unchanged when token is empty.
func WithOverride(s Store, token string) Store {
	if token == "" {
		return s
	}
	return &Override{Store: s, token: token}
}

func (o *Override) Token() (string, bool) {
	return o.token, true
}
