// ABOUTME: Authentication client: login, signup, magic links, and redirect targets
// ABOUTME: Persists the issued bearer token through the credential store

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/url"

	"github.com/opsdesk/opsdesk/internal/client"
	"github.com/opsdesk/opsdesk/internal/credentials"
	"github.com/opsdesk/opsdesk/internal/resource"
)

// ErrNotLoggedIn is returned when an operation needs a stored credential.
var ErrNotLoggedIn = errors.New("not logged in")

// LoginInput is the body of POST /auth/login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupInput is the body of POST /auth/signup.
type SignupInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name,omitempty"`
	Company  string `json:"company,omitempty"`
}

// User is the account attached to a session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Session is the login/signup response.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	User         *User  `json:"user,omitempty"`

	// Persisted reports whether the token reached durable storage.
	Persisted bool `json:"-"`
}

// MagicLinkResponse is returned by POST /auth/magic-link.
type MagicLinkResponse struct {
	Message string `json:"message"`
	Email   string `json:"email,omitempty"`
}

// PageInfo describes the combined signup/login page.
type PageInfo struct {
	Title     string   `json:"title"`
	Providers []string `json:"providers"`
}

// Service talks to the /auth endpoints.
type Service struct {
	client *client.Client
	store  credentials.Store
	logger *slog.Logger
}

// NewService creates an auth service that persists tokens into the client's store.
func NewService(c *client.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	store := c.Store()
	if store == nil {
		store = noStore{}
	}
	return &Service{client: c, store: store, logger: logger}
}

// noStore stands in for a client built without credentials. Nothing is ever
// kept, so later requests stay unauthenticated.
type noStore struct{}

func (noStore) Token() (string, bool) { return "", false }

func (noStore) SetToken(string) credentials.WriteResult {
	return credentials.Ignored("no credential store")
}

func (noStore) Clear() credentials.WriteResult {
	return credentials.Ignored("no credential store")
}

// Login exchanges credentials for a session and stores its token.
func (s *Service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	session, err := client.Post[*Session](ctx, s.client, "/auth/login", input)
	if err != nil {
		return nil, err
	}
	s.persist(session)
	return session, nil
}

// Signup creates an account, returning a session whose token is stored.
func (s *Service) Signup(ctx context.Context, input SignupInput) (*Session, error) {
	session, err := client.Post[*Session](ctx, s.client, "/auth/signup", input)
	if err != nil {
		return nil, err
	}
	s.persist(session)
	return session, nil
}

// RequestMagicLink asks the backend to email a one-time sign-in link.
func (s *Service) RequestMagicLink(ctx context.Context, email string) (*MagicLinkResponse, error) {
	return client.Post[*MagicLinkResponse](ctx, s.client, "/auth/magic-link", map[string]string{"email": email})
}

// SignupLoginPage fetches page metadata. It is optional, so failures yield nil.
func (s *Service) SignupLoginPage(ctx context.Context) *PageInfo {
	page, err := client.Get[*PageInfo](ctx, s.client, "/signup-login")
	return resource.OrAbsent(s.logger, "signup-login page", page, err)
}

// GoogleOAuthURL is the browser redirect target for Google sign-in.
func (s *Service) GoogleOAuthURL() string {
	return s.client.URL("/auth/oauth/google")
}

// SSOURL is the browser redirect target for single sign-on. domain is optional.
func (s *Service) SSOURL(domain string) string {
	endpoint := "/auth/sso"
	if domain != "" {
		endpoint += "?" + url.Values{"domain": {domain}}.Encode()
	}
	return s.client.URL(endpoint)
}

// Logout forgets the stored token. There is no server-side call.
func (s *Service) Logout() credentials.WriteResult {
	res := s.store.Clear()
	if !res.Written {
		s.logger.Warn("Token not cleared", "reason", res.Reason)
	}
	return res
}

func (s *Service) persist(session *Session) {
	if session == nil || session.AccessToken == "" {
		s.logger.Warn("Auth response carried no access token")
		return
	}
	res := s.store.SetToken(session.AccessToken)
	if !res.Written {
		s.logger.Warn("Token not persisted, session lasts for this process only", "reason", res.Reason)
	}
	session.Persisted = res.Written
}
