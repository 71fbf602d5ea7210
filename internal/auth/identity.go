// ABOUTME: Local inspection of the stored token for whoami-style output
// ABOUTME: Decodes JWT claims without verifying them; opaque tokens are reported as such

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is what can be learned about the stored token without calling the backend.
type Identity struct {
	Token     string     `json:"token"`
	Opaque    bool       `json:"opaque"`
	Subject   string     `json:"subject,omitempty"`
	Email     string     `json:"email,omitempty"`
	IssuedAt  *time.Time `json:"issued_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Expired   bool       `json:"expired"`
}

// Identity inspects the stored token. The signature is not checked: the
// backend remains the authority, this is display-only.
func (s *Service) Identity(now time.Time) (*Identity, error) {
	token, ok := s.store.Token()
	if !ok {
		return nil, ErrNotLoggedIn
	}
	return inspectToken(token, now), nil
}

func inspectToken(token string, now time.Time) *Identity {
	id := &Identity{Token: maskToken(token)}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		id.Opaque = true
		return id
	}

	id.Subject, _ = claims.GetSubject()
	id.Email, _ = claims["email"].(string)
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		t := iat.Time
		id.IssuedAt = &t
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		id.ExpiresAt = &t
		id.Expired = !now.Before(t)
	}
	return id
}

// maskToken keeps only enough of the token to tell two apart.
func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
