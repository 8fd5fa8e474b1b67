package login

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfeidau/cfauth/internal/vault"
	"golang.org/x/oauth2"
)

// Token is a Vault token obtained by a login.
type Token struct {
	Value         string
	Accessor      string
	Renewable     bool
	LeaseDuration time.Duration
	Policies      []string
	TokenType     string
	Metadata      map[string]string
	IssuedAt      time.Time
}

// ExpiresAt returns when the lease ends, or the zero time for tokens without
// a lease such as root tokens.
func (t *Token) ExpiresAt() time.Time {
	if t.LeaseDuration <= 0 {
		return time.Time{}
	}
	return t.IssuedAt.Add(t.LeaseDuration)
}

// String describes the token without revealing its value.
func (t *Token) String() string {
	return fmt.Sprintf("Token{accessor=%s, type=%s, lease=%s, renewable=%t}", t.Accessor, t.TokenType, t.LeaseDuration, t.Renewable)
}

func newToken(auth *vault.Auth, issuedAt time.Time) (*Token, error) {
	if strings.TrimSpace(auth.ClientToken) == "" {
		return nil, fmt.Errorf("%w: empty client token", vault.ErrMalformedResponse)
	}

	policies := auth.TokenPolicies
	if len(policies) == 0 {
		policies = auth.Policies
	}

	return &Token{
		Value:         auth.ClientToken,
		Accessor:      auth.Accessor,
		Renewable:     auth.Renewable,
		LeaseDuration: time.Duration(auth.LeaseDuration) * time.Second,
		Policies:      policies,
		TokenType:     auth.TokenType,
		Metadata:      auth.Metadata,
		IssuedAt:      issuedAt,
	}, nil
}

// TokenSource returns an oauth2.TokenSource that performs a new login on
// every Token call. Vault accepts the token as a bearer token.
func TokenSource(ctx context.Context, cf *CloudFoundry) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, cf: cf}
}

type tokenSource struct {
	ctx context.Context
	cf  *CloudFoundry
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	t, err := s.cf.Login(s.ctx)
	if err != nil {
		return nil, err
	}

	tok := &oauth2.Token{
		AccessToken: t.Value,
		TokenType:   "Bearer",
		Expiry:      t.ExpiresAt(),
	}

	return tok.WithExtra(map[string]any{
		"accessor":  t.Accessor,
		"renewable": t.Renewable,
		"policies":  t.Policies,
	}), nil
}
