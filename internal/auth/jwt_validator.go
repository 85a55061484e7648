package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// ErrInvalidToken covers every verification failure; callers get no detail
// about why a token was rejected.
var ErrInvalidToken = errors.New("invalid token")

// Identity is what a verified token asserts about the caller.
type Identity struct {
	UserID string
	Roles  []string
}

// TokenValidator verifies bearer tokens issued by the external identity
// provider. Only verification lives here; issuing is out of scope.
type TokenValidator struct {
	Secret   []byte
	Issuer   string
	Audience string
	Skew     time.Duration
}

// Validate parses and verifies the raw token, returning the identity claims.
func (v *TokenValidator) Validate(raw string) (Identity, error) {
	opts := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, v.Secret),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(v.Skew),
	}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.Audience))
	}
	tok, err := jwt.Parse([]byte(raw), opts...)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}
	sub := tok.Subject()
	if sub == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return Identity{UserID: sub, Roles: rolesClaim(tok)}, nil
}

func rolesClaim(tok jwt.Token) []string {
	raw, ok := tok.Get("roles")
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	default:
		return nil
	}
}
