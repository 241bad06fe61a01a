package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"quotedesk/pkg/domain"
)

const (
	defaultJWTIssuer   = "quotedesk"
	defaultJWTAudience = "quotedesk-api"
)

var defaultJWTLeeway = 30 * time.Second

// sessionClaims carries the user's role alongside the registered claims.
// The role is baked in at issue time; handlers that gate on an elevated
// role re-check the persisted role instead of trusting the claim.
type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTSessionStore issues and validates stateless HS256 session tokens.
// Sign-out revokes the token's jti until the token would have expired.
type JWTSessionStore struct {
	secret  []byte
	ttl     time.Duration
	revoker TokenRevoker

	issuer   string
	audience string
	leeway   time.Duration
}

// NewJWTSessionStore builds a JWT session store from a shared secret.
func NewJWTSessionStore(secret string, ttl time.Duration, revoker TokenRevoker) (*JWTSessionStore, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret required")
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &JWTSessionStore{
		secret:   []byte(secret),
		ttl:      ttl,
		revoker:  revoker,
		issuer:   defaultJWTIssuer,
		audience: defaultJWTAudience,
		leeway:   defaultJWTLeeway,
	}, nil
}

// NewSession signs a token carrying the user's id and role.
func (s *JWTSessionStore) NewSession(_ context.Context, user domain.User) (string, error) {
	now := time.Now().UTC()
	claims := sessionClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        NewToken(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Resolve validates a token and returns the session it encodes. Invalid,
// expired, and revoked tokens all resolve to absent.
func (s *JWTSessionStore) Resolve(_ context.Context, token string) (domain.Session, bool, error) {
	claims, err := s.parseAndVerify(token)
	if err != nil {
		return domain.Session{}, false, nil
	}
	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(claims.ID)
		if err != nil {
			return domain.Session{}, false, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return domain.Session{}, false, nil
		}
	}
	return domain.Session{
		SessionToken: token,
		UserID:       claims.Subject,
		Role:         domain.Role(claims.Role),
		Expires:      claims.ExpiresAt.Time,
	}, true, nil
}

// Delete revokes the token's jti until the token expires. Tokens that no
// longer verify need no revocation.
func (s *JWTSessionStore) Delete(_ context.Context, token string) error {
	if s.revoker == nil {
		return nil
	}
	claims, err := s.parseAndVerify(token)
	if err != nil {
		return nil
	}
	return s.revoker.Revoke(claims.ID, time.Until(claims.ExpiresAt.Time))
}

func (s *JWTSessionStore) parseAndVerify(token string) (sessionClaims, error) {
	claims := sessionClaims{}
	token = strings.TrimSpace(token)
	if token == "" {
		return claims, errors.New("invalid token format")
	}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(s.leeway),
	)
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return claims, err
	}
	if strings.TrimSpace(claims.ID) == "" {
		return claims, errors.New("token jti missing")
	}
	if claims.ExpiresAt == nil {
		return claims, errors.New("token expiry missing")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return claims, errors.New("token subject missing")
	}
	return claims, nil
}
