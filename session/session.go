package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/getkayan/kayan-notes/identity"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// JWTConfig holds the configuration for JWT access tokens.
type JWTConfig struct {
	SigningMethod jwt.SigningMethod
	SigningKey    any // e.g., []byte for HMAC, *rsa.PrivateKey for RSA
	VerifyingKey  any // e.g., []byte for HMAC (same as SigningKey), *rsa.PublicKey for RSA
	Expiry        time.Duration
	Issuer        string
	Audience      string
}

// Token is an issued access token.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
	ExpiresIn   int64 // seconds
}

// JWTClaims represents the data stored in the JWT.
type JWTClaims struct {
	Email string        `json:"email"`
	Role  identity.Role `json:"role"`
	jwt.RegisteredClaims
}

// JWTStrategy issues and validates stateless access tokens.
type JWTStrategy struct {
	config JWTConfig
	now    func() time.Time
}

// NewJWTStrategy creates a new JWT strategy with the given configuration.
func NewJWTStrategy(config JWTConfig) *JWTStrategy {
	return &JWTStrategy{config: config, now: time.Now}
}

// NewHS256Strategy is a convenience constructor for HS256 strategy.
func NewHS256Strategy(secret string, expiry time.Duration, issuer, audience string) *JWTStrategy {
	return NewJWTStrategy(JWTConfig{
		SigningMethod: jwt.SigningMethodHS256,
		SigningKey:    []byte(secret),
		VerifyingKey:  []byte(secret),
		Expiry:        expiry,
		Issuer:        issuer,
		Audience:      audience,
	})
}

// Issue signs an access token for p.
func (s *JWTStrategy) Issue(p *identity.Principal) (*Token, error) {
	now := s.now()
	expiresAt := now.Add(s.config.Expiry)

	claims := JWTClaims{
		Email: p.Email,
		Role:  p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   p.ID,
			Issuer:    s.config.Issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if s.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.config.Audience}
	}

	signed, err := jwt.NewWithClaims(s.config.SigningMethod, claims).SignedString(s.config.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Token{
		AccessToken: signed,
		ExpiresAt:   expiresAt,
		ExpiresIn:   int64(s.config.Expiry / time.Second),
	}, nil
}

// Validate parses tokenString and checks signature, expiry, issuer and
// audience.
func (s *JWTStrategy) Validate(tokenString string) (*JWTClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{s.config.SigningMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	if s.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.config.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.config.VerifyingKey, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
