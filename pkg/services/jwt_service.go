package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrExpiredCredential is returned by Validate when the token is past its expiry.
	ErrExpiredCredential = errors.New("token has expired")
	// ErrMalformedCredential covers every structural or signature failure.
	ErrMalformedCredential = errors.New("invalid token")
)

// Claims is the validated token payload.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HMAC-signed bearer tokens. It holds no
// mutable state and is safe for concurrent use.
type TokenService struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenService builds a token service for the given secret and HMAC algorithm
// (HS256, HS384 or HS512).
func NewTokenService(secret, algorithm string, ttl time.Duration, issuer string) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	method, ok := jwt.GetSigningMethod(strings.ToUpper(algorithm)).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	return &TokenService{
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// Issue signs a token for subject. Every entry of extra is embedded as a
// claim; the registered claims sub, iat, exp and iss cannot be overridden.
func (s *TokenService) Issue(subject string, extra map[string]any) (string, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := jwt.MapClaims{}
	for k, v := range extra {
		claims[k] = v
	}
	claims["sub"] = subject
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(expiresAt)
	if s.issuer != "" {
		claims["iss"] = s.issuer
	}

	token, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		log.Errorf("Failed to sign token for %s: %v", subject, err)
		return "", err
	}
	log.Debugf("Issued token for %s, expires at %s", subject, expiresAt.Format(time.RFC3339))
	return token, nil
}

// Validate verifies signature and expiry and returns the claims.
// Errors wrap ErrExpiredCredential or ErrMalformedCredential.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredCredential
		}
		log.Debugf("Token validation failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
	}
	if !token.Valid {
		return nil, ErrMalformedCredential
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: subject missing", ErrMalformedCredential)
	}
	return claims, nil
}
