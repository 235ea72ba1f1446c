package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/lensart-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// adminSubject is the only identity a token can carry.
const adminSubject = "admin"

// Credential is the single shared admin secret, held only as a bcrypt hash.
type Credential struct {
	hash []byte
}

// NewCredential hashes password at the given bcrypt cost.
func NewCredential(password string, cost int) (Credential, error) {
	if password == "" {
		return Credential{}, fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return Credential{}, fmt.Errorf("hash password: %w", err)
	}
	return Credential{hash: hash}, nil
}

// CredentialFromHash wraps an existing bcrypt hash.
func CredentialFromHash(hash string) (Credential, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return Credential{}, fmt.Errorf("%w: not a bcrypt hash", domain.ErrInvalidInput)
	}
	return Credential{hash: []byte(hash)}, nil
}

// Matches compares password against the hash in constant time.
func (c Credential) Matches(password string) bool {
	return len(c.hash) > 0 && bcrypt.CompareHashAndPassword(c.hash, []byte(password)) == nil
}

// AuthService exchanges the shared admin password for signed tokens and
// verifies them.
type AuthService struct {
	credential Credential
	jwtSecret  []byte
	tokenTTL   time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(credential Credential, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		credential: credential,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
	}
}

// Login verifies the admin password and returns a signed JWT token string.
func (s *AuthService) Login(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}
	if !s.credential.Matches(password) {
		return "", domain.ErrUnauthorized
	}

	token, err := s.generateJWT()
	if err != nil {
		return "", fmt.Errorf("generate jwt: %w", err)
	}
	return token, nil
}

// ValidateToken parses and validates a JWT token string. It succeeds only
// for unexpired HS256 tokens issued to the admin subject.
func (s *AuthService) ValidateToken(tokenString string) error {
	if tokenString == "" {
		return domain.ErrUnauthorized
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return domain.ErrUnauthorized
	}
	if claims.Subject != adminSubject {
		return domain.ErrUnauthorized
	}
	return nil
}

func (s *AuthService) generateJWT() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
