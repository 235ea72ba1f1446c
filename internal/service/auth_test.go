package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/lensart-api/internal/domain"
	"github.com/msomdec/lensart-api/internal/service"
	"golang.org/x/crypto/bcrypt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests-0123456789"
	testPassword  = "photography2024"
)

func newTestAuthService(t *testing.T) *service.AuthService {
	t.Helper()
	// Use cost 4 for fast tests.
	cred, err := service.NewCredential(testPassword, 4)
	if err != nil {
		t.Fatalf("NewCredential: %v", err)
	}
	return service.NewAuthService(cred, testJWTSecret, 24*time.Hour)
}

func TestAuthService_Login_Success(t *testing.T) {
	auth := newTestAuthService(t)

	token, err := auth.Login(context.Background(), testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
	if err := auth.ValidateToken(token); err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
}

func TestAuthService_Login_TokenClaims(t *testing.T) {
	auth := newTestAuthService(t)

	token, err := auth.Login(context.Background(), testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(testJWTSecret), nil
	}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "admin" {
		t.Fatalf("expected subject admin, got %q", claims.Subject)
	}
	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if ttl != 24*time.Hour {
		t.Fatalf("expected 24h lifetime, got %v", ttl)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	auth := newTestAuthService(t)

	_, err := auth.Login(context.Background(), "wrong-password")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthService_Login_EmptyPassword(t *testing.T) {
	auth := newTestAuthService(t)

	_, err := auth.Login(context.Background(), "")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCredentialFromHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), 4)
	if err != nil {
		t.Fatalf("GenerateFromPassword: %v", err)
	}

	cred, err := service.CredentialFromHash(string(hash))
	if err != nil {
		t.Fatalf("CredentialFromHash: %v", err)
	}
	if !cred.Matches("s3cret") {
		t.Fatal("expected hash to match its password")
	}
	if cred.Matches("S3cret") {
		t.Fatal("expected different password not to match")
	}

	if _, err := service.CredentialFromHash("plaintext"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for non-bcrypt hash, got %v", err)
	}
}

func TestCredential_ZeroValueMatchesNothing(t *testing.T) {
	var cred service.Credential
	if cred.Matches("") || cred.Matches("anything") {
		t.Fatal("zero credential must not match")
	}
}

func TestAuthService_JWT_InvalidToken(t *testing.T) {
	auth := newTestAuthService(t)

	for _, token := range []string{"", "not-a-valid-jwt"} {
		if err := auth.ValidateToken(token); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("token %q: expected ErrUnauthorized, got %v", token, err)
		}
	}
}

func TestAuthService_JWT_TamperedToken(t *testing.T) {
	auth := newTestAuthService(t)

	token, err := auth.Login(context.Background(), testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// Tamper with the token by flipping several characters in the signature.
	tampered := token[:len(token)-5] + "XXXXX"
	if err := auth.ValidateToken(tampered); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for tampered token, got %v", err)
	}
}

func TestAuthService_JWT_WrongSecret(t *testing.T) {
	auth1 := newTestAuthService(t)

	token, err := auth1.Login(context.Background(), testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	cred, _ := service.NewCredential(testPassword, 4)
	auth2 := service.NewAuthService(cred, "a-completely-different-secret-value", 24*time.Hour)
	if err := auth2.ValidateToken(token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for wrong secret, got %v", err)
	}
}

func TestAuthService_JWT_Expired(t *testing.T) {
	cred, _ := service.NewCredential(testPassword, 4)
	auth := service.NewAuthService(cred, testJWTSecret, -time.Minute)

	token, err := auth.Login(context.Background(), testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := auth.ValidateToken(token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}

func TestAuthService_JWT_RejectsOtherSubjectsAndAlgorithms(t *testing.T) {
	auth := newTestAuthService(t)
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "visitor", ExpiresAt: exp,
	}).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := auth.ValidateToken(other); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-admin subject, got %v", err)
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject: "admin", ExpiresAt: exp,
	}).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := auth.ValidateToken(hs512); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for HS512 token, got %v", err)
	}

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "admin",
	}).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := auth.ValidateToken(noExp); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for token without expiry, got %v", err)
	}
}
