package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/infrastructure/auth"
)

func TestJWTManagerGenerateAndVerify(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("super-secret", time.Minute)

	token, err := manager.Generate("partner-a")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("expected token to verify, got %v", err)
	}

	if claims.Actor() != "partner-a" {
		t.Fatalf("expected actor partner-a, got %+v", claims)
	}
}

func TestClaimsActorFallsBackToSubject(t *testing.T) {
	t.Parallel()

	claims := auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "partner-b"}}
	if claims.Actor() != "partner-b" {
		t.Fatalf("expected subject fallback, got %q", claims.Actor())
	}
}

func TestJWTManagerVerifyErrors(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("secret", time.Minute)

	sign := func(t *testing.T, method jwt.SigningMethod, key any, claims auth.Claims) string {
		t.Helper()
		token, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}
		return token
	}

	expired := sign(t, jwt.SigningMethodHS256, []byte("secret"), auth.Claims{
		AccountID: "partner-a",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	wrongKey := sign(t, jwt.SigningMethodHS256, []byte("other"), auth.Claims{AccountID: "partner-a"})
	noActor := sign(t, jwt.SigningMethodHS256, []byte("secret"), auth.Claims{})

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"expired", expired, domain.ErrExpiredToken},
		{"wrong key", wrongKey, domain.ErrInvalidToken},
		{"no actor", noActor, domain.ErrInvalidToken},
		{"garbage", "not-a-jwt", domain.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := manager.Verify(tt.token); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
