package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func TestJWTVerifier(t *testing.T) {
	verifier, err := NewJWTVerifier("s3cret")
	if err != nil {
		t.Fatalf("NewJWTVerifier: %v", err)
	}
	future := time.Now().Add(time.Hour).Unix()
	past := time.Now().Add(-time.Hour).Unix()

	cases := []struct {
		name    string
		token   string
		wantUID string
	}{
		{
			name:    "valid token",
			token:   signToken(t, jwt.SigningMethodHS256, []byte("s3cret"), jwt.MapClaims{"sub": "client-42", "role": "client", "exp": future}),
			wantUID: "client-42",
		},
		{
			name:  "wrong secret",
			token: signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "client-42", "exp": future}),
		},
		{
			name:  "expired",
			token: signToken(t, jwt.SigningMethodHS256, []byte("s3cret"), jwt.MapClaims{"sub": "client-42", "exp": past}),
		},
		{
			name:  "no expiry",
			token: signToken(t, jwt.SigningMethodHS256, []byte("s3cret"), jwt.MapClaims{"sub": "client-42"}),
		},
		{
			name:  "no subject",
			token: signToken(t, jwt.SigningMethodHS256, []byte("s3cret"), jwt.MapClaims{"exp": future}),
		},
		{
			name:  "unexpected algorithm",
			token: signToken(t, jwt.SigningMethodHS512, []byte("s3cret"), jwt.MapClaims{"sub": "client-42", "exp": future}),
		},
		{
			name:  "garbage",
			token: "not-a-jwt",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tok, err := verifier.VerifyIDToken(context.Background(), tc.token)
			if tc.wantUID == "" {
				if !errors.Is(err, ErrInvalidToken) {
					t.Errorf("expected ErrInvalidToken, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("VerifyIDToken: %v", err)
			}
			if tok.UID != tc.wantUID {
				t.Errorf("uid = %q, want %q", tok.UID, tc.wantUID)
			}
			if tok.Claims["role"] != "client" {
				t.Errorf("role claim = %v", tok.Claims["role"])
			}
		})
	}

	if _, err := NewJWTVerifier(""); err == nil {
		t.Error("expected error for empty secret")
	}
}
