package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewManager(strings.Repeat("s", 32), "pagamentos", time.Hour)

	token, err := m.Issue(42, "maria@example.com", true)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatal(err)
	}
	id, err := claims.UserID()
	if err != nil || id != 42 {
		t.Fatalf("user id: got %d, %v", id, err)
	}
	if claims.Email != "maria@example.com" || !claims.Admin {
		t.Fatalf("claims: %+v", claims)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	m := NewManager(strings.Repeat("s", 32), "pagamentos", time.Hour)
	token, err := m.Issue(1, "user@example.com", false)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name    string
		manager *Manager
		token   string
	}{
		{"garbage", m, "not.a.token"},
		{"wrong secret", NewManager(strings.Repeat("x", 32), "pagamentos", time.Hour), token},
		{"wrong issuer", NewManager(strings.Repeat("s", 32), "other", time.Hour), token},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.manager.Verify(tc.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("got %v, want %v", err, ErrInvalidToken)
			}
		})
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewManager(strings.Repeat("s", 32), "pagamentos", -time.Minute)
	token, err := m.Issue(1, "user@example.com", false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want %v", err, ErrInvalidToken)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3nha-forte")
	if err != nil {
		t.Fatal(err)
	}
	if err := CheckPassword(hash, "s3nha-forte"); err != nil {
		t.Fatalf("correct password rejected: %v", err)
	}
	if err := CheckPassword(hash, "errada"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want %v", err, ErrInvalidCredentials)
	}
}
