package utils

import (
	"strings"
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret-a", 42, "staff", "staff@astu.edu.et", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if time.Until(tok.Exp) <= 0 {
		t.Fatalf("expected future expiry, got %v", tok.Exp)
	}

	claims, err := ParseToken("secret-a", tok.Token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != 42 || claims.Role != "staff" || claims.Email != "staff@astu.edu.et" {
		t.Fatalf("claims not preserved: %+v", claims)
	}
	if claims.Issuer != TokenIssuer {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tok, err := NewAccessToken("secret-a", 1, "student", "s@astu.edu.et", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if _, err := ParseToken("secret-b", tok.Token); err == nil {
		t.Fatal("expected signature verification failure")
	}
}

// Access and refresh tokens use distinct secrets; one must not verify
// against the other's secret.
func TestAccessAndRefreshSecretsAreIndependent(t *testing.T) {
	refresh, err := NewRefreshToken("refresh-secret", 7, "student", "x@astu.edu.et", 7)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if _, err := ParseToken("access-secret", refresh.Token); err == nil {
		t.Fatal("refresh token verified with access secret")
	}
	claims, err := ParseToken("refresh-secret", refresh.Token)
	if err != nil {
		t.Fatalf("ParseToken refresh: %v", err)
	}
	if claims.UserID != 7 {
		t.Fatalf("unexpected uid %d", claims.UserID)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tok, err := signToken("s", 1, "student", "e@astu.edu.et", -time.Minute)
	if err != nil {
		t.Fatalf("signToken: %v", err)
	}
	if _, err := ParseToken("s", tok.Token); err == nil {
		t.Fatal("expected expired-token error")
	}
}

func TestHashTokenStable(t *testing.T) {
	a := HashToken("abc")
	if a != HashToken("abc") {
		t.Fatal("hash must be deterministic")
	}
	if a == HashToken("abd") {
		t.Fatal("distinct tokens must not collide trivially")
	}
	if len(a) != 64 || strings.ToLower(a) != a {
		t.Fatalf("expected lowercase hex sha-256, got %q", a)
	}
}

func TestFormatTicketNumber(t *testing.T) {
	if got := FormatTicketNumber(2026, 7); got != "ASTU-2026-00007" {
		t.Fatalf("got %q", got)
	}
	if got := FormatTicketNumber(2026, 12345); got != "ASTU-2026-12345" {
		t.Fatalf("got %q", got)
	}
}
