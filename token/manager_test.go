package token

import (
	"errors"
	"testing"
	"time"
)

func newTestManager() *Manager {
	return NewManager("test-secret", 15*time.Minute, time.Hour, time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	tok, err := m.GenerateAccessToken(42, "a@x.com", []string{"admin"}, "jti-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := m.ParseAccessToken(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "a@x.com" || claims.ID != "jti-1" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	tok, err := m.GenerateRefreshToken(7, "tok-1", "device-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := m.ParseRefreshToken(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 7 || claims.ID != "tok-1" || claims.DeviceID != "device-1" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestFormatsAreNotCrossInterpreted(t *testing.T) {
	m := newTestManager()

	sessionTok, err := m.GenerateSessionToken("sess-1")
	if err != nil {
		t.Fatalf("generate session: %v", err)
	}
	accessTok, err := m.GenerateAccessToken(42, "a@x.com", nil, "jti-1")
	if err != nil {
		t.Fatalf("generate access: %v", err)
	}

	// A new-format token has no "id" claim: the legacy parser must skip it.
	if _, err := m.ParseAccessToken(sessionTok); !errors.Is(err, ErrWrongFormat) {
		t.Fatalf("legacy parser should skip session token, got %v", err)
	}
	// A legacy-format token has no session id: the session parser must
	// skip it rather than resolve it against the session store.
	if _, err := m.ParseSessionToken(accessTok); !errors.Is(err, ErrWrongFormat) {
		t.Fatalf("session parser should skip legacy token, got %v", err)
	}
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	m := newTestManager()

	refreshTok, err := m.GenerateRefreshToken(42, "tok-1", "device-1")
	if err != nil {
		t.Fatalf("generate refresh: %v", err)
	}

	// A refresh token also carries the "id" claim, but its device binding
	// marks it: it must never be accepted as a bearer credential, or its
	// long TTL would bypass blacklisting and rotation.
	if _, err := m.ParseAccessToken(refreshTok); !errors.Is(err, ErrWrongFormat) {
		t.Fatalf("access parser should reject refresh token, got %v", err)
	}
	if _, err := m.ParseSessionToken(refreshTok); !errors.Is(err, ErrWrongFormat) {
		t.Fatalf("session parser should reject refresh token, got %v", err)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	m := newTestManager()
	other := NewManager("other-secret", time.Minute, time.Minute, time.Minute)

	tok, err := m.GenerateAccessToken(1, "", nil, "j")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := other.ParseAccessToken(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	m := NewManager("s", -time.Second, -time.Second, -time.Second)

	tok, err := m.GenerateAccessToken(1, "", nil, "j")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := m.ParseAccessToken(tok); err == nil {
		t.Fatal("expired token must not parse")
	}
}
