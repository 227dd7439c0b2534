package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func newTestTokenManager(now time.Time) *TokenManager {
	m := NewTokenManager(TokenConfig{
		Secret:   "test-secret",
		Issuer:   "powerfleet",
		Audience: "powerfleet-web",
		Lifetime: time.Hour,
	})
	m.now = func() time.Time { return now }
	return m
}

func TestTokenManager_IssueAndParse(t *testing.T) {
	m := newTestTokenManager(time.Now())

	token, expiresAt, err := m.Issue("alice", "Admin")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("token should have three segments: %q", token)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Username != "alice" || claims.Role != "Admin" || claims.Subject != "alice" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Error("jti should be set")
	}
	if !claims.ExpiresAt.Time.Equal(expiresAt.Truncate(time.Second)) {
		t.Errorf("ExpiresAt = %v, want %v", claims.ExpiresAt.Time, expiresAt)
	}
}

func TestTokenManager_UniqueTokenIDs(t *testing.T) {
	m := newTestTokenManager(time.Now())
	a, _, _ := m.Issue("alice", "User")
	b, _, _ := m.Issue("alice", "User")
	if a == b {
		t.Error("tokens issued for the same user should differ")
	}
}

func TestTokenManager_ExpiredTokenRejected(t *testing.T) {
	issuedAt := time.Now().Add(-2 * time.Hour)
	issuer := newTestTokenManager(issuedAt)
	token, _, err := issuer.Issue("alice", "User")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	verifier := newTestTokenManager(time.Now())
	if _, err := verifier.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenManager_ForgedSignatureRejected(t *testing.T) {
	m := newTestTokenManager(time.Now())
	forger := NewTokenManager(TokenConfig{
		Secret:   "other-secret",
		Issuer:   "powerfleet",
		Audience: "powerfleet-web",
		Lifetime: time.Hour,
	})

	token, _, _ := forger.Issue("mallory", "Admin")
	if _, err := m.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenManager_WrongAudienceRejected(t *testing.T) {
	m := newTestTokenManager(time.Now())
	other := NewTokenManager(TokenConfig{
		Secret:   "test-secret",
		Issuer:   "powerfleet",
		Audience: "someone-else",
		Lifetime: time.Hour,
	})

	token, _, _ := other.Issue("alice", "User")
	if _, err := m.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenManager_NoneAlgorithmRejected(t *testing.T) {
	m := newTestTokenManager(time.Now())
	claims := &Claims{
		Username: "mallory",
		Role:     "Admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "powerfleet",
			Audience:  jwt.ClaimStrings{"powerfleet-web"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	if _, err := m.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenManager_GarbageRejected(t *testing.T) {
	m := newTestTokenManager(time.Now())
	if _, err := m.Parse("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestPasswordHasher_Verify(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	hash, err := h.Hash("pw")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	if ok, rehash := h.Verify(hash, "pw"); !ok || rehash {
		t.Errorf("bcrypt verify = (%v, %v), want (true, false)", ok, rehash)
	}
	if ok, _ := h.Verify(hash, "nope"); ok {
		t.Error("wrong password should not verify")
	}
	if ok, rehash := h.Verify(legacyHash("pw"), "pw"); !ok || !rehash {
		t.Errorf("legacy verify = (%v, %v), want (true, true)", ok, rehash)
	}
	if ok, _ := h.Verify(legacyHash("pw"), "nope"); ok {
		t.Error("wrong password should not verify against legacy hash")
	}
	if ok, _ := h.Verify("", ""); ok {
		t.Error("empty hash should never verify")
	}
}

func TestLegacyHash_KnownValue(t *testing.T) {
	// SHA-256("password") のbase64
	want := "XohImNooBHFR0OVvjcYpJ3NgPQ1qq73WKhHvch0VQtg="
	if got := legacyHash("password"); got != want {
		t.Errorf("legacyHash = %q, want %q", got, want)
	}
}
