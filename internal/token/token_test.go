package token

import (
	"strings"
	"testing"
	"time"
)

func newTestService(t *testing.T, now func() time.Time) *Service {
	t.Helper()
	svc, err := NewService("test-secret", time.Hour, 7*24*time.Hour, now)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNewServiceRequiresSecret(t *testing.T) {
	if _, err := NewService("", time.Hour, time.Hour, nil); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestIssuePairRoundTrip(t *testing.T) {
	svc := newTestService(t, nil)

	pair, err := svc.IssuePair("account-1")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be set")
	}

	access, err := svc.Decode(pair.AccessToken, KindAccess)
	if err != nil {
		t.Fatalf("decode access: %v", err)
	}
	if access.Subject != "account-1" {
		t.Fatalf("expected subject account-1, got %s", access.Subject)
	}
	if access.Kind != KindAccess {
		t.Fatalf("expected kind access, got %s", access.Kind)
	}

	refresh, err := svc.Decode(pair.RefreshToken, KindRefresh)
	if err != nil {
		t.Fatalf("decode refresh: %v", err)
	}
	if refresh.Subject != "account-1" {
		t.Fatalf("expected subject account-1, got %s", refresh.Subject)
	}
}

func TestDecodeRejectsKindMismatch(t *testing.T) {
	svc := newTestService(t, nil)

	pair, err := svc.IssuePair("account-1")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if _, err := svc.Decode(pair.RefreshToken, KindAccess); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for refresh-as-access, got %v", err)
	}
	if _, err := svc.Decode(pair.AccessToken, KindRefresh); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for access-as-refresh, got %v", err)
	}
}

func TestDecodeRejectsExpired(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, func() time.Time { return now })

	pair, err := svc.IssuePair("account-1")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	// Advance the clock past the access expiry. The signature is
	// still valid; only time has passed.
	now = now.Add(2 * time.Hour)

	if _, err := svc.Decode(pair.AccessToken, KindAccess); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}

	// The refresh token has a longer horizon and must still decode.
	if _, err := svc.Decode(pair.RefreshToken, KindRefresh); err != nil {
		t.Fatalf("refresh token should outlive access token: %v", err)
	}
}

func TestDecodeExpiryBoundary(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, func() time.Time { return now })

	pair, err := svc.IssuePair("account-1")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	// now == exp is already invalid.
	now = now.Add(time.Hour)

	if _, err := svc.Decode(pair.AccessToken, KindAccess); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken at exact expiry, got %v", err)
	}
}

func TestDecodeRejectsTamperedToken(t *testing.T) {
	svc := newTestService(t, nil)

	pair, err := svc.IssuePair("account-1")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	parts := strings.Split(pair.AccessToken, ".")
	if len(parts) != 3 {
		t.Fatalf("expected three jwt segments, got %d", len(parts))
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	if _, err := svc.Decode(tampered, KindAccess); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for tampered signature, got %v", err)
	}
}

func TestDecodeRejectsForeignSecret(t *testing.T) {
	svc := newTestService(t, nil)
	other, err := NewService("other-secret", time.Hour, time.Hour, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	pair, err := other.IssuePair("account-1")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if _, err := svc.Decode(pair.AccessToken, KindAccess); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for foreign secret, got %v", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	svc := newTestService(t, nil)

	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := svc.Decode(raw, KindAccess); err != ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", raw, err)
		}
	}
}

func TestRefreshIssuesNewPairForSameSubject(t *testing.T) {
	svc := newTestService(t, nil)

	pair, err := svc.IssuePair("account-7")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	next, err := svc.Refresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	claims, err := svc.Decode(next.AccessToken, KindAccess)
	if err != nil {
		t.Fatalf("decode refreshed access: %v", err)
	}
	if claims.Subject != "account-7" {
		t.Fatalf("expected subject account-7, got %s", claims.Subject)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc := newTestService(t, nil)

	pair, err := svc.IssuePair("account-1")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if _, err := svc.Refresh(pair.AccessToken); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken refreshing with access token, got %v", err)
	}
}
