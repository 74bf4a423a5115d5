package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/dablu757/fast-auth-guard/internal/auth"
)

type stubProvider struct {
	name string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) AuthCodeURL(state, challenge string) string {
	return "https://example.com/authorize?state=" + state
}

func (s *stubProvider) ExchangeCode(ctx context.Context, code, verifier string) (*auth.Identity, error) {
	return &auth.Identity{Provider: s.name}, nil
}

func TestRegistryGet(t *testing.T) {
	reg := NewRegistry(&stubProvider{name: "google"}, &stubProvider{name: "github"})

	p, err := reg.Get("google")
	if err != nil {
		t.Fatalf("get google: %v", err)
	}
	if p.Name() != "google" {
		t.Fatalf("expected google, got %s", p.Name())
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	reg := NewRegistry(&stubProvider{name: "google"})

	_, err := reg.Get("not-registered")
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestRegistryNames(t *testing.T) {
	reg := NewRegistry(&stubProvider{name: "google"}, &stubProvider{name: "github"})

	names := reg.Names()
	if len(names) != 2 {
		t.Fatalf("expected 2 names, got %d", len(names))
	}
}
