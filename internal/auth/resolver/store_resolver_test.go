package resolver

import (
	"context"
	"sync"
	"testing"

	"github.com/dablu757/fast-auth-guard/internal/account"
	"github.com/dablu757/fast-auth-guard/internal/auth"
)

func TestResolveCreatesAccountOnFirstLogin(t *testing.T) {
	store := account.NewMemoryStore()
	r := NewStoreResolver(store)

	acct, err := r.Resolve(context.Background(), &auth.Identity{
		Provider:       "google",
		ProviderUserID: "g1",
		Email:          "a@x.com",
		DisplayName:    "Ada",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if acct.ID == "" {
		t.Fatal("expected a freshly assigned account id")
	}
	if acct.Email != "a@x.com" {
		t.Fatalf("expected email a@x.com, got %s", acct.Email)
	}
	if acct.DisplayName != "Ada" {
		t.Fatalf("expected display name Ada, got %s", acct.DisplayName)
	}
	if acct.LinkedIdentities["google"] != "g1" {
		t.Fatalf("expected google identity g1, got %+v", acct.LinkedIdentities)
	}
}

func TestResolveLinksSecondProviderToSameAccount(t *testing.T) {
	store := account.NewMemoryStore()
	r := NewStoreResolver(store)
	ctx := context.Background()

	first, err := r.Resolve(ctx, &auth.Identity{
		Provider:       "google",
		ProviderUserID: "g1",
		Email:          "a@x.com",
	})
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	second, err := r.Resolve(ctx, &auth.Identity{
		Provider:       "github",
		ProviderUserID: "h1",
		Email:          "a@x.com",
	})
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("expected same account, got %s and %s", first.ID, second.ID)
	}
	if second.LinkedIdentities["google"] != "g1" || second.LinkedIdentities["github"] != "h1" {
		t.Fatalf("expected both identities linked, got %+v", second.LinkedIdentities)
	}
}

func TestResolveNormalizesEmailCase(t *testing.T) {
	store := account.NewMemoryStore()
	r := NewStoreResolver(store)
	ctx := context.Background()

	first, err := r.Resolve(ctx, &auth.Identity{
		Provider:       "google",
		ProviderUserID: "g1",
		Email:          "Ada@X.com",
	})
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	second, err := r.Resolve(ctx, &auth.Identity{
		Provider:       "github",
		ProviderUserID: "h1",
		Email:          "ada@x.COM",
	})
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	if second.ID != first.ID {
		t.Fatal("casing difference split one user across two accounts")
	}
}

func TestResolveLastWriteWinsPerProvider(t *testing.T) {
	store := account.NewMemoryStore()
	r := NewStoreResolver(store)
	ctx := context.Background()

	if _, err := r.Resolve(ctx, &auth.Identity{
		Provider:       "google",
		ProviderUserID: "old-sub",
		Email:          "a@x.com",
	}); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	acct, err := r.Resolve(ctx, &auth.Identity{
		Provider:       "google",
		ProviderUserID: "new-sub",
		Email:          "a@x.com",
	})
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	if got := acct.LinkedIdentities["google"]; got != "new-sub" {
		t.Fatalf("expected last write to win, got %s", got)
	}
	if len(acct.LinkedIdentities) != 1 {
		t.Fatalf("expected one identity per provider, got %+v", acct.LinkedIdentities)
	}
}

func TestResolveProviderEmailChangeCreatesNewAccount(t *testing.T) {
	store := account.NewMemoryStore()
	r := NewStoreResolver(store)
	ctx := context.Background()

	// Email is the sole linking key. When a provider starts
	// reporting a new address for the same subject, the login must
	// land on a fresh account, not fail on the old identity row.
	first, err := r.Resolve(ctx, &auth.Identity{
		Provider:       "google",
		ProviderUserID: "g1",
		Email:          "old@x.com",
	})
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	second, err := r.Resolve(ctx, &auth.Identity{
		Provider:       "google",
		ProviderUserID: "g1",
		Email:          "new@x.com",
	})
	if err != nil {
		t.Fatalf("resolve after provider email change: %v", err)
	}

	if second.ID == first.ID {
		t.Fatal("expected a new account for the new email")
	}
	if second.LinkedIdentities["google"] != "g1" {
		t.Fatalf("expected google identity on new account, got %+v", second.LinkedIdentities)
	}
	if kept, _ := store.FindByEmail(ctx, "old@x.com"); kept == nil {
		t.Fatal("old account must remain untouched")
	}
}

func TestResolveRejectsMissingEmail(t *testing.T) {
	store := account.NewMemoryStore()
	r := NewStoreResolver(store)

	_, err := r.Resolve(context.Background(), &auth.Identity{
		Provider:       "google",
		ProviderUserID: "g1",
	})
	if err != auth.ErrMissingEmail {
		t.Fatalf("expected ErrMissingEmail, got %v", err)
	}

	if acct, _ := store.FindByEmail(context.Background(), ""); acct != nil {
		t.Fatal("no account must be created for an identity without email")
	}
}

func TestResolveConcurrentFirstLoginsProduceOneAccount(t *testing.T) {
	store := account.NewMemoryStore()
	r := NewStoreResolver(store)
	ctx := context.Background()

	identities := []*auth.Identity{
		{Provider: "google", ProviderUserID: "sub1", Email: "a@x.com"},
		{Provider: "github", ProviderUserID: "sub2", Email: "a@x.com"},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(identities))
	for i, id := range identities {
		wg.Add(1)
		go func(i int, id *auth.Identity) {
			defer wg.Done()
			_, errs[i] = r.Resolve(ctx, id)
		}(i, id)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
	}

	acct, err := store.FindByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if acct == nil {
		t.Fatal("expected an account")
	}
	if acct.LinkedIdentities["google"] != "sub1" || acct.LinkedIdentities["github"] != "sub2" {
		t.Fatalf("expected both identities on one account, got %+v", acct.LinkedIdentities)
	}
}
