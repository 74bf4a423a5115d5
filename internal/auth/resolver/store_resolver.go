package resolver

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dablu757/fast-auth-guard/internal/account"
	"github.com/dablu757/fast-auth-guard/internal/auth"
	"github.com/dablu757/fast-auth-guard/internal/logger"
)

// StoreResolver links external identities to accounts through the
// account store. Email (lowercased) is the sole linking key: a known
// email gets the new provider identity attached, an unseen email gets
// a fresh account. The caller cannot tell which happened, and doesn't
// need to.
type StoreResolver struct {
	store account.Store
}

func NewStoreResolver(store account.Store) *StoreResolver {
	return &StoreResolver{store: store}
}

func (r *StoreResolver) Resolve(
	ctx context.Context,
	identity *auth.Identity,
) (*account.Account, error) {

	if identity == nil {
		return nil, errors.New("identity is nil")
	}
	if identity.Email == "" {
		return nil, auth.ErrMissingEmail
	}

	email := account.NormalizeEmail(identity.Email)

	// Two passes at most: a create that loses the race against a
	// concurrent first login for the same email falls through to the
	// update path on retry. The store's unique email constraint is
	// what guarantees a single account survives.
	for attempt := 0; attempt < 2; attempt++ {
		existing, err := r.store.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}

		if existing != nil {
			if existing.LinkedIdentities == nil {
				existing.LinkedIdentities = make(map[string]string)
			}
			existing.LinkedIdentities[identity.Provider] = identity.ProviderUserID
			return r.store.Update(ctx, existing)
		}

		created, err := r.store.Create(ctx, &account.Account{
			ID:          uuid.NewString(),
			Email:       email,
			DisplayName: identity.DisplayName,
			LinkedIdentities: map[string]string{
				identity.Provider: identity.ProviderUserID,
			},
		})
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, account.ErrConflict) {
			return nil, err
		}

		logger.Info("account create lost race, retrying as link", map[string]any{
			"provider": identity.Provider,
		})
	}

	return nil, account.ErrConflict
}
