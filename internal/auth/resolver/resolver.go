package resolver

import (
	"context"

	"github.com/dablu757/fast-auth-guard/internal/account"
	"github.com/dablu757/fast-auth-guard/internal/auth"
)

// Resolver decides which local account an external identity belongs
// to. It is the ONLY place where identity-to-account mapping logic
// lives.
type Resolver interface {
	Resolve(
		ctx context.Context,
		identity *auth.Identity,
	) (*account.Account, error)
}
