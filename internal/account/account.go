package account

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrConflict reports that another account already claims the email.
// The linking policy retries the lookup when it sees this.
var ErrConflict = errors.New("account: email already taken")

// Account is a local user. Email is the sole linking key: two external
// identities with the same email resolve to the same account.
type Account struct {
	ID          string
	Email       string // stored lowercase
	DisplayName string
	// LinkedIdentities maps provider name to the provider-scoped
	// subject. At most one entry per provider; last write wins.
	LinkedIdentities map[string]string
	CreatedAt        time.Time
}

// Store persists accounts. Implementations must guarantee that
// concurrent Create calls for the same email leave exactly one
// account behind, reporting ErrConflict to the losers.
type Store interface {
	// FindByEmail returns (nil, nil) when no account matches.
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, a *Account) (*Account, error)
	Update(ctx context.Context, a *Account) (*Account, error)
}

// NormalizeEmail lowercases and trims an email address. All lookups
// and writes go through this so that provider casing differences
// cannot split one user across two accounts.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
