package auth

import "errors"

// ErrMissingEmail reports that a provider's userinfo carried no email
// address. Email is mandatory: without it no account can be linked.
var ErrMissingEmail = errors.New("provider identity missing email")

// Identity represents a normalized external authentication identity
// returned by an OAuth provider. It contains facts only, no decisions,
// and is never persisted directly.
type Identity struct {
	Provider       string // e.g. "google", "github"
	ProviderUserID string // provider-scoped unique user identifier (sub)
	Email          string // email asserted by the provider
	DisplayName    string // human-readable name, may be empty
	EmailVerified  bool   // whether provider asserts email ownership
}
