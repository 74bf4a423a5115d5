package loginstate

import (
	"context"
	"fmt"
	"time"

	"github.com/dablu757/fast-auth-guard/internal/utils"
)

// State is the server-side record of an in-flight login attempt,
// created when the redirect is issued and consumed exactly once by
// the callback. Nothing else about an attempt is retained.
type State struct {
	ID           string // the opaque `state` parameter round-tripped via the provider
	Provider     string // provider the redirect was issued for
	PKCEVerifier string // plaintext verifier matching the challenge in the redirect
	CreatedAt    time.Time
}

// Store holds pending login states. Implementations must make Consume
// one-shot: a second consume of the same ID finds nothing.
type Store interface {
	Create(ctx context.Context, s State) error
	// Consume returns (nil, nil) when the ID is unknown or expired.
	Consume(ctx context.Context, id string) (*State, error)
}

// GenerateID generates a cryptographically secure state parameter.
// 32 bytes = 256 bits of entropy.
func GenerateID() (string, error) {
	id := utils.RandomString(32)
	if id == "" {
		return "", fmt.Errorf("loginstate: failed to generate id")
	}
	return id, nil
}
