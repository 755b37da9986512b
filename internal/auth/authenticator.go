// Package auth verifies user credentials and issues bearer tokens.
package auth

import (
	"context"

	"github.com/mmynk/tabsplit/internal/models"
)

// Authenticator registers and verifies users for one credential kind.
type Authenticator interface {
	// Register creates an account. The credential format depends on the implementation.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the user whose credential matches.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential rejects credentials the implementation will not store.
	ValidateCredential(credential string) error
}
