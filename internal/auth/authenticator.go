package auth

import (
	"context"

	"github.com/mmynk/bandpoints/internal/models"
)

// Authenticator is the identity provider behind sign-in.
// The service layer depends only on this interface, so another provider
// (OAuth, passkeys) can replace the password implementation.
type Authenticator interface {
	// Register creates an account for email with the given credential.
	Register(ctx context.Context, email, displayName, credential string) (*models.Account, error)

	// Authenticate verifies the credential and returns the matching account.
	Authenticate(ctx context.Context, email, credential string) (*models.Account, error)

	// ValidateCredential checks whether a credential is acceptable for registration.
	ValidateCredential(credential string) error
}
