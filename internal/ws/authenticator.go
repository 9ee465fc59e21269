package ws

import (
	"context"
	"errors"
	"net/http"

	"github.com/phani-manda/chatX/internal/models"
	"github.com/phani-manda/chatX/internal/repositories"
	"github.com/phani-manda/chatX/internal/token"
)

// RejectReason classifies why a connection attempt was refused. All three are
// expected outcomes, not faults; the caller responds the same way regardless
// of reason, by refusing the upgrade.
type RejectReason string

const (
	NoCredential      RejectReason = "no_credential"
	InvalidCredential RejectReason = "invalid_credential"
	UnknownSubject    RejectReason = "unknown_subject"
)

// AuthError is a typed connection rejection.
type AuthError struct {
	Reason RejectReason
}

func (e *AuthError) Error() string {
	return "connection rejected: " + string(e.Reason)
}

// Authenticator resolves the credential on an upgrade request to a user
// identity before the connection is admitted. The identity is attached to the
// session for its lifetime and never re-validated per message.
type Authenticator struct {
	tokens *token.Manager
	users  repositories.UserRepository
}

// NewAuthenticator constructs an Authenticator sharing the token manager with
// the REST middleware.
func NewAuthenticator(tokens *token.Manager, users repositories.UserRepository) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Authenticate extracts the jwt cookie, validates it, and resolves its
// subject against the user store. Failures come back as *AuthError.
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) (models.User, error) {
	cookie, err := r.Cookie(token.CookieName)
	if err != nil || cookie.Value == "" {
		return models.User{}, &AuthError{Reason: NoCredential}
	}

	userID, err := a.tokens.Parse(cookie.Value)
	if err != nil {
		return models.User{}, &AuthError{Reason: InvalidCredential}
	}

	user, err := a.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.User{}, &AuthError{Reason: UnknownSubject}
		}
		return models.User{}, err
	}
	return user, nil
}
