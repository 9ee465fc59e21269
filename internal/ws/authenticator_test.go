package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/phani-manda/chatX/internal/mocks"
	"github.com/phani-manda/chatX/internal/models"
	"github.com/phani-manda/chatX/internal/repositories"
	"github.com/phani-manda/chatX/internal/token"
)

func upgradeRequest(cookie string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: token.CookieName, Value: cookie})
	}
	return req
}

func rejectReason(t *testing.T, err error) RejectReason {
	t.Helper()
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	return authErr.Reason
}

func TestAuthenticateSuccess(t *testing.T) {
	tokens := token.NewManager("test-secret")
	users := new(mocks.UserRepositoryMock)
	auth := NewAuthenticator(tokens, users)

	signed, err := tokens.Issue(42)
	require.NoError(t, err)

	users.On("GetUser", mock.Anything, 42).Return(models.User{ID: 42, Username: "alice"}, nil).Once()

	user, err := auth.Authenticate(context.Background(), upgradeRequest(signed))
	require.NoError(t, err)
	assert.Equal(t, 42, user.ID)
	assert.Equal(t, "alice", user.Username)
	users.AssertExpectations(t)
}

func TestAuthenticateMissingCookie(t *testing.T) {
	auth := NewAuthenticator(token.NewManager("test-secret"), new(mocks.UserRepositoryMock))

	_, err := auth.Authenticate(context.Background(), upgradeRequest(""))
	assert.Equal(t, NoCredential, rejectReason(t, err))
}

func TestAuthenticateMalformedToken(t *testing.T) {
	auth := NewAuthenticator(token.NewManager("test-secret"), new(mocks.UserRepositoryMock))

	_, err := auth.Authenticate(context.Background(), upgradeRequest("not-a-jwt"))
	assert.Equal(t, InvalidCredential, rejectReason(t, err))
}

func TestAuthenticateWrongSecret(t *testing.T) {
	other := token.NewManager("other-secret")
	signed, err := other.Issue(42)
	require.NoError(t, err)

	auth := NewAuthenticator(token.NewManager("test-secret"), new(mocks.UserRepositoryMock))

	_, err = auth.Authenticate(context.Background(), upgradeRequest(signed))
	assert.Equal(t, InvalidCredential, rejectReason(t, err))
}

func TestAuthenticateUnknownSubject(t *testing.T) {
	tokens := token.NewManager("test-secret")
	users := new(mocks.UserRepositoryMock)
	auth := NewAuthenticator(tokens, users)

	signed, err := tokens.Issue(42)
	require.NoError(t, err)

	users.On("GetUser", mock.Anything, 42).Return(models.User{}, repositories.ErrUserNotFound).Once()

	_, err = auth.Authenticate(context.Background(), upgradeRequest(signed))
	assert.Equal(t, UnknownSubject, rejectReason(t, err))
	users.AssertExpectations(t)
}

func TestAuthenticateStoreFailurePassesThrough(t *testing.T) {
	tokens := token.NewManager("test-secret")
	users := new(mocks.UserRepositoryMock)
	auth := NewAuthenticator(tokens, users)

	signed, err := tokens.Issue(42)
	require.NoError(t, err)

	storeErr := errors.New("db down")
	users.On("GetUser", mock.Anything, 42).Return(models.User{}, storeErr).Once()

	_, err = auth.Authenticate(context.Background(), upgradeRequest(signed))
	require.Error(t, err)
	var authErr *AuthError
	assert.False(t, errors.As(err, &authErr))
}
