package handlers

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/phani-manda/chatX/internal/email"
	"github.com/phani-manda/chatX/internal/media"
	"github.com/phani-manda/chatX/internal/repositories"
	"github.com/phani-manda/chatX/internal/token"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthHandler manages signup, login, logout, and profile endpoints.
type AuthHandler struct {
	users     repositories.UserRepository
	tokens    *token.Manager
	media     media.Store
	mailer    *email.Mailer
	clientURL string
	secure    bool
}

// NewAuthHandler builds an AuthHandler. secure controls the cookie's Secure
// flag; off in development so plain-http clients work.
func NewAuthHandler(users repositories.UserRepository, tokens *token.Manager, mediaStore media.Store, mailer *email.Mailer, clientURL string, secure bool) *AuthHandler {
	return &AuthHandler{
		users:     users,
		tokens:    tokens,
		media:     mediaStore,
		mailer:    mailer,
		clientURL: clientURL,
		secure:    secure,
	}
}

// Signup creates an account, sets the credential cookie, and queues the
// welcome email.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "all fields are required"})
		return
	}
	if len(req.Password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 6 characters"})
		return
	}
	if !emailPattern.MatchString(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email format"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), req.Username, req.Email, string(hashed))
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrEmailTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "email already exists"})
		case errors.Is(err, repositories.ErrUsernameTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "username already taken"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create account"})
		}
		return
	}

	if err := h.issueCookie(c, user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.mailer.SendWelcome(c.Request.Context(), user.Email, user.Username, h.clientURL)

	c.JSON(http.StatusCreated, user)
}

// Login verifies credentials and sets the cookie. Wrong email and wrong
// password are indistinguishable to the caller.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "all fields are required"})
		return
	}

	user, err := h.users.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
		return
	}

	if err := h.issueCookie(c, user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// Logout clears the credential cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(token.CookieName, "", -1, "/", "", h.secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

// Check returns the authenticated user.
func (h *AuthHandler) Check(c *gin.Context) {
	userID := c.GetInt("userID")
	user, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "account no longer exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile uploads a new profile picture and stores its URL.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		ProfilePic string `json:"profilePic" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profile pic is required"})
		return
	}

	userID := c.GetInt("userID")
	url, err := h.media.Upload(c.Request.Context(), req.ProfilePic)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image"})
		return
	}

	if err := h.users.UpdateProfilePic(c.Request.Context(), userID, url); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update profile"})
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) issueCookie(c *gin.Context, userID int) error {
	signed, err := h.tokens.Issue(userID)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(token.CookieName, signed, int(token.TTL.Seconds()), "/", "", h.secure, true)
	return nil
}
