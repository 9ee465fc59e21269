package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/phani-manda/chatX/internal/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already exists")
	ErrUsernameTaken = errors.New("username already taken")
)

// UserRepository abstracts the user store.
type UserRepository interface {
	CreateUser(ctx context.Context, username, email, hashedPassword string) (models.User, error)
	GetUser(ctx context.Context, userID int) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	ListContacts(ctx context.Context, excludeUserID int) ([]models.User, error)
	ListByIDs(ctx context.Context, ids []int) ([]models.UserSummary, error)
	UpdateProfilePic(ctx context.Context, userID int, url string) error
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, username, email, password, profile_pic, created_at`

// CreateUser inserts an account; email and username must be unique.
func (r *UserRepo) CreateUser(ctx context.Context, username, email, hashedPassword string) (models.User, error) {
	var taken bool
	if err := r.db.GetContext(ctx, &taken, `SELECT EXISTS(SELECT 1 FROM users WHERE email=$1)`, email); err != nil {
		return models.User{}, err
	}
	if taken {
		return models.User{}, ErrEmailTaken
	}
	if err := r.db.GetContext(ctx, &taken, `SELECT EXISTS(SELECT 1 FROM users WHERE username=$1)`, username); err != nil {
		return models.User{}, err
	}
	if taken {
		return models.User{}, ErrUsernameTaken
	}

	var user models.User
	err := r.db.GetContext(ctx, &user,
		`INSERT INTO users (username, email, password) VALUES ($1, $2, $3) RETURNING `+userColumns,
		username, email, hashedPassword)
	return user, err
}

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetUserByEmail fetches a user by email, password hash included, for login.
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// ListContacts returns every account except the caller's.
func (r *UserRepo) ListContacts(ctx context.Context, excludeUserID int) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE id<>$1 ORDER BY username ASC`, excludeUserID)
	return users, err
}

// ListByIDs fetches summaries for the given ids; missing ids are simply absent
// from the result.
func (r *UserRepo) ListByIDs(ctx context.Context, ids []int) ([]models.UserSummary, error) {
	if len(ids) == 0 {
		return []models.UserSummary{}, nil
	}
	query, args, err := sqlx.In(`SELECT id, username, profile_pic FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var users []models.UserSummary
	err = r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...)
	return users, err
}

// UpdateProfilePic replaces the stored avatar URL.
func (r *UserRepo) UpdateProfilePic(ctx context.Context, userID int, url string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET profile_pic=$1 WHERE id=$2`, url, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}
