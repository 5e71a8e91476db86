package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aster-app/aster/internal/auth"
	"github.com/aster-app/aster/internal/database"
	"github.com/aster-app/aster/internal/models"
)

// UserServiceProvider defines the interface for user and block services.
// Every method runs against the passed Queryer, so callers decide whether a
// call participates in a request transaction.
type UserServiceProvider interface {
	CreateUser(ctx context.Context, q database.Queryer, username, password string) (models.User, error)
	GetUserByUsername(ctx context.Context, q database.Queryer, username string) (models.User, error)
	ListUsers(ctx context.Context, q database.Queryer) ([]models.User, error)
	Authenticate(ctx context.Context, q database.Queryer, username, password string) (models.User, error)
	BlockUser(ctx context.Context, q database.Queryer, blocker models.User, blockedUsername string) error
	UnblockUser(ctx context.Context, q database.Queryer, blocker models.User, blockedUsername string) error
	IsBlockedBy(ctx context.Context, q database.Queryer, blockerUsername, blockedUsername string) (bool, error)
	ListBlockedUsers(ctx context.Context, q database.Queryer, blockerUsername string) ([]models.User, error)
}

// UserService provides business logic for user accounts and block edges.
type UserService struct {
	now func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService() *UserService {
	return &UserService{now: time.Now}
}

const userColumns = "id, username, password, is_active, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Password, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

// CreateUser hashes the password and inserts a new user row. The caller owns
// the surrounding transaction. A duplicate username yields ErrConflict.
func (s *UserService) CreateUser(ctx context.Context, q database.Queryer, username, password string) (models.User, error) {
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	res, err := q.ExecContext(ctx,
		"INSERT INTO user_ (username, password, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		username, hashed, false, now, now)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.User{}, fmt.Errorf("username %q: %w", username, ErrConflict)
		}
		return models.User{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}

	return models.User{
		ID:        id,
		Username:  username,
		Password:  hashed,
		IsActive:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetUserByUsername retrieves a user by exact username match.
func (s *UserService) GetUserByUsername(ctx context.Context, q database.Queryer, username string) (models.User, error) {
	row := q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM user_ WHERE username = ?", username)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// ListUsers returns all users.
func (s *UserService) ListUsers(ctx context.Context, q database.Queryer) ([]models.User, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+userColumns+" FROM user_")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

// Authenticate verifies a user's credentials. Both an unknown username and a
// wrong password produce the same ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, q database.Queryer, username, password string) (models.User, error) {
	user, err := s.GetUserByUsername(ctx, q, username)
	if errors.Is(err, ErrNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	if !auth.CheckPassword(password, user.Password) {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// BlockUser creates a block edge from blocker to the named user. Blocking a
// user twice is a no-op: the unique index on the ordered pair plus the
// conflict clause make the insert idempotent without a racy check-then-insert.
func (s *UserService) BlockUser(ctx context.Context, q database.Queryer, blocker models.User, blockedUsername string) error {
	blocked, err := s.GetUserByUsername(ctx, q, blockedUsername)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx,
		"INSERT INTO user_block (blocker_id, blocked_id, created_at) VALUES (?, ?, ?) ON CONFLICT (blocker_id, blocked_id) DO NOTHING",
		blocker.ID, blocked.ID, s.now().UTC())
	return err
}

// UnblockUser removes the block edge from blocker to the named user. A
// missing target user or a missing edge is ErrNotFound.
func (s *UserService) UnblockUser(ctx context.Context, q database.Queryer, blocker models.User, blockedUsername string) error {
	blocked, err := s.GetUserByUsername(ctx, q, blockedUsername)
	if err != nil {
		return err
	}

	res, err := q.ExecContext(ctx,
		"DELETE FROM user_block WHERE blocker_id = ? AND blocked_id = ?",
		blocker.ID, blocked.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("block edge to %q: %w", blockedUsername, ErrNotFound)
	}
	return nil
}

// IsBlockedBy reports whether blockerUsername has blocked blockedUsername.
func (s *UserService) IsBlockedBy(ctx context.Context, q database.Queryer, blockerUsername, blockedUsername string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM user_block ub
			JOIN user_ blocker ON blocker.id = ub.blocker_id
			JOIN user_ blocked ON blocked.id = ub.blocked_id
			WHERE blocker.username = ? AND blocked.username = ?
		)`, blockerUsername, blockedUsername).Scan(&exists)
	return exists, err
}

// ListBlockedUsers returns every user on the blocked end of the given
// blocker's edges.
func (s *UserService) ListBlockedUsers(ctx context.Context, q database.Queryer, blockerUsername string) ([]models.User, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT blocked.id, blocked.username, blocked.password, blocked.is_active, blocked.created_at, blocked.updated_at
		FROM user_ blocked
		JOIN user_block ub ON ub.blocked_id = blocked.id
		JOIN user_ blocker ON blocker.id = ub.blocker_id
		WHERE blocker.username = ?`, blockerUsername)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func collectUsers(rows *sql.Rows) ([]models.User, error) {
	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
