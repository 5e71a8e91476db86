package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aster-app/aster/internal/auth"
	"github.com/aster-app/aster/internal/models"
)

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService()

	user, err := svc.CreateUser(ctx(), db, "alice", "password")
	require.NoError(t, err)

	assert.Positive(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.False(t, user.IsActive)
	assert.False(t, user.CreatedAt.IsZero())
	assert.NotEqual(t, "password", user.Password)
	assert.True(t, auth.CheckPassword("password", user.Password))
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService()

	_, err := svc.CreateUser(ctx(), db, "alice", "password")
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx(), db, "alice", "other")
	assert.ErrorIs(t, err, ErrConflict)

	users, err := svc.ListUsers(ctx(), db)
	require.NoError(t, err)
	assert.Len(t, users, 1, "a duplicate registration must not create a second row")
}

func TestGetUserByUsername(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService()

	created, err := svc.CreateUser(ctx(), db, "alice", "password")
	require.NoError(t, err)

	found, err := svc.GetUserByUsername(ctx(), db, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = svc.GetUserByUsername(ctx(), db, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthenticate(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService()

	_, err := svc.CreateUser(ctx(), db, "alice", "password")
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx(), db, "alice", "password")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.Authenticate(ctx(), db, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx(), db, "nobody", "password")
	assert.ErrorIs(t, err, ErrInvalidCredentials,
		"unknown usernames and wrong passwords must be indistinguishable")
}

func blockFixture(t *testing.T) (*UserService, *testFixture) {
	t.Helper()
	db := newTestDB(t)
	svc := NewUserService()

	f := &testFixture{db: db, users: map[string]models.User{}}
	for _, name := range []string{"alice", "bob", "carol"} {
		user, err := svc.CreateUser(ctx(), db, name, "password")
		require.NoError(t, err)
		f.users[name] = user
	}
	return svc, f
}

func blockedNames(t *testing.T, svc *UserService, f *testFixture, blocker string) []string {
	t.Helper()
	blocked, err := svc.ListBlockedUsers(ctx(), f.db, blocker)
	require.NoError(t, err)
	names := make([]string, 0, len(blocked))
	for _, u := range blocked {
		names = append(names, u.Username)
	}
	return names
}

func TestBlockAndListBlockedUsers(t *testing.T) {
	svc, f := blockFixture(t)

	require.NoError(t, svc.BlockUser(ctx(), f.db, f.users["alice"], "bob"))
	require.NoError(t, svc.BlockUser(ctx(), f.db, f.users["alice"], "carol"))

	assert.ElementsMatch(t, []string{"bob", "carol"}, blockedNames(t, svc, f, "alice"))
	assert.Empty(t, blockedNames(t, svc, f, "bob"))
}

func TestBlockUserIsIdempotent(t *testing.T) {
	svc, f := blockFixture(t)

	require.NoError(t, svc.BlockUser(ctx(), f.db, f.users["alice"], "bob"))
	require.NoError(t, svc.BlockUser(ctx(), f.db, f.users["alice"], "bob"))

	var edges int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM user_block").Scan(&edges))
	assert.Equal(t, 1, edges, "blocking twice must not create a second edge")
}

func TestBlockUnknownUser(t *testing.T) {
	svc, f := blockFixture(t)

	err := svc.BlockUser(ctx(), f.db, f.users["alice"], "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnblockUser(t *testing.T) {
	svc, f := blockFixture(t)

	require.NoError(t, svc.BlockUser(ctx(), f.db, f.users["alice"], "bob"))
	require.NoError(t, svc.BlockUser(ctx(), f.db, f.users["alice"], "carol"))
	require.NoError(t, svc.UnblockUser(ctx(), f.db, f.users["alice"], "bob"))

	assert.ElementsMatch(t, []string{"carol"}, blockedNames(t, svc, f, "alice"))

	err := svc.UnblockUser(ctx(), f.db, f.users["alice"], "bob")
	assert.ErrorIs(t, err, ErrNotFound, "unblocking a missing edge is an error")

	err = svc.UnblockUser(ctx(), f.db, f.users["alice"], "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIsBlockedBy(t *testing.T) {
	svc, f := blockFixture(t)

	require.NoError(t, svc.BlockUser(ctx(), f.db, f.users["alice"], "bob"))

	blocked, err := svc.IsBlockedBy(ctx(), f.db, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, blocked)

	blocked, err = svc.IsBlockedBy(ctx(), f.db, "bob", "alice")
	require.NoError(t, err)
	assert.False(t, blocked, "block edges are directed")

	blocked, err = svc.IsBlockedBy(ctx(), f.db, "alice", "carol")
	require.NoError(t, err)
	assert.False(t, blocked)
}
