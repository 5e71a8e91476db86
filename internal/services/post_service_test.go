package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aster-app/aster/internal/models"
)

func postFixture(t *testing.T) (*PostService, *testFixture) {
	t.Helper()
	db := newTestDB(t)
	users := NewUserService()

	f := &testFixture{db: db, users: map[string]models.User{}}
	for _, name := range []string{"alice", "bob"} {
		user, err := users.CreateUser(ctx(), db, name, "password")
		require.NoError(t, err)
		f.users[name] = user
	}
	return NewPostService(), f
}

func TestCreatePost(t *testing.T) {
	svc, f := postFixture(t)

	post, err := svc.CreatePost(ctx(), f.db, f.users["alice"], "hello world")
	require.NoError(t, err)

	assert.Positive(t, post.ID)
	assert.Equal(t, "hello world", post.Content)
	assert.Equal(t, f.users["alice"].ID, post.AuthorID)
	assert.False(t, post.CreatedAt.IsZero())
}

func TestGetPostByID(t *testing.T) {
	svc, f := postFixture(t)

	created, err := svc.CreatePost(ctx(), f.db, f.users["alice"], "hello")
	require.NoError(t, err)

	post, err := svc.GetPostByID(ctx(), f.db, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", post.Content)
	assert.Equal(t, "alice", post.Author.Username, "the author is loaded in the same query")

	_, err = svc.GetPostByID(ctx(), f.db, 99999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPostsNewestFirst(t *testing.T) {
	svc, f := postFixture(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, content := range []string{"first", "second", "third"} {
		at := base.Add(time.Duration(i) * time.Minute)
		svc.now = func() time.Time { return at }
		_, err := svc.CreatePost(ctx(), f.db, f.users["alice"], content)
		require.NoError(t, err)
	}

	posts, err := svc.ListPosts(ctx(), f.db, "alice", 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 3)

	assert.Equal(t, "third", posts[0].Content)
	assert.Equal(t, "second", posts[1].Content)
	assert.Equal(t, "first", posts[2].Content)
	for _, p := range posts {
		assert.Equal(t, "alice", p.Author.Username)
	}
}

func TestListPostsPagination(t *testing.T) {
	svc, f := postFixture(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		svc.now = func() time.Time { return at }
		_, err := svc.CreatePost(ctx(), f.db, f.users["alice"], "post")
		require.NoError(t, err)
	}

	page, err := svc.ListPosts(ctx(), f.db, "alice", 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := svc.ListPosts(ctx(), f.db, "alice", 10, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 3)
}

func TestListPostsFiltersByAuthor(t *testing.T) {
	svc, f := postFixture(t)

	_, err := svc.CreatePost(ctx(), f.db, f.users["alice"], "by alice")
	require.NoError(t, err)
	_, err = svc.CreatePost(ctx(), f.db, f.users["bob"], "by bob")
	require.NoError(t, err)

	posts, err := svc.ListPosts(ctx(), f.db, "alice", 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "by alice", posts[0].Content)

	posts, err = svc.ListPosts(ctx(), f.db, "nobody", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestDeletePost(t *testing.T) {
	svc, f := postFixture(t)

	post, err := svc.CreatePost(ctx(), f.db, f.users["alice"], "ephemeral")
	require.NoError(t, err)

	require.NoError(t, svc.DeletePost(ctx(), f.db, post, f.users["alice"]))

	_, err = svc.GetPostByID(ctx(), f.db, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletePostOwnership(t *testing.T) {
	svc, f := postFixture(t)

	post, err := svc.CreatePost(ctx(), f.db, f.users["alice"], "mine")
	require.NoError(t, err)

	err = svc.DeletePost(ctx(), f.db, post, f.users["bob"])
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GetPostByID(ctx(), f.db, post.ID)
	assert.NoError(t, err, "a forbidden delete must leave the post in place")
}
