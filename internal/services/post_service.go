package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aster-app/aster/internal/database"
	"github.com/aster-app/aster/internal/models"
)

// PostServiceProvider defines the interface for post services.
type PostServiceProvider interface {
	CreatePost(ctx context.Context, q database.Queryer, author models.User, content string) (models.Post, error)
	GetPostByID(ctx context.Context, q database.Queryer, postID int64) (models.Post, error)
	ListPosts(ctx context.Context, q database.Queryer, username string, limit, offset int) ([]models.Post, error)
	DeletePost(ctx context.Context, q database.Queryer, post models.Post, actor models.User) error
}

// PostService provides business logic for posts.
type PostService struct {
	now func() time.Time
}

// NewPostService creates a new PostService.
func NewPostService() *PostService {
	return &PostService{now: time.Now}
}

// CreatePost inserts a new post authored by the given user. The caller owns
// the surrounding transaction.
func (s *PostService) CreatePost(ctx context.Context, q database.Queryer, author models.User, content string) (models.Post, error) {
	now := s.now().UTC()
	res, err := q.ExecContext(ctx,
		"INSERT INTO post (content, author_id, created_at, updated_at) VALUES (?, ?, ?, ?)",
		content, author.ID, now, now)
	if err != nil {
		return models.Post{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.Post{}, err
	}

	return models.Post{
		ID:        id,
		Content:   content,
		AuthorID:  author.ID,
		Author:    author,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

const postWithAuthor = `
	SELECT p.id, p.content, p.created_at, p.updated_at,
	       u.id, u.username, u.is_active, u.created_at, u.updated_at
	FROM post p
	JOIN user_ u ON u.id = p.author_id`

func scanPost(row interface{ Scan(...any) error }) (models.Post, error) {
	var post models.Post
	err := row.Scan(
		&post.ID, &post.Content, &post.CreatedAt, &post.UpdatedAt,
		&post.Author.ID, &post.Author.Username, &post.Author.IsActive,
		&post.Author.CreatedAt, &post.Author.UpdatedAt,
	)
	post.AuthorID = post.Author.ID
	return post, err
}

// GetPostByID fetches a post with its author in a single query.
func (s *PostService) GetPostByID(ctx context.Context, q database.Queryer, postID int64) (models.Post, error) {
	row := q.QueryRowContext(ctx, postWithAuthor+" WHERE p.id = ?", postID)
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Post{}, fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}
	if err != nil {
		return models.Post{}, err
	}
	return post, nil
}

// ListPosts returns the given author's posts, newest first, paginated with
// limit and offset. The id tiebreak keeps ordering stable for posts created
// in the same instant.
func (s *PostService) ListPosts(ctx context.Context, q database.Queryer, username string, limit, offset int) ([]models.Post, error) {
	rows, err := q.QueryContext(ctx,
		postWithAuthor+" WHERE u.username = ? ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?",
		username, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// DeletePost removes a post. Only the author may delete it; anyone else gets
// ErrForbidden.
func (s *PostService) DeletePost(ctx context.Context, q database.Queryer, post models.Post, actor models.User) error {
	if post.AuthorID != actor.ID {
		return fmt.Errorf("post %d belongs to another user: %w", post.ID, ErrForbidden)
	}
	_, err := q.ExecContext(ctx, "DELETE FROM post WHERE id = ?", post.ID)
	return err
}
