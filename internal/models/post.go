package models

import "time"

// Post is a short piece of content published by a user.
type Post struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	AuthorID  int64     `json:"-"`
	Author    User      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// View returns the client-facing representation of the post, embedding the
// author's view.
func (p Post) View() PostView {
	return PostView{
		ID:        p.ID,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
		User:      p.Author.View(),
	}
}

// PostView is the serialized form of a Post.
type PostView struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	User      UserView  `json:"user"`
}

// PostViews maps a slice of posts to their views.
func PostViews(posts []Post) []PostView {
	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, p.View())
	}
	return views
}
