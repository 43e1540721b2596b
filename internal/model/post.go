package model

import (
	"strings"
	"time"
)

// DefaultAuthor is stored when a post is written without an author.
const DefaultAuthor = "Admin"

type Post struct {
	ID         int64     `db:"id" bson:"_id" dynamodbav:"id" json:"id"`
	Title      string    `db:"title" bson:"title" dynamodbav:"title" json:"title"`
	Slug       string    `db:"slug" bson:"slug" dynamodbav:"slug" json:"slug"`
	Excerpt    string    `db:"excerpt" bson:"excerpt" dynamodbav:"excerpt" json:"excerpt"`
	Content    string    `db:"content" bson:"content" dynamodbav:"content" json:"content"`
	CoverImage *string   `db:"cover_image" bson:"cover_image" dynamodbav:"cover_image" json:"cover_image"`
	Author     string    `db:"author" bson:"author" dynamodbav:"author" json:"author"`
	Published  bool      `db:"published" bson:"published" dynamodbav:"published" json:"published"`
	CreatedAt  time.Time `db:"created_at" bson:"created_at" dynamodbav:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" bson:"updated_at" dynamodbav:"updated_at" json:"updated_at"`
}

// PostSummary is the public projection of a published post.
type PostSummary struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Excerpt    string    `json:"excerpt"`
	CoverImage *string   `json:"cover_image"`
	Author     string    `json:"author"`
	CreatedAt  time.Time `json:"created_at"`
}

func (p Post) Summary() PostSummary {
	return PostSummary{
		ID:         p.ID,
		Title:      p.Title,
		Slug:       p.Slug,
		Excerpt:    p.Excerpt,
		CoverImage: p.CoverImage,
		Author:     p.Author,
		CreatedAt:  p.CreatedAt,
	}
}

// PostInput carries the caller-writable fields of a post for create and update.
type PostInput struct {
	Title      string  `json:"title"`
	Slug       string  `json:"slug"`
	Excerpt    string  `json:"excerpt"`
	Content    string  `json:"content"`
	CoverImage *string `json:"cover_image"`
	Author     string  `json:"author"`
	Published  bool    `json:"published"`
}

// Normalized applies the storage defaults: an empty author becomes DefaultAuthor
// and an empty cover image becomes absent.
func (in PostInput) Normalized() PostInput {
	if strings.TrimSpace(in.Author) == "" {
		in.Author = DefaultAuthor
	}
	if in.CoverImage != nil && strings.TrimSpace(*in.CoverImage) == "" {
		in.CoverImage = nil
	}
	return in
}

// MissingFields lists the required fields that are empty.
func (in PostInput) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(in.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(in.Slug) == "" {
		missing = append(missing, "slug")
	}
	if strings.TrimSpace(in.Content) == "" {
		missing = append(missing, "content")
	}
	return missing
}

type PostStats struct {
	Total     int64 `db:"total" json:"total"`
	Published int64 `db:"published" json:"published"`
	Drafts    int64 `db:"drafts" json:"drafts"`
}
