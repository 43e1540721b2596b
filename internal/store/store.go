// Package store owns post persistence. Every read and write of the posts
// table goes through a Store; engine-specific failures are translated into
// ErrNotFound, ErrUniqueConstraint, *ValidationError or ErrStorageUnavailable
// before they leave this package.
package store

import (
	"context"
	"time"

	"github.com/klass-lk/folio/internal/model"
	"github.com/klass-lk/folio/internal/slug"
)

type Store interface {
	// EnsureSchema creates the posts table and its indexes if they do not exist yet.
	EnsureSchema(ctx context.Context) error

	List(ctx context.Context) ([]model.Post, error)
	ListPublished(ctx context.Context) ([]model.Post, error)
	GetByID(ctx context.Context, id int64) (model.Post, error)
	GetPublishedBySlug(ctx context.Context, slug string) (model.Post, error)
	Create(ctx context.Context, in model.PostInput) (model.Post, error)
	Update(ctx context.Context, id int64, in model.PostInput) (model.Post, error)
	Delete(ctx context.Context, id int64) error

	Stats(ctx context.Context) (model.PostStats, error)
	// PublishDrafts marks every draft as published and returns the affected posts.
	PublishDrafts(ctx context.Context) ([]model.Post, error)

	// Describe reports the server behind the store and whether the posts
	// table exists. It never creates anything.
	Describe(ctx context.Context) (Backend, error)

	Close() error
}

// Backend is what Describe reports about a connected server.
type Backend struct {
	Engine     string
	Version    string
	Posts      string
	PostsReady bool
}

// Clock supplies write timestamps.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// Option configures the stores in this package.
type Option func(*storeOptions)

type storeOptions struct {
	clock Clock
}

// WithClock overrides the time source used for created_at and updated_at.
func WithClock(clock Clock) Option {
	return func(o *storeOptions) {
		o.clock = clock
	}
}

func buildOptions(opts []Option) storeOptions {
	o := storeOptions{clock: systemClock}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// validate normalizes in and checks the invariants every backend enforces
// before touching storage.
func validate(in model.PostInput) (model.PostInput, error) {
	if missing := in.MissingFields(); len(missing) > 0 {
		return in, &ValidationError{Fields: missing, Reason: "required"}
	}
	if !slug.Valid(in.Slug) {
		return in, &ValidationError{Fields: []string{"slug"}, Reason: "must be lowercase letters, digits and inner hyphens"}
	}
	return in.Normalized(), nil
}

func newPost(id int64, in model.PostInput, now time.Time) model.Post {
	return model.Post{
		ID:         id,
		Title:      in.Title,
		Slug:       in.Slug,
		Excerpt:    in.Excerpt,
		Content:    in.Content,
		CoverImage: in.CoverImage,
		Author:     in.Author,
		Published:  in.Published,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func statsOf(posts []model.Post) model.PostStats {
	stats := model.PostStats{Total: int64(len(posts))}
	for _, p := range posts {
		if p.Published {
			stats.Published++
		}
	}
	stats.Drafts = stats.Total - stats.Published
	return stats
}
