package service

import (
	"context"

	"github.com/klass-lk/folio/internal/model"
)

func strPtr(s string) *string {
	return &s
}

// SamplePosts are inserted by SeedSamples into an empty store. The last one
// is left as a draft.
var SamplePosts = []model.PostInput{
	{
		Title:      "Welcome to the Blog",
		Slug:       "welcome-to-the-blog",
		Excerpt:    "What this blog is for and what will show up here.",
		CoverImage: strPtr("https://images.unsplash.com/photo-1499750310107-5fef28a66643?w=800&h=400&fit=crop"),
		Published:  true,
		Content: `Welcome!

This blog is where I write up projects, notes from things I am learning,
and the occasional longer essay about building software.

Expect tutorials, project write-ups and a few opinions.`,
	},
	{
		Title:      "Serving a Blog from a Single Go Binary",
		Slug:       "serving-a-blog-from-a-single-go-binary",
		Excerpt:    "One binary, one table, and a handful of routes.",
		CoverImage: strPtr("https://images.unsplash.com/photo-1461749280684-dccba630e2f6?w=800&h=400&fit=crop"),
		Published:  true,
		Content: `The whole backend of this site is one Go binary.

It keeps posts in a single table, exposes an admin API for the editor and a
read-only public API for the site, and can run as a regular HTTP server or
behind API Gateway on Lambda.`,
	},
	{
		Title:      "Choosing Good Slugs",
		Slug:       "choosing-good-slugs",
		Excerpt:    "Short, lowercase and stable: a few rules for post URLs.",
		CoverImage: strPtr("https://images.unsplash.com/photo-1516116216624-53e697fedbea?w=800&h=400&fit=crop"),
		Published:  true,
		Content: `A slug is the part of the URL that names a post.

1. Keep it short.
2. Use lowercase letters, digits and hyphens only.
3. Do not change it after publishing; links out there depend on it.`,
	},
	{
		Title:      "Upcoming Project: A Storefront",
		Slug:       "upcoming-project-a-storefront",
		Excerpt:    "A sneak peek at the next project.",
		CoverImage: strPtr("https://images.unsplash.com/photo-1557821552-17105176677c?w=800&h=400&fit=crop"),
		Published:  false,
		Content: `Work has started on a small storefront: catalog, cart, checkout and an
admin dashboard. More soon.`,
	},
}

// SeedSamples inserts SamplePosts when the store holds no posts and reports
// how many were written.
func (s *PostService) SeedSamples(ctx context.Context) (int, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return 0, err
	}
	if stats.Total > 0 {
		return 0, nil
	}

	for i, in := range SamplePosts {
		if _, err := s.CreatePost(ctx, in); err != nil {
			return i, err
		}
	}
	return len(SamplePosts), nil
}
