package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/klass-lk/folio/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// steppingClock advances one second on every reading so ordering by
// created_at is deterministic across backends.
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newSteppingClock() *steppingClock {
	return &steppingClock{now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type storeFactory func(t *testing.T, clock Clock) Store

func postInput(title, slug string) model.PostInput {
	return model.PostInput{
		Title:   title,
		Slug:    slug,
		Content: "Body of " + title,
	}
}

func strPtr(s string) *string {
	return &s
}

// runStoreContract exercises the behavior every backend must share.
func runStoreContract(t *testing.T, factory storeFactory) {
	ctx := context.Background()

	newStore := func(t *testing.T) Store {
		s := factory(t, newSteppingClock().Now)
		require.NoError(t, s.EnsureSchema(ctx))
		return s
	}

	t.Run("EnsureSchemaIsIdempotent", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.EnsureSchema(ctx))
	})

	t.Run("DescribeReportsReadySchema", func(t *testing.T) {
		s := newStore(t)
		backend, err := s.Describe(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, backend.Engine)
		assert.NotEmpty(t, backend.Version)
		assert.NotEmpty(t, backend.Posts)
		assert.True(t, backend.PostsReady)
	})

	t.Run("CreateThenGet", func(t *testing.T) {
		s := newStore(t)

		created, err := s.Create(ctx, model.PostInput{
			Title:      "Hello",
			Slug:       "hello",
			Content:    "World",
			CoverImage: strPtr(""),
		})
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, model.DefaultAuthor, created.Author)
		assert.Equal(t, "", created.Excerpt)
		assert.Nil(t, created.CoverImage)
		assert.False(t, created.Published)
		assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))

		got, err := s.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "Hello", got.Title)
		assert.Equal(t, "hello", got.Slug)
		assert.Equal(t, "World", got.Content)
		assert.Equal(t, model.DefaultAuthor, got.Author)
		assert.Nil(t, got.CoverImage)
		assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("CreateKeepsOptionalFields", func(t *testing.T) {
		s := newStore(t)

		in := postInput("Covered", "covered")
		in.Excerpt = "Short"
		in.Author = "Jane"
		in.CoverImage = strPtr("https://cdn.example.com/c.png")
		in.Published = true

		created, err := s.Create(ctx, in)
		require.NoError(t, err)

		got, err := s.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Short", got.Excerpt)
		assert.Equal(t, "Jane", got.Author)
		require.NotNil(t, got.CoverImage)
		assert.Equal(t, "https://cdn.example.com/c.png", *got.CoverImage)
		assert.True(t, got.Published)
	})

	t.Run("CreateRejectsInvalidInput", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Create(ctx, model.PostInput{Title: "No body", Slug: "no-body"})
		require.Error(t, err)
		assert.True(t, IsValidation(err))

		_, err = s.Create(ctx, postInput("Bad slug", "Bad Slug"))
		require.Error(t, err)
		assert.True(t, IsValidation(err))

		posts, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	t.Run("DuplicateSlugConflicts", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Create(ctx, postInput("First", "x"))
		require.NoError(t, err)

		_, err = s.Create(ctx, postInput("Second", "x"))
		assert.ErrorIs(t, err, ErrUniqueConstraint)

		posts, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, "First", posts[0].Title)
	})

	t.Run("UpdateKeepsIdentityAndRefreshesUpdatedAt", func(t *testing.T) {
		s := newStore(t)

		created, err := s.Create(ctx, postInput("Draft", "draft"))
		require.NoError(t, err)

		in := postInput("Draft, edited", "draft")
		in.Published = true
		updated, err := s.Update(ctx, created.ID, in)
		require.NoError(t, err)

		assert.Equal(t, created.ID, updated.ID)
		assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
		assert.Equal(t, "Draft, edited", updated.Title)
		assert.True(t, updated.Published)

		got, err := s.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Draft, edited", got.Title)
		assert.True(t, updated.UpdatedAt.Equal(got.UpdatedAt))
	})

	t.Run("UpdateCanChangeSlug", func(t *testing.T) {
		s := newStore(t)

		created, err := s.Create(ctx, postInput("Moving", "old-home"))
		require.NoError(t, err)

		in := postInput("Moving", "new-home")
		in.Published = true
		_, err = s.Update(ctx, created.ID, in)
		require.NoError(t, err)

		_, err = s.GetPublishedBySlug(ctx, "old-home")
		assert.ErrorIs(t, err, ErrNotFound)

		got, err := s.GetPublishedBySlug(ctx, "new-home")
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)

		_, err = s.Create(ctx, postInput("Reuse", "old-home"))
		assert.NoError(t, err)
	})

	t.Run("UpdateMissingPost", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Update(ctx, 999, postInput("Ghost", "ghost"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("UpdateCannotStealSlug", func(t *testing.T) {
		s := newStore(t)

		a, err := s.Create(ctx, postInput("A", "a"))
		require.NoError(t, err)
		b, err := s.Create(ctx, postInput("B", "b"))
		require.NoError(t, err)

		_, err = s.Update(ctx, b.ID, postInput("B", "a"))
		assert.ErrorIs(t, err, ErrUniqueConstraint)

		gotA, err := s.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "a", gotA.Slug)

		gotB, err := s.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "b", gotB.Slug)
	})

	t.Run("ListIsNewestFirst", func(t *testing.T) {
		s := newStore(t)

		for _, slug := range []string{"one", "two", "three"} {
			_, err := s.Create(ctx, postInput(slug, slug))
			require.NoError(t, err)
		}

		posts, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 3)
		assert.Equal(t, "three", posts[0].Slug)
		assert.Equal(t, "two", posts[1].Slug)
		assert.Equal(t, "one", posts[2].Slug)
	})

	t.Run("PublishedListExcludesDrafts", func(t *testing.T) {
		s := newStore(t)

		draft, err := s.Create(ctx, postInput("Draft", "draft"))
		require.NoError(t, err)

		live := postInput("Live", "live")
		live.Published = true
		_, err = s.Create(ctx, live)
		require.NoError(t, err)

		posts, err := s.ListPublished(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, "live", posts[0].Slug)

		_, err = s.GetPublishedBySlug(ctx, "draft")
		assert.ErrorIs(t, err, ErrNotFound)

		in := postInput("Draft", "draft")
		in.Published = true
		_, err = s.Update(ctx, draft.ID, in)
		require.NoError(t, err)

		got, err := s.GetPublishedBySlug(ctx, "draft")
		require.NoError(t, err)
		assert.Equal(t, draft.ID, got.ID)

		posts, err = s.ListPublished(ctx)
		require.NoError(t, err)
		assert.Len(t, posts, 2)
	})

	t.Run("DeleteRemovesPost", func(t *testing.T) {
		s := newStore(t)

		created, err := s.Create(ctx, postInput("Doomed", "doomed"))
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, created.ID))

		_, err = s.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		assert.ErrorIs(t, s.Delete(ctx, created.ID), ErrNotFound)

		_, err = s.Create(ctx, postInput("Reborn", "doomed"))
		assert.NoError(t, err)
	})

	t.Run("StatsAndPublishDrafts", func(t *testing.T) {
		s := newStore(t)

		live := postInput("Live", "live")
		live.Published = true
		_, err := s.Create(ctx, live)
		require.NoError(t, err)
		_, err = s.Create(ctx, postInput("Draft one", "draft-one"))
		require.NoError(t, err)
		_, err = s.Create(ctx, postInput("Draft two", "draft-two"))
		require.NoError(t, err)

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.PostStats{Total: 3, Published: 1, Drafts: 2}, stats)

		published, err := s.PublishDrafts(ctx)
		require.NoError(t, err)
		assert.Len(t, published, 2)
		for _, p := range published {
			assert.True(t, p.Published)
		}

		stats, err = s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.PostStats{Total: 3, Published: 3, Drafts: 0}, stats)

		published, err = s.PublishDrafts(ctx)
		require.NoError(t, err)
		assert.Empty(t, published)
	})

	t.Run("ConcurrentCreatesWithSameSlug", func(t *testing.T) {
		s := newStore(t)

		const workers = 8
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = s.Create(ctx, postInput("Race", "race"))
			}(i)
		}
		wg.Wait()

		successes := 0
		for _, err := range errs {
			if err == nil {
				successes++
				continue
			}
			assert.ErrorIs(t, err, ErrUniqueConstraint)
		}
		assert.Equal(t, 1, successes)

		posts, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, posts, 1)
	})
}
