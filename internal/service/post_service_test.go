package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/klass-lk/folio"
	"github.com/klass-lk/folio/internal/model"
	"github.com/klass-lk/folio/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func validInput() model.PostInput {
	return model.PostInput{Title: "Hello", Slug: "hello", Content: "World"}
}

func assertApiError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var apiErr folio.ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, status, apiErr.Status)
	assert.Equal(t, code, apiErr.ErrorCode)
}

func TestPostService_CreatePost(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		st := new(mockStore)
		created := model.Post{ID: 1, Title: "Hello", Slug: "hello", Content: "World", Author: "Admin", CreatedAt: now, UpdatedAt: now}
		st.On("Create", ctx, validInput()).Return(created, nil)

		post, err := NewPostService(st).CreatePost(ctx, validInput())
		require.NoError(t, err)
		assert.Equal(t, created, post)
		st.AssertExpectations(t)
	})

	t.Run("missing fields never reach the store", func(t *testing.T) {
		st := new(mockStore)

		_, err := NewPostService(st).CreatePost(ctx, model.PostInput{Title: "Only a title"})
		assertApiError(t, err, http.StatusBadRequest, "MISSING_FIELDS")
		assert.Equal(t, "title, slug, and content are required", err.(folio.ApiError).Message)
		st.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("invalid slug", func(t *testing.T) {
		st := new(mockStore)
		in := validInput()
		in.Slug = "Hello World"

		_, err := NewPostService(st).CreatePost(ctx, in)
		assertApiError(t, err, http.StatusBadRequest, "INVALID_SLUG")
		st.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate slug", func(t *testing.T) {
		st := new(mockStore)
		st.On("Create", ctx, validInput()).Return(model.Post{}, store.ErrUniqueConstraint)

		_, err := NewPostService(st).CreatePost(ctx, validInput())
		assertApiError(t, err, http.StatusConflict, "SLUG_TAKEN")
		assert.Equal(t, "a post with this slug already exists", err.(folio.ApiError).Message)
	})

	t.Run("storage failure", func(t *testing.T) {
		st := new(mockStore)
		st.On("Create", ctx, validInput()).Return(model.Post{}, errors.New("connection reset"))

		_, err := NewPostService(st).CreatePost(ctx, validInput())
		assertApiError(t, err, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR")
		assert.Equal(t, "failed to create post", err.(folio.ApiError).Message)
	})

	t.Run("store validation error", func(t *testing.T) {
		st := new(mockStore)
		st.On("Create", ctx, validInput()).Return(model.Post{}, &store.ValidationError{Fields: []string{"title"}, Reason: "too long"})

		_, err := NewPostService(st).CreatePost(ctx, validInput())
		assertApiError(t, err, http.StatusBadRequest, "INVALID_POST")
	})
}

func TestPostService_UpdatePost(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		st := new(mockStore)
		updated := model.Post{ID: 7, Title: "Hello", Slug: "hello", Published: true}
		in := validInput()
		in.Published = true
		st.On("Update", ctx, int64(7), in).Return(updated, nil)

		post, err := NewPostService(st).UpdatePost(ctx, 7, in)
		require.NoError(t, err)
		assert.True(t, post.Published)
	})

	t.Run("not found", func(t *testing.T) {
		st := new(mockStore)
		st.On("Update", ctx, int64(999), validInput()).Return(model.Post{}, store.ErrNotFound)

		_, err := NewPostService(st).UpdatePost(ctx, 999, validInput())
		assertApiError(t, err, http.StatusNotFound, "POST_NOT_FOUND")
	})

	t.Run("slug conflict", func(t *testing.T) {
		st := new(mockStore)
		st.On("Update", ctx, int64(2), validInput()).Return(model.Post{}, store.ErrUniqueConstraint)

		_, err := NewPostService(st).UpdatePost(ctx, 2, validInput())
		assertApiError(t, err, http.StatusConflict, "SLUG_TAKEN")
	})

	t.Run("invalid payload", func(t *testing.T) {
		st := new(mockStore)

		_, err := NewPostService(st).UpdatePost(ctx, 2, model.PostInput{Slug: "hello"})
		assertApiError(t, err, http.StatusBadRequest, "MISSING_FIELDS")
		st.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPostService_DeletePost(t *testing.T) {
	ctx := context.Background()

	st := new(mockStore)
	st.On("Delete", ctx, int64(1)).Return(nil)
	st.On("Delete", ctx, int64(2)).Return(store.ErrNotFound)
	svc := NewPostService(st)

	resp, err := svc.DeletePost(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "post deleted successfully", resp.Message)

	_, err = svc.DeletePost(ctx, 2)
	assertApiError(t, err, http.StatusNotFound, "POST_NOT_FOUND")
}

func TestPostService_GetPost(t *testing.T) {
	ctx := context.Background()

	st := new(mockStore)
	st.On("GetByID", ctx, int64(1)).Return(model.Post{ID: 1, Slug: "one"}, nil)
	st.On("GetByID", ctx, int64(2)).Return(model.Post{}, store.ErrNotFound)
	svc := NewPostService(st)

	post, err := svc.GetPost(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "one", post.Slug)

	_, err = svc.GetPost(ctx, 2)
	assertApiError(t, err, http.StatusNotFound, "POST_NOT_FOUND")
}

func TestPostService_Lists(t *testing.T) {
	ctx := context.Background()
	cover := "https://cdn.example.com/c.png"

	st := new(mockStore)
	st.On("List", ctx).Return(nil, nil)
	st.On("ListPublished", ctx).Return([]model.Post{
		{ID: 3, Title: "Live", Slug: "live", Content: "secret body", CoverImage: &cover, Author: "Admin", Published: true},
	}, nil)
	svc := NewPostService(st)

	all, err := svc.ListPosts(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	summaries, err := svc.ListPublishedPosts(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, model.PostSummary{ID: 3, Title: "Live", Slug: "live", CoverImage: &cover, Author: "Admin"}, summaries[0])
}

func TestPostService_ListFailure(t *testing.T) {
	ctx := context.Background()

	st := new(mockStore)
	st.On("ListPublished", ctx).Return(nil, errors.New("timeout"))

	_, err := NewPostService(st).ListPublishedPosts(ctx)
	assertApiError(t, err, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR")
}

func TestPostService_GetPublishedPost(t *testing.T) {
	ctx := context.Background()

	st := new(mockStore)
	st.On("GetPublishedBySlug", ctx, "draft").Return(model.Post{}, store.ErrNotFound)

	_, err := NewPostService(st).GetPublishedPost(ctx, "draft")
	assertApiError(t, err, http.StatusNotFound, "POST_NOT_FOUND")
}

func TestPostService_SeedSamples(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		st := new(mockStore)
		st.On("Stats", ctx).Return(model.PostStats{}, nil)
		st.On("Create", ctx, mock.AnythingOfType("model.PostInput")).Return(model.Post{ID: 1}, nil)

		n, err := NewPostService(st).SeedSamples(ctx)
		require.NoError(t, err)
		assert.Equal(t, len(SamplePosts), n)
		st.AssertNumberOfCalls(t, "Create", len(SamplePosts))
	})

	t.Run("existing posts", func(t *testing.T) {
		st := new(mockStore)
		st.On("Stats", ctx).Return(model.PostStats{Total: 2, Published: 2}, nil)

		n, err := NewPostService(st).SeedSamples(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
		st.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestPostService_PublishAllDrafts(t *testing.T) {
	ctx := context.Background()

	st := new(mockStore)
	st.On("PublishDrafts", ctx).Return([]model.Post{{ID: 4, Published: true}}, nil)

	posts, err := NewPostService(st).PublishAllDrafts(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestSamplePosts_AreValid(t *testing.T) {
	drafts := 0
	for _, in := range SamplePosts {
		assert.NoError(t, checkInput(in), in.Slug)
		if !in.Published {
			drafts++
		}
	}
	assert.Equal(t, 1, drafts)
}
