package service

import (
	"context"
	"errors"
	"log"

	"github.com/klass-lk/folio/internal/model"
	"github.com/klass-lk/folio/internal/slug"
	"github.com/klass-lk/folio/internal/store"
)

type MessageResponse struct {
	Message string `json:"message"`
}

// PostService is the boundary between HTTP handlers and the post store.
// Every error it returns is a folio.ApiError carrying the HTTP outcome.
type PostService struct {
	store store.Store
}

func NewPostService(store store.Store) *PostService {
	return &PostService{store: store}
}

func (s *PostService) ListPosts(ctx context.Context) ([]model.Post, error) {
	posts, err := s.store.List(ctx)
	if err != nil {
		return nil, s.fail("fetch posts", err)
	}
	if posts == nil {
		posts = []model.Post{}
	}
	return posts, nil
}

func (s *PostService) ListPublishedPosts(ctx context.Context) ([]model.PostSummary, error) {
	posts, err := s.store.ListPublished(ctx)
	if err != nil {
		return nil, s.fail("fetch posts", err)
	}

	summaries := make([]model.PostSummary, 0, len(posts))
	for _, p := range posts {
		summaries = append(summaries, p.Summary())
	}
	return summaries, nil
}

func (s *PostService) GetPost(ctx context.Context, id int64) (model.Post, error) {
	post, err := s.store.GetByID(ctx, id)
	if err != nil {
		return model.Post{}, s.fail("fetch post", err)
	}
	return post, nil
}

func (s *PostService) GetPublishedPost(ctx context.Context, slug string) (model.Post, error) {
	post, err := s.store.GetPublishedBySlug(ctx, slug)
	if err != nil {
		return model.Post{}, s.fail("fetch post", err)
	}
	return post, nil
}

func (s *PostService) CreatePost(ctx context.Context, in model.PostInput) (model.Post, error) {
	if err := checkInput(in); err != nil {
		return model.Post{}, err
	}

	post, err := s.store.Create(ctx, in)
	if err != nil {
		return model.Post{}, s.fail("create post", err)
	}
	log.Printf("created post %d (%s)", post.ID, post.Slug)
	return post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, id int64, in model.PostInput) (model.Post, error) {
	if err := checkInput(in); err != nil {
		return model.Post{}, err
	}

	post, err := s.store.Update(ctx, id, in)
	if err != nil {
		return model.Post{}, s.fail("update post", err)
	}
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, id int64) (MessageResponse, error) {
	if err := s.store.Delete(ctx, id); err != nil {
		return MessageResponse{}, s.fail("delete post", err)
	}
	log.Printf("deleted post %d", id)
	return MessageResponse{Message: "post deleted successfully"}, nil
}

func (s *PostService) Stats(ctx context.Context) (model.PostStats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return model.PostStats{}, s.fail("count posts", err)
	}
	return stats, nil
}

func (s *PostService) PublishAllDrafts(ctx context.Context) ([]model.Post, error) {
	posts, err := s.store.PublishDrafts(ctx)
	if err != nil {
		return nil, s.fail("publish posts", err)
	}
	return posts, nil
}

func checkInput(in model.PostInput) error {
	if len(in.MissingFields()) > 0 {
		return ErrMissingFields
	}
	if !slug.Valid(in.Slug) {
		return ErrInvalidSlug
	}
	return nil
}

// fail maps store errors to API errors. Anything unexpected is logged and
// reported as a 500 naming the operation.
func (s *PostService) fail(op string, err error) error {
	var validation *store.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrPostNotFound
	case errors.Is(err, store.ErrUniqueConstraint):
		return ErrSlugTaken
	case errors.As(err, &validation):
		return ErrInvalidPost.New(validation.Error())
	default:
		log.Printf("failed to %s: %+v", op, err)
		return ErrPostFailure.New(op)
	}
}
