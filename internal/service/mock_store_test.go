package service

import (
	"context"

	"github.com/klass-lk/folio/internal/model"
	"github.com/klass-lk/folio/internal/store"
	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) EnsureSchema(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) List(ctx context.Context) ([]model.Post, error) {
	args := m.Called(ctx)
	posts, _ := args.Get(0).([]model.Post)
	return posts, args.Error(1)
}

func (m *mockStore) ListPublished(ctx context.Context) ([]model.Post, error) {
	args := m.Called(ctx)
	posts, _ := args.Get(0).([]model.Post)
	return posts, args.Error(1)
}

func (m *mockStore) GetByID(ctx context.Context, id int64) (model.Post, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Post), args.Error(1)
}

func (m *mockStore) GetPublishedBySlug(ctx context.Context, slug string) (model.Post, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(model.Post), args.Error(1)
}

func (m *mockStore) Create(ctx context.Context, in model.PostInput) (model.Post, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(model.Post), args.Error(1)
}

func (m *mockStore) Update(ctx context.Context, id int64, in model.PostInput) (model.Post, error) {
	args := m.Called(ctx, id, in)
	return args.Get(0).(model.Post), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) Stats(ctx context.Context) (model.PostStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.PostStats), args.Error(1)
}

func (m *mockStore) PublishDrafts(ctx context.Context) ([]model.Post, error) {
	args := m.Called(ctx)
	posts, _ := args.Get(0).([]model.Post)
	return posts, args.Error(1)
}

func (m *mockStore) Describe(ctx context.Context) (store.Backend, error) {
	args := m.Called(ctx)
	return args.Get(0).(store.Backend), args.Error(1)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}
