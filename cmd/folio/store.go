package main

import (
	"context"

	"github.com/klass-lk/folio/internal/app"
	"github.com/klass-lk/folio/internal/config"
	"github.com/klass-lk/folio/internal/service"
	"github.com/klass-lk/folio/internal/store"
)

// openPosts loads the environment configuration and returns a post service
// over a bootstrapped store. The caller closes the store.
func openPosts(ctx context.Context) (store.Store, *service.PostService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	s, err := app.OpenReadyStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return s, service.NewPostService(s), nil
}
