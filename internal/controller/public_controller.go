package controller

import (
	"github.com/klass-lk/folio"
	"github.com/klass-lk/folio/internal/model"
	"github.com/klass-lk/folio/internal/service"
)

// PublicController serves the reader view. Drafts are never visible here.
type PublicController struct {
	postService *service.PostService
}

func NewPublicController(postService *service.PostService) *PublicController {
	return &PublicController{
		postService: postService,
	}
}

func (c *PublicController) Register(group *folio.ControllerGroup) {
	group.GET("/posts", c.ListPosts)
	group.GET("/posts/:slug", c.GetPost)
}

func (c *PublicController) ListPosts(ctx *folio.Context) ([]model.PostSummary, error) {
	return c.postService.ListPublishedPosts(ctx.Request.Context())
}

func (c *PublicController) GetPost(ctx *folio.Context) (model.Post, error) {
	return c.postService.GetPublishedPost(ctx.Request.Context(), ctx.Param("slug"))
}
