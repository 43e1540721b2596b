package controller

import (
	"net/http"

	"github.com/klass-lk/folio"
	"github.com/klass-lk/folio/internal/model"
	"github.com/klass-lk/folio/internal/service"
)

// PostController serves the admin editor: every post, drafts included.
type PostController struct {
	postService *service.PostService
}

func NewPostController(postService *service.PostService) *PostController {
	return &PostController{
		postService: postService,
	}
}

func (c *PostController) Register(group *folio.ControllerGroup) {
	group.GET("", c.ListPosts)
	group.POST("", c.CreatePost)
	group.GET("/:id", c.GetPost)
	group.PUT("/:id", c.UpdatePost)
	group.DELETE("/:id", c.DeletePost)
}

func (c *PostController) ListPosts(ctx *folio.Context) ([]model.Post, error) {
	return c.postService.ListPosts(ctx.Request.Context())
}

func (c *PostController) CreatePost(ctx *folio.Context, req model.PostInput) (model.Post, error) {
	post, err := c.postService.CreatePost(ctx.Request.Context(), req)
	if err != nil {
		return model.Post{}, err
	}
	ctx.Status(http.StatusCreated)
	return post, nil
}

func (c *PostController) GetPost(ctx *folio.Context) (model.Post, error) {
	id, err := ctx.ParamInt64("id")
	if err != nil {
		return model.Post{}, service.ErrInvalidPostID
	}
	return c.postService.GetPost(ctx.Request.Context(), id)
}

func (c *PostController) UpdatePost(ctx *folio.Context, req model.PostInput) (model.Post, error) {
	id, err := ctx.ParamInt64("id")
	if err != nil {
		return model.Post{}, service.ErrInvalidPostID
	}
	return c.postService.UpdatePost(ctx.Request.Context(), id, req)
}

func (c *PostController) DeletePost(ctx *folio.Context) (service.MessageResponse, error) {
	id, err := ctx.ParamInt64("id")
	if err != nil {
		return service.MessageResponse{}, service.ErrInvalidPostID
	}
	return c.postService.DeletePost(ctx.Request.Context(), id)
}
