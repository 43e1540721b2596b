package controller

import (
	"strings"

	"github.com/klass-lk/folio"
	"github.com/klass-lk/folio/internal/slug"
)

type SlugResponse struct {
	Slug string `json:"slug"`
}

// SlugController suggests a slug for a title while a post is being edited.
type SlugController struct{}

func NewSlugController() *SlugController {
	return &SlugController{}
}

func (c *SlugController) Register(group *folio.ControllerGroup) {
	group.GET("", c.Derive)
}

func (c *SlugController) Derive(ctx *folio.Context) (SlugResponse, error) {
	title := ctx.Query("title")
	if strings.TrimSpace(title) == "" {
		return SlugResponse{}, folio.ErrBadRequest.New("title is required")
	}
	return SlugResponse{Slug: slug.Derive(title)}, nil
}
