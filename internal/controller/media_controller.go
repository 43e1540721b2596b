package controller

import (
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/klass-lk/folio"
	"github.com/klass-lk/folio/internal/slug"
)

type CoverUploadRequest struct {
	FileName    string `json:"file_name" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

type CoverUploadResponse struct {
	UploadURL string `json:"upload_url"`
	URL       string `json:"url"`
	Key       string `json:"key"`
}

// MediaController hands out presigned URLs so the editor can upload cover
// images straight to the bucket and store the public URL on the post.
type MediaController struct {
	files folio.FileService
}

func NewMediaController(files folio.FileService) *MediaController {
	return &MediaController{files: files}
}

func (c *MediaController) Register(group *folio.ControllerGroup) {
	group.POST("/covers", c.CreateCoverUpload)
}

func (c *MediaController) CreateCoverUpload(ctx *folio.Context, req CoverUploadRequest) (CoverUploadResponse, error) {
	if !strings.HasPrefix(req.ContentType, "image/") {
		return CoverUploadResponse{}, folio.ErrBadRequest.New("cover must be an image")
	}

	key := coverKey(req.FileName)
	uploadURL, err := c.files.GetUploadURL(ctx.Request.Context(), key, req.ContentType)
	if err != nil {
		return CoverUploadResponse{}, err
	}

	return CoverUploadResponse{
		UploadURL: uploadURL,
		URL:       c.files.GetURL(key),
		Key:       key,
	}, nil
}

// coverKey builds a collision-free object key that keeps a readable name.
func coverKey(fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	if !slug.Valid(strings.TrimPrefix(ext, ".")) {
		ext = ""
	}
	name := slug.Derive(strings.TrimSuffix(path.Base(fileName), path.Ext(fileName)))
	if name == "" {
		name = "cover"
	}
	return "covers/" + uuid.New().String() + "-" + name + ext
}
