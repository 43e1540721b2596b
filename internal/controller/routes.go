package controller

import (
	"github.com/klass-lk/folio"
	"github.com/klass-lk/folio/internal/middleware"
	"github.com/klass-lk/folio/internal/service"
	"github.com/klass-lk/folio/security"
)

// Deps are the collaborators Mount wires into the controllers. Files and
// Tokens are optional: without Files the media routes are not mounted, and
// without Tokens the admin routes are open and there is no token endpoint.
type Deps struct {
	Posts        *service.PostService
	Files        folio.FileService
	Tokens       *folio.TokenManager
	Encoder      security.PasswordEncoder
	PasswordHash string
}

func Mount(server *folio.Server, deps Deps) {
	admin := middleware.AdminAuth(deps.Tokens)

	server.RegisterController("/api/posts", NewPostController(deps.Posts), admin)
	server.RegisterController("/api/slugs", NewSlugController(), admin)
	server.RegisterController("/api/public", NewPublicController(deps.Posts))

	if deps.Files != nil {
		server.RegisterController("/api/media", NewMediaController(deps.Files), admin)
	}
	if deps.Tokens != nil {
		server.RegisterController("/api/auth", NewAuthController(deps.Encoder, deps.PasswordHash, deps.Tokens))
	}
}
