package controller

import (
	"net/http"
	"time"

	"github.com/klass-lk/folio"
	"github.com/klass-lk/folio/internal/middleware"
	"github.com/klass-lk/folio/security"
)

type TokenRequest struct {
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type SessionResponse struct {
	Subject string   `json:"subject"`
	Roles   []string `json:"roles"`
}

var ErrInvalidCredentials = folio.ApiError{Status: http.StatusUnauthorized, ErrorCode: "INVALID_CREDENTIALS", Message: "invalid password"}

// AuthController exchanges the admin password for an access token and lets
// the editor check whether its token is still accepted.
type AuthController struct {
	encoder      security.PasswordEncoder
	passwordHash string
	tokens       *folio.TokenManager
}

func NewAuthController(encoder security.PasswordEncoder, passwordHash string, tokens *folio.TokenManager) *AuthController {
	return &AuthController{
		encoder:      encoder,
		passwordHash: passwordHash,
		tokens:       tokens,
	}
}

func (c *AuthController) Register(group *folio.ControllerGroup) {
	group.POST("/token", c.IssueToken)
	group.GET("/session", c.Session, middleware.AdminAuth(c.tokens))
}

func (c *AuthController) IssueToken(req TokenRequest) (TokenResponse, error) {
	if !c.encoder.IsMatching(c.passwordHash, req.Password) {
		return TokenResponse{}, ErrInvalidCredentials
	}

	token, expiresAt, err := c.tokens.Generate(middleware.AdminRole, middleware.AdminRole)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}

func (c *AuthController) Session(ctx *folio.Context) (SessionResponse, error) {
	auth, err := ctx.GetAuthContext()
	if err != nil {
		return SessionResponse{}, err
	}
	return SessionResponse{Subject: auth.UserID, Roles: auth.Roles}, nil
}
