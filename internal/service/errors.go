package service

import (
	"net/http"

	"github.com/klass-lk/folio"
)

var (
	ErrMissingFields = folio.ApiError{Status: http.StatusBadRequest, ErrorCode: "MISSING_FIELDS", Message: "title, slug, and content are required"}
	ErrInvalidSlug   = folio.ApiError{Status: http.StatusBadRequest, ErrorCode: "INVALID_SLUG", Message: "slug may only contain lowercase letters, digits and hyphens, and cannot start or end with a hyphen"}
	ErrInvalidPost   = folio.ApiError{Status: http.StatusBadRequest, ErrorCode: "INVALID_POST", Message: "%s"}
	ErrInvalidPostID = folio.ApiError{Status: http.StatusBadRequest, ErrorCode: "INVALID_POST_ID", Message: "invalid post id"}
	ErrPostNotFound  = folio.ApiError{Status: http.StatusNotFound, ErrorCode: "POST_NOT_FOUND", Message: "post not found"}
	ErrSlugTaken     = folio.ApiError{Status: http.StatusConflict, ErrorCode: "SLUG_TAKEN", Message: "a post with this slug already exists"}
	ErrPostFailure   = folio.ApiError{Status: http.StatusInternalServerError, ErrorCode: "INTERNAL_SERVER_ERROR", Message: "failed to %s"}
)
