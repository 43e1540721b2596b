package folio

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ApiError is an error with a known HTTP outcome. Message may hold fmt verbs
// that New fills in.
type ApiError struct {
	Status    int    `json:"-"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"error"`
}

var (
	ErrBadRequest   = ApiError{Status: http.StatusBadRequest, ErrorCode: "BAD_REQUEST", Message: "bad request: %s"}
	ErrUnauthorized = ApiError{Status: http.StatusUnauthorized, ErrorCode: "UNAUTHORIZED", Message: "%s"}
	ErrInternal     = ApiError{Status: http.StatusInternalServerError, ErrorCode: "INTERNAL_SERVER_ERROR", Message: "an unknown error occurred"}
)

func (e ApiError) New(messages ...string) ApiError {
	args := make([]any, len(messages))
	for i, msg := range messages {
		args[i] = msg
	}

	message := fmt.Sprintf(e.Message, args...)
	return ApiError{
		Status:    e.Status,
		ErrorCode: e.ErrorCode,
		Message:   message,
	}
}

func (e ApiError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}

func (e ApiError) StatusCode() int {
	if e.Status == 0 {
		return http.StatusBadRequest
	}
	return e.Status
}

type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"error"`
}

func SendError(c *gin.Context, err error) {
	var customErr ApiError
	if errors.As(err, &customErr) {
		c.AbortWithStatusJSON(customErr.StatusCode(), ErrorResponse{
			ErrorCode: customErr.ErrorCode,
			Message:   customErr.Message,
		})
		return
	}

	log.Printf("unhandled error on %s %s: %+v", c.Request.Method, c.Request.URL.Path, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		ErrorCode: ErrInternal.ErrorCode,
		Message:   ErrInternal.Message,
	})
}
