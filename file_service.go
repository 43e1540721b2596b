package folio

import "context"

// FileService hands out direct-upload URLs for objects in a bucket.
type FileService interface {
	GetUploadURL(ctx context.Context, key, contentType string) (string, error)
	GetURL(key string) string
	Delete(ctx context.Context, key string) error
}
