package service

import "context"

// ImageUploader stores a decoded image payload and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, data []byte, key string) (string, error)
}
