package api

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/foodgram/backend/internal/service"
)

// decodeDataURI splits a "data:image/<ext>;base64,<payload>" string into
// the decoded bytes and the image extension.
func decodeDataURI(s string) ([]byte, string, error) {
	if !strings.HasPrefix(s, "data:image/") {
		return nil, "", fmt.Errorf("not a data URI")
	}
	header, payload, found := strings.Cut(s, ";base64,")
	if !found {
		return nil, "", fmt.Errorf("malformed data URI")
	}
	ext := strings.TrimPrefix(header, "data:image/")

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 payload: %w", err)
	}
	return data, ext, nil
}

// resolveImage turns the image field of a request into a stored URL: data
// URIs are decoded and uploaded, anything else is taken as an existing URL.
func resolveImage(ctx context.Context, uploader service.ImageUploader, image, keyPrefix string) (string, error) {
	if !strings.HasPrefix(image, "data:image/") {
		return image, nil
	}
	if uploader == nil {
		return "", fmt.Errorf("image storage is not configured")
	}
	data, ext, err := decodeDataURI(image)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s.%s", keyPrefix, uuid.New(), ext)
	return uploader.Upload(ctx, data, key)
}
