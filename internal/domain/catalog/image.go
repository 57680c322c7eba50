package catalog

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// AllowedImageTypes maps accepted upload content types to file extensions
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageStore is the port to object storage for product images
type ImageStore interface {
	// Put uploads an object and returns its public URL
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	// Delete removes the object behind a URL returned by Put
	Delete(ctx context.Context, url string) error
}

// ImageKey builds the object key of a new product image
func ImageKey(productID uuid.UUID, contentType string) (string, error) {
	ext, ok := AllowedImageTypes[strings.ToLower(contentType)]
	if !ok {
		return "", shared.ErrInvalidInput.Withf("unsupported image type %q", contentType)
	}
	return path.Join("products", productID.String(), uuid.NewString()+ext), nil
}
