package storage

import (
	"context"
	"io"
	"path"

	"github.com/google/uuid"
)

// ImageStore abstracts the blob storage holding product images. The catalog
// only decides when to upload, resolve, or delete an image; naming and
// transport belong here.
type ImageStore interface {
	// Upload stores the image under a freshly generated unique name derived
	// from the original filename's extension and returns that name.
	Upload(ctx context.Context, originalName, contentType string, r io.Reader, size int64) (string, error)

	// URL resolves a stored image name to a publicly reachable URL.
	URL(imageName string) string

	// Delete removes a stored image. Deleting an absent image is not an error.
	Delete(ctx context.Context, imageName string) error
}

// NewImageName generates a unique object name for an uploaded image,
// keeping the original file extension.
func NewImageName(originalName string) string {
	return uuid.New().String() + path.Ext(originalName)
}
