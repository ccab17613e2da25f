package repository

import "context"

// ImageStorage stores the raw image object for an ingested product. The core
// never reads images back for ranking; storage exists so a product's image
// can be served to clients by filename.
type ImageStorage interface {
	// Save stores image bytes under a unique filename.
	Save(ctx context.Context, filename string, data []byte, contentType string) error
	// Delete removes a stored image, used to roll back a failed ingest.
	Delete(ctx context.Context, filename string) error
	// URL returns the public URL for a stored image.
	URL(filename string) string
}
