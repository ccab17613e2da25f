package repository

import (
	"context"
	"errors"

	"github.com/er-ebrahimi/architecture-ai/internal/entity"
)

// ErrDuplicateProduct is returned by Create when a product with the same
// image filename already exists.
var ErrDuplicateProduct = errors.New("product with this image filename already exists")

// ProductRepository defines the contract for persisting and listing products.
// Create is atomic: either the product exists fully, with its validated
// features attached, or not at all.
type ProductRepository interface {
	// Create stores a new product and returns its freshly assigned id.
	Create(ctx context.Context, sourceURL, imageFilename string, features entity.ImageFeatures) (int64, error)
	// ListCandidates returns all stored products with their features
	// already decoded into validated ImageFeatures values.
	ListCandidates(ctx context.Context) ([]entity.Product, error)
}
