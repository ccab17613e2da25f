package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/er-ebrahimi/architecture-ai/internal/acquirer"
	"github.com/er-ebrahimi/architecture-ai/internal/entity"
	"github.com/er-ebrahimi/architecture-ai/internal/repository"
	"github.com/er-ebrahimi/architecture-ai/pkg/metrics"
)

// ImageAcquirer acquires validated image bytes from a URL or directly
// supplied payload.
type ImageAcquirer interface {
	FromURL(ctx context.Context, rawURL string) (*acquirer.Image, error)
	FromBytes(data []byte, contentType string) (*acquirer.Image, error)
}

// FeatureExtractor turns a validated image into ImageFeatures.
type FeatureExtractor interface {
	Extract(ctx context.Context, img *acquirer.Image) (entity.ImageFeatures, error)
}

// Ingester defines the interface for adding a product from its image.
type Ingester interface {
	Ingest(ctx context.Context, sourceURL, imageURL string) (*IngestResult, error)
}

// IngestResult describes a successfully created product.
type IngestResult struct {
	ProductID     int64
	ImageFilename string
	ImageURL      string
	Features      entity.ImageFeatures
}

type ingestUseCase struct {
	acquirer  ImageAcquirer
	extractor FeatureExtractor
	products  repository.ProductRepository
	images    repository.ImageStorage
}

// NewIngester creates the ingest use case.
func NewIngester(
	acq ImageAcquirer,
	extractor FeatureExtractor,
	products repository.ProductRepository,
	images repository.ImageStorage,
) Ingester {
	return &ingestUseCase{
		acquirer:  acq,
		extractor: extractor,
		products:  products,
		images:    images,
	}
}

// Ingest fetches the product image, stores it under a fresh unique filename,
// extracts its features and creates the product. A product is never
// partially written: if extraction or the store insert fails, the stored
// image object is rolled back and the error surfaces to the caller.
func (uc *ingestUseCase) Ingest(ctx context.Context, sourceURL, imageURL string) (*IngestResult, error) {
	img, err := uc.acquirer.FromURL(ctx, imageURL)
	if err != nil {
		metrics.IngestsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	filename := uuid.New().String() + "." + img.Extension
	if err := uc.images.Save(ctx, filename, img.Bytes, img.ContentType); err != nil {
		metrics.IngestsTotal.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("storing image: %w", err)
	}

	features, err := uc.extractor.Extract(ctx, img)
	if err != nil {
		uc.rollbackImage(ctx, filename)
		metrics.IngestsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	id, err := uc.products.Create(ctx, sourceURL, filename, features)
	if err != nil {
		uc.rollbackImage(ctx, filename)
		metrics.IngestsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	metrics.IngestsTotal.WithLabelValues("success").Inc()
	slog.Info("Product ingested", "product_id", id, "source_url", sourceURL, "image_filename", filename)

	return &IngestResult{
		ProductID:     id,
		ImageFilename: filename,
		ImageURL:      uc.images.URL(filename),
		Features:      features,
	}, nil
}

func (uc *ingestUseCase) rollbackImage(ctx context.Context, filename string) {
	if err := uc.images.Delete(ctx, filename); err != nil {
		// Best effort; an orphaned object is preferable to failing the
		// error path.
		slog.Warn("Failed to delete image after aborted ingest", "image_filename", filename, "error", err)
	}
}
