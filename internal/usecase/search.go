package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/er-ebrahimi/architecture-ai/internal/acquirer"
	"github.com/er-ebrahimi/architecture-ai/internal/entity"
	"github.com/er-ebrahimi/architecture-ai/internal/ranking"
	"github.com/er-ebrahimi/architecture-ai/internal/repository"
	"github.com/er-ebrahimi/architecture-ai/internal/tags"
	"github.com/er-ebrahimi/architecture-ai/pkg/metrics"
	"github.com/er-ebrahimi/architecture-ai/pkg/utils"
)

// Searcher defines the interface for tag-overlap similarity queries. The
// query image comes either from a URL or from bytes a caller already read
// (e.g. a file upload).
type Searcher interface {
	SearchByURL(ctx context.Context, imageURL string, opts SearchOptions) (*SearchResult, error)
	SearchByUpload(ctx context.Context, data []byte, contentType string, opts SearchOptions) (*SearchResult, error)
}

// SearchOptions mirrors the ranking switches exposed to API clients.
// A zero Limit means ranking.DefaultLimit; a negative one is rejected.
type SearchOptions struct {
	Limit       int
	IncludeZero bool
}

// Match is one ranked product.
type Match struct {
	Product  entity.Product
	ImageURL string
	Score    int
}

// SearchResult carries the ranked matches plus the query-side analysis, so
// clients can show what the model saw in the submitted image.
type SearchResult struct {
	QueryFeatures   entity.ImageFeatures
	QueryTags       []string
	Matches         []Match
	TotalCandidates int
}

type searchUseCase struct {
	acquirer  ImageAcquirer
	extractor FeatureExtractor
	products  repository.ProductRepository
	images    repository.ImageStorage
	cache     repository.FeatureCache
	cacheTTL  time.Duration
}

// NewSearcher creates the similarity search use case. cache may be nil to
// disable feature caching.
func NewSearcher(
	acq ImageAcquirer,
	extractor FeatureExtractor,
	products repository.ProductRepository,
	images repository.ImageStorage,
	cache repository.FeatureCache,
	cacheTTL time.Duration,
) Searcher {
	return &searchUseCase{
		acquirer:  acq,
		extractor: extractor,
		products:  products,
		images:    images,
		cache:     cache,
		cacheTTL:  cacheTTL,
	}
}

func (uc *searchUseCase) SearchByURL(ctx context.Context, imageURL string, opts SearchOptions) (*SearchResult, error) {
	img, err := uc.acquirer.FromURL(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	return uc.search(ctx, img, opts)
}

func (uc *searchUseCase) SearchByUpload(ctx context.Context, data []byte, contentType string, opts SearchOptions) (*SearchResult, error) {
	img, err := uc.acquirer.FromBytes(data, contentType)
	if err != nil {
		return nil, err
	}
	return uc.search(ctx, img, opts)
}

func (uc *searchUseCase) search(ctx context.Context, img *acquirer.Image, opts SearchOptions) (*SearchResult, error) {
	start := time.Now()
	defer func() {
		metrics.SearchDuration.Observe(time.Since(start).Seconds())
	}()

	if opts.Limit == 0 {
		opts.Limit = ranking.DefaultLimit
	}

	features, err := uc.queryFeatures(ctx, img)
	if err != nil {
		return nil, err
	}
	queryTags := tags.Flatten(features)

	products, err := uc.products.ListCandidates(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]ranking.Candidate, 0, len(products))
	for _, p := range products {
		candidates = append(candidates, ranking.Candidate{
			Product: p,
			Tags:    tags.Flatten(p.Features),
		})
	}

	ranked, err := ranking.Rank(queryTags, candidates, ranking.Options{
		Limit:       opts.Limit,
		IncludeZero: opts.IncludeZero,
	})
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(ranked))
	for _, r := range ranked {
		matches = append(matches, Match{
			Product:  r.Product,
			ImageURL: uc.images.URL(r.Product.ImageFilename),
			Score:    r.Score,
		})
	}

	slog.Info("Similarity search completed",
		"query_tags", len(queryTags), "candidates", len(products), "matches", len(matches))

	return &SearchResult{
		QueryFeatures:   features,
		QueryTags:       queryTags,
		Matches:         matches,
		TotalCandidates: len(products),
	}, nil
}

// queryFeatures consults the feature cache before going to the providers.
// Cache trouble is logged and ignored; only extraction failures surface.
func (uc *searchUseCase) queryFeatures(ctx context.Context, img *acquirer.Image) (entity.ImageFeatures, error) {
	if uc.cache == nil {
		return uc.extractor.Extract(ctx, img)
	}

	key := utils.HashBytes(img.Bytes)

	cached, ok, err := uc.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("Feature cache lookup failed", "error", err)
	}
	if ok {
		metrics.FeatureCacheTotal.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.FeatureCacheTotal.WithLabelValues("miss").Inc()

	features, err := uc.extractor.Extract(ctx, img)
	if err != nil {
		return entity.ImageFeatures{}, err
	}

	if err := uc.cache.Set(ctx, key, features, uc.cacheTTL); err != nil {
		slog.Warn("Feature cache store failed", "error", err)
	}
	return features, nil
}
