package vision

import (
	"context"

	"github.com/er-ebrahimi/architecture-ai/internal/acquirer"
	"github.com/er-ebrahimi/architecture-ai/internal/entity"
)

// BoundExtractor pairs an Extractor with a fixed, ordered provider list so
// callers that do not choose providers per call can depend on a
// single-method contract.
type BoundExtractor struct {
	extractor *Extractor
	providers []ProviderConfig
}

// Bind fixes the provider order for subsequent Extract calls.
func (e *Extractor) Bind(providers []ProviderConfig) *BoundExtractor {
	return &BoundExtractor{extractor: e, providers: providers}
}

func (b *BoundExtractor) Extract(ctx context.Context, img *acquirer.Image) (entity.ImageFeatures, error) {
	return b.extractor.Extract(ctx, img, b.providers)
}
