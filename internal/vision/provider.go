package vision

import (
	"fmt"
	"time"
)

// ProviderConfig identifies one configured endpoint/model able to turn an
// image into a candidate ImageFeatures payload. Providers are supplied to
// Extract as an ordered list; callers decide the order.
type ProviderConfig struct {
	// Name identifies the provider in errors, logs and metrics.
	Name string
	// BaseURL is the root of an OpenAI-compatible API, e.g.
	// "https://openrouter.ai/api/v1".
	BaseURL string
	// APIKey is sent as a bearer token when non-empty.
	APIKey string
	// Model is the model identifier requested from the endpoint.
	Model string
	// Timeout bounds a single attempt against this provider.
	Timeout time.Duration
}

// ProviderError records why one provider attempt failed.
type ProviderError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s (model %s): %v", e.Provider, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// AllProvidersError is returned when every provider in the list failed. It
// keeps the per-provider causes in attempt order for diagnostics.
type AllProvidersError struct {
	Attempts []*ProviderError
}

func (e *AllProvidersError) Error() string {
	if len(e.Attempts) == 0 {
		return "image analysis failed: no providers configured"
	}
	return fmt.Sprintf("image analysis failed: all %d providers failed, last: %v",
		len(e.Attempts), e.Attempts[len(e.Attempts)-1])
}
