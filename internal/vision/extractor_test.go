package vision

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/er-ebrahimi/architecture-ai/internal/acquirer"
	"github.com/er-ebrahimi/architecture-ai/pkg/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

const validFeaturesJSON = `{"main_objects": [{"object_type": "sofa", "attributes": ["white", "fabric"]}], "overall_style": ["modern"]}`

func testImage() *acquirer.Image {
	return &acquirer.Image{Bytes: []byte{0xFF, 0xD8, 0xFF}, ContentType: "image/jpeg", Extension: "jpg"}
}

// providerServer fakes an OpenAI-compatible chat-completions endpoint that
// replies with the given message content.
func providerServer(t *testing.T, hits *atomic.Int32, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
		})
	}))
}

func provider(name, baseURL string) ProviderConfig {
	return ProviderConfig{Name: name, BaseURL: baseURL, Model: name, Timeout: 5 * time.Second}
}

func TestExtractFirstSuccessWins(t *testing.T) {
	var hits1, hits2 atomic.Int32
	srv1 := providerServer(t, &hits1, validFeaturesJSON)
	defer srv1.Close()
	srv2 := providerServer(t, &hits2, validFeaturesJSON)
	defer srv2.Close()

	features, err := NewExtractor().Extract(context.Background(), testImage(),
		[]ProviderConfig{provider("one", srv1.URL), provider("two", srv2.URL)})
	if err != nil {
		t.Fatal(err)
	}
	if features.MainObjects[0].ObjectType != "sofa" {
		t.Fatalf("unexpected features: %+v", features)
	}
	if hits1.Load() != 1 || hits2.Load() != 0 {
		t.Fatalf("first success must stop the chain: hits1=%d hits2=%d", hits1.Load(), hits2.Load())
	}
}

func TestExtractFallsBackOnValidationFailure(t *testing.T) {
	// Provider one answers with a payload that parses but fails validation;
	// provider two's distinguishable valid answer must come back.
	srv1 := providerServer(t, nil, `{"overall_style": ["modern"]}`)
	defer srv1.Close()
	srv2 := providerServer(t, nil,
		`{"main_objects": [{"object_type": "desk", "attributes": []}], "overall_style": []}`)
	defer srv2.Close()

	features, err := NewExtractor().Extract(context.Background(), testImage(),
		[]ProviderConfig{provider("one", srv1.URL), provider("two", srv2.URL)})
	if err != nil {
		t.Fatal(err)
	}
	if len(features.MainObjects) != 1 || features.MainObjects[0].ObjectType != "desk" {
		t.Fatalf("expected provider two's value, got %+v", features)
	}
}

func TestExtractFallsBackOnHTTPFailure(t *testing.T) {
	srv1 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "model not found"}`, http.StatusNotFound)
	}))
	defer srv1.Close()
	srv2 := providerServer(t, nil, validFeaturesJSON)
	defer srv2.Close()

	features, err := NewExtractor().Extract(context.Background(), testImage(),
		[]ProviderConfig{provider("dead-model", srv1.URL), provider("two", srv2.URL)})
	if err != nil {
		t.Fatal(err)
	}
	if len(features.OverallStyle) != 1 || features.OverallStyle[0] != "modern" {
		t.Fatalf("unexpected features: %+v", features)
	}
}

func TestExtractProseWrappedJSON(t *testing.T) {
	content := "Here is my analysis:\n```json\n" + validFeaturesJSON + "\n```\nLet me know if you need more."
	srv := providerServer(t, nil, content)
	defer srv.Close()

	features, err := NewExtractor().Extract(context.Background(), testImage(),
		[]ProviderConfig{provider("one", srv.URL)})
	if err != nil {
		t.Fatal(err)
	}
	if features.MainObjects[0].Attributes[1] != "fabric" {
		t.Fatalf("unexpected features: %+v", features)
	}
}

func TestExtractAllProvidersFailed(t *testing.T) {
	srvBroken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srvBroken.Close()
	srvGarbage := providerServer(t, nil, "I cannot analyze this image.")
	defer srvGarbage.Close()

	_, err := NewExtractor().Extract(context.Background(), testImage(),
		[]ProviderConfig{provider("broken", srvBroken.URL), provider("garbage", srvGarbage.URL)})

	var allFailed *AllProvidersError
	if !errors.As(err, &allFailed) {
		t.Fatalf("expected AllProvidersError, got %v", err)
	}
	if len(allFailed.Attempts) != 2 {
		t.Fatalf("expected 2 recorded attempts, got %d", len(allFailed.Attempts))
	}
	if allFailed.Attempts[0].Provider != "broken" || allFailed.Attempts[1].Provider != "garbage" {
		t.Fatalf("attempts out of order: %+v", allFailed.Attempts)
	}
	if !errors.Is(allFailed.Attempts[1].Err, ErrNoJSONObject) {
		t.Fatalf("expected parse failure cause, got %v", allFailed.Attempts[1].Err)
	}
}

func TestExtractNoProviders(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), testImage(), nil)
	var allFailed *AllProvidersError
	if !errors.As(err, &allFailed) || len(allFailed.Attempts) != 0 {
		t.Fatalf("expected empty AllProvidersError, got %v", err)
	}
}

func TestExtractCallerCancellationAbortsChain(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer slow.Close()
	var hits2 atomic.Int32
	srv2 := providerServer(t, &hits2, validFeaturesJSON)
	defer srv2.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewExtractor().Extract(ctx, testImage(),
		[]ProviderConfig{provider("slow", slow.URL), provider("two", srv2.URL)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if hits2.Load() != 0 {
		t.Fatal("cancellation must not fall through to the next provider")
	}
}

func TestExtractRequestShape(t *testing.T) {
	var gotAuth string
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": validFeaturesJSON}}},
		})
	}))
	defer srv.Close()

	p := provider("one", srv.URL)
	p.APIKey = "sk-test"
	p.Model = "vision-model-a"
	if _, err := NewExtractor().Extract(context.Background(), testImage(), []ProviderConfig{p}); err != nil {
		t.Fatal(err)
	}

	if gotAuth != "Bearer sk-test" {
		t.Fatalf("missing bearer token, got %q", gotAuth)
	}
	if gotBody.Model != "vision-model-a" {
		t.Fatalf("unexpected model %q", gotBody.Model)
	}
	if len(gotBody.Messages) != 1 || len(gotBody.Messages[0].Content) != 2 {
		t.Fatalf("expected one message with text + image parts: %+v", gotBody.Messages)
	}
	text := gotBody.Messages[0].Content[0].Text
	// The prompt must describe the expected shape so the contract is
	// self-describing to the model.
	for _, field := range []string{"main_objects", "object_type", "attributes", "overall_style"} {
		if !strings.Contains(text, field) {
			t.Errorf("prompt does not mention %q", field)
		}
	}
	img := gotBody.Messages[0].Content[1].ImageURL
	if img == nil || !strings.HasPrefix(img.URL, "data:image/jpeg;base64,") {
		t.Fatalf("image payload not a base64 data URL: %+v", img)
	}
}
