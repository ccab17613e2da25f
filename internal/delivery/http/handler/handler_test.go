package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/er-ebrahimi/architecture-ai/internal/acquirer"
	"github.com/er-ebrahimi/architecture-ai/internal/entity"
	"github.com/er-ebrahimi/architecture-ai/internal/ranking"
	"github.com/er-ebrahimi/architecture-ai/internal/repository"
	"github.com/er-ebrahimi/architecture-ai/internal/usecase"
	"github.com/er-ebrahimi/architecture-ai/internal/vision"
)

type fakeIngester struct {
	result *usecase.IngestResult
	err    error
}

func (f *fakeIngester) Ingest(ctx context.Context, sourceURL, imageURL string) (*usecase.IngestResult, error) {
	return f.result, f.err
}

type fakeSearcher struct {
	result     *usecase.SearchResult
	err        error
	gotOpts    usecase.SearchOptions
	gotUpload  []byte
	gotURL     string
	uploadUsed bool
}

func (f *fakeSearcher) SearchByURL(ctx context.Context, imageURL string, opts usecase.SearchOptions) (*usecase.SearchResult, error) {
	f.gotURL = imageURL
	f.gotOpts = opts
	return f.result, f.err
}

func (f *fakeSearcher) SearchByUpload(ctx context.Context, data []byte, contentType string, opts usecase.SearchOptions) (*usecase.SearchResult, error) {
	f.uploadUsed = true
	f.gotUpload = data
	f.gotOpts = opts
	return f.result, f.err
}

func emptySearchResult() *usecase.SearchResult {
	return &usecase.SearchResult{
		QueryFeatures: entity.ImageFeatures{
			MainObjects:  []entity.IdentifiedObject{{ObjectType: "sofa", Attributes: []string{}}},
			OverallStyle: []string{},
		},
		QueryTags: []string{"sofa"},
		Matches:   []usecase.Match{},
	}
}

func TestHandleAddProductSuccess(t *testing.T) {
	h := NewHandler(&fakeIngester{result: &usecase.IngestResult{
		ProductID:     7,
		ImageFilename: "abc.jpg",
		ImageURL:      "http://img.local/abc.jpg",
	}}, &fakeSearcher{})

	body := `{"source_url":"https://shop.example/p/7","image_url":"https://cdn.example/7.jpg"}`
	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.HandleAddProduct(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["product_id"].(float64) != 7 {
		t.Fatalf("unexpected body: %v", resp)
	}
}

func TestHandleAddProductValidation(t *testing.T) {
	h := NewHandler(&fakeIngester{}, &fakeSearcher{})

	for name, body := range map[string]string{
		"malformed":  `{not json`,
		"missingURL": `{"source_url":"https://shop.example/p/7"}`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body))
			w := httptest.NewRecorder()
			h.HandleAddProduct(w, req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unsupportedFormat", acquirer.ErrUnsupportedFormat, http.StatusBadRequest},
		{"tooLarge", acquirer.ErrTooLarge, http.StatusBadRequest},
		{"fetchTimeout", acquirer.ErrTimeout, http.StatusBadRequest},
		{"invalidLimit", ranking.ErrInvalidLimit, http.StatusBadRequest},
		{"duplicate", repository.ErrDuplicateProduct, http.StatusConflict},
		{"providersExhausted", &vision.AllProvidersError{}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(&fakeIngester{err: tc.err}, &fakeSearcher{})
			body := `{"source_url":"s","image_url":"u"}`
			req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body))
			w := httptest.NewRecorder()
			h.HandleAddProduct(w, req)
			if w.Code != tc.want {
				t.Fatalf("got %d, want %d", w.Code, tc.want)
			}
			var resp map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp["error"] == "" {
				t.Fatal("error message missing from body")
			}
		})
	}
}

func TestProviderFailureHidesDetail(t *testing.T) {
	err := &vision.AllProvidersError{Attempts: []*vision.ProviderError{
		{Provider: "model-a", Model: "model-a", Err: errors.New("status 500: secret internals")},
	}}
	h := NewHandler(&fakeIngester{err: err}, &fakeSearcher{})

	req := httptest.NewRequest(http.MethodPost, "/api/products",
		strings.NewReader(`{"source_url":"s","image_url":"u"}`))
	w := httptest.NewRecorder()
	h.HandleAddProduct(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "secret internals") {
		t.Fatal("provider detail leaked to the client")
	}
}

func TestHandleSearchJSON(t *testing.T) {
	searcher := &fakeSearcher{result: emptySearchResult()}
	h := NewHandler(&fakeIngester{}, searcher)

	body := `{"image_url":"https://cdn.example/q.jpg","limit":5,"include_zero":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.HandleSearch(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if searcher.uploadUsed {
		t.Fatal("JSON body must use the URL path, not upload")
	}
	if searcher.gotURL != "https://cdn.example/q.jpg" {
		t.Fatalf("unexpected URL %q", searcher.gotURL)
	}
	if searcher.gotOpts.Limit != 5 || !searcher.gotOpts.IncludeZero {
		t.Fatalf("options not forwarded: %+v", searcher.gotOpts)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if _, ok := resp["results"]; !ok {
		t.Fatalf("results missing from body: %v", resp)
	}
	if _, ok := resp["query_tags"]; !ok {
		t.Fatalf("query_tags missing from body: %v", resp)
	}
}

func TestHandleSearchMissingImageURL(t *testing.T) {
	h := NewHandler(&fakeIngester{}, &fakeSearcher{result: emptySearchResult()})

	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.HandleSearch(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandleSearchMultipartUpload(t *testing.T) {
	searcher := &fakeSearcher{result: emptySearchResult()}
	h := NewHandler(&fakeIngester{}, searcher)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "query.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte("image-bytes")); err != nil {
		t.Fatal(err)
	}
	if err := mw.WriteField("limit", "3"); err != nil {
		t.Fatal(err)
	}
	if err := mw.WriteField("include_zero", "true"); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/search", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.HandleSearch(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !searcher.uploadUsed {
		t.Fatal("multipart body must use the upload path")
	}
	if string(searcher.gotUpload) != "image-bytes" {
		t.Fatalf("uploaded bytes not forwarded: %q", searcher.gotUpload)
	}
	if searcher.gotOpts.Limit != 3 || !searcher.gotOpts.IncludeZero {
		t.Fatalf("form options not forwarded: %+v", searcher.gotOpts)
	}
}

func TestHandleSearchMultipartMissingFile(t *testing.T) {
	h := NewHandler(&fakeIngester{}, &fakeSearcher{result: emptySearchResult()})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("limit", "3")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/search", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.HandleSearch(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandleHealthCheck(t *testing.T) {
	h := NewHandler(&fakeIngester{}, &fakeSearcher{})
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	h.HandleHealthCheck(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
}
