package request

// AddProductRequest submits a product for ingestion.
type AddProductRequest struct {
	SourceURL string `json:"source_url"`
	ImageURL  string `json:"image_url"`
}

// SearchRequest submits a query image URL for similarity search. Uploads go
// through the multipart form instead. Limit 0 means the server default;
// negative limits are rejected.
type SearchRequest struct {
	ImageURL    string `json:"image_url"`
	Limit       int    `json:"limit"`
	IncludeZero bool   `json:"include_zero"`
}
