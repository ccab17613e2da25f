package response

import (
	"time"

	"github.com/er-ebrahimi/architecture-ai/internal/entity"
)

// AddProductResponse reports a successful ingest.
type AddProductResponse struct {
	Status        string               `json:"status"`
	ProductID     int64                `json:"product_id"`
	ImageFilename string               `json:"image_filename"`
	ImageURL      string               `json:"image_url"`
	Features      entity.ImageFeatures `json:"features"`
}

// ProductMatch is one ranked search result. Score is the raw count of tags
// shared with the query image.
type ProductMatch struct {
	ID            int64                `json:"id"`
	SourceURL     string               `json:"source_url"`
	ImageFilename string               `json:"image_filename"`
	ImageURL      string               `json:"image_url"`
	Score         int                  `json:"similarity_score"`
	Features      entity.ImageFeatures `json:"features"`
	CreatedAt     time.Time            `json:"created_at"`
}

// SearchResponse carries ranked matches plus the query-side analysis.
type SearchResponse struct {
	Status          string               `json:"status"`
	QueryFeatures   entity.ImageFeatures `json:"query_features"`
	QueryTags       []string             `json:"query_tags"`
	Results         []ProductMatch       `json:"results"`
	TotalCandidates int                  `json:"total_candidates"`
}
