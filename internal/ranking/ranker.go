package ranking

import (
	"errors"
	"sort"

	"github.com/er-ebrahimi/architecture-ai/internal/entity"
	"github.com/er-ebrahimi/architecture-ai/internal/tags"
)

// ErrInvalidLimit is returned when Rank is called with a non-positive limit.
var ErrInvalidLimit = errors.New("result limit must be greater than zero")

// DefaultLimit is the number of results returned when the caller does not
// ask for a specific limit.
const DefaultLimit = 10

// Candidate pairs a stored product with its flattened tag set.
type Candidate struct {
	Product entity.Product
	Tags    []string
}

// Result is one ranked entry: a candidate product and its similarity score.
// The score is the raw cardinality of the intersection between the query tag
// set and the candidate tag set; no 0-10 normalization happens here.
type Result struct {
	Product entity.Product
	Score   int
}

// Options controls ranking output.
type Options struct {
	// Limit caps the number of returned results. Must be positive.
	Limit int
	// IncludeZero keeps candidates that share no tags with the query.
	// Scoring always considers every candidate; this switch only decides
	// whether zero-score entries survive into the output.
	IncludeZero bool
}

// Rank scores every candidate against the query tag set and returns up to
// opts.Limit results ordered by descending score. Ties break by more recent
// CreatedAt first, then by ascending ID, so the ordering is fully
// deterministic. Tag comparison is exact on already-normalized tags.
func Rank(queryTags []string, candidates []Candidate, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		return nil, ErrInvalidLimit
	}

	query := tags.Set(queryTags)

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		score := 0
		for _, t := range c.Tags {
			if _, ok := query[t]; ok {
				score++
			}
		}
		if score == 0 && !opts.IncludeZero {
			continue
		}
		results = append(results, Result{Product: c.Product, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Product.CreatedAt.Equal(b.Product.CreatedAt) {
			return a.Product.CreatedAt.After(b.Product.CreatedAt)
		}
		return a.Product.ID < b.Product.ID
	})

	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}
