package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/er-ebrahimi/architecture-ai/internal/entity"
	"github.com/er-ebrahimi/architecture-ai/internal/repository"
)

const uniqueViolationCode = "23505"

// ProductRepoImpl provides a concrete implementation for the
// ProductRepository interface using PostgreSQL. Features are held in a JSONB
// column so they stay queryable as structured data.
type ProductRepoImpl struct {
	db *pgxpool.Pool
}

// NewProductRepo creates a new instance of ProductRepoImpl.
func NewProductRepo(db *pgxpool.Pool) *ProductRepoImpl {
	return &ProductRepoImpl{db: db}
}

// Create inserts a product and returns the assigned id. A unique violation
// on image_filename maps to repository.ErrDuplicateProduct.
func (r *ProductRepoImpl) Create(ctx context.Context, sourceURL, imageFilename string, features entity.ImageFeatures) (int64, error) {
	featuresJSON, err := json.Marshal(features)
	if err != nil {
		return 0, fmt.Errorf("marshaling features: %w", err)
	}

	query := `
		INSERT INTO products (source_url, image_filename, features, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id;
	`

	var id int64
	err = r.db.QueryRow(ctx, query, sourceURL, imageFilename, featuresJSON).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return 0, repository.ErrDuplicateProduct
		}
		return 0, err
	}
	return id, nil
}

// ListCandidates returns every stored product, most recent first. A row
// whose features no longer validate is reported as an error rather than
// silently skipped; such a row means the store invariant was broken.
func (r *ProductRepoImpl) ListCandidates(ctx context.Context) ([]entity.Product, error) {
	query := `
		SELECT id, source_url, image_filename, features, created_at
		FROM products
		ORDER BY created_at DESC, id ASC;
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []entity.Product
	for rows.Next() {
		var p entity.Product
		var featuresJSON []byte
		if err := rows.Scan(&p.ID, &p.SourceURL, &p.ImageFilename, &featuresJSON, &p.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(featuresJSON, &p.Features); err != nil {
			return nil, fmt.Errorf("decoding features for product %d: %w", p.ID, err)
		}
		if err := p.Features.Validate(); err != nil {
			return nil, fmt.Errorf("stored features for product %d are invalid: %w", p.ID, err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
