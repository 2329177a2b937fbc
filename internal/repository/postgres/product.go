package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Navau/teslo-shop-nest/internal/domain"
	"github.com/Navau/teslo-shop-nest/pkg/database"
	apperrors "github.com/Navau/teslo-shop-nest/pkg/errors"
	"github.com/Navau/teslo-shop-nest/pkg/pagination"
)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, title, price, description, slug, stock, sizes, gender, tags, images, user_id, created_at, updated_at`

// Create inserts a new product into the database.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (id, title, price, description, slug, stock, sizes, gender, tags, images, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	ctx, end := database.TraceQuery(ctx, "CreateProduct", query)
	_, err := r.db.Exec(ctx, query,
		p.ID,
		p.Title,
		p.Price,
		p.Description,
		p.Slug,
		p.Stock,
		p.Sizes,
		p.Gender,
		p.Tags,
		p.Images,
		nullableID(p.UserID),
		p.CreatedAt,
		p.UpdatedAt,
	)
	end(err)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return r.scanProduct(ctx, "GetProductByID", query, id)
}

// GetByTerm looks a product up by UUID, slug, or exact title. Non-UUID terms
// match the slug (lowercased) or the title case-insensitively.
func (r *ProductRepository) GetByTerm(ctx context.Context, term string) (*domain.Product, error) {
	if _, err := uuid.Parse(term); err == nil {
		return r.GetByID(ctx, term)
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE slug = $1 OR UPPER(title) = $2`
	return r.scanProduct(ctx, "GetProductByTerm", query,
		strings.ToLower(term), strings.ToUpper(term))
}

// List returns a page of products ordered by title, plus the total count.
func (r *ProductRepository) List(ctx context.Context, params pagination.Params) ([]domain.Product, int, error) {
	countQuery := `SELECT COUNT(*) FROM products`

	ctx, endCount := database.TraceQuery(ctx, "CountProducts", countQuery)
	var total int
	err := r.db.QueryRow(ctx, countQuery).Scan(&total)
	endCount(err)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products ORDER BY title LIMIT $1 OFFSET $2`

	ctx, end := database.TraceQuery(ctx, "ListProducts", query)
	rows, err := r.db.Query(ctx, query, params.PerPage, params.Offset())
	if err != nil {
		end(err)
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		var userID *string
		if err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Price,
			&p.Description,
			&p.Slug,
			&p.Stock,
			&p.Sizes,
			&p.Gender,
			&p.Tags,
			&p.Images,
			&userID,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			end(err)
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		if userID != nil {
			p.UserID = *userID
		}
		products = append(products, p)
	}

	err = rows.Err()
	end(err)
	if err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}

	return products, total, nil
}

// Update modifies an existing product in the database.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET title = $1, price = $2, description = $3, slug = $4, stock = $5,
		    sizes = $6, gender = $7, tags = $8, images = $9, updated_at = $10
		WHERE id = $11`

	ctx, end := database.TraceQuery(ctx, "UpdateProduct", query)
	ct, err := r.db.Exec(ctx, query,
		p.Title,
		p.Price,
		p.Description,
		p.Slug,
		p.Stock,
		p.Sizes,
		p.Gender,
		p.Tags,
		p.Images,
		p.UpdatedAt,
		p.ID,
	)
	end(err)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
		return fmt.Errorf("update product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}

	return nil
}

// Delete removes a product from the database by its ID.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM products WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteProduct", query)
	ct, err := r.db.Exec(ctx, query, id)
	end(err)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	return nil
}

// DeleteAll removes every product. Only the seed routine uses this.
func (r *ProductRepository) DeleteAll(ctx context.Context) error {
	query := `DELETE FROM products`

	ctx, end := database.TraceQuery(ctx, "DeleteAllProducts", query)
	_, err := r.db.Exec(ctx, query)
	end(err)
	if err != nil {
		return fmt.Errorf("delete all products: %w", err)
	}

	return nil
}

// scanProduct executes a query expected to return a single product row.
func (r *ProductRepository) scanProduct(ctx context.Context, operation, query string, args ...any) (*domain.Product, error) {
	var p domain.Product
	var userID *string

	ctx, end := database.TraceQuery(ctx, operation, query)
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&p.ID,
		&p.Title,
		&p.Price,
		&p.Description,
		&p.Slug,
		&p.Stock,
		&p.Sizes,
		&p.Gender,
		&p.Tags,
		&p.Images,
		&userID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	if userID != nil {
		p.UserID = *userID
	}

	return &p, nil
}

func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
