package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Navau/teslo-shop-nest/internal/domain"
	"github.com/Navau/teslo-shop-nest/internal/event"
	"github.com/Navau/teslo-shop-nest/internal/repository"
	apperrors "github.com/Navau/teslo-shop-nest/pkg/errors"
	"github.com/Navau/teslo-shop-nest/pkg/pagination"
	"github.com/Navau/teslo-shop-nest/pkg/slug"
)

// ProductService implements the business logic for the product catalog.
type ProductService struct {
	productRepo repository.ProductRepository
	producer    *event.Producer
	logger      *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	productRepo repository.ProductRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		producer:    producer,
		logger:      logger,
	}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Title       string
	Price       float64
	Description string
	Slug        string
	Stock       int
	Sizes       []string
	Gender      string
	Tags        []string
	Images      []string
}

// UpdateProductInput holds the parameters for a partial product update.
type UpdateProductInput struct {
	Title       *string
	Price       *float64
	Description *string
	Slug        *string
	Stock       *int
	Sizes       []string
	Gender      *string
	Tags        []string
	Images      []string
}

// Create inserts a new product owned by the given user. When no slug is
// provided one is derived from the title.
func (s *ProductService) Create(ctx context.Context, userID string, input CreateProductInput) (*domain.Product, error) {
	if !domain.IsValidGender(input.Gender) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("gender must be one of %v", domain.ValidGenders()))
	}

	productSlug := input.Slug
	if productSlug == "" {
		productSlug = input.Title
	}
	productSlug = slug.Generate(productSlug)

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Price:       input.Price,
		Description: input.Description,
		Slug:        productSlug,
		Stock:       input.Stock,
		Sizes:       emptyIfNil(input.Sizes),
		Gender:      input.Gender,
		Tags:        emptyIfNil(input.Tags),
		Images:      emptyIfNil(input.Images),
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	// Publish creation event (non-blocking on failure).
	if err := s.producer.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("slug", product.Slug),
	)

	return product, nil
}

// Get looks a product up by UUID, slug, or exact title.
func (s *ProductService) Get(ctx context.Context, term string) (*domain.Product, error) {
	product, err := s.productRepo.GetByTerm(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// List returns a page of products with pagination metadata.
func (s *ProductService) List(ctx context.Context, params pagination.Params) (pagination.Result[domain.Product], error) {
	products, total, err := s.productRepo.List(ctx, params)
	if err != nil {
		return pagination.Result[domain.Product]{}, fmt.Errorf("list products: %w", err)
	}
	return pagination.NewResult(products, total, params), nil
}

// Update applies a partial update to an existing product.
func (s *ProductService) Update(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, apperrors.InvalidInput("title must not be empty")
		}
		product.Title = *input.Title
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, apperrors.InvalidInput("price must not be negative")
		}
		product.Price = *input.Price
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Slug != nil {
		product.Slug = slug.Generate(*input.Slug)
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, apperrors.InvalidInput("stock must not be negative")
		}
		product.Stock = *input.Stock
	}
	if input.Sizes != nil {
		product.Sizes = input.Sizes
	}
	if input.Gender != nil {
		if !domain.IsValidGender(*input.Gender) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("gender must be one of %v", domain.ValidGenders()))
		}
		product.Gender = *input.Gender
	}
	if input.Tags != nil {
		product.Tags = input.Tags
	}
	if input.Images != nil {
		product.Images = input.Images
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", product.ID),
	)

	return product, nil
}

// Delete removes a product by its ID.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", id),
	)

	return nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
