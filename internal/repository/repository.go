// Package repository defines the persistence interfaces for the backend.
package repository

import (
	"context"

	"github.com/Navau/teslo-shop-nest/internal/domain"
	"github.com/Navau/teslo-shop-nest/pkg/pagination"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	DeleteAll(ctx context.Context) error
}

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// GetByTerm looks a product up by slug or exact title (case insensitive).
	GetByTerm(ctx context.Context, term string) (*domain.Product, error)
	List(ctx context.Context, params pagination.Params) ([]domain.Product, int, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}
