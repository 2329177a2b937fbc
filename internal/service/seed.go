package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Navau/teslo-shop-nest/internal/domain"
	"github.com/Navau/teslo-shop-nest/internal/event"
	"github.com/Navau/teslo-shop-nest/internal/repository"
	"github.com/Navau/teslo-shop-nest/pkg/slug"
)

// SeedService wipes the database and loads a known dataset. Intended for
// development and demo environments only.
type SeedService struct {
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	producer    *event.Producer
	logger      *slog.Logger
}

// NewSeedService creates a new seed service.
func NewSeedService(
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *SeedService {
	return &SeedService{
		userRepo:    userRepo,
		productRepo: productRepo,
		producer:    producer,
		logger:      logger,
	}
}

// SeedResult reports how many rows the seed inserted.
type SeedResult struct {
	Users    int `json:"users"`
	Products int `json:"products"`
}

type seedUser struct {
	Email    string
	Password string
	FullName string
	Roles    []string
}

type seedProduct struct {
	Title       string
	Price       float64
	Description string
	Stock       int
	Sizes       []string
	Gender      string
	Tags        []string
}

func seedUsers() []seedUser {
	return []seedUser{
		{
			Email:    "test1@google.com",
			Password: "Abc123",
			FullName: "Test One",
			Roles:    []string{domain.RoleAdmin},
		},
		{
			Email:    "test2@google.com",
			Password: "Abc123",
			FullName: "Test Two",
			Roles:    []string{domain.RoleUser, domain.RoleSuperUser},
		},
		{
			Email:    "test3@google.com",
			Password: "Abc123",
			FullName: "Test Three",
			Roles:    []string{domain.RoleUser},
		},
	}
}

func seedProducts() []seedProduct {
	return []seedProduct{
		{
			Title:       "Men's Chill Crew Neck Sweatshirt",
			Price:       75,
			Description: "Introducing the Tesla Chill Collection. The Men's Chill Crew Neck Sweatshirt has a premium, heavyweight exterior and soft fleece interior.",
			Stock:       7,
			Sizes:       []string{"XS", "S", "M", "L", "XL", "XXL"},
			Gender:      domain.GenderMen,
			Tags:        []string{"sweatshirt"},
		},
		{
			Title:       "Men's Quilted Shirt Jacket",
			Price:       200,
			Description: "The Men's Quilted Shirt Jacket features a uniquely fit, quilted design for warmth and mobility in cold weather seasons.",
			Stock:       5,
			Sizes:       []string{"XS", "S", "M", "XL", "XXL"},
			Gender:      domain.GenderMen,
			Tags:        []string{"jacket"},
		},
		{
			Title:       "Women's Cropped Puffer Jacket",
			Price:       225,
			Description: "The Women's Cropped Puffer Jacket features a uniquely cropped silhouette for the perfect, modern style.",
			Stock:       85,
			Sizes:       []string{"XS", "S", "M"},
			Gender:      domain.GenderWomen,
			Tags:        []string{"jacket", "women"},
		},
		{
			Title:       "Women's T Logo Short Sleeve Scoop Neck Tee",
			Price:       35,
			Description: "Designed for style and comfort, the ultrasoft Women's T Logo Short Sleeve Scoop Neck Tee features a tonal 3D silicone-printed T logo.",
			Stock:       30,
			Sizes:       []string{"XS", "S", "M", "L", "XL", "XXL"},
			Gender:      domain.GenderWomen,
			Tags:        []string{"shirt"},
		},
		{
			Title:       "Kids Cybertruck Long Sleeve Tee",
			Price:       30,
			Description: "The Kids Cybertruck Long Sleeve Tee features the iconic Cybertruck graffiti wordmark on a soft cotton tee.",
			Stock:       10,
			Sizes:       []string{"XS", "S", "M"},
			Gender:      domain.GenderKid,
			Tags:        []string{"shirt", "kids"},
		},
		{
			Title:       "Cybertruck Graffiti Hoodie",
			Price:       60,
			Description: "The Cybertruck Graffiti Hoodie features the iconic Cybertruck graffiti wordmark on soft fleece.",
			Stock:       13,
			Sizes:       []string{"XS", "S", "M", "L", "XL", "XXL"},
			Gender:      domain.GenderUnisex,
			Tags:        []string{"hoodie"},
		},
	}
}

// Run wipes all products and users, inserts the seed dataset, and returns the
// inserted counts. The first seed user owns every seed product.
func (s *SeedService) Run(ctx context.Context) (*SeedResult, error) {
	// Products reference users, so they go first.
	if err := s.productRepo.DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("wipe products: %w", err)
	}
	if err := s.userRepo.DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("wipe users: %w", err)
	}

	now := time.Now().UTC()

	var ownerID string
	users := seedUsers()
	for i, su := range users {
		hashed, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash seed password: %w", err)
		}

		user := &domain.User{
			ID:           uuid.New().String(),
			Email:        su.Email,
			PasswordHash: string(hashed),
			FullName:     su.FullName,
			Roles:        su.Roles,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("insert seed user %s: %w", su.Email, err)
		}
		if i == 0 {
			ownerID = user.ID
		}
	}

	products := seedProducts()
	for _, sp := range products {
		product := &domain.Product{
			ID:          uuid.New().String(),
			Title:       sp.Title,
			Price:       sp.Price,
			Description: sp.Description,
			Slug:        slug.Generate(sp.Title),
			Stock:       sp.Stock,
			Sizes:       sp.Sizes,
			Gender:      sp.Gender,
			Tags:        sp.Tags,
			Images:      []string{},
			UserID:      ownerID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.productRepo.Create(ctx, product); err != nil {
			return nil, fmt.Errorf("insert seed product %s: %w", sp.Title, err)
		}
	}

	// Non-blocking on failure.
	if err := s.producer.PublishDatabaseSeeded(ctx, len(users), len(products)); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish database.seeded event",
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "database seeded",
		slog.Int("users", len(users)),
		slog.Int("products", len(products)),
	)

	return &SeedResult{Users: len(users), Products: len(products)}, nil
}
