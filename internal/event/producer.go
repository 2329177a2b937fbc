package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/Navau/teslo-shop-nest/pkg/kafka"

	"github.com/Navau/teslo-shop-nest/internal/domain"
)

// Kafka topic constants for domain events.
const (
	TopicUserRegistered = "teslo.user.registered"
	TopicProductCreated = "teslo.product.created"
	TopicDatabaseSeeded = "teslo.database.seeded"
)

// Aggregate type constants.
const (
	AggregateTypeUser    = "user"
	AggregateTypeProduct = "product"
)

// Source identifier for events published by this backend.
const Source = "teslo-shop"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Roles    []string `json:"roles"`
}

// ProductCreatedData is the payload for a product.created event.
type ProductCreatedData struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Slug   string  `json:"slug"`
	Price  float64 `json:"price"`
	UserID string  `json:"user_id,omitempty"`
}

// DatabaseSeededData is the payload for a database.seeded event.
type DatabaseSeededData struct {
	Users    int `json:"users"`
	Products int `json:"products"`
}

// Publisher abstracts the Kafka producer for testing.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes domain events to Kafka.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Roles:    user.Roles,
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, Source, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return nil
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	data := ProductCreatedData{
		ID:     product.ID,
		Title:  product.Title,
		Slug:   product.Slug,
		Price:  product.Price,
		UserID: product.UserID,
	}

	event, err := pkgkafka.NewEvent(TopicProductCreated, product.ID, AggregateTypeProduct, Source, data)
	if err != nil {
		return fmt.Errorf("create product.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicProductCreated, event); err != nil {
		return fmt.Errorf("publish product.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published product.created event",
		slog.String("product_id", product.ID),
		slog.String("slug", product.Slug),
	)

	return nil
}

// PublishDatabaseSeeded publishes a database.seeded event.
func (p *Producer) PublishDatabaseSeeded(ctx context.Context, users, products int) error {
	data := DatabaseSeededData{Users: users, Products: products}

	event, err := pkgkafka.NewEvent(TopicDatabaseSeeded, "seed", AggregateTypeUser, Source, data)
	if err != nil {
		return fmt.Errorf("create database.seeded event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicDatabaseSeeded, event); err != nil {
		return fmt.Errorf("publish database.seeded event: %w", err)
	}

	p.logger.DebugContext(ctx, "published database.seeded event",
		slog.Int("users", users),
		slog.Int("products", products),
	)

	return nil
}
