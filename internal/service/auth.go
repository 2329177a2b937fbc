package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Navau/teslo-shop-nest/internal/auth"
	"github.com/Navau/teslo-shop-nest/internal/domain"
	"github.com/Navau/teslo-shop-nest/internal/event"
	"github.com/Navau/teslo-shop-nest/internal/repository"
	apperrors "github.com/Navau/teslo-shop-nest/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 10

// AuthService implements registration, login, and token verification.
type AuthService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
	producer *event.Producer
	logger   *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	userRepo repository.UserRepository,
	tokens *auth.TokenManager,
	producer *event.Producer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		producer: producer,
		logger:   logger,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult pairs a user with a freshly signed access token.
type AuthResult struct {
	User  *domain.User
	Token string
}

// Register creates a new user account, hashes the password, and returns the
// user with a signed token. New users always start with the "user" role.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(input.Email),
		PasswordHash: string(hashedPassword),
		FullName:     input.FullName,
		Roles:        []string{domain.RoleUser},
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Sign(user.ID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates a user with email and password. Unknown emails and
// wrong passwords return the same generic message so the response does not
// reveal which part failed.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, apperrors.Unauthorized("credentials are not valid")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperrors.Unauthorized("credentials are not valid")
	}

	if !user.IsActive {
		return nil, apperrors.Unauthorized("user is inactive, talk to admin")
	}

	token, err := s.tokens.Sign(user.ID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// CheckStatus reloads an authenticated user and reissues a fresh token.
func (s *AuthService) CheckStatus(ctx context.Context, userID string) (*AuthResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user for status check: %w", err)
	}

	token, err := s.tokens.Sign(user.ID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// VerifyToken validates a raw token string and returns the current user it
// identifies. The user is reloaded from the database on every call so
// deactivations and role changes apply to tokens that were already issued.
func (s *AuthService) VerifyToken(ctx context.Context, tokenString string) (*domain.User, error) {
	userID, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, apperrors.Unauthorized("token not valid")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Unauthorized("token not valid")
	}

	if !user.IsActive {
		return nil, apperrors.Unauthorized("user is inactive, talk to admin")
	}

	return user, nil
}
