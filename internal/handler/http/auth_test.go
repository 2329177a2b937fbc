package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Navau/teslo-shop-nest/internal/auth"
	"github.com/Navau/teslo-shop-nest/internal/domain"
	"github.com/Navau/teslo-shop-nest/internal/event"
	"github.com/Navau/teslo-shop-nest/internal/service"
	apperrors "github.com/Navau/teslo-shop-nest/pkg/errors"
	"github.com/Navau/teslo-shop-nest/pkg/httputil"
	pkgkafka "github.com/Navau/teslo-shop-nest/pkg/kafka"
	"github.com/Navau/teslo-shop-nest/pkg/middleware"
	"github.com/Navau/teslo-shop-nest/pkg/pagination"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepo) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) Create(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepo) GetByTerm(ctx context.Context, term string) (*domain.Product, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepo) List(ctx context.Context, params pagination.Params) ([]domain.Product, int, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepo) Update(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProductRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockProductRepo) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// ============================================================================
// Test Helpers
// ============================================================================

// noopPublisher discards domain events so handler tests never touch a broker.
type noopPublisher struct{}

func (noopPublisher) Publish(ctx context.Context, topic string, evt *pkgkafka.Event) error {
	return nil
}

func handlerTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func handlerTestTokens() *auth.TokenManager {
	return auth.NewTokenManager("test-secret-key-for-testing", time.Hour)
}

func handlerTestAuthService(userRepo *mockUserRepo) *service.AuthService {
	logger := handlerTestLogger()
	producer := event.NewProducer(noopPublisher{}, logger)
	return service.NewAuthService(userRepo, handlerTestTokens(), producer, logger)
}

// setupAuthRouter mirrors the production /api/auth routes.
func setupAuthRouter(svc *service.AuthService) *chi.Mux {
	handler := NewAuthHandler(svc, handlerTestLogger())
	verify := NewTokenVerifier(svc)

	r := chi.NewRouter()
	r.Route("/api/auth", func(r chi.Router) {
		r.With(ContentTypeJSON).Post("/register", handler.Register)
		r.With(ContentTypeJSON).Post("/login", handler.Login)
		r.With(middleware.Auth(verify)).Get("/check-status", handler.CheckStatus)
	})
	return r
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

// decodeAuthError decodes the flat error body written by the auth middleware.
func decodeAuthError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	err := json.NewDecoder(rec.Body).Decode(&body)
	require.NoError(t, err)
	return body
}

const authTestUserID = "550e8400-e29b-41d4-a716-446655440001"

// hashPassword generates a bcrypt hash at minimum cost to keep tests fast.
func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func activeTestUser(t *testing.T) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	return &domain.User{
		ID:           authTestUserID,
		Email:        "test1@google.com",
		PasswordHash: hashPassword(t, "Abc123"),
		FullName:     "Test One",
		Roles:        []string{domain.RoleUser},
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func postJSON(router http.Handler, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// ============================================================================
// Register Tests
// ============================================================================

func TestRegister_Success(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupAuthRouter(handlerTestAuthService(userRepo))

	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	rec := postJSON(router, "/api/auth/register", RegisterRequest{
		Email:    "New.User@Example.COM",
		Password: "Abc123",
		FullName: "New User",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, data["token"])
	user, ok := data["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "new.user@example.com", user["email"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "id")
	userRepo.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupAuthRouter(handlerTestAuthService(userRepo))

	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).
		Return(apperrors.AlreadyExists("user", "email", "test1@google.com"))

	rec := postJSON(router, "/api/auth/register", RegisterRequest{
		Email:    "test1@google.com",
		Password: "Abc123",
		FullName: "Test One",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ALREADY_EXISTS", resp.Error.Code)
}

func TestRegister_InvalidJSON(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupAuthRouter(handlerTestAuthService(userRepo))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader([]byte(`{invalid`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestRegister_ValidationError(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupAuthRouter(handlerTestAuthService(userRepo))

	// Password below the 6 character minimum and a malformed email.
	rec := postJSON(router, "/api/auth/register", RegisterRequest{
		Email:    "not-an-email",
		Password: "abc",
		FullName: "Test",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_WrongContentType(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupAuthRouter(handlerTestAuthService(userRepo))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

// ============================================================================
// Login Tests
// ============================================================================

func TestLogin_Success(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupAuthRouter(handlerTestAuthService(userRepo))

	user := activeTestUser(t)
	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

	rec := postJSON(router, "/api/auth/login", LoginRequest{
		Email:    user.Email,
		Password: "Abc123",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, data["token"])
	userRepo.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupAuthRouter(handlerTestAuthService(userRepo))

	user := activeTestUser(t)
	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

	rec := postJSON(router, "/api/auth/login", LoginRequest{
		Email:    user.Email,
		Password: "wrong-password",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "credentials are not valid", resp.Error.Message)
}

func TestLogin_UnknownEmailSameMessage(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupAuthRouter(handlerTestAuthService(userRepo))

	userRepo.On("GetByEmail", mock.Anything, "nobody@google.com").
		Return(nil, apperrors.NotFound("user", "nobody@google.com"))

	rec := postJSON(router, "/api/auth/login", LoginRequest{
		Email:    "nobody@google.com",
		Password: "Abc123",
	})

	// Unknown email must be indistinguishable from a wrong password.
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "credentials are not valid", resp.Error.Message)
}

func TestLogin_InactiveUser(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupAuthRouter(handlerTestAuthService(userRepo))

	user := activeTestUser(t)
	user.IsActive = false
	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

	rec := postJSON(router, "/api/auth/login", LoginRequest{
		Email:    user.Email,
		Password: "Abc123",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "user is inactive, talk to admin", resp.Error.Message)
}

// ============================================================================
// CheckStatus Tests
// ============================================================================

func TestCheckStatus_Success(t *testing.T) {
	userRepo := new(mockUserRepo)
	svc := handlerTestAuthService(userRepo)
	router := setupAuthRouter(svc)

	user := activeTestUser(t)
	userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	token, err := handlerTestTokens().Sign(user.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/check-status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	fresh, ok := data["token"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, fresh)

	// The reissued token must itself verify back to the same user.
	subject, err := handlerTestTokens().Verify(fresh)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)
}

func TestCheckStatus_NoCredentials(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupAuthRouter(handlerTestAuthService(userRepo))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/check-status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeAuthError(t, rec)
	assert.Equal(t, "no credentials provided", body["message"])
}

func TestCheckStatus_InvalidToken(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupAuthRouter(handlerTestAuthService(userRepo))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/check-status", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeAuthError(t, rec)
	assert.Equal(t, "token not valid", body["message"])
}

func TestCheckStatus_DeactivatedSinceIssue(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupAuthRouter(handlerTestAuthService(userRepo))

	user := activeTestUser(t)
	user.IsActive = false
	userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	token, err := handlerTestTokens().Sign(user.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/check-status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeAuthError(t, rec)
	assert.Equal(t, "user is inactive, talk to admin", body["message"])
}
