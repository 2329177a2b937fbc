package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Navau/teslo-shop-nest/internal/domain"
	"github.com/Navau/teslo-shop-nest/internal/event"
	"github.com/Navau/teslo-shop-nest/internal/service"
	apperrors "github.com/Navau/teslo-shop-nest/pkg/errors"
	"github.com/Navau/teslo-shop-nest/pkg/middleware"
)

const productTestID = "550e8400-e29b-41d4-a716-446655440002"

func productTestService(productRepo *mockProductRepo) *service.ProductService {
	logger := handlerTestLogger()
	producer := event.NewProducer(noopPublisher{}, logger)
	return service.NewProductService(productRepo, producer, logger)
}

// staticVerifier resolves every token to the given principal, so role guard
// behavior can be tested without minting real tokens.
func staticVerifier(p *middleware.Principal) middleware.TokenVerifier {
	return func(ctx context.Context, token string) (*middleware.Principal, error) {
		return p, nil
	}
}

func regularPrincipal() *middleware.Principal {
	return &middleware.Principal{
		ID:       authTestUserID,
		Email:    "test1@google.com",
		FullName: "Test One",
		Roles:    []string{domain.RoleUser},
	}
}

func adminPrincipal() *middleware.Principal {
	p := regularPrincipal()
	p.Roles = []string{domain.RoleAdmin}
	return p
}

// setupProductRouter mirrors the production /api/products routes: reads are
// public, creates need a token, updates and deletes need an elevated role.
func setupProductRouter(svc *service.ProductService, principal *middleware.Principal) *chi.Mux {
	handler := NewProductHandler(svc, handlerTestLogger())

	r := chi.NewRouter()
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", handler.List)
		r.Get("/{term}", handler.Get)

		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(middleware.Auth(staticVerifier(principal)))

			r.Post("/", handler.Create)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRoles(domain.RoleAdmin, domain.RoleSuperUser))

				r.Put("/{id}", handler.Update)
				r.Delete("/{id}", handler.Delete)
			})
		})
	})
	return r
}

func sampleTestProduct() *domain.Product {
	now := time.Now().UTC()
	return &domain.Product{
		ID:          productTestID,
		Title:       "Men's Chill Crew Neck Sweatshirt",
		Price:       75,
		Description: "Introducing the Tesla Chill Collection.",
		Slug:        "men-s-chill-crew-neck-sweatshirt",
		Stock:       7,
		Sizes:       []string{"XS", "S", "M"},
		Gender:      domain.GenderMen,
		Tags:        []string{"sweatshirt"},
		Images:      []string{"1740176-00-A_0_2000.jpg"},
		UserID:      authTestUserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ============================================================================
// List Tests
// ============================================================================

func TestListProducts_Success(t *testing.T) {
	productRepo := new(mockProductRepo)
	router := setupProductRouter(productTestService(productRepo), regularPrincipal())

	products := []domain.Product{*sampleTestProduct()}
	productRepo.On("List", mock.Anything, mock.AnythingOfType("pagination.Params")).Return(products, 1, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products?page=1&per_page=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), data["total_count"])
	productRepo.AssertExpectations(t)
}

func TestListProducts_Empty(t *testing.T) {
	productRepo := new(mockProductRepo)
	router := setupProductRouter(productTestService(productRepo), regularPrincipal())

	productRepo.On("List", mock.Anything, mock.AnythingOfType("pagination.Params")).Return([]domain.Product{}, 0, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	list, ok := data["data"].([]any)
	require.True(t, ok)
	assert.Empty(t, list)
}

func TestListProducts_InternalError(t *testing.T) {
	productRepo := new(mockProductRepo)
	router := setupProductRouter(productTestService(productRepo), regularPrincipal())

	productRepo.On("List", mock.Anything, mock.AnythingOfType("pagination.Params")).Return(nil, 0, assert.AnError)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// ============================================================================
// Get Tests
// ============================================================================

func TestGetProduct_BySlug(t *testing.T) {
	productRepo := new(mockProductRepo)
	router := setupProductRouter(productTestService(productRepo), regularPrincipal())

	product := sampleTestProduct()
	productRepo.On("GetByTerm", mock.Anything, product.Slug).Return(product, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products/"+product.Slug, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	productRepo.AssertExpectations(t)
}

func TestGetProduct_NotFound(t *testing.T) {
	productRepo := new(mockProductRepo)
	router := setupProductRouter(productTestService(productRepo), regularPrincipal())

	productRepo.On("GetByTerm", mock.Anything, "missing-slug").
		Return(nil, apperrors.NotFound("product", "missing-slug"))

	req := httptest.NewRequest(http.MethodGet, "/api/products/missing-slug", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

// ============================================================================
// Create Tests
// ============================================================================

func TestCreateProduct_Success(t *testing.T) {
	productRepo := new(mockProductRepo)
	router := setupProductRouter(productTestService(productRepo), regularPrincipal())

	productRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

	body := CreateProductRequest{
		Title:  "Men's Chill Crew Neck Sweatshirt",
		Price:  75,
		Gender: "men",
		Sizes:  []string{"XS", "S"},
	}
	b, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader(b))
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "men-s-chill-crew-neck-sweatshirt", data["slug"])
	productRepo.AssertExpectations(t)
}

func TestCreateProduct_NoCredentials(t *testing.T) {
	productRepo := new(mockProductRepo)
	router := setupProductRouter(productTestService(productRepo), regularPrincipal())

	body := `{"title":"Hat","price":30,"gender":"unisex"}`
	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	errBody := decodeAuthError(t, rec)
	assert.Equal(t, "no credentials provided", errBody["message"])
	productRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateProduct_InvalidGender(t *testing.T) {
	productRepo := new(mockProductRepo)
	router := setupProductRouter(productTestService(productRepo), regularPrincipal())

	body := CreateProductRequest{
		Title:  "Hat",
		Price:  30,
		Gender: "other",
	}
	b, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader(b))
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestCreateProduct_InvalidJSON(t *testing.T) {
	productRepo := new(mockProductRepo)
	router := setupProductRouter(productTestService(productRepo), regularPrincipal())

	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader([]byte(`{bad`)))
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================================================
// Update Tests
// ============================================================================

func TestUpdateProduct_AdminSuccess(t *testing.T) {
	productRepo := new(mockProductRepo)
	router := setupProductRouter(productTestService(productRepo), adminPrincipal())

	product := sampleTestProduct()
	productRepo.On("GetByID", mock.Anything, productTestID).Return(product, nil)
	productRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

	newTitle := "Updated Sweatshirt"
	body := UpdateProductRequest{Title: &newTitle}
	b, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPut, "/api/products/"+productTestID, bytes.NewReader(b))
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Updated Sweatshirt", data["title"])
	productRepo.AssertExpectations(t)
}

func TestUpdateProduct_RegularUserForbidden(t *testing.T) {
	productRepo := new(mockProductRepo)
	router := setupProductRouter(productTestService(productRepo), regularPrincipal())

	newTitle := "Updated"
	body := UpdateProductRequest{Title: &newTitle}
	b, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPut, "/api/products/"+productTestID, bytes.NewReader(b))
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	errBody := decodeAuthError(t, rec)
	assert.Equal(t, "user Test One needs a valid role: [admin, super-user]", errBody["message"])
	productRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateProduct_InvalidUUID(t *testing.T) {
	productRepo := new(mockProductRepo)
	router := setupProductRouter(productTestService(productRepo), adminPrincipal())

	newTitle := "Updated"
	body := UpdateProductRequest{Title: &newTitle}
	b, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPut, "/api/products/not-a-uuid", bytes.NewReader(b))
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}

func TestUpdateProduct_NotFound(t *testing.T) {
	productRepo := new(mockProductRepo)
	router := setupProductRouter(productTestService(productRepo), adminPrincipal())

	productRepo.On("GetByID", mock.Anything, productTestID).
		Return(nil, apperrors.NotFound("product", productTestID))

	newTitle := "Updated"
	body := UpdateProductRequest{Title: &newTitle}
	b, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPut, "/api/products/"+productTestID, bytes.NewReader(b))
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ============================================================================
// Delete Tests
// ============================================================================

func TestDeleteProduct_SuperUserSuccess(t *testing.T) {
	productRepo := new(mockProductRepo)
	principal := regularPrincipal()
	principal.Roles = []string{domain.RoleSuperUser}
	router := setupProductRouter(productTestService(productRepo), principal)

	productRepo.On("Delete", mock.Anything, productTestID).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/products/"+productTestID, nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	productRepo.AssertExpectations(t)
}

func TestDeleteProduct_RegularUserForbidden(t *testing.T) {
	productRepo := new(mockProductRepo)
	router := setupProductRouter(productTestService(productRepo), regularPrincipal())

	req := httptest.NewRequest(http.MethodDelete, "/api/products/"+productTestID, nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	productRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	productRepo := new(mockProductRepo)
	router := setupProductRouter(productTestService(productRepo), adminPrincipal())

	productRepo.On("Delete", mock.Anything, productTestID).
		Return(apperrors.NotFound("product", productTestID))

	req := httptest.NewRequest(http.MethodDelete, "/api/products/"+productTestID, nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
