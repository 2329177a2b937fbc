package http

import (
	"log/slog"
	"net/http"

	"github.com/Navau/teslo-shop-nest/internal/service"
	"github.com/Navau/teslo-shop-nest/pkg/httputil"
)

// SeedHandler handles HTTP requests for the database seed endpoint.
type SeedHandler struct {
	service *service.SeedService
	logger  *slog.Logger
}

// NewSeedHandler creates a new seed HTTP handler.
func NewSeedHandler(svc *service.SeedService, logger *slog.Logger) *SeedHandler {
	return &SeedHandler{service: svc, logger: logger}
}

// Run handles GET /api/seed. It wipes all data and loads the demo dataset.
func (h *SeedHandler) Run(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Run(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}
