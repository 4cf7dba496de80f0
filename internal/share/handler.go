// AngelaMos | 2026
// handler.go

package share

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/articles-api/internal/article"
	"github.com/carterperez-dev/articles-api/internal/core"
	"github.com/carterperez-dev/articles-api/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes must be mounted on the same router as the article routes;
// /articles/received is a static segment and wins over /articles/{articleID}.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/articles/{articleID}/share", h.Create)
		r.Get("/articles/received", h.ListReceived)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	articleID, ok := article.ArticleID(w, r)
	if !ok {
		return
	}

	var req CreateShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.ValidationFailed(w, err)
		return
	}

	resp, err := h.service.Create(r.Context(), middleware.GetActor(r.Context()), articleID, req.RecipientID)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.CreatedMessage(w, "Article shared successfully", resp)
}

func (h *Handler) ListReceived(w http.ResponseWriter, r *http.Request) {
	shares, err := h.service.ListReceived(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, shares)
}
