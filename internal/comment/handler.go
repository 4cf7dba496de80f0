// AngelaMos | 2026
// handler.go

package comment

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

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/articles/{articleID}/comment", h.Create)
		r.Get("/articles/{articleID}/comments", h.List)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	articleID, ok := article.ArticleID(w, r)
	if !ok {
		return
	}

	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.ValidationFailed(w, err)
		return
	}

	resp, err := h.service.Create(r.Context(), middleware.GetActor(r.Context()), articleID, req.Content)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.CreatedMessage(w, "Comment added successfully", resp)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	articleID, ok := article.ArticleID(w, r)
	if !ok {
		return
	}

	comments, err := h.service.List(r.Context(), middleware.GetActor(r.Context()), articleID)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, comments)
}
