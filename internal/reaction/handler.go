// AngelaMos | 2026
// handler.go

package reaction

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/articles-api/internal/article"
	"github.com/carterperez-dev/articles-api/internal/core"
	"github.com/carterperez-dev/articles-api/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/articles/{articleID}/like", h.toggle(ActionLike))
		r.Post("/articles/{articleID}/dislike", h.toggle(ActionDislike))
		r.Get("/articles/{articleID}/likes", h.GetLikes)
		r.Get("/user/total-likes", h.GetUserTotalLikes)
	})
}

func (h *Handler) toggle(action Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := article.ArticleID(w, r)
		if !ok {
			return
		}

		resp, err := h.service.Toggle(r.Context(), middleware.GetActor(r.Context()), id, action)
		if err != nil {
			writeError(w, err)
			return
		}

		core.OKMessage(w, resp.Message, resp)
	}
}

func (h *Handler) GetLikes(w http.ResponseWriter, r *http.Request) {
	id, ok := article.ArticleID(w, r)
	if !ok {
		return
	}

	resp, err := h.service.GetLikes(r.Context(), middleware.GetActor(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) GetUserTotalLikes(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.GetUserTotalLikes(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, resp)
}

func writeError(w http.ResponseWriter, err error) {
	if !core.IsAppError(err) && errors.Is(err, core.ErrNotFound) {
		core.NotFound(w, "article")
		return
	}
	core.JSONError(w, err)
}
