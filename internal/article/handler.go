// AngelaMos | 2026
// handler.go

package article

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/articles-api/internal/blob"
	"github.com/carterperez-dev/articles-api/internal/core"
	"github.com/carterperez-dev/articles-api/internal/middleware"
)

const imageField = "image"

type Handler struct {
	service       *Service
	validator     *validator.Validate
	maxImageBytes int64
}

func NewHandler(service *Service, maxImageBytes int64) *Handler {
	return &Handler{
		service:       service,
		validator:     core.NewValidator(),
		maxImageBytes: maxImageBytes,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/articles", h.List)
		r.Post("/articles", h.Create)
		r.Get("/articles/{articleID}", h.Get)
		r.Put("/articles/{articleID}", h.Update)
		r.Delete("/articles/{articleID}", h.Delete)
		r.Post("/articles/{articleID}/archive", h.Archive)
		r.Get("/user-articles", h.ListMine)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := PageParam(r)

	items, total, err := h.service.List(r.Context(), middleware.GetActor(r.Context()), page)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Paginated(w, items, page, PageSize, total)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	page := PageParam(r)

	items, total, err := h.service.ListMine(r.Context(), middleware.GetActor(r.Context()), page)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Paginated(w, items, page, PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ArticleID(w, r)
	if !ok {
		return
	}

	detail, err := h.service.Get(r.Context(), middleware.GetActor(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, detail)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var (
		req CreateArticleRequest
		img *blob.Image
	)

	if isMultipart(r) {
		form, ok := h.readForm(w, r)
		if !ok {
			return
		}
		req.Title = form.value("title")
		req.Content = form.value("content")
		img = form.image
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.ValidationFailed(w, err)
		return
	}

	resp, err := h.service.Create(r.Context(), middleware.GetActor(r.Context()), CreateInput{
		Title:   req.Title,
		Content: req.Content,
		Image:   img,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	core.CreatedMessage(w, "Article created successfully", resp)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ArticleID(w, r)
	if !ok {
		return
	}

	var (
		req UpdateArticleRequest
		img *blob.Image
	)

	if isMultipart(r) {
		form, ok := h.readForm(w, r)
		if !ok {
			return
		}
		req.Title = form.optional("title")
		req.Content = form.optional("content")
		img = form.image
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.ValidationFailed(w, err)
		return
	}

	resp, err := h.service.Update(r.Context(), middleware.GetActor(r.Context()), id, UpdateInput{
		Title:   req.Title,
		Content: req.Content,
		Image:   img,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	core.OKMessage(w, "Article updated successfully", resp)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ArticleID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), middleware.GetActor(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}

	core.OKMessage(w, "Article deleted successfully", nil)
}

func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	id, ok := ArticleID(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Archive(r.Context(), middleware.GetActor(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OKMessage(w, "Article archived successfully", resp)
}

type articleForm struct {
	values map[string][]string
	image  *blob.Image
}

func (f articleForm) value(key string) string {
	if v := f.values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func (f articleForm) optional(key string) *string {
	if v, ok := f.values[key]; ok && len(v) > 0 {
		return &v[0]
	}
	return nil
}

func (h *Handler) readForm(w http.ResponseWriter, r *http.Request) (articleForm, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageBytes+(1<<20))
	if err := r.ParseMultipartForm(h.maxImageBytes); err != nil {
		core.BadRequest(w, "invalid multipart form")
		return articleForm{}, false
	}

	form := articleForm{values: r.MultipartForm.Value}

	files := r.MultipartForm.File[imageField]
	if len(files) > 0 {
		img, err := blob.ReadImage(imageField, files[0], h.maxImageBytes)
		if err != nil {
			core.JSONError(w, err)
			return articleForm{}, false
		}
		form.image = img
	}

	return form, true
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// ArticleID reads the {articleID} URL parameter. Anything that is not a
// UUID cannot name an article, so it is reported as not found.
func ArticleID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "articleID")
	if _, err := uuid.Parse(id); err != nil {
		core.NotFound(w, "article")
		return "", false
	}
	return id, true
}

func PageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 1
	}
	return core.ClampPage(page, PageSize)
}

func writeError(w http.ResponseWriter, err error) {
	if !core.IsAppError(err) && errors.Is(err, core.ErrNotFound) {
		core.NotFound(w, "article")
		return
	}
	core.JSONError(w, err)
}
