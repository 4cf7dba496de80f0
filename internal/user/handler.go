// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/articles-api/internal/blob"
	"github.com/carterperez-dev/articles-api/internal/core"
	"github.com/carterperez-dev/articles-api/internal/middleware"
)

const profileImageField = "profile_image"

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
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/me", h.GetMe)
		r.Put("/updateProfile", h.UpdateProfile)
		r.Post("/updateProfileImage", h.UpdateProfileImage)
		r.Delete("/delete-account", h.DeleteAccount)

		r.Put("/users/{userID}", h.UpdateUser)
		r.Delete("/users/{userID}", h.DeleteUser)

		r.With(adminOnly).Get("/all-users", h.ListUsers)
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetMe(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, user)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeUpdate(w, r)
	if !ok {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), middleware.GetActor(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OKMessage(w, "Profile updated successfully", user)
}

func (h *Handler) UpdateProfileImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageBytes+(1<<20))
	if err := r.ParseMultipartForm(h.maxImageBytes); err != nil {
		core.JSONError(w, core.ValidationError(
			"invalid multipart form",
			map[string]string{profileImageField: "is required"},
		))
		return
	}

	_, fh, err := r.FormFile(profileImageField)
	if err != nil {
		core.JSONError(w, core.ValidationError(
			"profile image is required",
			map[string]string{profileImageField: "is required"},
		))
		return
	}

	img, err := blob.ReadImage(profileImageField, fh, h.maxImageBytes)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	user, err := h.service.UpdateProfileImage(r.Context(), middleware.GetActor(r.Context()), img)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OKMessage(w, "Profile image updated successfully", user)
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteAccount(r.Context(), middleware.GetActor(r.Context())); err != nil {
		writeError(w, err)
		return
	}

	core.OKMessage(w, "Account deleted successfully", nil)
}

// ListUsers returns a paginated list of users with optional filtering.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := ListUsersParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
		Role:     r.URL.Query().Get("role"),
	}
	params.Normalize()

	users, total, err := h.service.ListUsers(r.Context(), middleware.GetActor(r.Context()), params)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Paginated(w, users, params.Page, params.PageSize, total)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeUpdate(w, r)
	if !ok {
		return
	}

	user, err := h.service.UpdateUser(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "userID"),
		req,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OKMessage(w, "User updated successfully", user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteUser(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "userID"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OKMessage(w, "User deleted successfully", nil)
}

func (h *Handler) decodeUpdate(w http.ResponseWriter, r *http.Request) (UpdateProfileRequest, bool) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return req, false
	}

	if err := h.validator.Struct(req); err != nil {
		core.ValidationFailed(w, err)
		return req, false
	}

	return req, true
}

func writeError(w http.ResponseWriter, err error) {
	if !core.IsAppError(err) && errors.Is(err, core.ErrNotFound) {
		core.NotFound(w, "user")
		return
	}
	core.JSONError(w, err)
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
