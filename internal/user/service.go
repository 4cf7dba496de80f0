// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/articles-api/internal/access"
	"github.com/carterperez-dev/articles-api/internal/auth"
	"github.com/carterperez-dev/articles-api/internal/blob"
	"github.com/carterperez-dev/articles-api/internal/config"
	"github.com/carterperez-dev/articles-api/internal/core"
)

type Service struct {
	repo  Repository
	store blob.Store
}

func NewService(repo Repository, store blob.Store) *Service {
	return &Service{repo: repo, store: store}
}

func (s *Service) GetByID(ctx context.Context, id string) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) CreateAccount(
	ctx context.Context,
	account auth.NewAccount,
) (*auth.UserInfo, error) {
	user := &User{
		ID:           uuid.New().String(),
		Name:         account.Name,
		Email:        normalizeEmail(account.Email),
		PasswordHash: account.PasswordHash,
		Gender:       account.Gender,
		Role:         access.RoleUser,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) SetConnected(
	ctx context.Context,
	userID string,
	connected bool,
) error {
	return s.repo.SetConnected(ctx, userID, connected)
}

func (s *Service) GetMe(ctx context.Context, actor access.Actor) (*UserResponse, error) {
	if err := access.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	return s.toResponse(user), nil
}

func (s *Service) UpdateProfile(
	ctx context.Context,
	actor access.Actor,
	req UpdateProfileRequest,
) (*UserResponse, error) {
	return s.UpdateUser(ctx, actor, actor.ID, req)
}

// UpdateUser applies a partial update to targetID. Admins may edit anyone;
// everyone else only themselves. Role changes are admin-only and revoke the
// target's outstanding tokens.
func (s *Service) UpdateUser(
	ctx context.Context,
	actor access.Actor,
	targetID string,
	req UpdateProfileRequest,
) (*UserResponse, error) {
	if err := access.CanMutateUser(actor, targetID); err != nil {
		return nil, err
	}

	if req.Role != nil {
		if err := access.CanAssignRole(actor, *req.Role); err != nil {
			return nil, err
		}
	}

	if req.Password != nil &&
		(req.PasswordConfirmation == nil || *req.PasswordConfirmation != *req.Password) {
		return nil, core.ValidationError(
			"password confirmation does not match",
			map[string]string{"password_confirmation": "must match password"},
		)
	}

	user, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	previousRole := user.Role
	if err := applyUpdate(user, req); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.DuplicateError("email")
		}
		return nil, err
	}

	if user.Role != previousRole {
		if err := s.repo.IncrementTokenVersion(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("revoke tokens: %w", err)
		}
		user.TokenVersion++
	}

	return s.toResponse(user), nil
}

func applyUpdate(user *User, req UpdateProfileRequest) error {
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = normalizeEmail(*req.Email)
	}
	if req.Password != nil {
		hash, err := core.HashPassword(*req.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	if req.Address != nil {
		user.Address = req.Address
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.City != nil {
		user.City = req.City
	}
	if req.Country != nil {
		user.Country = req.Country
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	return nil
}

// UpdateProfileImage stores img and points the user's profile image at it.
// The previous blob is removed before the row is rewritten; a failure
// between the two leaves the row pointing at a missing blob.
func (s *Service) UpdateProfileImage(
	ctx context.Context,
	actor access.Actor,
	img *blob.Image,
) (*UserResponse, error) {
	if err := access.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	path, err := s.store.Put(ctx, blob.DirProfiles, img)
	if err != nil {
		return nil, fmt.Errorf("store profile image: %w", err)
	}

	if user.ProfileImage != nil {
		if err := s.store.Delete(ctx, *user.ProfileImage); err != nil {
			slog.Warn("delete previous profile image failed",
				"user_id", user.ID,
				"path", *user.ProfileImage,
				"error", err,
			)
		}
	}

	if err := s.repo.SetProfileImage(ctx, user.ID, path); err != nil {
		s.discard(ctx, path)
		return nil, err
	}

	user.ProfileImage = &path
	return s.toResponse(user), nil
}

func (s *Service) ListUsers(
	ctx context.Context,
	actor access.Actor,
	params ListUsersParams,
) ([]UserResponse, int, error) {
	if err := access.CanManageUsers(actor); err != nil {
		return nil, 0, err
	}

	users, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}

	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, *s.toResponse(&users[i]))
	}
	return out, total, nil
}

// DeleteUser removes targetID with its content, then its stored images.
func (s *Service) DeleteUser(
	ctx context.Context,
	actor access.Actor,
	targetID string,
) error {
	if err := access.CanMutateUser(actor, targetID); err != nil {
		return err
	}

	paths, err := s.repo.BlobPaths(ctx, targetID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, targetID); err != nil {
		return err
	}

	for _, p := range paths {
		s.discard(ctx, p)
	}

	return nil
}

func (s *Service) DeleteAccount(ctx context.Context, actor access.Actor) error {
	if err := access.RequireAuthenticated(actor); err != nil {
		return err
	}
	return s.DeleteUser(ctx, actor, actor.ID)
}

// SeedAdmin creates the configured administrator on first boot. It reports
// whether a user was created; an existing account is left untouched.
func (s *Service) SeedAdmin(ctx context.Context, cfg config.AdminConfig) (bool, error) {
	if cfg.Email == "" {
		return false, nil
	}

	email := normalizeEmail(cfg.Email)
	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	hash, err := core.HashPassword(cfg.Password)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	admin := &User{
		ID:           uuid.New().String(),
		Name:         cfg.Name,
		Email:        email,
		PasswordHash: hash,
		Gender:       GenderOther,
		Role:         access.RoleAdmin,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (s *Service) discard(ctx context.Context, path string) {
	if err := s.store.Delete(ctx, path); err != nil {
		slog.Warn("blob cleanup failed", "path", path, "error", err)
	}
}

func (s *Service) toResponse(u *User) *UserResponse {
	resp := &UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Address:     u.Address,
		Phone:       u.Phone,
		City:        u.City,
		Country:     u.Country,
		Gender:      u.Gender,
		Role:        u.Role,
		IsConnected: u.IsConnected,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
	if u.ProfileImage != nil {
		url := s.store.URL(*u.ProfileImage)
		resp.ProfileImageURL = &url
	}
	return resp
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Gender:       u.Gender,
		TokenVersion: u.TokenVersion,
	}
}

var _ auth.UserProvider = (*Service)(nil)
