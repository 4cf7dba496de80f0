// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/carterperez-dev/articles-api/internal/core"
	"github.com/carterperez-dev/articles-api/internal/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already exists")
)

const denylistPrefix = "denylist:"

type UserInfo struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	Gender       string
	TokenVersion int
}

type NewAccount struct {
	Name         string
	Email        string
	PasswordHash string
	Gender       string
}

type UserProvider interface {
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	CreateAccount(ctx context.Context, account NewAccount) (*UserInfo, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SetConnected(ctx context.Context, userID string, connected bool) error
}

// TokenStore remembers revoked token ids until they would have expired.
// core.Redis satisfies it.
type TokenStore interface {
	Remember(ctx context.Context, key string, ttl time.Duration) error
	Seen(ctx context.Context, key string) (bool, error)
}

type Service struct {
	jwt          *JWTManager
	userProvider UserProvider
	tokens       TokenStore
}

func NewService(
	jwt *JWTManager,
	userProvider UserProvider,
	tokens TokenStore,
) *Service {
	return &Service{
		jwt:          jwt,
		userProvider: userProvider,
		tokens:       tokens,
	}
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
) (*AuthResponse, error) {
	user, err := s.userProvider.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // always spend one derivation so unknown emails cost the same
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, "")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, rehash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if rehash {
		s.upgradeHash(ctx, user.ID, req.Password)
	}

	if err := s.userProvider.SetConnected(ctx, user.ID, true); err != nil {
		return nil, fmt.Errorf("mark connected: %w", err)
	}

	return s.issue(user)
}

func (s *Service) upgradeHash(ctx context.Context, userID, password string) {
	newHash, err := core.HashPassword(password)
	if err == nil {
		err = s.userProvider.UpdatePassword(ctx, userID, newHash)
	}
	if err != nil {
		slog.Warn("password rehash failed", "user_id", userID, "error", err)
	}
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*AuthResponse, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userProvider.CreateAccount(ctx, NewAccount{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Gender:       req.Gender,
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issue(user)
}

// Logout revokes the presented access token for the rest of its lifetime
// and clears the user's connected flag.
func (s *Service) Logout(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
) error {
	if claims == nil {
		return core.ErrUnauthorized
	}

	if claims.TokenID != "" {
		ttl := time.Until(claims.ExpiresAt)
		if err := s.tokens.Remember(ctx, denylistPrefix+claims.TokenID, ttl); err != nil {
			return fmt.Errorf("revoke token: %w", err)
		}
	}

	if err := s.userProvider.SetConnected(ctx, claims.UserID, false); err != nil {
		return fmt.Errorf("mark disconnected: %w", err)
	}

	return nil
}

// VerifyAccessToken is the middleware.TokenVerifier used by the router: a
// cryptographically valid token is still refused once it has been logged
// out, its user deleted, or its token version superseded.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if claims.TokenID != "" {
		revoked, err := s.tokens.Seen(ctx, denylistPrefix+claims.TokenID)
		if err != nil {
			return nil, fmt.Errorf("check denylist: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
		}
	}

	if err := s.ValidateTokenVersion(ctx, claims.UserID, claims.TokenVersion); err != nil {
		return nil, err
	}

	return claims, nil
}

// ValidateTokenVersion refuses tokens minted before the user's last role
// change, and tokens of users that no longer exist.
func (s *Service) ValidateTokenVersion(
	ctx context.Context,
	userID string,
	tokenVersion int,
) error {
	user, err := s.userProvider.GetByID(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("validate token version: %w", core.ErrTokenRevoked)
	}
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	if tokenVersion < user.TokenVersion {
		return fmt.Errorf("validate token version: %w", core.ErrTokenRevoked)
	}

	return nil
}

func (s *Service) issue(user *UserInfo) (*AuthResponse, error) {
	issued, err := s.jwt.CreateAccessToken(user.ID, user.Role, user.TokenVersion)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	return &AuthResponse{
		User: UserResponse{
			ID:     user.ID,
			Email:  user.Email,
			Name:   user.Name,
			Role:   user.Role,
			Gender: user.Gender,
		},
		Token: TokenResponse{
			AccessToken: issued.Token,
			TokenType:   "Bearer",
			ExpiresIn:   int(time.Until(issued.ExpiresAt).Seconds()),
			ExpiresAt:   issued.ExpiresAt,
		},
	}, nil
}

var _ middleware.TokenVerifier = (*Service)(nil)
