// AngelaMos | 2026
// comment.go

package comment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/articles-api/internal/access"
	"github.com/carterperez-dev/articles-api/internal/blob"
	"github.com/carterperez-dev/articles-api/internal/core"
)

type Comment struct {
	ID        string    `db:"id"`
	Content   string    `db:"content"`
	UserID    string    `db:"user_id"`
	ArticleID string    `db:"article_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Row is a comment joined with its author.
type Row struct {
	Comment
	AuthorName  string  `db:"author_name"`
	AuthorImage *string `db:"author_image"`
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,max=500"`
}

type AuthorResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	ProfileImageURL *string `json:"profile_image_url"`
}

type CommentResponse struct {
	ID        string          `json:"id"`
	Content   string          `json:"content"`
	ArticleID string          `json:"article_id"`
	UserID    string          `json:"user_id"`
	User      *AuthorResponse `json:"user,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type Repository interface {
	ArticleExists(ctx context.Context, articleID string) (bool, error)
	Create(ctx context.Context, c *Comment) error
	ListByArticle(ctx context.Context, articleID string) ([]Row, error)
}

type Service struct {
	repo  Repository
	store blob.Store
}

func NewService(repo Repository, store blob.Store) *Service {
	return &Service{repo: repo, store: store}
}

// Create adds a comment from any authenticated user. Comments are immutable
// once written.
func (s *Service) Create(
	ctx context.Context,
	actor access.Actor,
	articleID, content string,
) (*CommentResponse, error) {
	if err := access.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	if err := s.requireArticle(ctx, articleID); err != nil {
		return nil, err
	}

	c := &Comment{
		ID:        uuid.New().String(),
		Content:   content,
		UserID:    actor.ID,
		ArticleID: articleID,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	resp := s.toResponse(&Row{Comment: *c})
	return &resp, nil
}

func (s *Service) List(
	ctx context.Context,
	actor access.Actor,
	articleID string,
) ([]CommentResponse, error) {
	if err := access.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	if err := s.requireArticle(ctx, articleID); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}

	out := make([]CommentResponse, 0, len(rows))
	for i := range rows {
		out = append(out, s.toResponse(&rows[i]))
	}
	return out, nil
}

func (s *Service) requireArticle(ctx context.Context, articleID string) error {
	ok, err := s.repo.ArticleExists(ctx, articleID)
	if err != nil {
		return err
	}
	if !ok {
		return core.NotFoundError("article")
	}
	return nil
}

func (s *Service) toResponse(row *Row) CommentResponse {
	resp := CommentResponse{
		ID:        row.ID,
		Content:   row.Content,
		ArticleID: row.ArticleID,
		UserID:    row.UserID,
		CreatedAt: row.CreatedAt,
	}
	if row.AuthorName != "" {
		resp.User = &AuthorResponse{ID: row.UserID, Name: row.AuthorName}
		if row.AuthorImage != nil {
			u := s.store.URL(*row.AuthorImage)
			resp.User.ProfileImageURL = &u
		}
	}
	return resp
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) ArticleExists(ctx context.Context, articleID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM articles WHERE id = $1)`, articleID)
	if err != nil {
		return false, fmt.Errorf("check article exists: %w", err)
	}
	return exists, nil
}

func (r *repository) Create(ctx context.Context, c *Comment) error {
	query := `
		INSERT INTO comments (id, content, user_id, article_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		c.ID,
		c.Content,
		c.UserID,
		c.ArticleID,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if core.IsForeignKeyViolation(err) {
			return fmt.Errorf("create comment: %w", core.ErrNotFound)
		}
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (r *repository) ListByArticle(ctx context.Context, articleID string) ([]Row, error) {
	query := `
		SELECT c.id, c.content, c.user_id, c.article_id, c.created_at, c.updated_at,
		       u.name AS author_name, pi.image_path AS author_image
		FROM comments c
		JOIN users u ON u.id = c.user_id
		LEFT JOIN profile_images pi ON pi.user_id = c.user_id
		WHERE c.article_id = $1
		ORDER BY c.created_at, c.id`

	rows := []Row{}
	err := r.db.SelectContext(ctx, &rows, query, articleID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return rows, nil
}
