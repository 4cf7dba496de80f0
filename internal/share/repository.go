// AngelaMos | 2026
// repository.go

package share

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/articles-api/internal/core"
)

type Repository interface {
	ArticleExists(ctx context.Context, articleID string) (bool, error)
	UserExists(ctx context.Context, userID string) (bool, error)
	Create(ctx context.Context, s *Share) error
	ListReceived(ctx context.Context, recipientID string) ([]Received, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) ArticleExists(ctx context.Context, articleID string) (bool, error) {
	return r.exists(ctx, "article", `SELECT EXISTS(SELECT 1 FROM articles WHERE id = $1)`, articleID)
}

func (r *repository) UserExists(ctx context.Context, userID string) (bool, error) {
	return r.exists(ctx, "user", `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID)
}

func (r *repository) exists(ctx context.Context, what, query, id string) (bool, error) {
	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, id); err != nil {
		return false, fmt.Errorf("check %s exists: %w", what, err)
	}
	return ok, nil
}

func (r *repository) Create(ctx context.Context, s *Share) error {
	query := `
		INSERT INTO shares (id, sender_id, recipient_id, article_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		s.ID,
		s.SenderID,
		s.RecipientID,
		s.ArticleID,
	).Scan(&s.CreatedAt)
	if err != nil {
		if core.IsForeignKeyViolation(err) {
			return fmt.Errorf("create share: %w", core.ErrNotFound)
		}
		return fmt.Errorf("create share: %w", err)
	}
	return nil
}

func (r *repository) ListReceived(ctx context.Context, recipientID string) ([]Received, error) {
	query := `
		SELECT s.id, s.sender_id, s.recipient_id, s.article_id, s.created_at,
		       u.name AS sender_name, pi.image_path AS sender_image,
		       a.id             AS "article.id",
		       a.title          AS "article.title",
		       a.content        AS "article.content",
		       a.image          AS "article.image",
		       a.user_id        AS "article.user_id",
		       a.is_archived    AS "article.is_archived",
		       a.likes_count    AS "article.likes_count",
		       a.dislikes_count AS "article.dislikes_count",
		       a.created_at     AS "article.created_at",
		       a.updated_at     AS "article.updated_at"
		FROM shares s
		JOIN users u ON u.id = s.sender_id
		LEFT JOIN profile_images pi ON pi.user_id = s.sender_id
		JOIN articles a ON a.id = s.article_id
		WHERE s.recipient_id = $1
		ORDER BY s.created_at DESC, s.id DESC`

	received := []Received{}
	if err := r.db.SelectContext(ctx, &received, query, recipientID); err != nil {
		return nil, fmt.Errorf("list received shares: %w", err)
	}
	return received, nil
}
