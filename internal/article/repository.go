// AngelaMos | 2026
// repository.go

package article

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/articles-api/internal/core"
)

type Repository interface {
	Create(ctx context.Context, a *Article) error
	GetByID(ctx context.Context, id string) (*Article, error)
	GetRow(ctx context.Context, id, viewerID string) (*Row, error)
	List(ctx context.Context, viewerID string, limit, offset int) ([]Row, int, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Row, int, error)
	Reactions(ctx context.Context, articleID string) ([]Reaction, error)
	Likers(ctx context.Context, articleIDs []string) ([]Liker, error)
	Update(ctx context.Context, a *Article) error
	Archive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const selectRow = `
	SELECT a.id, a.title, a.content, a.image, a.user_id, a.is_archived,
	       a.likes_count, a.dislikes_count, a.created_at, a.updated_at,
	       u.name AS author_name, pi.image_path AS author_image,
	       EXISTS (
	           SELECT 1 FROM likes l
	           WHERE l.article_id = a.id AND l.user_id = $1 AND l.liked
	       ) AS user_like
	FROM articles a
	JOIN users u ON u.id = a.user_id
	LEFT JOIN profile_images pi ON pi.user_id = a.user_id`

func (r *repository) Create(ctx context.Context, a *Article) error {
	query := `
		INSERT INTO articles (id, title, content, image, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING is_archived, likes_count, dislikes_count, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		a.ID,
		a.Title,
		a.Content,
		a.Image,
		a.UserID,
	).Scan(&a.IsArchived, &a.LikesCount, &a.DislikesCount, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if core.IsForeignKeyViolation(err) {
			return fmt.Errorf("create article: owner: %w", core.ErrNotFound)
		}
		return fmt.Errorf("create article: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Article, error) {
	query := `
		SELECT id, title, content, image, user_id, is_archived,
		       likes_count, dislikes_count, created_at, updated_at
		FROM articles
		WHERE id = $1`

	var a Article
	err := r.db.GetContext(ctx, &a, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get article: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}

	return &a, nil
}

func (r *repository) GetRow(ctx context.Context, id, viewerID string) (*Row, error) {
	var row Row
	err := r.db.GetContext(ctx, &row, selectRow+` WHERE a.id = $2`, viewerID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get article: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}

	return &row, nil
}

func (r *repository) List(
	ctx context.Context,
	viewerID string,
	limit, offset int,
) ([]Row, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM articles`); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	query := selectRow + `
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $2 OFFSET $3`

	rows := []Row{}
	if err := r.db.SelectContext(ctx, &rows, query, viewerID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}

	return rows, total, nil
}

func (r *repository) ListByOwner(
	ctx context.Context,
	ownerID string,
	limit, offset int,
) ([]Row, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM articles WHERE user_id = $1`, ownerID)
	if err != nil {
		return nil, 0, fmt.Errorf("count user articles: %w", err)
	}

	query := selectRow + `
		WHERE a.user_id = $1
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $2 OFFSET $3`

	rows := []Row{}
	if err := r.db.SelectContext(ctx, &rows, query, ownerID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list user articles: %w", err)
	}

	return rows, total, nil
}

func (r *repository) Reactions(ctx context.Context, articleID string) ([]Reaction, error) {
	query := `
		SELECT l.user_id, u.name, pi.image_path AS profile_image, l.liked
		FROM likes l
		JOIN users u ON u.id = l.user_id
		LEFT JOIN profile_images pi ON pi.user_id = l.user_id
		WHERE l.article_id = $1
		ORDER BY l.created_at`

	reactions := []Reaction{}
	if err := r.db.SelectContext(ctx, &reactions, query, articleID); err != nil {
		return nil, fmt.Errorf("list reactions: %w", err)
	}
	return reactions, nil
}

// Likers returns the users currently liking any of articleIDs in one query.
func (r *repository) Likers(ctx context.Context, articleIDs []string) ([]Liker, error) {
	likers := []Liker{}
	if len(articleIDs) == 0 {
		return likers, nil
	}

	query, args, err := sqlx.In(`
		SELECT l.article_id, l.user_id, u.name, pi.image_path AS profile_image
		FROM likes l
		JOIN users u ON u.id = l.user_id
		LEFT JOIN profile_images pi ON pi.user_id = l.user_id
		WHERE l.liked AND l.article_id IN (?)
		ORDER BY l.created_at`, articleIDs)
	if err != nil {
		return nil, fmt.Errorf("build likers query: %w", err)
	}

	if err := r.db.SelectContext(ctx, &likers, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list likers: %w", err)
	}
	return likers, nil
}

func (r *repository) Update(ctx context.Context, a *Article) error {
	query := `
		UPDATE articles
		SET title = $2, content = $3, image = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &a.UpdatedAt, query, a.ID, a.Title, a.Content, a.Image)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update article: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}

	return nil
}

func (r *repository) Archive(ctx context.Context, id string) error {
	return r.execOne(ctx, "archive article",
		`UPDATE articles SET is_archived = TRUE, updated_at = NOW() WHERE id = $1`, id)
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, "delete article", `DELETE FROM articles WHERE id = $1`, id)
}

func (r *repository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
