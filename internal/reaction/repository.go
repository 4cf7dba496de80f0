// AngelaMos | 2026
// repository.go

package reaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/articles-api/internal/core"
)

// Tx is the set of writes a toggle performs. Every method runs inside the
// transaction opened by Repository.InTx.
type Tx interface {
	LockArticle(ctx context.Context, articleID string) error
	FindReaction(ctx context.Context, userID, articleID string) (*Like, error)
	InsertReaction(ctx context.Context, like *Like) error
	SetReaction(ctx context.Context, id string, liked bool) error
	DeleteReaction(ctx context.Context, id string) error
	AdjustCounters(ctx context.Context, articleID string, likes, dislikes int) (Counters, error)
}

type Repository interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	CountReactions(ctx context.Context, articleID string) (Counters, error)
	Likers(ctx context.Context, articleID string) ([]Liker, error)
	TotalLikes(ctx context.Context, ownerID string) (int, error)
	Recount(ctx context.Context) (int, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&txRepository{tx: tx})
	})
}

// CountReactions counts Like rows directly instead of trusting the
// materialized counters. A missing article is reported as not found.
func (r *repository) CountReactions(ctx context.Context, articleID string) (Counters, error) {
	query := `
		SELECT COUNT(l.id) FILTER (WHERE l.liked)     AS likes_count,
		       COUNT(l.id) FILTER (WHERE NOT l.liked) AS dislikes_count
		FROM articles a
		LEFT JOIN likes l ON l.article_id = a.id
		WHERE a.id = $1
		GROUP BY a.id`

	var c Counters
	err := r.db.GetContext(ctx, &c, query, articleID)
	if errors.Is(err, sql.ErrNoRows) {
		return Counters{}, fmt.Errorf("count reactions: %w", core.ErrNotFound)
	}
	if err != nil {
		return Counters{}, fmt.Errorf("count reactions: %w", err)
	}

	return c, nil
}

func (r *repository) Likers(ctx context.Context, articleID string) ([]Liker, error) {
	query := `
		SELECT l.user_id, u.name, pi.image_path AS profile_image
		FROM likes l
		JOIN users u ON u.id = l.user_id
		LEFT JOIN profile_images pi ON pi.user_id = l.user_id
		WHERE l.article_id = $1 AND l.liked
		ORDER BY l.created_at`

	likers := []Liker{}
	if err := r.db.SelectContext(ctx, &likers, query, articleID); err != nil {
		return nil, fmt.Errorf("list likers: %w", err)
	}
	return likers, nil
}

func (r *repository) TotalLikes(ctx context.Context, ownerID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM likes l
		JOIN articles a ON a.id = l.article_id
		WHERE a.user_id = $1 AND l.liked`

	var total int
	if err := r.db.GetContext(ctx, &total, query, ownerID); err != nil {
		return 0, fmt.Errorf("count user likes: %w", err)
	}
	return total, nil
}

// Recount rewrites the counters of every article whose materialized values
// drifted from its Like rows and returns how many were repaired.
func (r *repository) Recount(ctx context.Context) (int, error) {
	query := `
		UPDATE articles a
		SET likes_count = c.likes, dislikes_count = c.dislikes
		FROM (
			SELECT ar.id,
			       COUNT(l.id) FILTER (WHERE l.liked)     AS likes,
			       COUNT(l.id) FILTER (WHERE NOT l.liked) AS dislikes
			FROM articles ar
			LEFT JOIN likes l ON l.article_id = ar.id
			GROUP BY ar.id
		) c
		WHERE a.id = c.id
		  AND (a.likes_count <> c.likes OR a.dislikes_count <> c.dislikes)`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("recount reactions: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("recount reactions: %w", err)
	}
	return int(n), nil
}

type txRepository struct {
	tx *sqlx.Tx
}

// LockArticle takes the article row lock that serializes every toggle on
// the same article.
func (t *txRepository) LockArticle(ctx context.Context, articleID string) error {
	var id string
	err := t.tx.GetContext(ctx, &id,
		`SELECT id FROM articles WHERE id = $1 FOR UPDATE`, articleID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lock article: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock article: %w", err)
	}
	return nil
}

func (t *txRepository) FindReaction(
	ctx context.Context,
	userID, articleID string,
) (*Like, error) {
	query := `
		SELECT id, user_id, article_id, liked, created_at, updated_at
		FROM likes
		WHERE user_id = $1 AND article_id = $2`

	var like Like
	err := t.tx.GetContext(ctx, &like, query, userID, articleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find reaction: %w", err)
	}
	return &like, nil
}

func (t *txRepository) InsertReaction(ctx context.Context, like *Like) error {
	query := `
		INSERT INTO likes (id, user_id, article_id, liked)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := t.tx.QueryRowxContext(ctx, query,
		like.ID,
		like.UserID,
		like.ArticleID,
		like.Liked,
	).Scan(&like.CreatedAt, &like.UpdatedAt)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("insert reaction: %w", core.ErrDuplicateKey)
		}
		if core.IsForeignKeyViolation(err) {
			return fmt.Errorf("insert reaction: %w", core.ErrNotFound)
		}
		return fmt.Errorf("insert reaction: %w", err)
	}
	return nil
}

func (t *txRepository) SetReaction(ctx context.Context, id string, liked bool) error {
	return t.execOne(ctx, "update reaction",
		`UPDATE likes SET liked = $2, updated_at = NOW() WHERE id = $1`, id, liked)
}

func (t *txRepository) DeleteReaction(ctx context.Context, id string) error {
	return t.execOne(ctx, "delete reaction", `DELETE FROM likes WHERE id = $1`, id)
}

func (t *txRepository) AdjustCounters(
	ctx context.Context,
	articleID string,
	likes, dislikes int,
) (Counters, error) {
	query := `
		UPDATE articles
		SET likes_count = likes_count + $2, dislikes_count = dislikes_count + $3
		WHERE id = $1
		RETURNING likes_count, dislikes_count`

	var c Counters
	err := t.tx.GetContext(ctx, &c, query, articleID, likes, dislikes)
	if errors.Is(err, sql.ErrNoRows) {
		return Counters{}, fmt.Errorf("adjust counters: %w", core.ErrNotFound)
	}
	if err != nil {
		return Counters{}, fmt.Errorf("adjust counters: %w", err)
	}
	return c, nil
}

func (t *txRepository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := t.tx.ExecContext(ctx, query, args...)
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
