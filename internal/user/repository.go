// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/articles-api/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	SetConnected(ctx context.Context, id string, connected bool) error
	SetProfileImage(ctx context.Context, userID, path string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	BlobPaths(ctx context.Context, id string) ([]string, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const selectUser = `
	SELECT u.id, u.name, u.email, u.password_hash, u.address, u.phone,
	       u.city, u.country, u.gender, u.role, u.is_connected, u.token_version,
	       pi.image_path AS profile_image, u.created_at, u.updated_at
	FROM users u
	LEFT JOIN profile_images pi ON pi.user_id = u.id`

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, gender, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING is_connected, token_version, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Gender,
		user.Role,
	).Scan(&user.IsConnected, &user.TokenVersion, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, selectUser+` WHERE u.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, selectUser+` WHERE u.email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, password_hash = $4, address = $5,
		    phone = $6, city = $7, country = $8, gender = $9, role = $10,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Address,
		user.Phone,
		user.City,
		user.Country,
		user.Gender,
		user.Role,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("update user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update password", query, id, passwordHash)
}

// IncrementTokenVersion invalidates every access token issued to the user
// so far.
func (r *repository) IncrementTokenVersion(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "increment token version", query, id)
}

func (r *repository) SetConnected(
	ctx context.Context,
	id string,
	connected bool,
) error {
	query := `UPDATE users SET is_connected = $2 WHERE id = $1`

	return r.execOne(ctx, "set connected", query, id, connected)
}

// SetProfileImage upserts the single profile image row of a user.
func (r *repository) SetProfileImage(
	ctx context.Context,
	userID, path string,
) error {
	query := `
		INSERT INTO profile_images (id, user_id, image_path)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET image_path = EXCLUDED.image_path, updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, uuid.New().String(), userID, path); err != nil {
		if core.IsForeignKeyViolation(err) {
			return fmt.Errorf("set profile image: %w", core.ErrNotFound)
		}
		return fmt.Errorf("set profile image: %w", err)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(u.email ILIKE $%d OR u.name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("u.role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := "SELECT COUNT(*) FROM users u WHERE " + whereClause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`%s
		WHERE %s
		ORDER BY u.created_at DESC
		LIMIT $%d OFFSET $%d`,
		selectUser, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	users := []User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *repository) ExistsByEmail(
	ctx context.Context,
	email string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return exists, nil
}

// BlobPaths lists every stored image that belongs to the user: article
// images and the profile image.
func (r *repository) BlobPaths(ctx context.Context, id string) ([]string, error) {
	query := `
		SELECT image FROM articles WHERE user_id = $1 AND image IS NOT NULL
		UNION ALL
		SELECT image_path FROM profile_images WHERE user_id = $1`

	paths := []string{}
	if err := r.db.SelectContext(ctx, &paths, query, id); err != nil {
		return nil, fmt.Errorf("list user blobs: %w", err)
	}
	return paths, nil
}

// Delete removes the user and everything that cascades from it. Reactions
// the user left on other people's articles are subtracted from those
// articles' counters first, in the same transaction. Those articles are
// locked before the reactions are aggregated, so the aggregate always sees
// the committed result of any toggle racing the delete.
func (r *repository) Delete(ctx context.Context, id string) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// Articles before the user row: a toggle holds its article lock
		// while its like insert waits on the user row's key share lock.
		lock := `
			SELECT id FROM articles
			WHERE id IN (SELECT article_id FROM likes WHERE user_id = $1)
			ORDER BY id
			FOR UPDATE`

		var lockedArticles []string
		if err := tx.SelectContext(ctx, &lockedArticles, lock, id); err != nil {
			return fmt.Errorf("lock reacted articles: %w", err)
		}

		var locked string
		err := tx.GetContext(ctx, &locked,
			`SELECT id FROM users WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("delete user: %w", core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}

		adjust := `
			UPDATE articles a
			SET likes_count = a.likes_count - r.liked_n,
			    dislikes_count = a.dislikes_count - r.disliked_n,
			    updated_at = NOW()
			FROM (
				SELECT article_id,
				       COUNT(*) FILTER (WHERE liked) AS liked_n,
				       COUNT(*) FILTER (WHERE NOT liked) AS disliked_n
				FROM likes
				WHERE user_id = $1
				GROUP BY article_id
			) r
			WHERE a.id = r.article_id AND a.user_id <> $1`

		if _, err := tx.ExecContext(ctx, adjust, id); err != nil {
			return fmt.Errorf("release reactions: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}

		return nil
	})
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

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
