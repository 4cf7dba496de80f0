// AngelaMos | 2026
// postgres.go

//go:build integration

// Package pgtest starts one migrated PostgreSQL per test binary. It uses
// DATABASE_URL when set and a disposable container otherwise. Packages share
// nothing, so with DATABASE_URL run them one at a time (go test -p 1).
package pgtest

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/carterperez-dev/articles-api/internal/config"
	"github.com/carterperez-dev/articles-api/internal/core"
)

const image = "postgres:16-alpine"

var (
	once    sync.Once
	shared  *sqlx.DB
	bootErr error
)

// Open returns the shared database with every table emptied.
func Open(t *testing.T) *sqlx.DB {
	t.Helper()

	once.Do(func() { shared, bootErr = boot() })
	require.NoError(t, bootErr)

	_, err := shared.ExecContext(context.Background(),
		`TRUNCATE shares, comments, likes, articles, profile_images, users CASCADE`)
	require.NoError(t, err)

	return shared
}

func boot() (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		ctr, err := postgres.Run(ctx, image,
			postgres.WithDatabase("articles_test"),
			postgres.WithUsername("articles"),
			postgres.WithPassword("articles"),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			return nil, fmt.Errorf("start postgres container: %w", err)
		}
		// The container is reaped when the test binary exits.
		dsn, err = ctr.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			return nil, fmt.Errorf("postgres connection string: %w", err)
		}
	}

	db, err := core.NewDatabase(ctx, config.DatabaseConfig{
		URL:             dsn,
		MaxOpenConns:    32,
		MaxIdleConns:    8,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute,
	})
	if err != nil {
		return nil, err
	}

	if _, err := core.Migrate(ctx, db.DB); err != nil {
		return nil, err
	}

	return db.DB, nil
}

// User inserts a user row and returns its id.
func User(t *testing.T, db *sqlx.DB, name string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO users (id, name, email, password_hash, gender)
		VALUES ($1, $2, $3, 'x', 'other')`,
		id, name, id+"@example.test")
	require.NoError(t, err)
	return id
}

// Article inserts an article owned by ownerID and returns its id.
func Article(t *testing.T, db *sqlx.DB, ownerID, title string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO articles (id, title, content, user_id)
		VALUES ($1, $2, 'body', $3)`,
		id, title, ownerID)
	require.NoError(t, err)
	return id
}

// Counters reads the materialized counters and the Like row counts of one
// article.
func Counters(t *testing.T, db *sqlx.DB, articleID string) (stored, counted [2]int) {
	t.Helper()
	err := db.QueryRowxContext(context.Background(), `
		SELECT a.likes_count, a.dislikes_count,
		       COUNT(l.id) FILTER (WHERE l.liked),
		       COUNT(l.id) FILTER (WHERE NOT l.liked)
		FROM articles a
		LEFT JOIN likes l ON l.article_id = a.id
		WHERE a.id = $1
		GROUP BY a.id`, articleID,
	).Scan(&stored[0], &stored[1], &counted[0], &counted[1])
	require.NoError(t, err)
	return stored, counted
}
