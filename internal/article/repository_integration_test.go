// AngelaMos | 2026
// repository_integration_test.go

//go:build integration

package article_test

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/articles-api/internal/access"
	"github.com/carterperez-dev/articles-api/internal/article"
	"github.com/carterperez-dev/articles-api/internal/blob"
	"github.com/carterperez-dev/articles-api/internal/blob/blobtest"
	"github.com/carterperez-dev/articles-api/internal/core"
	"github.com/carterperez-dev/articles-api/internal/core/pgtest"
	"github.com/carterperez-dev/articles-api/internal/reaction"
)

type pgFixture struct {
	svc       *article.Service
	reactions *reaction.Service
	store     *blobtest.MemoryStore
	u1, u2    access.Actor
}

func newPGFixture(t *testing.T) *pgFixture {
	t.Helper()
	db := pgtest.Open(t)
	store := blobtest.NewMemoryStore()
	return &pgFixture{
		svc:       article.NewService(article.NewRepository(db), store),
		reactions: reaction.NewService(reaction.NewRepository(db), store),
		store:     store,
		u1:        access.Actor{ID: pgtest.User(t, db, "User One"), Role: access.RoleUser},
		u2:        access.Actor{ID: pgtest.User(t, db, "User Two"), Role: access.RoleUser},
	}
}

func TestPostgresListShowsViewerReaction(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.u1, article.CreateInput{Title: "Hello", Content: "World"})
	require.NoError(t, err)

	list, total, err := f.svc.List(ctx, f.u2, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Hello", list[0].Title)
	assert.Equal(t, "World", list[0].Content)
	assert.False(t, list[0].UserLike)
	assert.Nil(t, list[0].Image)
	require.NotNil(t, list[0].User)
	assert.Equal(t, "User One", list[0].User.Name)

	_, err = f.reactions.Like(ctx, f.u2, created.ID)
	require.NoError(t, err)

	list, _, err = f.svc.List(ctx, f.u2, 1)
	require.NoError(t, err)
	assert.True(t, list[0].UserLike)
	assert.Equal(t, 1, list[0].LikesCount)

	list, _, err = f.svc.List(ctx, f.u1, 1)
	require.NoError(t, err)
	assert.False(t, list[0].UserLike)

	_, err = f.reactions.Dislike(ctx, f.u2, created.ID)
	require.NoError(t, err)

	detail, err := f.svc.Get(ctx, f.u2, created.ID)
	require.NoError(t, err)
	assert.False(t, detail.UserLike)
	assert.Equal(t, 0, detail.LikesCount)
	assert.Equal(t, 1, detail.DislikesCount)
	require.Len(t, detail.Reactions, 1)
	assert.Equal(t, f.u2.ID, detail.Reactions[0].UserID)
	assert.False(t, detail.Reactions[0].Liked)

	_, err = f.svc.Get(ctx, f.u2, uuid.NewString())
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestPostgresPagination(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	for range 5 {
		_, err := f.svc.Create(ctx, f.u1, article.CreateInput{Title: "t", Content: "c"})
		require.NoError(t, err)
	}

	first, total, err := f.svc.List(ctx, f.u2, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, first, article.PageSize)
	assert.Equal(t, 2, core.LastPage(total, article.PageSize))

	second, _, err := f.svc.List(ctx, f.u2, 2)
	require.NoError(t, err)
	assert.Len(t, second, 1)

	for _, page := range []int{3, math.MaxInt, math.MinInt} {
		rows, total, err := f.svc.List(ctx, f.u2, page)
		require.NoError(t, err, "page %d", page)
		assert.Equal(t, 5, total)
		if page == math.MinInt {
			assert.Len(t, rows, article.PageSize)
			continue
		}
		assert.Empty(t, rows, "page %d", page)
	}
}

func TestPostgresListMineCarriesLikers(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	liked, err := f.svc.Create(ctx, f.u1, article.CreateInput{Title: "liked", Content: "c", Image: pngImage()})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.u1, article.CreateInput{Title: "quiet", Content: "c"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.u2, article.CreateInput{Title: "other", Content: "c"})
	require.NoError(t, err)

	_, err = f.reactions.Like(ctx, f.u2, liked.ID)
	require.NoError(t, err)

	mine, total, err := f.svc.ListMine(ctx, f.u1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, mine, 2)

	byTitle := map[string]article.OwnArticleResponse{}
	for _, m := range mine {
		byTitle[m.Title] = m
	}
	require.Len(t, byTitle["liked"].Likers, 1)
	assert.Equal(t, f.u2.ID, byTitle["liked"].Likers[0].ID)
	assert.Equal(t, "User Two", byTitle["liked"].Likers[0].Name)
	assert.NotNil(t, byTitle["liked"].Image)
	assert.Empty(t, byTitle["quiet"].Likers)
}

func TestPostgresUpdateArchiveDelete(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.u1, article.CreateInput{Title: "before", Content: "c"})
	require.NoError(t, err)

	title := "after"
	updated, err := f.svc.Update(ctx, f.u1, created.ID, article.UpdateInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Title)

	_, err = f.svc.Update(ctx, f.u2, created.ID, article.UpdateInput{Title: &title})
	assert.ErrorIs(t, err, core.ErrForbidden)

	archived, err := f.svc.Archive(ctx, f.u1, created.ID)
	require.NoError(t, err)
	assert.True(t, archived.IsArchived)

	_, err = f.reactions.Like(ctx, f.u2, created.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, f.u1, created.ID))
	_, err = f.svc.Get(ctx, f.u1, created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func pngImage() *blob.Image {
	return &blob.Image{Data: blobtest.PNG, ContentType: "image/png", Ext: ".png"}
}
