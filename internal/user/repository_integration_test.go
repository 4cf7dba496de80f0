// AngelaMos | 2026
// repository_integration_test.go

//go:build integration

package user

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/articles-api/internal/access"
	"github.com/carterperez-dev/articles-api/internal/blob/blobtest"
	"github.com/carterperez-dev/articles-api/internal/core"
	"github.com/carterperez-dev/articles-api/internal/core/pgtest"
	"github.com/carterperez-dev/articles-api/internal/reaction"
)

func TestPostgresDeleteReleasesReactions(t *testing.T) {
	db := pgtest.Open(t)
	reactions := reaction.NewService(reaction.NewRepository(db), blobtest.NewMemoryStore())
	svc := NewService(NewRepository(db), blobtest.NewMemoryStore())
	ctx := context.Background()

	owner := access.Actor{ID: pgtest.User(t, db, "Owner"), Role: access.RoleUser}
	gone := access.Actor{ID: pgtest.User(t, db, "Gone"), Role: access.RoleUser}
	bystander := access.Actor{ID: pgtest.User(t, db, "Bystander"), Role: access.RoleUser}

	liked := pgtest.Article(t, db, owner.ID, "Liked")
	disliked := pgtest.Article(t, db, owner.ID, "Disliked")
	own := pgtest.Article(t, db, gone.ID, "Own")

	for _, step := range []struct {
		actor access.Actor
		id    string
		act   reaction.Action
	}{
		{gone, liked, reaction.ActionLike},
		{bystander, liked, reaction.ActionLike},
		{gone, disliked, reaction.ActionDislike},
		{gone, own, reaction.ActionLike},
		{owner, own, reaction.ActionLike},
	} {
		_, err := reactions.Toggle(ctx, step.actor, step.id, step.act)
		require.NoError(t, err)
	}

	require.NoError(t, svc.DeleteUser(ctx, gone, gone.ID))

	stored, counted := pgtest.Counters(t, db, liked)
	assert.Equal(t, [2]int{1, 0}, stored)
	assert.Equal(t, counted, stored)

	stored, counted = pgtest.Counters(t, db, disliked)
	assert.Equal(t, [2]int{0, 0}, stored)
	assert.Equal(t, counted, stored)

	_, err := reactions.GetLikes(ctx, owner, own)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.GetByID(ctx, gone.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.ErrorIs(t, NewRepository(db).Delete(ctx, gone.ID), core.ErrNotFound)
}

func TestPostgresDeleteRacingToggles(t *testing.T) {
	db := pgtest.Open(t)
	reactions := reaction.NewService(reaction.NewRepository(db), blobtest.NewMemoryStore())
	repo := NewRepository(db)
	ctx := context.Background()

	owner := pgtest.User(t, db, "Owner")
	articles := make([]string, 4)
	for i := range articles {
		articles[i] = pgtest.Article(t, db, owner, "a")
	}

	for round := range 10 {
		doomed := access.Actor{ID: pgtest.User(t, db, "Doomed"), Role: access.RoleUser}
		other := access.Actor{ID: pgtest.User(t, db, "Other"), Role: access.RoleUser}

		for _, id := range articles[:2] {
			_, err := reactions.Like(ctx, doomed, id)
			require.NoError(t, err)
		}

		var wg sync.WaitGroup
		errs := make(chan error, 2*len(articles))
		for i, id := range articles {
			wg.Add(2)
			go func(id string, dislike bool) {
				defer wg.Done()
				act := reaction.ActionLike
				if dislike {
					act = reaction.ActionDislike
				}
				_, err := reactions.Toggle(ctx, doomed, id, act)
				errs <- err
			}(id, i%2 == 1)
			go func(id string) {
				defer wg.Done()
				_, err := reactions.Like(ctx, other, id)
				errs <- err
			}(id)
		}
		require.NoError(t, repo.Delete(ctx, doomed.ID), "round %d", round)
		wg.Wait()
		close(errs)

		for err := range errs {
			if err != nil {
				assert.ErrorIs(t, err, core.ErrNotFound, "round %d", round)
			}
		}

		for _, id := range articles {
			stored, counted := pgtest.Counters(t, db, id)
			assert.Equal(t, counted, stored, "round %d article %s", round, id)
		}
	}

	n, err := reactions.Recount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostgresRoleChangeBumpsTokenVersion(t *testing.T) {
	db := pgtest.Open(t)
	repo := NewRepository(db)
	svc := NewService(repo, blobtest.NewMemoryStore())
	ctx := context.Background()

	admin := &User{
		ID:           uuid.NewString(),
		Name:         "Admin",
		Email:        "admin@example.test",
		PasswordHash: "x",
		Gender:       GenderOther,
		Role:         access.RoleAdmin,
	}
	require.NoError(t, repo.Create(ctx, admin))
	assert.Zero(t, admin.TokenVersion)

	target := pgtest.User(t, db, "Target")
	adminActor := access.Actor{ID: admin.ID, Role: access.RoleAdmin}

	_, err := svc.UpdateUser(ctx, adminActor, target, UpdateProfileRequest{Name: strPtr("Renamed")})
	require.NoError(t, err)
	info, err := svc.GetByID(ctx, target)
	require.NoError(t, err)
	assert.Zero(t, info.TokenVersion)

	_, err = svc.UpdateUser(ctx, adminActor, target, UpdateProfileRequest{Role: strPtr(access.RoleAdmin)})
	require.NoError(t, err)
	info, err = svc.GetByID(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, 1, info.TokenVersion)
	assert.Equal(t, access.RoleAdmin, info.Role)

	assert.ErrorIs(t, repo.IncrementTokenVersion(ctx, uuid.NewString()), core.ErrNotFound)

	dup := *admin
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, repo.Create(ctx, &dup), core.ErrDuplicateKey)
}

func TestPostgresListUsers(t *testing.T) {
	db := pgtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	pgtest.User(t, db, "Alice 100%")
	pgtest.User(t, db, "Bob")
	pgtest.User(t, db, "Carol")

	users, total, err := repo.List(ctx, ListUsersParams{Search: "100%"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, "Alice 100%", users[0].Name)

	users, total, err = repo.List(ctx, ListUsersParams{PageSize: 2, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, users, 1)

	users, total, err = repo.List(ctx, ListUsersParams{PageSize: 100, Page: math.MaxInt})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, users)
}
