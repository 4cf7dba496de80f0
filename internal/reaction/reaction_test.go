// AngelaMos | 2026
// reaction_test.go

package reaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/articles-api/internal/access"
	"github.com/carterperez-dev/articles-api/internal/blob/blobtest"
	"github.com/carterperez-dev/articles-api/internal/core"
	"github.com/carterperez-dev/articles-api/internal/middleware"
)

type memoryRepo struct {
	mu       sync.Mutex
	names    map[string]string
	owners   map[string]string
	counters map[string]Counters
	likes    map[string]Like
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		names:    make(map[string]string),
		owners:   make(map[string]string),
		counters: make(map[string]Counters),
		likes:    make(map[string]Like),
	}
}

func likeKey(userID, articleID string) string {
	return userID + "|" + articleID
}

func (m *memoryRepo) InTx(_ context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	counters := make(map[string]Counters, len(m.counters))
	for k, v := range m.counters {
		counters[k] = v
	}
	likes := make(map[string]Like, len(m.likes))
	for k, v := range m.likes {
		likes[k] = v
	}

	if err := fn(&memoryTx{m: m}); err != nil {
		m.counters = counters
		m.likes = likes
		return err
	}
	return nil
}

func (m *memoryRepo) count(articleID string) Counters {
	var c Counters
	for _, l := range m.likes {
		if l.ArticleID != articleID {
			continue
		}
		if l.Liked {
			c.LikesCount++
		} else {
			c.DislikesCount++
		}
	}
	return c
}

func (m *memoryRepo) CountReactions(_ context.Context, articleID string) (Counters, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.counters[articleID]; !ok {
		return Counters{}, core.ErrNotFound
	}
	return m.count(articleID), nil
}

func (m *memoryRepo) Likers(_ context.Context, articleID string) ([]Liker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Liker{}
	for _, l := range m.likes {
		if l.ArticleID == articleID && l.Liked {
			out = append(out, Liker{UserID: l.UserID, Name: m.names[l.UserID]})
		}
	}
	return out, nil
}

func (m *memoryRepo) TotalLikes(_ context.Context, ownerID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, l := range m.likes {
		if l.Liked && m.owners[l.ArticleID] == ownerID {
			total++
		}
	}
	return total, nil
}

func (m *memoryRepo) Recount(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	repaired := 0
	for id, c := range m.counters {
		if actual := m.count(id); actual != c {
			m.counters[id] = actual
			repaired++
		}
	}
	return repaired, nil
}

type memoryTx struct {
	m *memoryRepo
}

func (t *memoryTx) LockArticle(_ context.Context, articleID string) error {
	if _, ok := t.m.counters[articleID]; !ok {
		return core.ErrNotFound
	}
	return nil
}

func (t *memoryTx) FindReaction(_ context.Context, userID, articleID string) (*Like, error) {
	l, ok := t.m.likes[likeKey(userID, articleID)]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (t *memoryTx) InsertReaction(_ context.Context, like *Like) error {
	key := likeKey(like.UserID, like.ArticleID)
	if _, ok := t.m.likes[key]; ok {
		return core.ErrDuplicateKey
	}
	t.m.likes[key] = *like
	return nil
}

func (t *memoryTx) find(id string) (string, bool) {
	for k, l := range t.m.likes {
		if l.ID == id {
			return k, true
		}
	}
	return "", false
}

func (t *memoryTx) SetReaction(_ context.Context, id string, liked bool) error {
	key, ok := t.find(id)
	if !ok {
		return core.ErrNotFound
	}
	l := t.m.likes[key]
	l.Liked = liked
	t.m.likes[key] = l
	return nil
}

func (t *memoryTx) DeleteReaction(_ context.Context, id string) error {
	key, ok := t.find(id)
	if !ok {
		return core.ErrNotFound
	}
	delete(t.m.likes, key)
	return nil
}

func (t *memoryTx) AdjustCounters(
	_ context.Context,
	articleID string,
	likes, dislikes int,
) (Counters, error) {
	c, ok := t.m.counters[articleID]
	if !ok {
		return Counters{}, core.ErrNotFound
	}
	c.LikesCount += likes
	c.DislikesCount += dislikes
	if c.LikesCount < 0 || c.DislikesCount < 0 {
		return Counters{}, errors.New("counter check violated")
	}
	t.m.counters[articleID] = c
	return c, nil
}

type fixture struct {
	repo    *memoryRepo
	svc     *Service
	u1      access.Actor
	u2      access.Actor
	article string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMemoryRepo()
	u1 := access.Actor{ID: uuid.NewString(), Role: access.RoleUser}
	u2 := access.Actor{ID: uuid.NewString(), Role: access.RoleUser}
	repo.names[u1.ID] = "User One"
	repo.names[u2.ID] = "User Two"

	articleID := uuid.NewString()
	repo.owners[articleID] = u1.ID
	repo.counters[articleID] = Counters{}

	return &fixture{
		repo:    repo,
		svc:     NewService(repo, blobtest.NewMemoryStore()),
		u1:      u1,
		u2:      u2,
		article: articleID,
	}
}

func (f *fixture) assertConsistent(t *testing.T) {
	t.Helper()
	f.repo.mu.Lock()
	defer f.repo.mu.Unlock()
	for id, c := range f.repo.counters {
		assert.Equal(t, f.repo.count(id), c, "counters drifted for article %s", id)
	}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from     State
		action   Action
		next     State
		op       RowOp
		likes    int
		dislikes int
		message  string
	}{
		{StateNeutral, ActionLike, StateLiked, OpCreate, 1, 0, "Changed to like"},
		{StateLiked, ActionLike, StateNeutral, OpDelete, -1, 0, "Like removed"},
		{StateDisliked, ActionLike, StateLiked, OpUpdate, 1, -1, "Changed to like"},
		{StateNeutral, ActionDislike, StateDisliked, OpCreate, 0, 1, "Changed to dislike"},
		{StateDisliked, ActionDislike, StateNeutral, OpDelete, 0, -1, "Dislike removed"},
		{StateLiked, ActionDislike, StateDisliked, OpUpdate, -1, 1, "Changed to dislike"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%s", tt.from, tt.action), func(t *testing.T) {
			step, err := Transition(tt.from, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.next, step.Next)
			assert.Equal(t, tt.op, step.Op)
			assert.Equal(t, tt.likes, step.LikesDelta)
			assert.Equal(t, tt.dislikes, step.DislikesDelta)
			assert.Equal(t, tt.message, step.Message)
		})
	}

	_, err := Transition(StateNeutral, Action("love"))
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestUserLikeRendering(t *testing.T) {
	assert.Nil(t, StateNeutral.UserLike())
	require.NotNil(t, StateLiked.UserLike())
	assert.True(t, *StateLiked.UserLike())
	require.NotNil(t, StateDisliked.UserLike())
	assert.False(t, *StateDisliked.UserLike())

	assert.Equal(t, StateNeutral, StateOf(nil))
	assert.Equal(t, StateLiked, StateOf(&Like{Liked: true}))
	assert.Equal(t, StateDisliked, StateOf(&Like{Liked: false}))
}

func TestLikeTwiceRestoresCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Like(ctx, f.u1, f.article)
	require.NoError(t, err)
	assert.Equal(t, StateLiked, first.State)
	assert.Equal(t, 1, first.LikesCount)
	assert.Equal(t, MsgChangedToLike, first.Message)

	second, err := f.svc.Like(ctx, f.u1, f.article)
	require.NoError(t, err)
	assert.Equal(t, StateNeutral, second.State)
	assert.Nil(t, second.UserLike)
	assert.Equal(t, 0, second.LikesCount)
	assert.Equal(t, MsgLikeRemoved, second.Message)
	assert.Empty(t, f.repo.likes)
}

func TestDislikeThenLikeMovesBothCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	disliked, err := f.svc.Dislike(ctx, f.u1, f.article)
	require.NoError(t, err)
	assert.Equal(t, StateDisliked, disliked.State)

	liked, err := f.svc.Like(ctx, f.u1, f.article)
	require.NoError(t, err)
	assert.Equal(t, StateLiked, liked.State)
	assert.Equal(t, disliked.LikesCount+1, liked.LikesCount)
	assert.Equal(t, disliked.DislikesCount-1, liked.DislikesCount)
	require.NotNil(t, liked.UserLike)
	assert.True(t, *liked.UserLike)
	assert.Len(t, f.repo.likes, 1)
}

func TestRandomSequencesKeepCountersExact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	second := uuid.NewString()
	f.repo.counters[second] = Counters{}
	articles := []string{f.article, second}
	actors := []access.Actor{f.u1, f.u2, {ID: uuid.NewString(), Role: access.RoleUser}}
	rng := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 300; i++ {
		action := ActionLike
		if rng.IntN(2) == 0 {
			action = ActionDislike
		}
		_, err := f.svc.Toggle(ctx, actors[rng.IntN(len(actors))], articles[rng.IntN(len(articles))], action)
		require.NoError(t, err)
		f.assertConsistent(t)
	}
}

func TestConcurrentTogglesKeepCountersExact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		actor := access.Actor{ID: uuid.NewString(), Role: access.RoleUser}
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(seed, seed+1))
			for i := 0; i < 25; i++ {
				action := ActionLike
				if rng.IntN(2) == 0 {
					action = ActionDislike
				}
				_, err := f.svc.Toggle(ctx, actor, f.article, action)
				assert.NoError(t, err)
			}
		}(uint64(g))
	}
	wg.Wait()

	f.assertConsistent(t)
}

func TestToggleFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Like(ctx, access.Actor{}, f.article)
	var appErr *core.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusUnauthorized, appErr.StatusCode)

	_, err = f.svc.Like(ctx, f.u1, uuid.NewString())
	assert.ErrorIs(t, err, core.ErrNotFound)
	f.assertConsistent(t)
	assert.Empty(t, f.repo.likes)
}

func TestGetLikesAndTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Like(ctx, f.u1, f.article)
	require.NoError(t, err)
	_, err = f.svc.Dislike(ctx, f.u2, f.article)
	require.NoError(t, err)

	likes, err := f.svc.GetLikes(ctx, f.u2, f.article)
	require.NoError(t, err)
	assert.Equal(t, 1, likes.LikesCount)
	assert.Equal(t, 1, likes.DislikesCount)
	require.Len(t, likes.Likers, 1)
	assert.Equal(t, f.u1.ID, likes.Likers[0].ID)
	assert.Equal(t, "User One", likes.Likers[0].Name)

	total, err := f.svc.GetUserTotalLikes(ctx, f.u1)
	require.NoError(t, err)
	assert.Equal(t, 1, total.TotalLikes)

	total, err = f.svc.GetUserTotalLikes(ctx, f.u2)
	require.NoError(t, err)
	assert.Equal(t, 0, total.TotalLikes)

	_, err = f.svc.GetLikes(ctx, f.u1, uuid.NewString())
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRecountRepairsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Like(ctx, f.u1, f.article)
	require.NoError(t, err)

	n, err := f.svc.Recount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.repo.counters[f.article] = Counters{LikesCount: 9, DislikesCount: 3}

	n, err = f.svc.Recount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	f.assertConsistent(t)
}

func newTestRouter(f *fixture) http.Handler {
	r := chi.NewRouter()
	asHeader := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			id := req.Header.Get("X-Test-User")
			if id == "" {
				core.Unauthorized(w, "")
				return
			}
			claims := &middleware.AccessTokenClaims{UserID: id, Role: access.RoleUser}
			next.ServeHTTP(w, req.WithContext(middleware.WithClaims(req.Context(), claims)))
		})
	}
	NewHandler(f.svc).RegisterRoutes(r, asHeader)
	return r
}

func do(h http.Handler, method, target string, actor access.Actor) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if actor.ID != "" {
		req.Header.Set("X-Test-User", actor.ID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerToggleRoutes(t *testing.T) {
	f := newFixture(t)
	h := newTestRouter(f)

	rec := do(h, http.MethodPost, "/articles/"+f.article+"/like", f.u1)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Changed to like", resp.Message)
	assert.Equal(t, true, resp.Data["user_like"])
	assert.Equal(t, "LIKED", resp.Data["state"])
	assert.EqualValues(t, 1, resp.Data["likes_count"])

	rec = do(h, http.MethodPost, "/articles/"+f.article+"/like", f.u1)
	require.Equal(t, http.StatusOK, rec.Code)
	resp.Data = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Like removed", resp.Message)
	assert.Contains(t, resp.Data, "user_like")
	assert.Nil(t, resp.Data["user_like"])

	rec = do(h, http.MethodPost, "/articles/"+f.article+"/dislike", f.u2)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodGet, "/articles/"+f.article+"/likes", f.u1)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodGet, "/user/total-likes", f.u1)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodPost, "/articles/"+uuid.NewString()+"/like", f.u1)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodPost, "/articles/nope/like", f.u1)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodPost, "/articles/"+f.article+"/like", access.Actor{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
