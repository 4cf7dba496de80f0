// AngelaMos | 2026
// service_test.go

package article

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/articles-api/internal/access"
	"github.com/carterperez-dev/articles-api/internal/blob"
	"github.com/carterperez-dev/articles-api/internal/blob/blobtest"
	"github.com/carterperez-dev/articles-api/internal/core"
	"github.com/carterperez-dev/articles-api/internal/middleware"
)

type memoryRepo struct {
	mu       sync.Mutex
	names    map[string]string
	articles map[string]Article
	likes    map[string]map[string]bool
	clock    time.Time

	updateErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		names:    make(map[string]string),
		articles: make(map[string]Article),
		likes:    make(map[string]map[string]bool),
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memoryRepo) react(articleID, userID string, liked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.likes[articleID] == nil {
		m.likes[articleID] = make(map[string]bool)
	}
	m.likes[articleID][userID] = liked
	a := m.articles[articleID]
	if liked {
		a.LikesCount++
	} else {
		a.DislikesCount++
	}
	m.articles[articleID] = a
}

func (m *memoryRepo) Create(_ context.Context, a *Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.names[a.UserID]; !ok {
		return core.ErrNotFound
	}
	m.clock = m.clock.Add(time.Second)
	a.CreatedAt = m.clock
	a.UpdatedAt = m.clock
	m.articles[a.ID] = *a
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id string) (*Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &a, nil
}

func (m *memoryRepo) row(a Article, viewerID string) Row {
	return Row{
		Article:    a,
		AuthorName: m.names[a.UserID],
		UserLike:   m.likes[a.ID][viewerID],
	}
}

func (m *memoryRepo) GetRow(_ context.Context, id, viewerID string) (*Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	row := m.row(a, viewerID)
	return &row, nil
}

func (m *memoryRepo) page(viewerID string, keep func(Article) bool, limit, offset int) ([]Row, int) {
	var all []Article
	for _, a := range m.articles {
		if keep(a) {
			all = append(all, a)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	rows := []Row{}
	for i := offset; i < len(all) && i < offset+limit; i++ {
		rows = append(rows, m.row(all[i], viewerID))
	}
	return rows, len(all)
}

func (m *memoryRepo) List(_ context.Context, viewerID string, limit, offset int) ([]Row, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset < 0 {
		return nil, 0, errors.New("OFFSET must not be negative")
	}
	rows, total := m.page(viewerID, func(Article) bool { return true }, limit, offset)
	return rows, total, nil
}

func (m *memoryRepo) ListByOwner(_ context.Context, ownerID string, limit, offset int) ([]Row, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, total := m.page(ownerID, func(a Article) bool { return a.UserID == ownerID }, limit, offset)
	return rows, total, nil
}

func (m *memoryRepo) Reactions(_ context.Context, articleID string) ([]Reaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Reaction{}
	for userID, liked := range m.likes[articleID] {
		out = append(out, Reaction{UserID: userID, Name: m.names[userID], Liked: liked})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryRepo) Likers(_ context.Context, articleIDs []string) ([]Liker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Liker{}
	for _, id := range articleIDs {
		for userID, liked := range m.likes[id] {
			if liked {
				out = append(out, Liker{ArticleID: id, UserID: userID, Name: m.names[userID]})
			}
		}
	}
	return out, nil
}

func (m *memoryRepo) Update(_ context.Context, a *Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.articles[a.ID]; !ok {
		return core.ErrNotFound
	}
	a.UpdatedAt = time.Now()
	m.articles[a.ID] = *a
	return nil
}

func (m *memoryRepo) Archive(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return core.ErrNotFound
	}
	a.IsArchived = true
	m.articles[id] = a
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.articles[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.articles, id)
	delete(m.likes, id)
	return nil
}

type fixture struct {
	repo  *memoryRepo
	store *blobtest.MemoryStore
	svc   *Service
	u1    access.Actor
	u2    access.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMemoryRepo()
	store := blobtest.NewMemoryStore()

	u1 := access.Actor{ID: uuid.NewString(), Role: access.RoleUser}
	u2 := access.Actor{ID: uuid.NewString(), Role: access.RoleUser}
	repo.names[u1.ID] = "User One"
	repo.names[u2.ID] = "User Two"

	return &fixture{repo: repo, store: store, svc: NewService(repo, store), u1: u1, u2: u2}
}

func pngImage() *blob.Image {
	return &blob.Image{Data: blobtest.PNG, ContentType: "image/png", Ext: ".png"}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var appErr *core.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.StatusCode
}

func TestCreateAndListPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.svc.Create(ctx, f.u1, CreateInput{Title: "t", Content: "c"})
		require.NoError(t, err)
	}

	first, total, err := f.svc.List(ctx, f.u2, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, first, PageSize)
	assert.Equal(t, 2, core.LastPage(total, PageSize))

	second, _, err := f.svc.List(ctx, f.u2, 2)
	require.NoError(t, err)
	assert.Len(t, second, 1)
	assert.True(t, first[PageSize-1].CreatedAt.After(second[0].CreatedAt))

	_, _, err = f.svc.List(ctx, access.Actor{}, 1)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestGetShowsAuthorAndViewerReaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.u1, CreateInput{Title: "Hello", Content: "World"})
	require.NoError(t, err)
	assert.Nil(t, created.Image)
	assert.Zero(t, created.LikesCount)

	detail, err := f.svc.Get(ctx, f.u2, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", detail.Title)
	assert.Equal(t, "World", detail.Content)
	assert.False(t, detail.UserLike)
	assert.Nil(t, detail.Image)
	require.NotNil(t, detail.User)
	assert.Equal(t, "User One", detail.User.Name)
	assert.Empty(t, detail.Reactions)

	f.repo.react(created.ID, f.u2.ID, true)

	detail, err = f.svc.Get(ctx, f.u2, created.ID)
	require.NoError(t, err)
	assert.True(t, detail.UserLike)
	assert.Equal(t, 1, detail.LikesCount)
	require.Len(t, detail.Reactions, 1)
	assert.True(t, detail.Reactions[0].Liked)

	_, err = f.svc.Get(ctx, f.u2, uuid.NewString())
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestOnlyOwnerMutates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.u1, CreateInput{Title: "mine", Content: "body"})
	require.NoError(t, err)

	title := "stolen"
	_, err = f.svc.Update(ctx, f.u2, created.ID, UpdateInput{Title: &title})
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	err = f.svc.Delete(ctx, f.u2, created.ID)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	_, err = f.svc.Archive(ctx, f.u2, created.ID)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	stored, err := f.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", stored.Title)
	assert.False(t, stored.IsArchived)

	admin := access.Actor{ID: uuid.NewString(), Role: access.RoleAdmin}
	_, err = f.svc.Update(ctx, admin, created.ID, UpdateInput{Title: &title})
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	updated, err := f.svc.Update(ctx, f.u1, created.ID, UpdateInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "stolen", updated.Title)
	assert.Equal(t, "body", updated.Content)
}

func TestUpdateReplacesImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.u1, CreateInput{Title: "t", Content: "c", Image: pngImage()})
	require.NoError(t, err)
	require.NotNil(t, created.Image)

	stored, err := f.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	oldPath := *stored.Image
	assert.True(t, strings.HasPrefix(oldPath, blob.DirArticles+"/"))
	assert.Equal(t, f.store.URL(oldPath), *created.Image)

	updated, err := f.svc.Update(ctx, f.u1, created.ID, UpdateInput{Image: pngImage()})
	require.NoError(t, err)

	assert.False(t, f.store.Has(oldPath))
	assert.Contains(t, f.store.Deleted(), oldPath)
	require.Len(t, f.store.Keys(), 1)
	assert.Equal(t, f.store.URL(f.store.Keys()[0]), *updated.Image)
}

func TestFailedUpdateKeepsOldImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.u1, CreateInput{Title: "t", Content: "c", Image: pngImage()})
	require.NoError(t, err)
	stored, err := f.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	oldPath := *stored.Image

	f.repo.updateErr = core.ErrNotFound
	_, err = f.svc.Update(ctx, f.u1, created.ID, UpdateInput{Image: pngImage()})
	require.ErrorIs(t, err, core.ErrNotFound)

	assert.True(t, f.store.Has(oldPath))
	assert.Equal(t, []string{oldPath}, f.store.Keys())
}

func TestDeleteRemovesImageAndRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.u1, CreateInput{Title: "t", Content: "c", Image: pngImage()})
	require.NoError(t, err)
	require.Len(t, f.store.Keys(), 1)

	require.NoError(t, f.svc.Delete(ctx, f.u1, created.ID))
	assert.Empty(t, f.store.Keys())

	_, err = f.repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = f.svc.Delete(ctx, f.u1, created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCreateDiscardsImageWhenOwnerMissing(t *testing.T) {
	f := newFixture(t)
	ghost := access.Actor{ID: uuid.NewString(), Role: access.RoleUser}

	_, err := f.svc.Create(context.Background(), ghost, CreateInput{Title: "t", Content: "c", Image: pngImage()})
	require.Error(t, err)
	assert.Empty(t, f.store.Keys())
}

func TestArchiveAndListMine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine, err := f.svc.Create(ctx, f.u1, CreateInput{Title: "mine", Content: "c"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.u2, CreateInput{Title: "theirs", Content: "c"})
	require.NoError(t, err)

	f.repo.react(mine.ID, f.u2.ID, true)

	archived, err := f.svc.Archive(ctx, f.u1, mine.ID)
	require.NoError(t, err)
	assert.True(t, archived.IsArchived)

	own, total, err := f.svc.ListMine(ctx, f.u1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, own, 1)
	assert.Equal(t, "mine", own[0].Title)
	assert.True(t, own[0].IsArchived)
	require.Len(t, own[0].Likers, 1)
	assert.Equal(t, f.u2.ID, own[0].Likers[0].ID)
	assert.Equal(t, "User Two", own[0].Likers[0].Name)

	all, total, err := f.svc.List(ctx, f.u2, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, all, 2)
}

func newTestRouter(f *fixture) http.Handler {
	h := NewHandler(f.svc, 1<<20)
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
	h.RegisterRoutes(r, asHeader)
	return r
}

func do(h http.Handler, req *http.Request, actor access.Actor) *httptest.ResponseRecorder {
	if actor.ID != "" {
		req.Header.Set("X-Test-User", actor.ID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateAndFetch(t *testing.T) {
	f := newFixture(t)
	h := newTestRouter(f)

	body := strings.NewReader(`{"title":"Hello","content":"World"}`)
	rec := do(h, httptest.NewRequest(http.MethodPost, "/articles", body), f.u1)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data ArticleResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(h, httptest.NewRequest(http.MethodGet, "/articles/"+created.Data.ID, nil), f.u2)
	require.Equal(t, http.StatusOK, rec.Code)

	var raw struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "Hello", raw.Data["title"])
	assert.Equal(t, "World", raw.Data["content"])
	assert.Equal(t, false, raw.Data["user_like"])
	assert.Nil(t, raw.Data["image"])
	assert.Contains(t, raw.Data, "image")

	rec = do(h, httptest.NewRequest(http.MethodGet, "/articles/not-a-uuid", nil), f.u2)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/articles/"+uuid.NewString(), nil), f.u2)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/articles", nil), access.Actor{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerValidation(t *testing.T) {
	f := newFixture(t)
	h := newTestRouter(f)

	rec := do(h, httptest.NewRequest(http.MethodPost, "/articles", strings.NewReader(`{"title":""}`)), f.u1)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp core.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Details, "title")
	assert.Contains(t, resp.Error.Details, "content")

	rec = do(h, httptest.NewRequest(http.MethodPost, "/articles", strings.NewReader(`{`)), f.u1)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerPaginationMeta(t *testing.T) {
	f := newFixture(t)
	h := newTestRouter(f)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.svc.Create(ctx, f.u1, CreateInput{Title: "t", Content: "c"})
		require.NoError(t, err)
	}

	rec := do(h, httptest.NewRequest(http.MethodGet, "/articles?page=2", nil), f.u2)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []ArticleResponse `json:"data"`
		Meta core.PageMeta     `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, 2, resp.Meta.CurrentPage)
	assert.Equal(t, 2, resp.Meta.LastPage)
	assert.Equal(t, PageSize, resp.Meta.PerPage)
	assert.Equal(t, 5, resp.Meta.Total)
}

func TestHandlerMultipartUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	h := newTestRouter(f)

	created, err := f.svc.Create(context.Background(), f.u1, CreateInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "with picture"))
	part, err := mw.CreateFormFile(imageField, "pic.png")
	require.NoError(t, err)
	_, _ = part.Write(blobtest.PNG)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/articles/"+created.ID, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := do(h, req, f.u1)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, f.store.Keys(), 1)

	stored, err := f.repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "with picture", stored.Title)
	assert.Equal(t, "c", stored.Content)

	rec = do(h, httptest.NewRequest(http.MethodDelete, "/articles/"+created.ID, nil), f.u2)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Len(t, f.store.Keys(), 1)

	rec = do(h, httptest.NewRequest(http.MethodDelete, "/articles/"+created.ID, nil), f.u1)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.store.Keys())
}

func TestHandlerHugePageIsEmpty(t *testing.T) {
	f := newFixture(t)
	h := newTestRouter(f)

	_, err := f.svc.Create(context.Background(), f.u1, CreateInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	for _, page := range []string{"2305843009213693953", "4611686018427387905", "9223372036854775807"} {
		rec := do(h, httptest.NewRequest(http.MethodGet, "/articles?page="+page, nil), f.u2)
		require.Equal(t, http.StatusOK, rec.Code, page)

		var resp struct {
			Data []ArticleResponse `json:"data"`
			Meta core.PageMeta     `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Empty(t, resp.Data, page)
		assert.Equal(t, core.ClampPage(math.MaxInt, PageSize), resp.Meta.CurrentPage)
		assert.Equal(t, 1, resp.Meta.Total)
	}
}
