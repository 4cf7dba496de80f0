// AngelaMos | 2026
// service.go

package article

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/carterperez-dev/articles-api/internal/access"
	"github.com/carterperez-dev/articles-api/internal/blob"
	"github.com/carterperez-dev/articles-api/internal/core"
)

type CreateInput struct {
	Title   string
	Content string
	Image   *blob.Image
}

type UpdateInput struct {
	Title   *string
	Content *string
	Image   *blob.Image
}

type Service struct {
	repo  Repository
	store blob.Store
}

func NewService(repo Repository, store blob.Store) *Service {
	return &Service{repo: repo, store: store}
}

func (s *Service) Create(
	ctx context.Context,
	actor access.Actor,
	in CreateInput,
) (*ArticleResponse, error) {
	if err := access.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	a := &Article{
		ID:      uuid.New().String(),
		Title:   in.Title,
		Content: in.Content,
		UserID:  actor.ID,
	}

	if in.Image != nil {
		path, err := s.store.Put(ctx, blob.DirArticles, in.Image)
		if err != nil {
			return nil, fmt.Errorf("store article image: %w", err)
		}
		a.Image = &path
	}

	if err := s.repo.Create(ctx, a); err != nil {
		if a.Image != nil {
			s.discard(ctx, *a.Image)
		}
		return nil, err
	}

	resp := s.toResponse(&Row{Article: *a})
	return &resp, nil
}

// List returns one page of every article, newest first.
func (s *Service) List(
	ctx context.Context,
	actor access.Actor,
	page int,
) ([]ArticleResponse, int, error) {
	if err := access.RequireAuthenticated(actor); err != nil {
		return nil, 0, err
	}

	rows, total, err := s.repo.List(ctx, actor.ID, PageSize, offset(page))
	if err != nil {
		return nil, 0, err
	}

	out := make([]ArticleResponse, 0, len(rows))
	for i := range rows {
		out = append(out, s.toResponse(&rows[i]))
	}
	return out, total, nil
}

func (s *Service) Get(
	ctx context.Context,
	actor access.Actor,
	id string,
) (*ArticleDetailResponse, error) {
	if err := access.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	row, err := s.repo.GetRow(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}

	reactions, err := s.repo.Reactions(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &ArticleDetailResponse{
		ArticleResponse: s.toResponse(row),
		Reactions:       make([]ReactionResponse, 0, len(reactions)),
	}
	for _, r := range reactions {
		detail.Reactions = append(detail.Reactions, ReactionResponse{
			UserID:          r.UserID,
			Name:            r.Name,
			ProfileImageURL: s.url(r.ProfileImage),
			Liked:           r.Liked,
		})
	}

	return detail, nil
}

// ListMine returns the actor's own articles, each with the users liking it.
func (s *Service) ListMine(
	ctx context.Context,
	actor access.Actor,
	page int,
) ([]OwnArticleResponse, int, error) {
	if err := access.RequireAuthenticated(actor); err != nil {
		return nil, 0, err
	}

	rows, total, err := s.repo.ListByOwner(ctx, actor.ID, PageSize, offset(page))
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	likers, err := s.repo.Likers(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	byArticle := make(map[string][]LikerResponse, len(rows))
	for _, l := range likers {
		byArticle[l.ArticleID] = append(byArticle[l.ArticleID], LikerResponse{
			ID:              l.UserID,
			Name:            l.Name,
			ProfileImageURL: s.url(l.ProfileImage),
		})
	}

	out := make([]OwnArticleResponse, 0, len(rows))
	for i := range rows {
		list := byArticle[rows[i].ID]
		if list == nil {
			list = []LikerResponse{}
		}
		out = append(out, OwnArticleResponse{
			ArticleResponse: s.toResponse(&rows[i]),
			Likers:          list,
		})
	}
	return out, total, nil
}

// Update is owner-only. A new image replaces the old one, whose blob is
// removed only after the row points at the new path.
func (s *Service) Update(
	ctx context.Context,
	actor access.Actor,
	id string,
	in UpdateInput,
) (*ArticleResponse, error) {
	a, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		a.Title = *in.Title
	}
	if in.Content != nil {
		a.Content = *in.Content
	}

	var newPath string
	oldImage := a.Image
	if in.Image != nil {
		newPath, err = s.store.Put(ctx, blob.DirArticles, in.Image)
		if err != nil {
			return nil, fmt.Errorf("store article image: %w", err)
		}
		a.Image = &newPath
	}

	if err := s.repo.Update(ctx, a); err != nil {
		if newPath != "" {
			s.discard(ctx, newPath)
		}
		return nil, err
	}

	if newPath != "" && oldImage != nil {
		s.discard(ctx, *oldImage)
	}

	resp := s.toResponse(&Row{Article: *a})
	return &resp, nil
}

// Delete is owner-only and removes the image blob before the row.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id string) error {
	a, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}

	if a.Image != nil {
		if err := s.store.Delete(ctx, *a.Image); err != nil {
			return fmt.Errorf("delete article image: %w", err)
		}
	}

	return s.repo.Delete(ctx, id)
}

// Archive is owner-only and one-way.
func (s *Service) Archive(
	ctx context.Context,
	actor access.Actor,
	id string,
) (*ArticleResponse, error) {
	a, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Archive(ctx, id); err != nil {
		return nil, err
	}

	a.IsArchived = true
	resp := s.toResponse(&Row{Article: *a})
	return &resp, nil
}

func (s *Service) owned(ctx context.Context, actor access.Actor, id string) (*Article, error) {
	if err := access.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := access.CanMutateArticle(actor, a.UserID); err != nil {
		return nil, err
	}

	return a, nil
}

func (s *Service) discard(ctx context.Context, path string) {
	if err := s.store.Delete(ctx, path); err != nil {
		slog.Warn("blob cleanup failed", "path", path, "error", err)
	}
}

func (s *Service) url(path *string) *string {
	if path == nil {
		return nil
	}
	u := s.store.URL(*path)
	return &u
}

func (s *Service) toResponse(row *Row) ArticleResponse {
	resp := ArticleResponse{
		ID:            row.ID,
		Title:         row.Title,
		Content:       row.Content,
		Image:         s.url(row.Image),
		UserID:        row.UserID,
		IsArchived:    row.IsArchived,
		LikesCount:    row.LikesCount,
		DislikesCount: row.DislikesCount,
		UserLike:      row.UserLike,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if row.AuthorName != "" {
		resp.User = &AuthorResponse{
			ID:              row.UserID,
			Name:            row.AuthorName,
			ProfileImageURL: s.url(row.AuthorImage),
		}
	}
	return resp
}

func offset(page int) int {
	return core.PageOffset(page, PageSize)
}
