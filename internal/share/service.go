// AngelaMos | 2026
// service.go

package share

import (
	"context"

	"github.com/google/uuid"

	"github.com/carterperez-dev/articles-api/internal/access"
	"github.com/carterperez-dev/articles-api/internal/article"
	"github.com/carterperez-dev/articles-api/internal/blob"
	"github.com/carterperez-dev/articles-api/internal/core"
)

type Service struct {
	repo  Repository
	store blob.Store
}

func NewService(repo Repository, store blob.Store) *Service {
	return &Service{repo: repo, store: store}
}

// Create sends an article to another user. Sharing with yourself or with a
// user who does not exist is a validation error; a missing article is not
// found.
func (s *Service) Create(
	ctx context.Context,
	actor access.Actor,
	articleID, recipientID string,
) (*ShareResponse, error) {
	if err := access.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	if recipientID == actor.ID {
		return nil, core.ValidationError(
			"You cannot share an article with yourself",
			map[string]string{"recipient_id": "must be a different user"},
		)
	}

	ok, err := s.repo.ArticleExists(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.NotFoundError("article")
	}

	ok, err = s.repo.UserExists(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.ValidationError(
			"recipient does not exist",
			map[string]string{"recipient_id": "does not exist"},
		)
	}

	sh := &Share{
		ID:          uuid.New().String(),
		SenderID:    actor.ID,
		RecipientID: recipientID,
		ArticleID:   articleID,
	}
	if err := s.repo.Create(ctx, sh); err != nil {
		return nil, err
	}

	return &ShareResponse{
		ID:          sh.ID,
		SenderID:    sh.SenderID,
		RecipientID: sh.RecipientID,
		ArticleID:   sh.ArticleID,
		CreatedAt:   sh.CreatedAt,
	}, nil
}

func (s *Service) ListReceived(ctx context.Context, actor access.Actor) ([]ShareResponse, error) {
	if err := access.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	received, err := s.repo.ListReceived(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	out := make([]ShareResponse, 0, len(received))
	for _, rc := range received {
		a := rc.Article
		out = append(out, ShareResponse{
			ID:          rc.ID,
			SenderID:    rc.SenderID,
			RecipientID: rc.RecipientID,
			ArticleID:   rc.ArticleID,
			Sender: &SenderResponse{
				ID:              rc.SenderID,
				Name:            rc.SenderName,
				ProfileImageURL: s.url(rc.SenderImage),
			},
			Article: &article.ArticleResponse{
				ID:            a.ID,
				Title:         a.Title,
				Content:       a.Content,
				Image:         s.url(a.Image),
				UserID:        a.UserID,
				IsArchived:    a.IsArchived,
				LikesCount:    a.LikesCount,
				DislikesCount: a.DislikesCount,
				CreatedAt:     a.CreatedAt,
				UpdatedAt:     a.UpdatedAt,
			},
			CreatedAt: rc.CreatedAt,
		})
	}
	return out, nil
}

func (s *Service) url(path *string) *string {
	if path == nil {
		return nil
	}
	u := s.store.URL(*path)
	return &u
}
