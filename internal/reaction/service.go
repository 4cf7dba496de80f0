// AngelaMos | 2026
// service.go

package reaction

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/articles-api/internal/access"
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

// Toggle applies a like or dislike for the actor on one article. The row
// change and both counter deltas commit together while the article row is
// locked, so concurrent toggles on the same article run one at a time.
func (s *Service) Toggle(
	ctx context.Context,
	actor access.Actor,
	articleID string,
	action Action,
) (*ToggleResponse, error) {
	if err := access.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	ctx, span := core.StartSpan(ctx, "reaction.toggle",
		attribute.String("article.id", articleID),
		attribute.String("reaction.action", string(action)),
	)
	defer span.End()

	var resp ToggleResponse
	err := s.repo.InTx(ctx, func(tx Tx) error {
		if err := tx.LockArticle(ctx, articleID); err != nil {
			return err
		}

		existing, err := tx.FindReaction(ctx, actor.ID, articleID)
		if err != nil {
			return err
		}

		current := StateOf(existing)
		step, err := Transition(current, action)
		if err != nil {
			return err
		}

		switch step.Op {
		case OpCreate:
			err = tx.InsertReaction(ctx, &Like{
				ID:        uuid.New().String(),
				UserID:    actor.ID,
				ArticleID: articleID,
				Liked:     step.Next == StateLiked,
			})
		case OpUpdate:
			err = tx.SetReaction(ctx, existing.ID, step.Next == StateLiked)
		case OpDelete:
			err = tx.DeleteReaction(ctx, existing.ID)
		}
		if err != nil {
			return err
		}

		counters, err := tx.AdjustCounters(ctx, articleID, step.LikesDelta, step.DislikesDelta)
		if err != nil {
			return err
		}

		core.AddSpanEvent(ctx, "reaction.transition",
			attribute.String("from", string(current)),
			attribute.String("to", string(step.Next)),
		)

		resp = ToggleResponse{
			ArticleID:     articleID,
			State:         step.Next,
			UserLike:      step.Next.UserLike(),
			LikesCount:    counters.LikesCount,
			DislikesCount: counters.DislikesCount,
			Message:       step.Message,
		}
		return nil
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	return &resp, nil
}

func (s *Service) Like(ctx context.Context, actor access.Actor, articleID string) (*ToggleResponse, error) {
	return s.Toggle(ctx, actor, articleID, ActionLike)
}

func (s *Service) Dislike(ctx context.Context, actor access.Actor, articleID string) (*ToggleResponse, error) {
	return s.Toggle(ctx, actor, articleID, ActionDislike)
}

// GetLikes reports reaction counts for an article along with who likes it.
func (s *Service) GetLikes(
	ctx context.Context,
	actor access.Actor,
	articleID string,
) (*LikesResponse, error) {
	if err := access.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	counts, err := s.repo.CountReactions(ctx, articleID)
	if err != nil {
		return nil, err
	}

	likers, err := s.repo.Likers(ctx, articleID)
	if err != nil {
		return nil, err
	}

	resp := &LikesResponse{
		ArticleID:     articleID,
		LikesCount:    counts.LikesCount,
		DislikesCount: counts.DislikesCount,
		Likers:        make([]LikerResponse, 0, len(likers)),
	}
	for _, l := range likers {
		lr := LikerResponse{ID: l.UserID, Name: l.Name}
		if l.ProfileImage != nil {
			u := s.store.URL(*l.ProfileImage)
			lr.ProfileImageURL = &u
		}
		resp.Likers = append(resp.Likers, lr)
	}

	return resp, nil
}

// GetUserTotalLikes counts the likes received across all of the actor's
// articles.
func (s *Service) GetUserTotalLikes(
	ctx context.Context,
	actor access.Actor,
) (*TotalLikesResponse, error) {
	if err := access.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	total, err := s.repo.TotalLikes(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	return &TotalLikesResponse{UserID: actor.ID, TotalLikes: total}, nil
}

// Recount repairs drifted counters. It is an audit tool and never part of
// a toggle.
func (s *Service) Recount(ctx context.Context) (int, error) {
	ctx, span := core.StartSpan(ctx, "reaction.recount")
	defer span.End()

	n, err := s.repo.Recount(ctx)
	if err != nil {
		core.SetSpanError(ctx, err)
		return 0, err
	}

	if n > 0 {
		slog.Warn("reaction counters repaired", "articles", n)
	}
	return n, nil
}
