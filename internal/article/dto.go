// AngelaMos | 2026
// dto.go

package article

import (
	"time"
)

type CreateArticleRequest struct {
	Title   string `json:"title"   validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
}

type UpdateArticleRequest struct {
	Title   *string `json:"title,omitempty"   validate:"omitempty,min=1,max=255"`
	Content *string `json:"content,omitempty" validate:"omitempty,min=1"`
}

type AuthorResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	ProfileImageURL *string `json:"profile_image_url"`
}

type ArticleResponse struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Content       string          `json:"content"`
	Image         *string         `json:"image"`
	UserID        string          `json:"user_id"`
	IsArchived    bool            `json:"is_archived"`
	LikesCount    int             `json:"likes_count"`
	DislikesCount int             `json:"dislikes_count"`
	UserLike      bool            `json:"user_like"`
	User          *AuthorResponse `json:"user,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type ReactionResponse struct {
	UserID          string  `json:"user_id"`
	Name            string  `json:"name"`
	ProfileImageURL *string `json:"profile_image_url"`
	Liked           bool    `json:"liked"`
}

type ArticleDetailResponse struct {
	ArticleResponse
	Reactions []ReactionResponse `json:"reactions"`
}

type LikerResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	ProfileImageURL *string `json:"profile_image_url"`
}

type OwnArticleResponse struct {
	ArticleResponse
	Likers []LikerResponse `json:"likers"`
}
