// AngelaMos | 2026
// entity.go

package share

import (
	"time"

	"github.com/carterperez-dev/articles-api/internal/article"
)

// Share is append-only. The same article may be sent to the same recipient
// any number of times.
type Share struct {
	ID          string    `db:"id"`
	SenderID    string    `db:"sender_id"`
	RecipientID string    `db:"recipient_id"`
	ArticleID   string    `db:"article_id"`
	CreatedAt   time.Time `db:"created_at"`
}

// Received is a share as seen by its recipient: who sent it plus the
// article it points at.
type Received struct {
	Share
	SenderName  string          `db:"sender_name"`
	SenderImage *string         `db:"sender_image"`
	Article     article.Article `db:"article"`
}

type CreateShareRequest struct {
	RecipientID string `json:"recipient_id" validate:"required,uuid"`
}

type SenderResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	ProfileImageURL *string `json:"profile_image_url"`
}

type ShareResponse struct {
	ID          string                   `json:"id"`
	SenderID    string                   `json:"sender_id"`
	RecipientID string                   `json:"recipient_id"`
	ArticleID   string                   `json:"article_id"`
	Sender      *SenderResponse          `json:"sender,omitempty"`
	Article     *article.ArticleResponse `json:"article,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
}
