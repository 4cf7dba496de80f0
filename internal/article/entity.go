// AngelaMos | 2026
// entity.go

package article

import (
	"time"
)

// PageSize is fixed for every article listing.
const PageSize = 4

type Article struct {
	ID            string    `db:"id"`
	Title         string    `db:"title"`
	Content       string    `db:"content"`
	Image         *string   `db:"image"`
	UserID        string    `db:"user_id"`
	IsArchived    bool      `db:"is_archived"`
	LikesCount    int       `db:"likes_count"`
	DislikesCount int       `db:"dislikes_count"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// Row is an article as read for display: author identity plus whether the
// viewing user currently likes it.
type Row struct {
	Article
	AuthorName  string  `db:"author_name"`
	AuthorImage *string `db:"author_image"`
	UserLike    bool    `db:"user_like"`
}

type Reaction struct {
	UserID       string  `db:"user_id"`
	Name         string  `db:"name"`
	ProfileImage *string `db:"profile_image"`
	Liked        bool    `db:"liked"`
}

type Liker struct {
	ArticleID    string  `db:"article_id"`
	UserID       string  `db:"user_id"`
	Name         string  `db:"name"`
	ProfileImage *string `db:"profile_image"`
}
