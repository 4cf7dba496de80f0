// AngelaMos | 2026
// entity.go

package reaction

import (
	"time"
)

type Like struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	ArticleID string    `db:"article_id"`
	Liked     bool      `db:"liked"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type Counters struct {
	LikesCount    int `db:"likes_count"`
	DislikesCount int `db:"dislikes_count"`
}

type Liker struct {
	UserID       string  `db:"user_id"`
	Name         string  `db:"name"`
	ProfileImage *string `db:"profile_image"`
}
