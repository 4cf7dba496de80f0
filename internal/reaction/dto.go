// AngelaMos | 2026
// dto.go

package reaction

type ToggleResponse struct {
	ArticleID     string `json:"article_id"`
	State         State  `json:"state"`
	UserLike      *bool  `json:"user_like"`
	LikesCount    int    `json:"likes_count"`
	DislikesCount int    `json:"dislikes_count"`
	Message       string `json:"-"`
}

type LikerResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	ProfileImageURL *string `json:"profile_image_url"`
}

type LikesResponse struct {
	ArticleID     string          `json:"article_id"`
	LikesCount    int             `json:"likes_count"`
	DislikesCount int             `json:"dislikes_count"`
	Likers        []LikerResponse `json:"likers"`
}

type TotalLikesResponse struct {
	UserID     string `json:"user_id"`
	TotalLikes int    `json:"total_likes"`
}
