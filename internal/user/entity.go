// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/carterperez-dev/articles-api/internal/access"
)

type User struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Address      *string   `db:"address"`
	Phone        *string   `db:"phone"`
	City         *string   `db:"city"`
	Country      *string   `db:"country"`
	Gender       string    `db:"gender"`
	Role         string    `db:"role"`
	IsConnected  bool      `db:"is_connected"`
	TokenVersion int       `db:"token_version"`
	ProfileImage *string   `db:"profile_image"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == access.RoleAdmin
}

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)
