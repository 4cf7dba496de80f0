// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/carterperez-dev/articles-api/internal/core"
)

// UpdateProfileRequest is a partial update; nil fields are left alone.
type UpdateProfileRequest struct {
	Name                 *string `json:"name,omitempty"                  validate:"omitempty,min=1,max=255"`
	Email                *string `json:"email,omitempty"                 validate:"omitempty,email,max=255"`
	Password             *string `json:"password,omitempty"              validate:"omitempty,min=6,max=128"`
	PasswordConfirmation *string `json:"password_confirmation,omitempty"`
	Address              *string `json:"address,omitempty"               validate:"omitempty,max=255"`
	Phone                *string `json:"phone,omitempty"                 validate:"omitempty,max=20"`
	City                 *string `json:"city,omitempty"                  validate:"omitempty,max=100"`
	Country              *string `json:"country,omitempty"               validate:"omitempty,max=100"`
	Gender               *string `json:"gender,omitempty"                validate:"omitempty,oneof=male female other"`
	Role                 *string `json:"role,omitempty"                  validate:"omitempty,oneof=user admin"`
}

type UserResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Address         *string   `json:"address"`
	Phone           *string   `json:"phone"`
	City            *string   `json:"city"`
	Country         *string   `json:"country"`
	Gender          string    `json:"gender"`
	Role            string    `json:"role"`
	IsConnected     bool      `json:"is_connected"`
	ProfileImageURL *string   `json:"profile_image_url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ListUsersParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Role     string `json:"role"`
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	p.Page = core.ClampPage(p.Page, p.PageSize)
}

func (p *ListUsersParams) Offset() int {
	return core.PageOffset(p.Page, p.PageSize)
}
