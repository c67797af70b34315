// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/carterperez-dev/templates/identity-service/internal/account"
)

type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Username string `json:"username" validate:"required,min=3,max=64,alphanum"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Nickname string `json:"nickname" validate:"omitempty,max=64"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required,uuid4"`
}

type UpdateProfileRequest struct {
	Nickname    *string `json:"nickname,omitempty"    validate:"omitempty,min=1,max=64"`
	Avatar      *string `json:"avatar,omitempty"      validate:"omitempty,max=512"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1024"`
	State       *string `json:"state,omitempty"       validate:"omitempty,max=128"`
	Gender      *string `json:"gender,omitempty"      validate:"omitempty,oneof=male female custom"`
}

type DeleteSelfRequest struct {
	Password string `json:"password" validate:"required"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=inactive active banned deleted"`
}

type ProfileResponse struct {
	Avatar      string         `json:"avatar"`
	Description string         `json:"description"`
	State       string         `json:"state"`
	Gender      account.Gender `json:"gender"`
}

type UserResponse struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	Username  string          `json:"username"`
	Nickname  string          `json:"nickname"`
	Status    account.Status  `json:"status"`
	Profile   ProfileResponse `json:"profile"`
	Level     *int            `json:"level,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type ResetPasswordResponse struct {
	TemporaryPassword string `json:"temporary_password"`
}

type ListUsersParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Status   *account.Status
}

type UserListResponse struct {
	Users    []UserResponse `json:"users"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
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
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		Nickname: u.Nickname,
		Status:   u.Status,
		Profile: ProfileResponse{
			Avatar:      u.Avatar,
			Description: u.Description,
			State:       u.State,
			Gender:      u.Gender,
		},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}
