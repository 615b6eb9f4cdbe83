package model

import (
	"time"

	"github.com/google/uuid"
)

// User is an activated account. It only exists after a pending activation
// has been verified.
type User struct {
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	IsSeller     bool      `gorm:"not null;default:false" json:"isSeller"`
	Img          string    `json:"img,omitempty"`
	Country      string    `json:"country,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Description  string    `json:"desc,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

type ContextKey string

const UserIDKey ContextKey = "userID"

// UserResponse is what the API exposes about a user.
type UserResponse struct {
	UserID      uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	IsSeller    bool      `json:"isSeller"`
	Img         string    `json:"img,omitempty"`
	Country     string    `json:"country,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Description string    `json:"desc,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewUserResponse(u *User) *UserResponse {
	return &UserResponse{
		UserID:      u.UserID,
		Username:    u.Username,
		Email:       u.Email,
		IsSeller:    u.IsSeller,
		Img:         u.Img,
		Country:     u.Country,
		Phone:       u.Phone,
		Description: u.Description,
		CreatedAt:   u.CreatedAt,
	}
}
