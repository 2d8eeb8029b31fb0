package users

import (
	"github.com/google/uuid"

	"github.com/autopartsvn/backend/pkg/db/models"
)

// Profile is the public view of a user account.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	UserName  string    `json:"userName"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Address   *string   `json:"address,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	AvatarURL *string   `json:"avatarUrl,omitempty"`
}

// UpdateProfileInput carries the editable profile fields. Nil pointers
// leave the stored value untouched.
type UpdateProfileInput struct {
	UserName string
	FullName *string
	Email    *string
	Address  *string
	Phone    *string
}

// NewProfile maps a user row to its public view.
func NewProfile(user *models.User) *Profile {
	if user == nil {
		return nil
	}
	return &Profile{
		ID:        user.ID,
		UserName:  user.UserName,
		FullName:  user.FullName,
		Email:     user.Email,
		Role:      user.Role.String(),
		Address:   user.Address,
		Phone:     user.Phone,
		AvatarURL: user.AvatarURL,
	}
}
