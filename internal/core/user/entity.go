package user

import (
	"time"

	"github.com/ogurasousui/onboarding-engine/internal/core/access"
)

// User はユーザーエンティティです。
type User struct {
	ID          string
	Email       string
	Name        string
	PhoneNumber string
	Roles       []access.Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasRole はユーザーが role を持つかを返します。
func (u *User) HasRole(role access.Role) bool {
	if u == nil {
		return false
	}
	return access.HasRole(access.Principal{UserID: u.ID, Roles: u.Roles}, role)
}
