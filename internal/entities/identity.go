package entities

import "time"

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// DefaultRoles are created at startup when missing.
var DefaultRoles = []string{RoleAdmin, RoleUser}

type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserName     string     `gorm:"uniqueIndex;size:256" json:"user_name"`
	Email        string     `gorm:"uniqueIndex;size:256" json:"email"`
	PasswordHash string     `gorm:"size:255" json:"-"`
	Roles        []Role     `gorm:"many2many:user_roles;" json:"roles,omitempty"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type Role struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:64" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// HasRole reports whether the user's loaded roles include name.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

func (User) TableName() string {
	return "users"
}

func (Role) TableName() string {
	return "roles"
}
