package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                       int        `gorm:"primarykey" json:"id"`
	Username                 string     `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email                    string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash             string     `gorm:"size:255;not null" json:"-"`
	Role                     string     `gorm:"size:20;default:'user'" json:"role"`
	EmailVerified            bool       `gorm:"default:false" json:"email_verified"`
	VerificationToken        *string    `gorm:"size:255" json:"-"`
	VerificationTokenExpires *time.Time `json:"-"`
	CreatedAt                time.Time  `json:"created_at"`
}

func (User) TableName() string { return "users" }

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
