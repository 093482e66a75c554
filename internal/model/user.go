package model

import "time"

// User 用户
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	HashedPassword string    `gorm:"not null" json:"-"`
	FullName       *string   `json:"full_name"`
	Bio            *string   `gorm:"type:text" json:"bio"`
	AvatarURL      *string   `json:"avatar_url"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }
