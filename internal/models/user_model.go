package models

import "time"

// User identity. Rows are created lazily on first contact with a verified
// identity and never change afterwards apart from that creation.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	PasswordHash string    `gorm:"size:128" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) Member() Member {
	return Member{ID: u.ID, Username: u.Username}
}
