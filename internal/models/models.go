package models

import "time"

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Firstname    string `gorm:"size:64"`
	Lastname     string `gorm:"size:64"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GroupMessage 群聊消息，落库后不可变，广播时原样下发。
type GroupMessage struct {
	ID        uint   `gorm:"primaryKey"`
	FromUser  string `gorm:"index;size:64;not null"`
	Room      string `gorm:"index:idx_group_room;size:128;not null"`
	Message   string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

// PrivateMessage 私聊消息，历史查询覆盖两个方向。
type PrivateMessage struct {
	ID        uint   `gorm:"primaryKey"`
	FromUser  string `gorm:"index:idx_pm_from;size:64;not null"`
	ToUser    string `gorm:"index:idx_pm_to;size:64;not null"`
	Message   string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;not null"`
	Token     string    `gorm:"uniqueIndex;size:128;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	RevokedAt *time.Time
	CreatedAt time.Time
}
