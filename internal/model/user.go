// Package model 包含了应用的数据模型定义。
package model

import "time"

// User 对应于数据库中的 users 表。
// UserID 是对外暴露的不透明标识，所有文档片段都通过它归属到用户。
type User struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"type:varchar(32);uniqueIndex;not null" json:"user_id"`
	Username  string    `gorm:"type:varchar(255);not null" json:"username"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (User) TableName() string {
	return "users"
}
