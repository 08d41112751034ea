// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"errors"

	"resume-smart-go/internal/apperror"
	"resume-smart-go/internal/model"

	"gorm.io/gorm"
)

// UserRepository 接口定义了用户数据的持久化操作。
type UserRepository interface {
	Create(user *model.User) error
	FindByEmail(email string) (*model.User, error)
	FindByUserID(userID string) (*model.User, error)
}

// userRepository 是 UserRepository 接口的 GORM 实现。
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建一个新的 UserRepository 实例。
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create 在数据库中创建一个新的用户记录，邮箱或 user_id 重复时返回 Conflict。
func (r *userRepository) Create(user *model.User) error {
	err := r.db.Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict("user with this email already exists")
	}
	return err
}

// FindByEmail 根据邮箱查找用户，找不到时返回 NotFound。
func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	return r.first("email = ?", email)
}

// FindByUserID 根据对外的 user_id 查找用户。
func (r *userRepository) FindByUserID(userID string) (*model.User, error) {
	return r.first("user_id = ?", userID)
}

func (r *userRepository) first(query string, arg interface{}) (*model.User, error) {
	var user model.User
	err := r.db.Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
