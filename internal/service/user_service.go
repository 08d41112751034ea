// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"resume-smart-go/internal/apperror"
	"resume-smart-go/internal/model"
	"resume-smart-go/internal/repository"
	"resume-smart-go/pkg/log"
	"resume-smart-go/pkg/token"
)

// TokenPair 是登录或注册成功后签发的一组 token。
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// UserService 接口定义了用户相关的业务逻辑。
type UserService interface {
	Register(ctx context.Context, username, email string) (*model.User, *TokenPair, error)
	Login(ctx context.Context, email string) (*model.User, *TokenPair, error)
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	Logout(ctx context.Context, tokenString string) error
	IsTokenRevoked(ctx context.Context, tokenString string) (bool, error)
	RefreshToken(ctx context.Context, refreshTokenString string) (*TokenPair, error)
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo   repository.UserRepository
	tokenRepo  repository.TokenRepository
	jwtManager *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository, jwtManager *token.JWTManager) UserService {
	return &userService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtManager: jwtManager,
	}
}

// Register 处理用户注册的业务逻辑。
func (s *userService) Register(ctx context.Context, username, email string) (*model.User, *TokenPair, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if username == "" || email == "" {
		return nil, nil, apperror.Validation("username and email are required")
	}

	// 1. 检查邮箱是否已被注册
	_, err := s.userRepo.FindByEmail(email)
	if err == nil {
		return nil, nil, apperror.Conflict("user with this email already exists")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, nil, err
	}

	// 2. 创建新用户
	user := &model.User{
		UserID:   newUserID(username, email, time.Now()),
		Username: username,
		Email:    email,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, nil, err
	}
	log.Infof("[UserService] 用户注册成功, user_id: %s", user.UserID)

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// newUserID 取 sha256(username+email+时间) 的前 16 个十六进制字符。
func newUserID(username, email string, now time.Time) string {
	sum := sha256.Sum256([]byte(username + email + now.Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])[:16]
}

// Login 按邮箱登录，成功后签发 token。
func (s *userService) Login(ctx context.Context, email string) (*model.User, *TokenPair, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil, apperror.Validation("email is required")
	}
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, nil, err
	}
	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

func (s *userService) issueTokens(user *model.User) (*TokenPair, error) {
	access, err := s.jwtManager.GenerateToken(user.UserID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("签发 access token 失败: %w", err)
	}
	refresh, err := s.jwtManager.GenerateRefreshToken(user.UserID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("签发 refresh token 失败: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// GetProfile 根据 user_id 获取用户详细信息。
func (s *userService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	return s.userRepo.FindByUserID(userID)
}

// Logout 处理用户登出逻辑，将 token 加入 Redis 黑名单，过期时间为 token 的剩余有效期。
func (s *userService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.jwtManager.VerifyToken(tokenString, token.KindAccess)
	if err != nil {
		return apperror.Validation("invalid token")
	}
	return s.tokenRepo.Revoke(ctx, tokenString, time.Until(claims.ExpiresAt.Time))
}

func (s *userService) IsTokenRevoked(ctx context.Context, tokenString string) (bool, error) {
	return s.tokenRepo.IsRevoked(ctx, tokenString)
}

// RefreshToken 验证 refresh token 并签发新的 access token 和 refresh token。
func (s *userService) RefreshToken(ctx context.Context, refreshTokenString string) (*TokenPair, error) {
	// 1. 验证 refresh token 是否有效
	claims, err := s.jwtManager.VerifyToken(refreshTokenString, token.KindRefresh)
	if err != nil {
		return nil, apperror.Validation("invalid refresh token")
	}

	// 2. 检查用户是否存在
	user, err := s.userRepo.FindByUserID(claims.UserID)
	if err != nil {
		return nil, err
	}

	// 3. 签发新的 token
	return s.issueTokens(user)
}
