// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"interviewiq-go/internal/model"
	"interviewiq-go/internal/repository"
	"interviewiq-go/pkg/hash"
	"interviewiq-go/pkg/log"
	"interviewiq-go/pkg/token"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserService 接口定义了所有与用户相关的业务操作。
type UserService interface {
	Register(username, email, password string) (*model.User, error)
	Login(username, password string) (accessToken, refreshToken string, err error)
	GetProfile(username string) (*model.User, error)
	Logout(ctx context.Context, tokenString string) error
	IsTokenRevoked(ctx context.Context, claims *token.CustomClaims) bool
	RefreshToken(ctx context.Context, refreshTokenString string) (newAccessToken, newRefreshToken string, err error)
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
func (s *userService) Register(username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)

	// 1. 检查用户名是否已存在
	_, err := s.userRepo.FindByUsername(username)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 2. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// 3. 创建新用户
	newUser := &model.User{
		Username: username,
		Email:    strings.TrimSpace(email),
		Password: hashedPassword,
		Role:     model.RoleUser,
	}
	if err := s.userRepo.Create(newUser); err != nil {
		log.Errorf("[UserService] 创建用户失败, username: %s, error: %v", username, err)
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}
	return newUser, nil
}

// Login 处理用户登录的业务逻辑。
func (s *userService) Login(username, password string) (accessToken, refreshToken string, err error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}

	if !hash.CheckPasswordHash(password, user.Password) {
		return "", "", ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

// GetProfile 根据用户名获取用户详细信息。
func (s *userService) GetProfile(username string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Logout 将 token 的 jti 加入 Redis 黑名单，并吊销它所属的登录会话，
// 同一次登录签发的 refresh token 随之失效。
func (s *userService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return err
	}
	if err := s.tokenRepo.Blacklist(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		return err
	}
	if claims.SessionID == "" {
		return nil
	}
	return s.tokenRepo.Blacklist(ctx, sessionKey(claims.SessionID), s.jwtManager.RefreshTokenTTL())
}

// IsTokenRevoked 检查 token 本身或其所属会话是否已登出。Redis 不可用时放行并记录日志。
func (s *userService) IsTokenRevoked(ctx context.Context, claims *token.CustomClaims) bool {
	if claims == nil {
		return false
	}
	for _, id := range revocationIDs(claims) {
		revoked, err := s.tokenRepo.IsBlacklisted(ctx, id)
		if err != nil {
			log.Warnf("[UserService] 检查 token 黑名单失败: %v", err)
			return false
		}
		if revoked {
			return true
		}
	}
	return false
}

// RefreshToken 验证 refresh token 并签发新的 access token 和 refresh token。
// 旧的 refresh token 随即作废，新 token 沿用原会话，登出后整条链都不可再刷新。
func (s *userService) RefreshToken(ctx context.Context, refreshTokenString string) (newAccessToken, newRefreshToken string, err error) {
	claims, err := s.jwtManager.VerifyTokenType(refreshTokenString, token.TypeRefresh)
	if err != nil {
		return "", "", ErrInvalidRefreshToken
	}
	if s.IsTokenRevoked(ctx, claims) {
		return "", "", ErrInvalidRefreshToken
	}

	user, err := s.userRepo.FindByUsername(claims.Username)
	if err != nil {
		return "", "", ErrUserNotFound
	}
	if err := s.tokenRepo.Blacklist(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		log.Warnf("[UserService] 作废旧 refresh token 失败: %v", err)
	}

	sessionID := claims.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return s.jwtManager.GenerateTokenPair(user.ID, user.Username, user.Role, sessionID)
}

func (s *userService) issueTokens(user *model.User) (string, string, error) {
	return s.jwtManager.GenerateTokenPair(user.ID, user.Username, user.Role, uuid.NewString())
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

func revocationIDs(claims *token.CustomClaims) []string {
	var ids []string
	if claims.ID != "" {
		ids = append(ids, claims.ID)
	}
	if claims.SessionID != "" {
		ids = append(ids, sessionKey(claims.SessionID))
	}
	return ids
}
