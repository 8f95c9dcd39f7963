package service

import (
	"context"
	"fmt"
	"strings"

	"sfu-globe/internal/model"
	"sfu-globe/internal/repository"
	"sfu-globe/pkg/logger"
	"sfu-globe/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// 处理认证相关业务逻辑
type AuthService struct {
	profileRepo *repository.ProfileRepository
	tokens      *utils.TokenManager
}

// 创建一个新的认证服务实例
func NewAuthService(profileRepo *repository.ProfileRepository, tokens *utils.TokenManager) *AuthService {
	return &AuthService{
		profileRepo: profileRepo,
		tokens:      tokens,
	}
}

// 用户注册请求
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FullName  string `json:"full_name" validate:"required,max=100"`
	Username  string `json:"username" validate:"omitempty,min=3,max=30"`
	StudentID string `json:"student_id" validate:"required,max=30"`
	Major     string `json:"major" validate:"max=100"`
	Batch     string `json:"batch" validate:"max=20"`
}

// 用户登陆请求
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// 注册新用户，邮箱和学号都不能重复
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.Profile, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.StudentID = strings.TrimSpace(req.StudentID)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	// 检查邮箱是否已存在
	existing, err := s.profileRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	// 检查学号是否已存在
	existing, err = s.profileRepo.FindByStudentID(ctx, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check student id: %w", err)
	}
	if existing != nil {
		return nil, ErrStudentIDTaken
	}

	// 加密密码
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	profile := &model.Profile{
		Email:     req.Email,
		Password:  string(hashedPassword),
		FullName:  req.FullName,
		Username:  req.Username,
		StudentID: req.StudentID,
		Major:     req.Major,
		Batch:     req.Batch,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	logger.L.Info("Profile registered", zap.String("userID", profile.ID.String()))
	return profile, nil
}

// 用户登陆，返回令牌和用户资料
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (string, *model.Profile, error) {
	if err := validateStruct(req); err != nil {
		return "", nil, err
	}

	profile, err := s.profileRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return "", nil, fmt.Errorf("failed to find profile: %w", err)
	}
	if profile == nil {
		return "", nil, ErrInvalidCredentials
	}

	// 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(profile.Password), []byte(req.Password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(profile.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return token, profile, nil
}

// Authenticate 校验令牌并加载用户
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.Profile, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, err
	}
	profile, err := s.profileRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}
