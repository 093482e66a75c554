package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/aiverse-api/internal/model"
	"github.com/d60-Lab/aiverse-api/internal/repository"
	"github.com/d60-Lab/aiverse-api/pkg/errcode"
	"github.com/d60-Lab/aiverse-api/pkg/jwt"
)

var (
	ErrUserTaken          = errcode.New(errcode.Conflict, "username or email already registered")
	ErrInvalidCredentials = errcode.New(errcode.Unauthorized, "incorrect email or password")
	ErrInactiveUser       = errcode.New(errcode.Unauthorized, "inactive user")
	ErrPasswordTooLong    = errcode.New(errcode.InvalidArgument, "password must be at most 72 bytes")
)

// bcrypt 只接受前 72 字节
const maxPasswordBytes = 72

type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName *string
	Bio      *string
}

// Token 登录返回
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*Token, error)
	GetUser(ctx context.Context, id uint) (*model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Service
	cost     int
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Service) AuthService {
	return &authService{userRepo: userRepo, tokens: tokens, cost: bcrypt.DefaultCost}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if len(in.Password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	taken, err := s.userRepo.Taken(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUserTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Username:       username,
		Email:          email,
		HashedPassword: string(hash),
		FullName:       in.FullName,
		Bio:            in.Bio,
		IsActive:       true,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		// 并发注册越过 Taken 检查时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserTaken
		}
		return nil, err
	}
	return u, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*Token, error) {
	u, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}
	tok, err := s.tokens.GenerateToken(u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	return &Token{AccessToken: tok, TokenType: "bearer"}, nil
}

func (s *authService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return u, nil
}
