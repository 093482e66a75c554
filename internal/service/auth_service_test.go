package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/aiverse-api/internal/model"
	"github.com/d60-Lab/aiverse-api/internal/repository"
	"github.com/d60-Lab/aiverse-api/pkg/errcode"
	"github.com/d60-Lab/aiverse-api/pkg/jwt"
)

func newAuthService(f *fixture, tokens *jwt.Service) AuthService {
	svc := NewAuthService(f.users, tokens)
	svc.(*authService).cost = bcrypt.MinCost
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	f := setup(t)
	tokens := jwt.NewService("secret", time.Hour)
	svc := newAuthService(f, tokens)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "Alice@Example.com", Password: "pw123456"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "pw123456", u.HashedPassword)

	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Email: "new@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrUserTaken)

	tok, err := svc.Login(ctx, "alice@example.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.TokenType)

	claims, err := tokens.ValidateToken(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	_, err = svc.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "pw123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	got, err := svc.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = svc.GetUser(ctx, 777)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

// staleUsers 模拟并发注册：Taken 检查时对方尚未提交
type staleUsers struct {
	repository.UserRepository
}

func (staleUsers) Taken(context.Context, string, string) (bool, error) { return false, nil }

func TestRegister_ConcurrentDuplicateIsConflict(t *testing.T) {
	f := setup(t)
	svc := NewAuthService(staleUsers{f.users}, jwt.NewService("secret", time.Hour))
	svc.(*authService).cost = bcrypt.MinCost
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "carol", Email: "carol@example.com", Password: "pw123456"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "carol", Email: "other@example.com", Password: "pw123456"})
	assert.ErrorIs(t, err, ErrUserTaken)
	assert.True(t, errcode.Is(err, errcode.Conflict))

	_, err = svc.Register(ctx, RegisterInput{Username: "carol2", Email: "Carol@Example.com", Password: "pw123456"})
	assert.ErrorIs(t, err, ErrUserTaken)
}

func TestRegister_PasswordByteLimit(t *testing.T) {
	f := setup(t)
	svc := newAuthService(f, jwt.NewService("secret", time.Hour))
	ctx := context.Background()

	// 30 个字符但 90 字节
	long := strings.Repeat("密", 30)
	_, err := svc.Register(ctx, RegisterInput{Username: "dave", Email: "dave@example.com", Password: long})
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	assert.True(t, errcode.Is(err, errcode.InvalidArgument))

	var n int64
	require.NoError(t, f.db.Model(&model.User{}).Count(&n).Error)
	assert.Zero(t, n)

	// 正好 72 字节
	_, err = svc.Register(ctx, RegisterInput{Username: "dave", Email: "dave@example.com", Password: strings.Repeat("密", 24)})
	require.NoError(t, err)
	_, err = svc.Login(ctx, "dave@example.com", strings.Repeat("密", 24))
	require.NoError(t, err)
}

func TestLogin_InactiveUser(t *testing.T) {
	f := setup(t)
	svc := newAuthService(f, jwt.NewService("secret", time.Hour))
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Username: "bob", Email: "bob@example.com", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(u).Update("is_active", false).Error)

	_, err = svc.Login(ctx, "bob@example.com", "pw")
	assert.ErrorIs(t, err, ErrInactiveUser)
}
