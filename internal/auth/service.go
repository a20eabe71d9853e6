package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/fintrack/internal/model"
)

// UserFinder はログイン処理に必要なユーザー検索のインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// ServiceConfig はauth.Serviceの設定。
type ServiceConfig struct {
	JWTSecret []byte
	TokenTTL  time.Duration
}

// Service は資格情報の検証とトークン発行を行う。
type Service struct {
	users  UserFinder
	config ServiceConfig
}

// NewService はauth.Serviceを生成する。
func NewService(users UserFinder, config ServiceConfig) *Service {
	return &Service{
		users:  users,
		config: config,
	}
}

// Login はメールアドレスとパスワードを検証し、成功時にセッショントークンを発行する。
//
// アカウントの存在有無を漏らさないため、未登録メールとパスワード不一致は
// どちらもInvalidCredentialsを返す。無効化済みアカウントのみAccountInactiveで区別する。
// 最終ログイン時刻の更新などの副作用は行わない。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	// 1. メールアドレスで検索（保存された値との完全一致）
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, "", model.NewInvalidCredentialsError()
	}

	// 2. アカウントの有効性チェック
	if !user.IsActive {
		return nil, "", model.NewAccountInactiveError()
	}

	// 3. パスワード検証（bcryptは定数時間比較）
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", model.NewInvalidCredentialsError()
	}

	// 4. トークン発行
	token, err := GenerateToken(user.ID, user.Role, s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, token, nil
}

// HashPassword はseed処理用にパスワードのbcryptハッシュを生成する。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
