// Package auth は認証（ログインとセッショントークン）を提供する。
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/fintrack/internal/model"
)

// トークン検証の失敗理由。ハンドラーが401レスポンスのコードを選ぶために使う。
var (
	// ErrTokenExpired はトークンの有効期限切れを示す。
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid は署名・形式が不正なトークンを示す。
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims はセッショントークンに埋め込む内容。
// 標準クレームに加えてユーザーIDと役割を保持する。
type Claims struct {
	jwt.RegisteredClaims
	UserID string     `json:"user_id"`
	Role   model.Role `json:"role"`
}

// GenerateToken はユーザーIDと役割を埋め込んだHS256署名トークンを発行する。
// 有効期限はttl経過時点。サーバー側にセッション状態は持たない。
func GenerateToken(userID string, role model.Role, secret []byte, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
		Role:   role,
	})

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ParseToken はトークンを検証してClaimsを返す。
// 期限切れはErrTokenExpired、それ以外の検証失敗はErrTokenInvalidにマップする。
func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
