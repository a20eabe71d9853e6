package repository

import "github.com/google/uuid"

// newRowID はアプリケーション側で新しい行IDを生成する。
func newRowID() string {
	return uuid.New().String()
}
