// Package demo はデモアカウントの管理機能を提供する。
// 取引件数の利用状況の照会と、サンプルデータへのリセットを含む。
package demo

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/hitoshi/fintrack/internal/model"
	"github.com/hitoshi/fintrack/internal/repository"
)

// TransactionCounter は取引件数の取得に必要なインターフェース。
type TransactionCounter interface {
	CountByUserID(ctx context.Context, userID string) (int, error)
}

// SettingReader は設定値の取得に必要なインターフェース。
type SettingReader interface {
	Get(ctx context.Context, key string) (string, error)
}

// Service はデモアカウント管理のビジネスロジックを提供する。
type Service struct {
	transactions TransactionCounter
	settings     SettingReader
	demoRepo     repository.DemoRepository
	logger       *slog.Logger

	// now はテストで時刻を固定するために差し替え可能。
	now func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(transactions TransactionCounter, settings SettingReader, demoRepo repository.DemoRepository, logger *slog.Logger) *Service {
	return &Service{
		transactions: transactions,
		settings:     settings,
		demoRepo:     demoRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// Stats はデモアカウントの取引件数の利用状況。
type Stats struct {
	Count        int  `json:"count"`
	Limit        int  `json:"limit"`
	Remaining    int  `json:"remaining"`
	LimitReached bool `json:"limitReached"`
}

// Stats は取引件数と上限の利用状況を返す。
// 上限の設定が未登録・不正な場合は既定値を使う。
func (s *Service) Stats(ctx context.Context, userID string) (*Stats, error) {
	count, err := s.transactions.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	limit := model.DefaultDemoTransactionLimit
	if value, serr := s.settings.Get(ctx, model.SettingDemoTransactionLimit); serr == nil && value != "" {
		if parsed, perr := strconv.Atoi(value); perr == nil && parsed > 0 {
			limit = parsed
		}
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &Stats{
		Count:        count,
		Limit:        limit,
		Remaining:    remaining,
		LimitReached: count >= limit,
	}, nil
}

// ResetResult はデモリセットの結果。
type ResetResult struct {
	TransactionsSeeded int `json:"transactionsSeeded"`
}

// Reset はユーザーのデータを削除し、サンプル取引を再投入する。
// 削除と再投入は単一トランザクションで行われ、失敗時は全てロールバックされる。
func (s *Service) Reset(ctx context.Context, userID string) (*ResetResult, error) {
	seeded, err := s.demoRepo.ResetUserData(ctx, userID, SampleTransactions(s.now()))
	if err != nil {
		s.logger.Error("failed to reset demo data",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("demo data reset",
		slog.String("user_id", userID),
		slog.Int("transactions_seeded", seeded),
	)
	return &ResetResult{TransactionsSeeded: seeded}, nil
}
