package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresDemoRepo はデモデータのリセットを行うPostgreSQLリポジトリ。
type PostgresDemoRepo struct {
	db *sql.DB
}

// NewPostgresDemoRepo はPostgresDemoRepoを生成する。
func NewPostgresDemoRepo(db *sql.DB) *PostgresDemoRepo {
	return &PostgresDemoRepo{db: db}
}

// ResetUserData は指定ユーザーの会話履歴・取引・予算・目標を外部キーの依存順に削除し、
// サンプル取引を再投入する。全体が単一トランザクションで実行され、
// 途中で失敗した場合は削除分も含めて全てロールバックされる。
// サンプルのカテゴリは名前で解決し、該当カテゴリがない場合は未分類として投入する。
func (r *PostgresDemoRepo) ResetUserData(ctx context.Context, userID string, samples []DemoSample) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 1. 依存順に既存データを削除する
	deletes := []string{
		`DELETE FROM ai_chat_history WHERE user_id = $1`,
		`DELETE FROM transactions WHERE user_id = $1`,
		`DELETE FROM budgets WHERE user_id = $1`,
		`DELETE FROM financial_goals WHERE user_id = $1`,
	}
	for _, q := range deletes {
		if _, err := tx.ExecContext(ctx, q, userID); err != nil {
			return 0, fmt.Errorf("failed to clear user data: %w", err)
		}
	}

	// 2. カテゴリ名→IDの対応表を作る
	catRows, err := tx.QueryContext(ctx, `SELECT id, name FROM categories`)
	if err != nil {
		return 0, fmt.Errorf("failed to load categories: %w", err)
	}
	categoryIDs := map[string]string{}
	for catRows.Next() {
		var id, name string
		if err := catRows.Scan(&id, &name); err != nil {
			catRows.Close()
			return 0, fmt.Errorf("failed to scan category: %w", err)
		}
		categoryIDs[name] = id
	}
	catRows.Close()
	if err := catRows.Err(); err != nil {
		return 0, fmt.Errorf("failed to iterate categories: %w", err)
	}

	// 3. サンプル取引を投入する
	inserted := 0
	for _, sample := range samples {
		var categoryID sql.NullString
		if id, ok := categoryIDs[sample.CategoryName]; ok {
			categoryID = sql.NullString{String: id, Valid: true}
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (id, user_id, category_id, amount, type, description, merchant, transaction_date, payment_method)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			newRowID(), userID, categoryID, sample.Amount, string(sample.Type),
			sample.Description, sample.Merchant, sample.TransactionDate, sample.PaymentMethod,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert sample transaction: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, nil
}

// compile-time interface check
var _ DemoRepository = (*PostgresDemoRepo)(nil)
