package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/fintrack/internal/model"
)

// PostgresChatRepo はPostgreSQLを使用したAI会話履歴リポジトリ。追記専用。
type PostgresChatRepo struct {
	db *sql.DB
}

// NewPostgresChatRepo はPostgresChatRepoを生成する。
func NewPostgresChatRepo(db *sql.DB) *PostgresChatRepo {
	return &PostgresChatRepo{db: db}
}

// Create は会話レコードを追記する。
func (r *PostgresChatRepo) Create(ctx context.Context, record *model.ChatRecord) error {
	contextJSON := record.Context
	if len(contextJSON) == 0 {
		contextJSON = []byte(`{}`)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ai_chat_history (user_id, message, response, tokens_used, context)
		 VALUES ($1, $2, $3, $4, $5)`,
		record.UserID, record.Message, record.Response, record.TokensUsed, []byte(contextJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to create chat record: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ChatRepository = (*PostgresChatRepo)(nil)
