package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/fintrack/internal/model"
)

// PostgresGoalRepo はPostgreSQLを使用した財務目標リポジトリ。
type PostgresGoalRepo struct {
	db *sql.DB
}

// NewPostgresGoalRepo はPostgresGoalRepoを生成する。
func NewPostgresGoalRepo(db *sql.DB) *PostgresGoalRepo {
	return &PostgresGoalRepo{db: db}
}

const goalColumns = `id, user_id, title, description, target_amount, current_amount, target_date, created_at`

func scanGoal(row interface{ Scan(dest ...any) error }) (*model.Goal, error) {
	g := &model.Goal{}
	var targetDate sql.NullTime
	err := row.Scan(
		&g.ID, &g.UserID, &g.Title, &g.Description,
		&g.TargetAmount, &g.CurrentAmount, &targetDate, &g.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if targetDate.Valid {
		g.TargetDate = &targetDate.Time
	}
	return g, nil
}

// ListByUserID は所有者の目標を作成日時降順で返す。
func (r *PostgresGoalRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM financial_goals
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	var goals []*model.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate goals: %w", err)
	}
	return goals, nil
}

// Create は目標を作成する。
func (r *PostgresGoalRepo) Create(ctx context.Context, goal *model.Goal) (*model.Goal, error) {
	created, err := scanGoal(r.db.QueryRowContext(ctx,
		`INSERT INTO financial_goals (user_id, title, description, target_amount, current_amount, target_date)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+goalColumns,
		goal.UserID, goal.Title, goal.Description,
		goal.TargetAmount, goal.CurrentAmount, goal.TargetDate,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}
	return created, nil
}

// compile-time interface check
var _ GoalRepository = (*PostgresGoalRepo)(nil)
