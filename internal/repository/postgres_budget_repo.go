package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/fintrack/internal/model"
)

// PostgresBudgetRepo はPostgreSQLを使用した予算リポジトリ。
type PostgresBudgetRepo struct {
	db *sql.DB
}

// NewPostgresBudgetRepo はPostgresBudgetRepoを生成する。
func NewPostgresBudgetRepo(db *sql.DB) *PostgresBudgetRepo {
	return &PostgresBudgetRepo{db: db}
}

// ListByUserID は所有者の有効な予算をカテゴリ情報付きで作成日時降順に返す。
func (r *PostgresBudgetRepo) ListByUserID(ctx context.Context, userID string) ([]*model.BudgetWithCategory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id, b.user_id, b.category_id, b.amount, b.period, b.start_date, b.end_date,
		        b.is_active, b.created_at,
		        COALESCE(c.name, ''), COALESCE(c.icon, ''), COALESCE(c.color, '')
		 FROM budgets b
		 LEFT JOIN categories c ON b.category_id = c.id
		 WHERE b.user_id = $1 AND b.is_active = TRUE
		 ORDER BY b.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []*model.BudgetWithCategory
	for rows.Next() {
		b := &model.BudgetWithCategory{}
		var categoryID sql.NullString
		var endDate sql.NullTime
		err := rows.Scan(
			&b.ID, &b.UserID, &categoryID, &b.Amount, &b.Period, &b.StartDate, &endDate,
			&b.IsActive, &b.CreatedAt,
			&b.CategoryName, &b.CategoryIcon, &b.CategoryColor,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		if categoryID.Valid {
			b.CategoryID = &categoryID.String
		}
		if endDate.Valid {
			b.EndDate = &endDate.Time
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate budgets: %w", err)
	}
	return budgets, nil
}

// Create は予算を作成する。
func (r *PostgresBudgetRepo) Create(ctx context.Context, budget *model.Budget) (*model.Budget, error) {
	created := &model.Budget{}
	var categoryID sql.NullString
	var endDate sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO budgets (user_id, category_id, amount, period, start_date, end_date)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, user_id, category_id, amount, period, start_date, end_date, is_active, created_at`,
		budget.UserID, budget.CategoryID, budget.Amount, budget.Period,
		budget.StartDate, budget.EndDate,
	).Scan(
		&created.ID, &created.UserID, &categoryID, &created.Amount, &created.Period,
		&created.StartDate, &endDate, &created.IsActive, &created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create budget: %w", err)
	}
	if categoryID.Valid {
		created.CategoryID = &categoryID.String
	}
	if endDate.Valid {
		created.EndDate = &endDate.Time
	}
	return created, nil
}

// compile-time interface check
var _ BudgetRepository = (*PostgresBudgetRepo)(nil)
