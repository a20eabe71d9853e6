package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/fintrack/internal/model"
)

// PostgresCategoryRepo はPostgreSQLを使用したカテゴリリポジトリ。
type PostgresCategoryRepo struct {
	db *sql.DB
}

// NewPostgresCategoryRepo はPostgresCategoryRepoを生成する。
func NewPostgresCategoryRepo(db *sql.DB) *PostgresCategoryRepo {
	return &PostgresCategoryRepo{db: db}
}

const categoryColumns = `id, name, type, icon, color, parent_id, is_system, created_at`

func scanCategory(row interface{ Scan(dest ...any) error }) (*model.Category, error) {
	c := &model.Category{}
	var parentID sql.NullString
	err := row.Scan(&c.ID, &c.Name, &c.Type, &c.Icon, &c.Color, &parentID, &c.IsSystem, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		c.ParentID = &parentID.String
	}
	return c, nil
}

// List は全カテゴリを種別・名前順で返す。
func (r *PostgresCategoryRepo) List(ctx context.Context) ([]*model.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY type, name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}

// Create はカテゴリを作成する。
func (r *PostgresCategoryRepo) Create(ctx context.Context, category *model.Category) (*model.Category, error) {
	created, err := scanCategory(r.db.QueryRowContext(ctx,
		`INSERT INTO categories (name, type, icon, color, parent_id, is_system)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+categoryColumns,
		category.Name, string(category.Type), category.Icon, category.Color,
		category.ParentID, category.IsSystem,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return created, nil
}

// Update はカテゴリを部分更新する。nil引数は既存値を維持する。見つからない場合はnilを返す。
func (r *PostgresCategoryRepo) Update(ctx context.Context, id string, name, icon, color *string, catType *model.TransactionType) (*model.Category, error) {
	var typeParam *string
	if catType != nil {
		s := string(*catType)
		typeParam = &s
	}

	updated, err := scanCategory(r.db.QueryRowContext(ctx,
		`UPDATE categories
		 SET name = COALESCE($1::text, name),
		     type = COALESCE($2::text, type),
		     icon = COALESCE($3::text, icon),
		     color = COALESCE($4::text, color)
		 WHERE id = $5
		 RETURNING `+categoryColumns,
		name, typeParam, icon, color, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return updated, nil
}

// compile-time interface check
var _ CategoryRepository = (*PostgresCategoryRepo)(nil)
