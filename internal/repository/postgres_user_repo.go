package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/fintrack/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, monthly_income, role, is_active, created_at, updated_at`

// scanUser は1行をmodel.Userに読み込む。
func scanUser(row interface{ Scan(dest ...any) error }) (*model.User, error) {
	user := &model.User{}
	var income decimal.NullDecimal
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &income,
		&user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if income.Valid {
		user.MonthlyIncome = &income.Decimal
	}
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail はメールアドレス完全一致でユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// List は全ユーザーを作成日時降順で返す。
func (r *PostgresUserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// UpdateMonthlyIncome は固定月収を更新する。nilは「固定収入なし」を意味する。
func (r *PostgresUserRepo) UpdateMonthlyIncome(ctx context.Context, id string, income *decimal.Decimal) (*model.User, error) {
	var nullIncome decimal.NullDecimal
	if income != nil {
		nullIncome = decimal.NullDecimal{Decimal: *income, Valid: true}
	}

	user, err := scanUser(r.db.QueryRowContext(ctx,
		`UPDATE users SET monthly_income = $1, updated_at = now()
		 WHERE id = $2
		 RETURNING `+userColumns,
		nullIncome, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update monthly income: %w", err)
	}
	return user, nil
}

// UpdateRole はユーザーの役割を更新する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`UPDATE users SET role = $1, updated_at = now()
		 WHERE id = $2
		 RETURNING `+userColumns,
		string(role), id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}
	return user, nil
}

// Upsert はメールアドレスをキーにユーザーを作成または更新する。seed処理用。
func (r *PostgresUserRepo) Upsert(ctx context.Context, u *model.User) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name, role, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (email)
		 DO UPDATE SET password_hash = $2, role = $5, is_active = $6, updated_at = now()
		 RETURNING `+userColumns,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, string(u.Role), u.IsActive,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
