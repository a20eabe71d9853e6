package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/fintrack/internal/model"
)

// PostgresSettingRepo はPostgreSQLを使用した管理設定リポジトリ。
type PostgresSettingRepo struct {
	db *sql.DB
}

// NewPostgresSettingRepo はPostgresSettingRepoを生成する。
func NewPostgresSettingRepo(db *sql.DB) *PostgresSettingRepo {
	return &PostgresSettingRepo{db: db}
}

// Get は指定キーの設定値を返す。未登録の場合は空文字とnilエラーを返す。
// 呼び出し側が既定値で補うため、未登録はエラーではない。
func (r *PostgresSettingRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT setting_value FROM admin_settings WHERE setting_key = $1`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return value, nil
}

// List は全設定をキー順で返す。
func (r *PostgresSettingRepo) List(ctx context.Context) ([]*model.AdminSetting, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT setting_key, setting_value, description, updated_at
		 FROM admin_settings ORDER BY setting_key`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var settings []*model.AdminSetting
	for rows.Next() {
		s := &model.AdminSetting{}
		if err := rows.Scan(&s.Key, &s.Value, &s.Description, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings = append(settings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settings: %w", err)
	}
	return settings, nil
}

// Upsert は設定をキーで作成または更新する。
func (r *PostgresSettingRepo) Upsert(ctx context.Context, setting *model.AdminSetting) (*model.AdminSetting, error) {
	saved := &model.AdminSetting{}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO admin_settings (setting_key, setting_value, description, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (setting_key)
		 DO UPDATE SET setting_value = $2,
		               description = COALESCE(NULLIF($3, ''), admin_settings.description),
		               updated_at = now()
		 RETURNING setting_key, setting_value, description, updated_at`,
		setting.Key, setting.Value, setting.Description,
	).Scan(&saved.Key, &saved.Value, &saved.Description, &saved.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert setting: %w", err)
	}
	return saved, nil
}

// compile-time interface check
var _ SettingRepository = (*PostgresSettingRepo)(nil)
