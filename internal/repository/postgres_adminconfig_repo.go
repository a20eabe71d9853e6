package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/fintrack/internal/model"
)

// PostgresAdminConfigRepo はカテゴリルール・予算テンプレート・定型プロンプトの
// 管理参照データをまとめたPostgreSQLリポジトリ。
type PostgresAdminConfigRepo struct {
	db *sql.DB
}

// NewPostgresAdminConfigRepo はPostgresAdminConfigRepoを生成する。
func NewPostgresAdminConfigRepo(db *sql.DB) *PostgresAdminConfigRepo {
	return &PostgresAdminConfigRepo{db: db}
}

// ListCategoryRules は全ルールをカテゴリ名付きでpriority降順で返す。
func (r *PostgresAdminConfigRepo) ListCategoryRules(ctx context.Context) ([]*model.CategoryRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.category_id, c.name, r.pattern, r.rule_type, r.priority, r.is_active, r.created_at
		 FROM category_rules r
		 JOIN categories c ON r.category_id = c.id
		 ORDER BY r.priority DESC, r.created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list category rules: %w", err)
	}
	defer rows.Close()

	var rules []*model.CategoryRule
	for rows.Next() {
		rule := &model.CategoryRule{}
		err := rows.Scan(
			&rule.ID, &rule.CategoryID, &rule.CategoryName, &rule.Pattern,
			&rule.RuleType, &rule.Priority, &rule.IsActive, &rule.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category rules: %w", err)
	}
	return rules, nil
}

// CreateCategoryRule はルールを作成する。
func (r *PostgresAdminConfigRepo) CreateCategoryRule(ctx context.Context, rule *model.CategoryRule) (*model.CategoryRule, error) {
	created := &model.CategoryRule{CategoryName: rule.CategoryName}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO category_rules (category_id, pattern, rule_type, priority, is_active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, category_id, pattern, rule_type, priority, is_active, created_at`,
		rule.CategoryID, rule.Pattern, rule.RuleType, rule.Priority, rule.IsActive,
	).Scan(
		&created.ID, &created.CategoryID, &created.Pattern,
		&created.RuleType, &created.Priority, &created.IsActive, &created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create category rule: %w", err)
	}
	return created, nil
}

// ListBudgetTemplates は全テンプレートを既定優先・名前順で返す。
func (r *PostgresAdminConfigRepo) ListBudgetTemplates(ctx context.Context) ([]*model.BudgetTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, template_data, is_default, created_at
		 FROM budget_templates
		 ORDER BY is_default DESC, name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget templates: %w", err)
	}
	defer rows.Close()

	var templates []*model.BudgetTemplate
	for rows.Next() {
		tmpl := &model.BudgetTemplate{}
		var data []byte
		err := rows.Scan(&tmpl.ID, &tmpl.Name, &tmpl.Description, &data, &tmpl.IsDefault, &tmpl.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget template: %w", err)
		}
		tmpl.TemplateData = data
		templates = append(templates, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate budget templates: %w", err)
	}
	return templates, nil
}

// CreateBudgetTemplate はテンプレートを作成する。
func (r *PostgresAdminConfigRepo) CreateBudgetTemplate(ctx context.Context, tmpl *model.BudgetTemplate) (*model.BudgetTemplate, error) {
	templateData := tmpl.TemplateData
	if len(templateData) == 0 {
		templateData = []byte(`{}`)
	}

	created := &model.BudgetTemplate{}
	var data []byte
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO budget_templates (name, description, template_data, is_default)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, name, description, template_data, is_default, created_at`,
		tmpl.Name, tmpl.Description, []byte(templateData), tmpl.IsDefault,
	).Scan(&created.ID, &created.Name, &created.Description, &data, &created.IsDefault, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create budget template: %w", err)
	}
	created.TemplateData = data
	return created, nil
}

// ListAIPrompts は有効な定型プロンプトをカテゴリ・タイトル順で返す。
func (r *PostgresAdminConfigRepo) ListAIPrompts(ctx context.Context) ([]*model.AIPrompt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, description, prompt_text, category, is_active, created_at
		 FROM ai_prompts
		 WHERE is_active = TRUE
		 ORDER BY category, title`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ai prompts: %w", err)
	}
	defer rows.Close()

	var prompts []*model.AIPrompt
	for rows.Next() {
		p := &model.AIPrompt{}
		err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.PromptText, &p.Category, &p.IsActive, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ai prompt: %w", err)
		}
		prompts = append(prompts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ai prompts: %w", err)
	}
	return prompts, nil
}

// CreateAIPrompt は定型プロンプトを作成する。
func (r *PostgresAdminConfigRepo) CreateAIPrompt(ctx context.Context, prompt *model.AIPrompt) (*model.AIPrompt, error) {
	created := &model.AIPrompt{}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO ai_prompts (title, description, prompt_text, category, is_active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, title, description, prompt_text, category, is_active, created_at`,
		prompt.Title, prompt.Description, prompt.PromptText, prompt.Category, prompt.IsActive,
	).Scan(&created.ID, &created.Title, &created.Description, &created.PromptText,
		&created.Category, &created.IsActive, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create ai prompt: %w", err)
	}
	return created, nil
}

// compile-time interface check
var _ AdminConfigRepository = (*PostgresAdminConfigRepo)(nil)
