package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/fintrack/internal/model"
)

// PostgresInstructionRepo はPostgreSQLを使用したAI指示リポジトリ。
type PostgresInstructionRepo struct {
	db *sql.DB
}

// NewPostgresInstructionRepo はPostgresInstructionRepoを生成する。
func NewPostgresInstructionRepo(db *sql.DB) *PostgresInstructionRepo {
	return &PostgresInstructionRepo{db: db}
}

const instructionColumns = `id, instruction_type, instruction_text, priority, is_active, created_by, created_at`

// defaultInstructions はResetDefaultsが再投入する既定の指示セット。
// 初期マイグレーションの投入内容と揃えてある。
var defaultInstructions = []struct {
	Type     model.InstructionType
	Text     string
	Priority int
}{
	{model.InstructionTypeGlobal, "You are a helpful financial assistant. Always be encouraging and supportive while providing accurate financial advice. Use clear, simple language.", 1},
	{model.InstructionTypeAdvice, "When providing financial advice, always include disclaimers that this is for informational purposes only and users should consult professional financial advisors for major decisions.", 2},
	{model.InstructionTypeCategorization, "When categorizing transactions, be intelligent about merchant names and descriptions. Consider context clues and common patterns.", 1},
	{model.InstructionTypeBudget, "When suggesting budgets, use the 50/30/20 rule as a baseline: 50% needs, 30% wants, 20% savings and debt repayment.", 1},
}

func scanInstruction(row interface{ Scan(dest ...any) error }) (*model.AIInstruction, error) {
	inst := &model.AIInstruction{}
	var createdBy sql.NullString
	err := row.Scan(
		&inst.ID, &inst.Type, &inst.Text, &inst.Priority,
		&inst.IsActive, &createdBy, &inst.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if createdBy.Valid {
		inst.CreatedBy = createdBy.String
	}
	return inst, nil
}

type instructionQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listInstructions(ctx context.Context, q instructionQuerier, query string) ([]*model.AIInstruction, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instructions []*model.AIInstruction
	for rows.Next() {
		inst, err := scanInstruction(rows)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, inst)
	}
	return instructions, rows.Err()
}

// ListActive は有効な指示をpriority降順・作成日時昇順で返す。
// この順序がプロンプトへの連結順を決める。
func (r *PostgresInstructionRepo) ListActive(ctx context.Context) ([]*model.AIInstruction, error) {
	instructions, err := listInstructions(ctx, r.db,
		`SELECT `+instructionColumns+` FROM ai_instructions
		 WHERE is_active = TRUE
		 ORDER BY priority DESC, created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active instructions: %w", err)
	}
	return instructions, nil
}

// List は全指示をpriority降順・作成日時昇順で返す。管理画面用。
func (r *PostgresInstructionRepo) List(ctx context.Context) ([]*model.AIInstruction, error) {
	instructions, err := listInstructions(ctx, r.db,
		`SELECT `+instructionColumns+` FROM ai_instructions
		 ORDER BY priority DESC, created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list instructions: %w", err)
	}
	return instructions, nil
}

// Create は指示を作成する。
func (r *PostgresInstructionRepo) Create(ctx context.Context, inst *model.AIInstruction) (*model.AIInstruction, error) {
	var createdBy sql.NullString
	if inst.CreatedBy != "" {
		createdBy = sql.NullString{String: inst.CreatedBy, Valid: true}
	}

	created, err := scanInstruction(r.db.QueryRowContext(ctx,
		`INSERT INTO ai_instructions (instruction_type, instruction_text, priority, is_active, created_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+instructionColumns,
		string(inst.Type), inst.Text, inst.Priority, inst.IsActive, createdBy,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create instruction: %w", err)
	}
	return created, nil
}

// Update は指示を部分更新する。nilフィールドは既存値を維持する。見つからない場合はnilを返す。
func (r *PostgresInstructionRepo) Update(ctx context.Context, id string, update InstructionUpdate) (*model.AIInstruction, error) {
	var instType *string
	if update.Type != nil {
		s := string(*update.Type)
		instType = &s
	}

	updated, err := scanInstruction(r.db.QueryRowContext(ctx,
		`UPDATE ai_instructions
		 SET instruction_type = COALESCE($1::text, instruction_type),
		     instruction_text = COALESCE($2::text, instruction_text),
		     priority = COALESCE($3::integer, priority),
		     is_active = COALESCE($4::boolean, is_active)
		 WHERE id = $5
		 RETURNING `+instructionColumns,
		instType, update.Text, update.Priority, update.IsActive, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update instruction: %w", err)
	}
	return updated, nil
}

// Delete は指示を削除する。削除された場合trueを返す。
func (r *PostgresInstructionRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM ai_instructions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete instruction: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// ResetDefaults は全指示を削除し、既定の指示セットを同一トランザクションで再投入する。
// 途中で失敗した場合は削除分も含めて全てロールバックされる。
func (r *PostgresInstructionRepo) ResetDefaults(ctx context.Context, createdBy string) ([]*model.AIInstruction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ai_instructions`); err != nil {
		return nil, fmt.Errorf("failed to clear instructions: %w", err)
	}

	var instructions []*model.AIInstruction
	for _, d := range defaultInstructions {
		inst, err := scanInstruction(tx.QueryRowContext(ctx,
			`INSERT INTO ai_instructions (instruction_type, instruction_text, priority, is_active, created_by)
			 VALUES ($1, $2, $3, TRUE, $4)
			 RETURNING `+instructionColumns,
			string(d.Type), d.Text, d.Priority, createdBy,
		))
		if err != nil {
			return nil, fmt.Errorf("failed to insert default instruction: %w", err)
		}
		instructions = append(instructions, inst)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return instructions, nil
}

// compile-time interface check
var _ InstructionRepository = (*PostgresInstructionRepo)(nil)
