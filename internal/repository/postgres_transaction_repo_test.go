package repository

import (
	"testing"

	"github.com/google/uuid"
)

// PostgresTransactionRepoはTransactionRepositoryインターフェースを満たすことを検証
func TestPostgresTransactionRepo_ImplementsInterface(t *testing.T) {
	var _ TransactionRepository = (*PostgresTransactionRepo)(nil)
}

// PostgresCategoryRepoはCategoryRepositoryインターフェースを満たすことを検証
func TestPostgresCategoryRepo_ImplementsInterface(t *testing.T) {
	var _ CategoryRepository = (*PostgresCategoryRepo)(nil)
}

// PostgresBudgetRepoはBudgetRepositoryインターフェースを満たすことを検証
func TestPostgresBudgetRepo_ImplementsInterface(t *testing.T) {
	var _ BudgetRepository = (*PostgresBudgetRepo)(nil)
}

// PostgresGoalRepoはGoalRepositoryインターフェースを満たすことを検証
func TestPostgresGoalRepo_ImplementsInterface(t *testing.T) {
	var _ GoalRepository = (*PostgresGoalRepo)(nil)
}

// PostgresChatRepoはChatRepositoryインターフェースを満たすことを検証
func TestPostgresChatRepo_ImplementsInterface(t *testing.T) {
	var _ ChatRepository = (*PostgresChatRepo)(nil)
}

// PostgresDemoRepoはDemoRepositoryインターフェースを満たすことを検証
func TestPostgresDemoRepo_ImplementsInterface(t *testing.T) {
	var _ DemoRepository = (*PostgresDemoRepo)(nil)
}

// NewPostgresTransactionRepoが正しく初期化されることを検証
func TestNewPostgresTransactionRepo_Initializes(t *testing.T) {
	repo := NewPostgresTransactionRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresCategoryRepoが正しく初期化されることを検証
func TestNewPostgresCategoryRepo_Initializes(t *testing.T) {
	repo := NewPostgresCategoryRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresBudgetRepoが正しく初期化されることを検証
func TestNewPostgresBudgetRepo_Initializes(t *testing.T) {
	repo := NewPostgresBudgetRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresGoalRepoが正しく初期化されることを検証
func TestNewPostgresGoalRepo_Initializes(t *testing.T) {
	repo := NewPostgresGoalRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresDemoRepoが正しく初期化されることを検証
func TestNewPostgresDemoRepo_Initializes(t *testing.T) {
	repo := NewPostgresDemoRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// 取引作成とサンプル投入で使う行ID生成が有効なUUIDを重複なく返すことを検証
func TestNewRowID_GeneratesUniqueUUIDs(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := newRowID()
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("newRowID() = %q, not a valid UUID: %v", id, err)
		}
		if seen[id] {
			t.Fatalf("newRowID() returned duplicate ID %q", id)
		}
		seen[id] = true
	}
}
