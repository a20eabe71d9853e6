// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/fintrack/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレス完全一致でユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// List は全ユーザーを作成日時降順で返す。管理画面用。
	List(ctx context.Context) ([]*model.User, error)

	// UpdateMonthlyIncome は固定月収を更新する。nilは「固定収入なし」を意味する。
	// 更新後のユーザーを返す。見つからない場合はnilを返す。
	UpdateMonthlyIncome(ctx context.Context, id string, income *decimal.Decimal) (*model.User, error)

	// UpdateRole はユーザーの役割を更新する。見つからない場合はnilを返す。
	UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error)

	// Upsert はメールアドレスをキーにユーザーを作成または更新する。seed処理用。
	Upsert(ctx context.Context, user *model.User) (*model.User, error)
}

// TransactionUpdate は取引の部分更新パラメータ。nilフィールドは変更しない。
type TransactionUpdate struct {
	CategoryID      *string
	Amount          *decimal.Decimal
	Type            *model.TransactionType
	Description     *string
	Merchant        *string
	TransactionDate *time.Time
	PaymentMethod   *string
	Notes           *string
}

// SpendingByCategory はカテゴリ別の支出集計。予算提案のコンテキスト用。
type SpendingByCategory struct {
	Category string
	Average  decimal.Decimal
	Total    decimal.Decimal
}

// ExpenseRecord は支出分析用の1件分の取引データ。
type ExpenseRecord struct {
	Amount          decimal.Decimal
	Description     string
	Category        string // 未分類の場合は空文字
	TransactionDate time.Time
}

// TransactionRepository は取引データの永続化インターフェース。
// すべての操作は所有ユーザーのスコープ内でのみ行われる。
type TransactionRepository interface {
	// FindByID は所有者スコープで取引を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID, id string) (*model.TransactionWithCategory, error)

	// List は所有者の取引一覧をフィルタ付きで返す。
	// 取引日降順、同日の場合は作成日時降順で並ぶ。
	List(ctx context.Context, userID string, filter model.TransactionFilter) ([]*model.TransactionWithCategory, error)

	// Create は取引を作成し、生成されたIDなどを含む完全な行を返す。
	Create(ctx context.Context, tx *model.Transaction) (*model.Transaction, error)

	// Update は所有者スコープで取引を部分更新する。見つからない場合はnilを返す。
	Update(ctx context.Context, userID, id string, update TransactionUpdate) (*model.Transaction, error)

	// Delete は所有者スコープで取引を削除する。削除された場合trueを返す。
	Delete(ctx context.Context, userID, id string) (bool, error)

	// CountByUserID は所有者の取引件数を返す。クォータ評価用。
	CountByUserID(ctx context.Context, userID string) (int, error)

	// Stats は所有者の取引統計（種別合計・カテゴリ内訳・月次推移）を返す。
	Stats(ctx context.Context, userID string, startDate, endDate *time.Time) (*model.TransactionStats, error)

	// TypeTotalsSince は指定日数以内の種別ごとの合計と件数を返す。AIアドバイスのコンテキスト用。
	TypeTotalsSince(ctx context.Context, userID string, days int) ([]model.TypeTotal, error)

	// SpendingByCategorySince は指定日数以内のカテゴリ別支出集計を合計額降順で返す。
	SpendingByCategorySince(ctx context.Context, userID string, days int) ([]SpendingByCategory, error)

	// ExpensesSince は指定日時以降の支出取引を取引日降順で返す。支出分析用。
	ExpensesSince(ctx context.Context, userID string, since time.Time) ([]ExpenseRecord, error)
}

// CategoryRepository はカテゴリ参照データの永続化インターフェース。
type CategoryRepository interface {
	// List は全カテゴリを種別・名前順で返す。
	List(ctx context.Context) ([]*model.Category, error)

	// Create はカテゴリを作成する。
	Create(ctx context.Context, category *model.Category) (*model.Category, error)

	// Update はカテゴリを部分更新する。見つからない場合はnilを返す。
	Update(ctx context.Context, id string, name, icon, color *string, catType *model.TransactionType) (*model.Category, error)
}

// BudgetRepository は予算データの永続化インターフェース。
type BudgetRepository interface {
	// ListByUserID は所有者の有効な予算をカテゴリ情報付きで返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.BudgetWithCategory, error)

	// Create は予算を作成する。
	Create(ctx context.Context, budget *model.Budget) (*model.Budget, error)
}

// GoalRepository は財務目標データの永続化インターフェース。
type GoalRepository interface {
	// ListByUserID は所有者の目標を作成日時降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Goal, error)

	// Create は目標を作成する。
	Create(ctx context.Context, goal *model.Goal) (*model.Goal, error)
}

// InstructionUpdate はAI指示の部分更新パラメータ。nilフィールドは変更しない。
type InstructionUpdate struct {
	Type     *model.InstructionType
	Text     *string
	Priority *int
	IsActive *bool
}

// InstructionRepository はAI指示データの永続化インターフェース。
type InstructionRepository interface {
	// ListActive は有効な指示をpriority降順・作成日時昇順で返す。
	// この順序がプロンプトへの連結順を決める。
	ListActive(ctx context.Context) ([]*model.AIInstruction, error)

	// List は全指示をpriority降順・作成日時昇順で返す。管理画面用。
	List(ctx context.Context) ([]*model.AIInstruction, error)

	// Create は指示を作成する。
	Create(ctx context.Context, inst *model.AIInstruction) (*model.AIInstruction, error)

	// Update は指示を部分更新する。見つからない場合はnilを返す。
	Update(ctx context.Context, id string, update InstructionUpdate) (*model.AIInstruction, error)

	// Delete は指示を削除する。削除された場合trueを返す。
	Delete(ctx context.Context, id string) (bool, error)

	// ResetDefaults は全指示を削除し、既定の指示セットを同一トランザクションで再投入する。
	ResetDefaults(ctx context.Context, createdBy string) ([]*model.AIInstruction, error)
}

// SettingRepository は管理設定の永続化インターフェース。
type SettingRepository interface {
	// Get は指定キーの設定値を返す。未登録の場合は空文字とnilエラーを返す。
	Get(ctx context.Context, key string) (string, error)

	// List は全設定をキー順で返す。
	List(ctx context.Context) ([]*model.AdminSetting, error)

	// Upsert は設定をキーで作成または更新する。
	Upsert(ctx context.Context, setting *model.AdminSetting) (*model.AdminSetting, error)
}

// ChatRepository はAI会話履歴の永続化インターフェース。追記専用。
type ChatRepository interface {
	// Create は会話レコードを追記する。
	Create(ctx context.Context, record *model.ChatRecord) error
}

// AdminConfigRepository はカテゴリルール・予算テンプレート・定型プロンプトの
// 管理参照データをまとめた永続化インターフェース。
type AdminConfigRepository interface {
	// ListCategoryRules は全ルールをカテゴリ名付きでpriority降順で返す。
	ListCategoryRules(ctx context.Context) ([]*model.CategoryRule, error)

	// CreateCategoryRule はルールを作成する。
	CreateCategoryRule(ctx context.Context, rule *model.CategoryRule) (*model.CategoryRule, error)

	// ListBudgetTemplates は全テンプレートを既定優先・名前順で返す。
	ListBudgetTemplates(ctx context.Context) ([]*model.BudgetTemplate, error)

	// CreateBudgetTemplate はテンプレートを作成する。
	CreateBudgetTemplate(ctx context.Context, tmpl *model.BudgetTemplate) (*model.BudgetTemplate, error)

	// ListAIPrompts は有効な定型プロンプトをカテゴリ・タイトル順で返す。
	ListAIPrompts(ctx context.Context) ([]*model.AIPrompt, error)

	// CreateAIPrompt は定型プロンプトを作成する。
	CreateAIPrompt(ctx context.Context, prompt *model.AIPrompt) (*model.AIPrompt, error)
}

// DemoSample はデモリセットで投入するサンプル取引。
// カテゴリはIDではなく名前で指定し、投入時に解決される。
type DemoSample struct {
	CategoryName    string // 空文字は未分類
	Amount          decimal.Decimal
	Type            model.TransactionType
	Description     string
	Merchant        string
	TransactionDate time.Time
	PaymentMethod   string
}

// DemoRepository はデモデータのリセット操作のインターフェース。
type DemoRepository interface {
	// ResetUserData は指定ユーザーの会話履歴・取引・予算・目標を外部キーの依存順に削除し、
	// サンプル取引を再投入する。全体が単一トランザクションで実行され、
	// 途中で失敗した場合は削除分も含めて全てロールバックされる。
	// 投入に成功した取引件数を返す。
	ResetUserData(ctx context.Context, userID string, samples []DemoSample) (int, error)
}
