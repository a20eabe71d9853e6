package ai

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/fintrack/internal/model"
	"github.com/hitoshi/fintrack/internal/repository"
)

// systemPromptHeader は全AI機能に共通する固定のシステムプロンプト冒頭。
const systemPromptHeader = "You are a helpful AI financial assistant for a personal finance tracking application.\n\n"

// BuildSystemPrompt は管理者指示を集約したシステムプロンプトを組み立てる。
// 指示はpriority降順・作成日時昇順で渡される前提で、type=global または
// type=capability のものだけを渡された順序のまま連結する。
// 該当する指示がない場合は固定冒頭のみの最小プロンプトを返す。
func BuildSystemPrompt(instructions []*model.AIInstruction, capability model.InstructionType) string {
	var sb strings.Builder
	sb.WriteString(systemPromptHeader)

	var relevant []*model.AIInstruction
	for _, inst := range instructions {
		if inst.Type == model.InstructionTypeGlobal || inst.Type == capability {
			relevant = append(relevant, inst)
		}
	}

	if len(relevant) > 0 {
		sb.WriteString("=== Administrator Guidelines ===\n")
		for _, inst := range relevant {
			sb.WriteString(inst.Text)
			sb.WriteString("\n\n")
		}
	}

	return sb.String()
}

// buildCategorizePrompt は取引の自動分類を依頼するユーザープロンプトを組み立てる。
// カテゴリは収入・支出でグループ化し、IDつきで列挙する。
func buildCategorizePrompt(categories []*model.Category, description string, amount decimal.Decimal, merchant string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Categorize the following transaction:\nDescription: %s\nAmount: $%s\n", description, amount.StringFixed(2))
	if merchant != "" {
		fmt.Fprintf(&sb, "Merchant: %s\n", merchant)
	}

	sb.WriteString("\nAvailable categories (grouped by type):\nINCOME CATEGORIES:\n")
	for _, cat := range categories {
		if cat.Type == model.TransactionTypeIncome {
			fmt.Fprintf(&sb, "- %s (ID: %s)\n", cat.Name, cat.ID)
		}
	}
	sb.WriteString("\nEXPENSE CATEGORIES:\n")
	for _, cat := range categories {
		if cat.Type == model.TransactionTypeExpense {
			fmt.Fprintf(&sb, "- %s (ID: %s)\n", cat.Name, cat.ID)
		}
	}

	sb.WriteString("\nIMPORTANT: If the description suggests this is income (received, earned, paid to me, salary, etc.), choose an INCOME category. Otherwise, choose an EXPENSE category.\n\n")
	sb.WriteString(`Return ONLY a JSON object with the category_id and confidence (0-1). Example: {"category_id": "uuid-here", "confidence": 0.95}`)

	return sb.String()
}

// buildParsePrompt は自然言語入力の構造化を依頼するユーザープロンプトを組み立てる。
// 日付が省略された場合の既定値として今日の日付を埋め込む。
func buildParsePrompt(input string, today time.Time) string {
	return fmt.Sprintf(`Parse the following natural language transaction input into structured data:

%q

Extract:
- amount (number)
- description (string)
- merchant (string, if mentioned)
- date (YYYY-MM-DD format, use today if not specified: %s)
- type (income or expense)

Return ONLY a JSON object. Example:
{
  "amount": 45.50,
  "description": "Groceries",
  "merchant": "Whole Foods",
  "date": "2024-01-15",
  "type": "expense"
}`, input, today.Format("2006-01-02"))
}

// buildAdvicePrompt は直近30日の収支サマリーを文脈として付与した
// 財務アドバイス用のユーザープロンプトを組み立てる。
func buildAdvicePrompt(totals []model.TypeTotal, question string) string {
	var sb strings.Builder
	sb.WriteString("\n=== User Financial Context (Last 30 days) ===\n")
	for _, t := range totals {
		fmt.Fprintf(&sb, "%s: $%s (%d transactions)\n", t.Type, t.Total.StringFixed(2), t.Count)
	}
	fmt.Fprintf(&sb, "\n\nUser Question: %s", question)
	return sb.String()
}

// buildBudgetPrompt は予算提案用のユーザープロンプトを組み立てる。
// 固定月収がある場合と変動収入の場合でプロンプトを分岐する。
func buildBudgetPrompt(spending []repository.SpendingByCategory, monthlyIncome *decimal.Decimal) string {
	var ctx strings.Builder
	ctx.WriteString("\n=== User Spending History (Last 90 days) ===\n")
	total := decimal.Zero
	for _, s := range spending {
		total = total.Add(s.Total)
	}
	for _, s := range spending {
		fmt.Fprintf(&ctx, "%s: $%s\n", s.Category, s.Total.StringFixed(2))
	}
	fmt.Fprintf(&ctx, "Total Spending (90 days): $%s\n", total.StringFixed(2))
	fmt.Fprintf(&ctx, "Average Monthly Spending: $%s\n", total.DivRound(decimal.NewFromInt(3), 2).StringFixed(2))

	if monthlyIncome != nil {
		return fmt.Sprintf(`Generate personalized budget recommendations for a user with monthly income of $%s.

%s

Provide budget allocations for major categories (Housing, Food, Transportation, Savings, etc.) with specific dollar amounts and percentages. Be practical and consider their spending history.

Return as JSON array:
[
  {"category": "Housing", "amount": 1500, "percentage": 30},
  {"category": "Food", "amount": 500, "percentage": 10},
  ...
]`, monthlyIncome.StringFixed(2), ctx.String())
	}

	return fmt.Sprintf(`Generate personalized budget recommendations for a user with VARIABLE INCOME (gig/project worker).

%s

Since the user doesn't have fixed monthly income, provide budget recommendations based on their spending patterns. Suggest:
1. Essential spending categories with recommended amounts based on their history
2. Flexible spending targets
3. Emergency fund recommendations (in months of expenses, not dollars)
4. Tips for managing variable income

Return as JSON array with practical suggestions:
[
  {"category": "Essential Expenses", "amount": 2000, "note": "Based on your average spending"},
  {"category": "Emergency Fund", "amount": 6000, "note": "3 months of expenses recommended"},
  {"category": "Variable Buffer", "amount": 500, "note": "For income fluctuations"},
  ...
]`, ctx.String())
}

// maxAnalysisTransactions は支出分析のプロンプトに列挙する取引の上限。
// 全件を埋め込むとトークンを浪費するため先頭のみ使う。
const maxAnalysisTransactions = 20

// buildAnalysisPrompt は支出分析用のユーザープロンプトを組み立てる。
func buildAnalysisPrompt(expenses []repository.ExpenseRecord, totalSpent decimal.Decimal) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze the following spending data and provide insights:\n\n")
	fmt.Fprintf(&sb, "Total Spent: $%s\n", totalSpent.StringFixed(2))
	fmt.Fprintf(&sb, "Number of Transactions: %d\n\n", len(expenses))

	sb.WriteString("Top Transactions:\n")
	top := expenses
	if len(top) > maxAnalysisTransactions {
		top = top[:maxAnalysisTransactions]
	}
	for _, e := range top {
		category := e.Category
		if category == "" {
			category = "Uncategorized"
		}
		fmt.Fprintf(&sb, "- $%s on %s (%s) - %s\n",
			e.Amount.StringFixed(2), e.Description, category, e.TransactionDate.Format("2006-01-02"))
	}

	sb.WriteString(`
Provide:
1. Key spending patterns
2. Unusual or concerning spending
3. Recommendations for improvement
4. Potential savings opportunities`)

	return sb.String()
}

// ExtractJSON はAI応答からJSON部分を取り出す。
// markdownのコードフェンス（``` / ```json）で囲まれた応答を許容し、
// 最初のオブジェクトまたは配列の開始から対応する終了までを返す。
// JSONが見つからない場合は空文字とfalseを返す。
func ExtractJSON(content string) (string, bool) {
	s := strings.TrimSpace(content)

	// コードフェンスを剥がす
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	objStart := strings.IndexAny(s, "{[")
	if objStart < 0 {
		return "", false
	}

	var closer byte
	if s[objStart] == '{' {
		closer = '}'
	} else {
		closer = ']'
	}
	objEnd := strings.LastIndexByte(s, closer)
	if objEnd <= objStart {
		return "", false
	}

	return s[objStart : objEnd+1], true
}
