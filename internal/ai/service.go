package ai

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/fintrack/internal/model"
	"github.com/hitoshi/fintrack/internal/repository"
)

// 各AI機能の温度と最大トークン数。分類系は決定的に、文章系は多様に。
const (
	categorizeTemperature = 0.3
	categorizeMaxTokens   = 100

	parseTemperature = 0.3
	parseMaxTokens   = 200

	adviceTemperature      = 0.7
	defaultAdviceMaxTokens = 1000

	budgetTemperature = 0.5
	budgetMaxTokens   = 800

	analysisTemperature = 0.7
	analysisMaxTokens   = 1000
)

// メトリクスのcapabilityラベル値。
const (
	capabilityCategorize = "categorize"
	capabilityParse      = "parse"
	capabilityAdvice     = "advice"
	capabilityBudget     = "budget"
	capabilityAnalysis   = "analysis"
)

// chatbotDisabledMessage はチャットボット無効時の固定応答。
const chatbotDisabledMessage = "AI chatbot is currently disabled by the administrator."

// ChatCompleter はchat completions呼び出しのインターフェース。
// Clientの部分集合として定義する。
type ChatCompleter interface {
	Complete(ctx context.Context, params ChatParams) (*ChatResult, error)
}

// InstructionLister は有効な管理者指示の取得に必要なインターフェース。
type InstructionLister interface {
	ListActive(ctx context.Context) ([]*model.AIInstruction, error)
}

// SettingReader は設定値の取得に必要なインターフェース。
type SettingReader interface {
	Get(ctx context.Context, key string) (string, error)
}

// CategoryLister はカテゴリ一覧の取得に必要なインターフェース。
type CategoryLister interface {
	List(ctx context.Context) ([]*model.Category, error)
}

// TransactionContextReader はAIプロンプトの文脈データ取得に必要なインターフェース。
// repository.TransactionRepositoryの部分集合として定義する。
type TransactionContextReader interface {
	TypeTotalsSince(ctx context.Context, userID string, days int) ([]model.TypeTotal, error)
	SpendingByCategorySince(ctx context.Context, userID string, days int) ([]repository.SpendingByCategory, error)
	ExpensesSince(ctx context.Context, userID string, since time.Time) ([]repository.ExpenseRecord, error)
}

// ChatWriter は会話履歴の追記に必要なインターフェース。
type ChatWriter interface {
	Create(ctx context.Context, record *model.ChatRecord) error
}

// Sanitizer はAI回答のサニタイズに必要なインターフェース。
type Sanitizer interface {
	Sanitize(raw string) string
}

// Metrics はAI呼び出しのメトリクス記録に必要なインターフェース。
type Metrics interface {
	RecordAICallSuccess(capability string)
	RecordAICallFailure(capability string, reason string)
	RecordAILatency(capability string, duration time.Duration)
	RecordAITokensUsed(capability string, tokens int)
}

// Service はAI機能のオーケストレーションを行う。
// 管理者指示の集約、文脈データの収集、応答の解析と後処理を担う。
type Service struct {
	completer    ChatCompleter
	instructions InstructionLister
	settings     SettingReader
	categories   CategoryLister
	transactions TransactionContextReader
	chats        ChatWriter
	sanitizer    Sanitizer
	metrics      Metrics
	logger       *slog.Logger

	// now はテストで時刻を固定するために差し替え可能。
	now func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	completer ChatCompleter,
	instructions InstructionLister,
	settings SettingReader,
	categories CategoryLister,
	transactions TransactionContextReader,
	chats ChatWriter,
	sanitizer Sanitizer,
	metrics Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		completer:    completer,
		instructions: instructions,
		settings:     settings,
		categories:   categories,
		transactions: transactions,
		chats:        chats,
		sanitizer:    sanitizer,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// systemPrompt は管理者指示を集約したシステムプロンプトを構築する。
// 指示の取得に失敗した場合は固定冒頭のみで続行する。
func (s *Service) systemPrompt(ctx context.Context, capability model.InstructionType) string {
	instructions, err := s.instructions.ListActive(ctx)
	if err != nil {
		s.logger.Warn("failed to load AI instructions, using base prompt",
			slog.String("error", err.Error()),
		)
		instructions = nil
	}
	return BuildSystemPrompt(instructions, capability)
}

// complete はメトリクス記録つきでchat completionsを呼び出す。
func (s *Service) complete(ctx context.Context, capability string, params ChatParams) (*ChatResult, error) {
	start := time.Now()
	result, err := s.completer.Complete(ctx, params)
	s.metrics.RecordAILatency(capability, time.Since(start))
	if err != nil {
		reason := "upstream"
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.Code {
			case model.ErrCodeAITimeout:
				reason = "timeout"
			case model.ErrCodeAIResponseMalformed:
				reason = "malformed"
			}
		}
		s.metrics.RecordAICallFailure(capability, reason)
		return nil, err
	}
	s.metrics.RecordAICallSuccess(capability)
	s.metrics.RecordAITokensUsed(capability, result.TokensUsed)
	return result, nil
}

// CategorizeResult は自動分類の結果。
type CategorizeResult struct {
	CategoryID string  `json:"category_id"`
	Confidence float64 `json:"confidence"`
}

// Categorize は取引の説明からカテゴリを推定する。
// ベストエフォートで動作し、設定で無効化されている場合・AI呼び出しに失敗した場合・
// AIがカテゴリを決められなかった場合はいずれもnilを返す（未分類のまま）。
func (s *Service) Categorize(ctx context.Context, description string, amount decimal.Decimal, merchant string) *CategorizeResult {
	// 1. 自動分類が無効なら何もしない
	enabled, err := s.settings.Get(ctx, model.SettingAutoCategorization)
	if err != nil {
		s.logger.Warn("failed to read auto categorization setting",
			slog.String("error", err.Error()),
		)
		return nil
	}
	if enabled == "false" {
		return nil
	}

	// 2. カテゴリ一覧を取得してプロンプトを構築
	categories, err := s.categories.List(ctx)
	if err != nil {
		s.logger.Warn("failed to load categories for AI categorization",
			slog.String("error", err.Error()),
		)
		return nil
	}

	result, err := s.complete(ctx, capabilityCategorize, ChatParams{
		SystemPrompt: s.systemPrompt(ctx, model.InstructionTypeCategorization),
		UserPrompt:   buildCategorizePrompt(categories, description, amount, merchant),
		Temperature:  categorizeTemperature,
		MaxTokens:    categorizeMaxTokens,
	})
	if err != nil {
		s.logger.Warn("AI categorization failed, leaving transaction uncategorized",
			slog.String("error", err.Error()),
		)
		return nil
	}

	// 3. 応答を解析。解析不能・category_id欠落は未分類として扱う
	raw, ok := ExtractJSON(result.Content)
	if !ok {
		s.logger.Warn("AI categorization response contained no JSON")
		return nil
	}
	var parsed CategorizeResult
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		s.logger.Warn("failed to parse AI categorization response",
			slog.String("error", err.Error()),
		)
		return nil
	}
	if parsed.CategoryID == "" {
		return nil
	}

	// 4. 返されたIDが実在するカテゴリか検証する
	for _, cat := range categories {
		if cat.ID == parsed.CategoryID {
			return &parsed
		}
	}
	s.logger.Warn("AI returned unknown category ID",
		slog.String("category_id", parsed.CategoryID),
	)
	return nil
}

// ParsedTransaction は自然言語入力から構造化された取引。
type ParsedTransaction struct {
	Amount      decimal.Decimal
	Description string
	Merchant    string
	Date        time.Time
	Type        model.TransactionType
}

// parsedTransactionPayload はAI応答のJSON構造。
type parsedTransactionPayload struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Merchant    string          `json:"merchant"`
	Date        string          `json:"date"`
	Type        string          `json:"type"`
}

// ParseTransaction は自然言語の取引入力を構造化する。
// 日付が省略・解析不能な場合は今日の日付を使う。
func (s *Service) ParseTransaction(ctx context.Context, input string) (*ParsedTransaction, error) {
	today := s.now()

	result, err := s.complete(ctx, capabilityParse, ChatParams{
		SystemPrompt: s.systemPrompt(ctx, model.InstructionTypeCategorization),
		UserPrompt:   buildParsePrompt(input, today),
		Temperature:  parseTemperature,
		MaxTokens:    parseMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	raw, ok := ExtractJSON(result.Content)
	if !ok {
		return nil, model.NewAIResponseMalformedError()
	}
	var payload parsedTransactionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		s.logger.Warn("failed to parse AI transaction response",
			slog.String("error", err.Error()),
		)
		return nil, model.NewAIResponseMalformedError()
	}

	txType := model.TransactionType(payload.Type)
	if !txType.Valid() {
		return nil, model.NewAIResponseMalformedError()
	}
	if payload.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, model.NewAIResponseMalformedError()
	}

	date := today
	if payload.Date != "" {
		if parsed, perr := time.Parse("2006-01-02", payload.Date); perr == nil {
			date = parsed
		}
	}

	return &ParsedTransaction{
		Amount:      payload.Amount,
		Description: payload.Description,
		Merchant:    payload.Merchant,
		Date:        date,
		Type:        txType,
	}, nil
}

// AdviceResult は財務アドバイスの結果。
type AdviceResult struct {
	Response   string
	TokensUsed int
}

// adviceContextDays はアドバイスの文脈に使う収支サマリーの期間（日）。
const adviceContextDays = 30

// chatPersistTimeout は会話履歴の非同期保存のタイムアウト。
const chatPersistTimeout = 10 * time.Second

// Advice はユーザーの質問に対する財務アドバイスを返す。
// 設定chatbot_enabledがfalseの場合はAIを呼ばず固定メッセージを返す。
// 回答はサニタイズしたうえで会話履歴に非同期・ベストエフォートで保存する。
// 保存に失敗しても回答は返される。
func (s *Service) Advice(ctx context.Context, userID, question string, chatContext json.RawMessage) (*AdviceResult, error) {
	// 1. チャットボットの有効性を確認
	enabled, err := s.settings.Get(ctx, model.SettingChatbotEnabled)
	if err != nil {
		s.logger.Warn("failed to read chatbot setting",
			slog.String("error", err.Error()),
		)
	}
	if enabled == "false" {
		return &AdviceResult{Response: chatbotDisabledMessage, TokensUsed: 0}, nil
	}

	// 2. 直近30日の収支サマリーを文脈として収集
	totals, err := s.transactions.TypeTotalsSince(ctx, userID, adviceContextDays)
	if err != nil {
		s.logger.Warn("failed to load transaction context for advice",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		totals = nil
	}

	// 3. 出力トークン上限を設定から読み取る
	maxTokens := defaultAdviceMaxTokens
	if value, serr := s.settings.Get(ctx, model.SettingMaxTokensPerRequest); serr == nil && value != "" {
		if parsed, perr := strconv.Atoi(value); perr == nil && parsed > 0 {
			maxTokens = parsed
		}
	}

	result, err := s.complete(ctx, capabilityAdvice, ChatParams{
		SystemPrompt: s.systemPrompt(ctx, model.InstructionTypeAdvice),
		UserPrompt:   buildAdvicePrompt(totals, question),
		Temperature:  adviceTemperature,
		MaxTokens:    maxTokens,
	})
	if err != nil {
		return nil, err
	}

	answer := s.sanitizer.Sanitize(result.Content)

	// 4. 会話履歴への保存は非同期・ベストエフォート
	go func() {
		persistCtx, cancel := context.WithTimeout(context.Background(), chatPersistTimeout)
		defer cancel()

		record := &model.ChatRecord{
			UserID:     userID,
			Message:    question,
			Response:   answer,
			TokensUsed: result.TokensUsed,
			Context:    chatContext,
		}
		if err := s.chats.Create(persistCtx, record); err != nil {
			s.logger.Error("failed to persist chat record",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}()

	return &AdviceResult{
		Response:   answer,
		TokensUsed: result.TokensUsed,
	}, nil
}

// budgetContextDays は予算提案の文脈に使う支出履歴の期間（日）。
const budgetContextDays = 90

// BudgetRecommendations は予算提案をJSON配列で返す。
// 月収はリクエスト指定→プロフィールの固定月収→変動収入向けプロンプトの順で決まる。
func (s *Service) BudgetRecommendations(ctx context.Context, user *model.User, incomeOverride *decimal.Decimal) (json.RawMessage, error) {
	spending, err := s.transactions.SpendingByCategorySince(ctx, user.ID, budgetContextDays)
	if err != nil {
		s.logger.Warn("failed to load spending history for budget recommendations",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		spending = nil
	}

	income := incomeOverride
	if income == nil {
		income = user.MonthlyIncome
	}

	result, err := s.complete(ctx, capabilityBudget, ChatParams{
		SystemPrompt: s.systemPrompt(ctx, model.InstructionTypeBudget),
		UserPrompt:   buildBudgetPrompt(spending, income),
		Temperature:  budgetTemperature,
		MaxTokens:    budgetMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	raw, ok := ExtractJSON(result.Content)
	if !ok {
		return nil, model.NewAIResponseMalformedError()
	}
	var recommendations []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &recommendations); err != nil {
		s.logger.Warn("failed to parse AI budget recommendations",
			slog.String("error", err.Error()),
		)
		return nil, model.NewAIResponseMalformedError()
	}

	return json.RawMessage(raw), nil
}

// AnalysisResult は支出分析の結果。
type AnalysisResult struct {
	Analysis         string
	TotalSpent       decimal.Decimal
	TransactionCount int
}

// SpendingAnalysis は指定期間の支出パターンを分析する。
// periodはweek・month・yearのいずれか。空文字はmonthとして扱う。
func (s *Service) SpendingAnalysis(ctx context.Context, userID, period string) (*AnalysisResult, error) {
	now := s.now()
	var since time.Time
	switch period {
	case "week":
		since = now.AddDate(0, 0, -7)
	case "month", "":
		since = now.AddDate(0, -1, 0)
	case "year":
		since = now.AddDate(-1, 0, 0)
	default:
		return nil, model.NewValidationError("period must be one of: week, month, year")
	}

	expenses, err := s.transactions.ExpensesSince(ctx, userID, since)
	if err != nil {
		s.logger.Error("failed to load expenses for spending analysis",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	totalSpent := decimal.Zero
	for _, e := range expenses {
		totalSpent = totalSpent.Add(e.Amount)
	}

	result, err := s.complete(ctx, capabilityAnalysis, ChatParams{
		SystemPrompt: s.systemPrompt(ctx, model.InstructionTypeAdvice),
		UserPrompt:   buildAnalysisPrompt(expenses, totalSpent),
		Temperature:  analysisTemperature,
		MaxTokens:    analysisMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	return &AnalysisResult{
		Analysis:         result.Content,
		TotalSpent:       totalSpent,
		TransactionCount: len(expenses),
	}, nil
}
