package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/fintrack/internal/model"
	"github.com/hitoshi/fintrack/internal/repository"
)

// InstructionStore はAI指示の管理に必要な永続化インターフェース。
type InstructionStore interface {
	List(ctx context.Context) ([]*model.AIInstruction, error)
	Create(ctx context.Context, inst *model.AIInstruction) (*model.AIInstruction, error)
	Update(ctx context.Context, id string, update repository.InstructionUpdate) (*model.AIInstruction, error)
	Delete(ctx context.Context, id string) (bool, error)
	ResetDefaults(ctx context.Context, createdBy string) ([]*model.AIInstruction, error)
}

// SettingStore は管理設定の永続化インターフェース。
type SettingStore interface {
	List(ctx context.Context) ([]*model.AdminSetting, error)
	Upsert(ctx context.Context, setting *model.AdminSetting) (*model.AdminSetting, error)
}

// CategoryStore はカテゴリ管理の永続化インターフェース。
type CategoryStore interface {
	List(ctx context.Context) ([]*model.Category, error)
	Create(ctx context.Context, category *model.Category) (*model.Category, error)
	Update(ctx context.Context, id string, name, icon, color *string, catType *model.TransactionType) (*model.Category, error)
}

// UserDirectory はユーザー管理の永続化インターフェース。
type UserDirectory interface {
	List(ctx context.Context) ([]*model.User, error)
	UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error)
}

// AdminHandler は管理APIのHTTPハンドラー。全ルートがsuper_admin専用。
type AdminHandler struct {
	instructions InstructionStore
	settings     SettingStore
	categories   CategoryStore
	configs      repository.AdminConfigRepository
	users        UserDirectory
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(
	instructions InstructionStore,
	settings SettingStore,
	categories CategoryStore,
	configs repository.AdminConfigRepository,
	users UserDirectory,
) *AdminHandler {
	return &AdminHandler{
		instructions: instructions,
		settings:     settings,
		categories:   categories,
		configs:      configs,
		users:        users,
	}
}

// --- AI指示 ---

// instructionResponse はAI指示のAPIレスポンス。
type instructionResponse struct {
	ID              string    `json:"id"`
	InstructionType string    `json:"instructionType"`
	InstructionText string    `json:"instructionText"`
	Priority        int       `json:"priority"`
	IsActive        bool      `json:"isActive"`
	CreatedBy       string    `json:"createdBy,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toInstructionResponse(inst *model.AIInstruction) instructionResponse {
	return instructionResponse{
		ID:              inst.ID,
		InstructionType: string(inst.Type),
		InstructionText: inst.Text,
		Priority:        inst.Priority,
		IsActive:        inst.IsActive,
		CreatedBy:       inst.CreatedBy,
		CreatedAt:       inst.CreatedAt,
	}
}

func toInstructionResponses(insts []*model.AIInstruction) []instructionResponse {
	responses := make([]instructionResponse, len(insts))
	for i, inst := range insts {
		responses[i] = toInstructionResponse(inst)
	}
	return responses
}

// createInstructionRequest はAI指示作成リクエストのボディ。
type createInstructionRequest struct {
	InstructionType string `json:"instructionType"`
	InstructionText string `json:"instructionText"`
	Priority        int    `json:"priority"`
	IsActive        *bool  `json:"isActive"`
}

// updateInstructionRequest はAI指示の部分更新リクエストのボディ。
type updateInstructionRequest struct {
	InstructionType *string `json:"instructionType"`
	InstructionText *string `json:"instructionText"`
	Priority        *int    `json:"priority"`
	IsActive        *bool   `json:"isActive"`
}

// ListInstructions は全AI指示を返す。
// GET /api/admin/ai-instructions
func (h *AdminHandler) ListInstructions(w http.ResponseWriter, r *http.Request) {
	insts, err := h.instructions.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]instructionResponse{
		"instructions": toInstructionResponses(insts),
	})
}

// CreateInstruction はAI指示を作成する。
// POST /api/admin/ai-instructions
func (h *AdminHandler) CreateInstruction(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req createInstructionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	instType := model.InstructionType(req.InstructionType)
	if !instType.Valid() {
		handleServiceError(w, model.NewValidationError(
			"instructionType must be global, financial_advice, categorization or budget"))
		return
	}
	if req.InstructionText == "" {
		handleServiceError(w, model.NewValidationError("instructionText is required"))
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	created, err := h.instructions.Create(r.Context(), &model.AIInstruction{
		Type:      instType,
		Text:      req.InstructionText,
		Priority:  req.Priority,
		IsActive:  isActive,
		CreatedBy: admin.ID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "AI instruction created successfully",
		"instruction": toInstructionResponse(created),
	})
}

// UpdateInstruction はAI指示を部分更新する。
// PUT /api/admin/ai-instructions/{id}
func (h *AdminHandler) UpdateInstruction(w http.ResponseWriter, r *http.Request) {
	var req updateInstructionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	update := repository.InstructionUpdate{
		Text:     req.InstructionText,
		Priority: req.Priority,
		IsActive: req.IsActive,
	}
	if req.InstructionType != nil {
		instType := model.InstructionType(*req.InstructionType)
		if !instType.Valid() {
			handleServiceError(w, model.NewValidationError(
				"instructionType must be global, financial_advice, categorization or budget"))
			return
		}
		update.Type = &instType
	}

	updated, err := h.instructions.Update(r.Context(), chi.URLParam(r, "id"), update)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if updated == nil {
		handleServiceError(w, model.NewNotFoundError("AI instruction"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "AI instruction updated successfully",
		"instruction": toInstructionResponse(updated),
	})
}

// DeleteInstruction はAI指示を削除する。
// DELETE /api/admin/ai-instructions/{id}
func (h *AdminHandler) DeleteInstruction(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.instructions.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !deleted {
		handleServiceError(w, model.NewNotFoundError("AI instruction"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "AI instruction deleted successfully"})
}

// ResetInstructions は全AI指示を既定セットに戻す。
// POST /api/admin/ai-instructions/reset
func (h *AdminHandler) ResetInstructions(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}

	insts, err := h.instructions.ResetDefaults(r.Context(), admin.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "AI instructions have been reset to defaults",
		"instructions": toInstructionResponses(insts),
	})
}

// --- 管理設定 ---

// settingResponse は管理設定のAPIレスポンス。
type settingResponse struct {
	SettingKey   string    `json:"settingKey"`
	SettingValue string    `json:"settingValue"`
	Description  string    `json:"description,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toSettingResponse(s *model.AdminSetting) settingResponse {
	return settingResponse{
		SettingKey:   s.Key,
		SettingValue: s.Value,
		Description:  s.Description,
		UpdatedAt:    s.UpdatedAt,
	}
}

// updateSettingRequest は設定更新リクエストのボディ。
type updateSettingRequest struct {
	SettingKey   string `json:"settingKey"`
	SettingValue string `json:"settingValue"`
	Description  string `json:"description"`
}

// ListSettings は全設定を返す。
// GET /api/admin/settings
func (h *AdminHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]settingResponse, len(settings))
	for i, s := range settings {
		responses[i] = toSettingResponse(s)
	}
	writeJSON(w, http.StatusOK, map[string][]settingResponse{"settings": responses})
}

// UpdateSetting は設定をキーで作成または更新する。
// PUT /api/admin/settings
func (h *AdminHandler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	var req updateSettingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SettingKey == "" {
		handleServiceError(w, model.NewValidationError("settingKey is required"))
		return
	}

	updated, err := h.settings.Upsert(r.Context(), &model.AdminSetting{
		Key:         req.SettingKey,
		Value:       req.SettingValue,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Setting updated successfully",
		"setting": toSettingResponse(updated),
	})
}

// --- カテゴリ管理 ---

// createCategoryRequest はカテゴリ作成リクエストのボディ。
type createCategoryRequest struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Icon     string  `json:"icon"`
	Color    string  `json:"color"`
	ParentID *string `json:"parentId"`
}

// updateCategoryRequest はカテゴリの部分更新リクエストのボディ。
type updateCategoryRequest struct {
	Name  *string `json:"name"`
	Type  *string `json:"type"`
	Icon  *string `json:"icon"`
	Color *string `json:"color"`
}

// ListCategories は全カテゴリを返す。
// GET /api/admin/categories
func (h *AdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]categoryResponse, len(categories))
	for i, c := range categories {
		responses[i] = toCategoryResponse(c)
	}
	writeJSON(w, http.StatusOK, categoriesEnvelope{Categories: responses})
}

// CreateCategory はカテゴリを作成する。
// POST /api/admin/categories
func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Name == "" {
		handleServiceError(w, model.NewValidationError("name is required"))
		return
	}
	catType := model.TransactionType(req.Type)
	if !catType.Valid() {
		handleServiceError(w, model.NewValidationError("type must be income or expense"))
		return
	}

	created, err := h.categories.Create(r.Context(), &model.Category{
		Name:     req.Name,
		Type:     catType,
		Icon:     req.Icon,
		Color:    req.Color,
		ParentID: req.ParentID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Category created successfully",
		"category": toCategoryResponse(created),
	})
}

// UpdateCategory はカテゴリを部分更新する。
// PUT /api/admin/categories/{id}
func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req updateCategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var catType *model.TransactionType
	if req.Type != nil {
		t := model.TransactionType(*req.Type)
		if !t.Valid() {
			handleServiceError(w, model.NewValidationError("type must be income or expense"))
			return
		}
		catType = &t
	}

	updated, err := h.categories.Update(r.Context(), chi.URLParam(r, "id"),
		req.Name, req.Icon, req.Color, catType)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if updated == nil {
		handleServiceError(w, model.NewNotFoundError("Category"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Category updated successfully",
		"category": toCategoryResponse(updated),
	})
}

// --- カテゴリルール ---

// categoryRuleResponse は自動分類ルールのAPIレスポンス。
type categoryRuleResponse struct {
	ID           string    `json:"id"`
	CategoryID   string    `json:"categoryId"`
	CategoryName string    `json:"categoryName,omitempty"`
	Pattern      string    `json:"pattern"`
	RuleType     string    `json:"ruleType"`
	Priority     int       `json:"priority"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toCategoryRuleResponse(rule *model.CategoryRule) categoryRuleResponse {
	return categoryRuleResponse{
		ID:           rule.ID,
		CategoryID:   rule.CategoryID,
		CategoryName: rule.CategoryName,
		Pattern:      rule.Pattern,
		RuleType:     rule.RuleType,
		Priority:     rule.Priority,
		IsActive:     rule.IsActive,
		CreatedAt:    rule.CreatedAt,
	}
}

// createCategoryRuleRequest はルール作成リクエストのボディ。
type createCategoryRuleRequest struct {
	CategoryID string `json:"categoryId"`
	Pattern    string `json:"pattern"`
	RuleType   string `json:"ruleType"`
	Priority   int    `json:"priority"`
	IsActive   *bool  `json:"isActive"`
}

// ListCategoryRules は全ルールを返す。
// GET /api/admin/category-rules
func (h *AdminHandler) ListCategoryRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.configs.ListCategoryRules(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]categoryRuleResponse, len(rules))
	for i, rule := range rules {
		responses[i] = toCategoryRuleResponse(rule)
	}
	writeJSON(w, http.StatusOK, map[string][]categoryRuleResponse{"rules": responses})
}

// CreateCategoryRule は自動分類ルールを作成する。
// POST /api/admin/category-rules
func (h *AdminHandler) CreateCategoryRule(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRuleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.CategoryID == "" {
		handleServiceError(w, model.NewValidationError("categoryId is required"))
		return
	}
	if req.Pattern == "" {
		handleServiceError(w, model.NewValidationError("pattern is required"))
		return
	}
	ruleType := req.RuleType
	if ruleType == "" {
		ruleType = "keyword"
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	created, err := h.configs.CreateCategoryRule(r.Context(), &model.CategoryRule{
		CategoryID: req.CategoryID,
		Pattern:    req.Pattern,
		RuleType:   ruleType,
		Priority:   req.Priority,
		IsActive:   isActive,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Category rule created successfully",
		"rule":    toCategoryRuleResponse(created),
	})
}

// --- 予算テンプレート ---

// budgetTemplateResponse は予算テンプレートのAPIレスポンス。
type budgetTemplateResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	TemplateData json.RawMessage `json:"templateData"`
	IsDefault    bool            `json:"isDefault"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func toBudgetTemplateResponse(tmpl *model.BudgetTemplate) budgetTemplateResponse {
	return budgetTemplateResponse{
		ID:           tmpl.ID,
		Name:         tmpl.Name,
		Description:  tmpl.Description,
		TemplateData: tmpl.TemplateData,
		IsDefault:    tmpl.IsDefault,
		CreatedAt:    tmpl.CreatedAt,
	}
}

// createBudgetTemplateRequest はテンプレート作成リクエストのボディ。
type createBudgetTemplateRequest struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	TemplateData json.RawMessage `json:"templateData"`
	IsDefault    bool            `json:"isDefault"`
}

// ListBudgetTemplates は全テンプレートを返す。
// GET /api/admin/budget-templates
func (h *AdminHandler) ListBudgetTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.configs.ListBudgetTemplates(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]budgetTemplateResponse, len(templates))
	for i, tmpl := range templates {
		responses[i] = toBudgetTemplateResponse(tmpl)
	}
	writeJSON(w, http.StatusOK, map[string][]budgetTemplateResponse{"templates": responses})
}

// CreateBudgetTemplate は予算テンプレートを作成する。
// POST /api/admin/budget-templates
func (h *AdminHandler) CreateBudgetTemplate(w http.ResponseWriter, r *http.Request) {
	var req createBudgetTemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		handleServiceError(w, model.NewValidationError("name is required"))
		return
	}

	created, err := h.configs.CreateBudgetTemplate(r.Context(), &model.BudgetTemplate{
		Name:         req.Name,
		Description:  req.Description,
		TemplateData: req.TemplateData,
		IsDefault:    req.IsDefault,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Budget template created successfully",
		"template": toBudgetTemplateResponse(created),
	})
}

// --- 定型プロンプト ---

// aiPromptResponse は定型プロンプトのAPIレスポンス。
type aiPromptResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	PromptText  string    `json:"promptText"`
	Category    string    `json:"category,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toAIPromptResponse(p *model.AIPrompt) aiPromptResponse {
	return aiPromptResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		PromptText:  p.PromptText,
		Category:    p.Category,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	}
}

// createAIPromptRequest は定型プロンプト作成リクエストのボディ。
type createAIPromptRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PromptText  string `json:"promptText"`
	Category    string `json:"category"`
}

// ListAIPrompts は有効な定型プロンプトを返す。
// GET /api/admin/ai-prompts
func (h *AdminHandler) ListAIPrompts(w http.ResponseWriter, r *http.Request) {
	prompts, err := h.configs.ListAIPrompts(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]aiPromptResponse, len(prompts))
	for i, p := range prompts {
		responses[i] = toAIPromptResponse(p)
	}
	writeJSON(w, http.StatusOK, map[string][]aiPromptResponse{"prompts": responses})
}

// CreateAIPrompt は定型プロンプトを作成する。
// POST /api/admin/ai-prompts
func (h *AdminHandler) CreateAIPrompt(w http.ResponseWriter, r *http.Request) {
	var req createAIPromptRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" {
		handleServiceError(w, model.NewValidationError("title is required"))
		return
	}
	if req.PromptText == "" {
		handleServiceError(w, model.NewValidationError("promptText is required"))
		return
	}

	created, err := h.configs.CreateAIPrompt(r.Context(), &model.AIPrompt{
		Title:       req.Title,
		Description: req.Description,
		PromptText:  req.PromptText,
		Category:    req.Category,
		IsActive:    true,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "AI prompt created successfully",
		"prompt":  toAIPromptResponse(created),
	})
}

// --- ユーザー管理 ---

// updateUserRoleRequest はユーザー役割更新リクエストのボディ。
type updateUserRoleRequest struct {
	Role string `json:"role"`
}

// ListUsers は全ユーザーを返す。
// GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]userResponse, len(users))
	for i, u := range users {
		responses[i] = toUserResponse(u)
	}
	writeJSON(w, http.StatusOK, map[string][]userResponse{"users": responses})
}

// UpdateUserRole はユーザーの役割を更新する。
// PUT /api/admin/users/{id}/role
func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req updateUserRoleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	role := model.Role(req.Role)
	if !role.Valid() {
		handleServiceError(w, model.NewValidationError("role must be user or super_admin"))
		return
	}

	updated, err := h.users.UpdateRole(r.Context(), chi.URLParam(r, "id"), role)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if updated == nil {
		handleServiceError(w, model.NewNotFoundError("User"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User role updated successfully",
		"user":    toUserResponse(updated),
	})
}
