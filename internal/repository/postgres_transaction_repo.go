package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/fintrack/internal/model"
)

// PostgresTransactionRepo はPostgreSQLを使用した取引リポジトリ。
// 全クエリは user_id 述語で所有者スコープに限定される。
type PostgresTransactionRepo struct {
	db *sql.DB
}

// NewPostgresTransactionRepo はPostgresTransactionRepoを生成する。
func NewPostgresTransactionRepo(db *sql.DB) *PostgresTransactionRepo {
	return &PostgresTransactionRepo{db: db}
}

const txSelectWithCategory = `
	SELECT t.id, t.user_id, t.category_id, t.amount, t.type, t.description, t.merchant,
	       t.transaction_date, t.payment_method, t.notes, t.is_recurring, t.recurring_pattern,
	       t.ai_categorized, t.created_at,
	       COALESCE(c.name, ''), COALESCE(c.icon, ''), COALESCE(c.color, '')
	FROM transactions t
	LEFT JOIN categories c ON t.category_id = c.id`

// scanTransactionWithCategory は1行をTransactionWithCategoryに読み込む。
func scanTransactionWithCategory(row interface{ Scan(dest ...any) error }) (*model.TransactionWithCategory, error) {
	tx := &model.TransactionWithCategory{}
	var categoryID sql.NullString
	err := row.Scan(
		&tx.ID, &tx.UserID, &categoryID, &tx.Amount, &tx.Type, &tx.Description, &tx.Merchant,
		&tx.TransactionDate, &tx.PaymentMethod, &tx.Notes, &tx.IsRecurring, &tx.RecurringPattern,
		&tx.AICategorized, &tx.CreatedAt,
		&tx.CategoryName, &tx.CategoryIcon, &tx.CategoryColor,
	)
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		tx.CategoryID = &categoryID.String
	}
	return tx, nil
}

// FindByID は所有者スコープで取引を取得する。見つからない場合はnilを返す。
func (r *PostgresTransactionRepo) FindByID(ctx context.Context, userID, id string) (*model.TransactionWithCategory, error) {
	tx, err := scanTransactionWithCategory(r.db.QueryRowContext(ctx,
		txSelectWithCategory+` WHERE t.id = $1 AND t.user_id = $2`,
		id, userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return tx, nil
}

// List は所有者の取引一覧をフィルタ付きで返す。
// 取引日降順、同日の場合は作成日時降順で並ぶ。同一条件での再取得は同一順序を返す。
func (r *PostgresTransactionRepo) List(ctx context.Context, userID string, filter model.TransactionFilter) ([]*model.TransactionWithCategory, error) {
	var sb strings.Builder
	sb.WriteString(txSelectWithCategory)
	sb.WriteString(` WHERE t.user_id = $1`)

	params := []any{userID}

	if filter.StartDate != nil {
		params = append(params, *filter.StartDate)
		fmt.Fprintf(&sb, ` AND t.transaction_date >= $%d`, len(params))
	}
	if filter.EndDate != nil {
		params = append(params, *filter.EndDate)
		fmt.Fprintf(&sb, ` AND t.transaction_date <= $%d`, len(params))
	}
	if filter.CategoryID != "" {
		params = append(params, filter.CategoryID)
		fmt.Fprintf(&sb, ` AND t.category_id = $%d`, len(params))
	}
	if filter.Type != "" {
		params = append(params, string(filter.Type))
		fmt.Fprintf(&sb, ` AND t.type = $%d`, len(params))
	}

	sb.WriteString(` ORDER BY t.transaction_date DESC, t.created_at DESC, t.id`)

	rows, err := r.db.QueryContext(ctx, sb.String(), params...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*model.TransactionWithCategory
	for rows.Next() {
		tx, err := scanTransactionWithCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txs, nil
}

// Create は取引を作成し、作成された完全な行を返す。
// IDが未設定の場合はアプリケーション側で生成する。
func (r *PostgresTransactionRepo) Create(ctx context.Context, tx *model.Transaction) (*model.Transaction, error) {
	if tx.ID == "" {
		tx.ID = newRowID()
	}

	created := &model.Transaction{}
	var categoryID sql.NullString
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO transactions (
			id, user_id, category_id, amount, type, description, merchant,
			transaction_date, payment_method, notes, is_recurring,
			recurring_pattern, ai_categorized
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, user_id, category_id, amount, type, description, merchant,
		          transaction_date, payment_method, notes, is_recurring, recurring_pattern,
		          ai_categorized, created_at`,
		tx.ID, tx.UserID, tx.CategoryID, tx.Amount, string(tx.Type), tx.Description, tx.Merchant,
		tx.TransactionDate, tx.PaymentMethod, tx.Notes, tx.IsRecurring,
		tx.RecurringPattern, tx.AICategorized,
	).Scan(
		&created.ID, &created.UserID, &categoryID, &created.Amount, &created.Type,
		&created.Description, &created.Merchant, &created.TransactionDate,
		&created.PaymentMethod, &created.Notes, &created.IsRecurring,
		&created.RecurringPattern, &created.AICategorized, &created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	if categoryID.Valid {
		created.CategoryID = &categoryID.String
	}
	return created, nil
}

// Update は所有者スコープで取引を部分更新する。nilフィールドは既存値を維持する。
// 見つからない場合はnilを返す。
func (r *PostgresTransactionRepo) Update(ctx context.Context, userID, id string, update TransactionUpdate) (*model.Transaction, error) {
	updated := &model.Transaction{}
	var categoryID sql.NullString

	var txType *string
	if update.Type != nil {
		s := string(*update.Type)
		txType = &s
	}

	err := r.db.QueryRowContext(ctx,
		`UPDATE transactions
		 SET category_id = COALESCE($1::uuid, category_id),
		     amount = COALESCE($2::numeric, amount),
		     type = COALESCE($3::text, type),
		     description = COALESCE($4::text, description),
		     merchant = COALESCE($5::text, merchant),
		     transaction_date = COALESCE($6::date, transaction_date),
		     payment_method = COALESCE($7::text, payment_method),
		     notes = COALESCE($8::text, notes)
		 WHERE id = $9 AND user_id = $10
		 RETURNING id, user_id, category_id, amount, type, description, merchant,
		           transaction_date, payment_method, notes, is_recurring, recurring_pattern,
		           ai_categorized, created_at`,
		update.CategoryID, update.Amount, txType, update.Description, update.Merchant,
		update.TransactionDate, update.PaymentMethod, update.Notes, id, userID,
	).Scan(
		&updated.ID, &updated.UserID, &categoryID, &updated.Amount, &updated.Type,
		&updated.Description, &updated.Merchant, &updated.TransactionDate,
		&updated.PaymentMethod, &updated.Notes, &updated.IsRecurring,
		&updated.RecurringPattern, &updated.AICategorized, &updated.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}
	if categoryID.Valid {
		updated.CategoryID = &categoryID.String
	}
	return updated, nil
}

// Delete は所有者スコープで取引を削除する。削除された場合trueを返す。
func (r *PostgresTransactionRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete transaction: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// CountByUserID は所有者の取引件数を返す。クォータ評価用。
func (r *PostgresTransactionRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// Stats は所有者の取引統計（種別合計・カテゴリ内訳・月次推移）を返す。
func (r *PostgresTransactionRepo) Stats(ctx context.Context, userID string, startDate, endDate *time.Time) (*model.TransactionStats, error) {
	dateFilter := ""
	params := []any{userID}

	if startDate != nil && endDate != nil {
		dateFilter = " AND transaction_date BETWEEN $2 AND $3"
		params = append(params, *startDate, *endDate)
	} else if startDate != nil {
		dateFilter = " AND transaction_date >= $2"
		params = append(params, *startDate)
	} else if endDate != nil {
		dateFilter = " AND transaction_date <= $2"
		params = append(params, *endDate)
	}

	stats := &model.TransactionStats{}

	// 種別ごとの合計・件数・平均
	rows, err := r.db.QueryContext(ctx,
		`SELECT type, SUM(amount), COUNT(*), AVG(amount)
		 FROM transactions
		 WHERE user_id = $1`+dateFilter+`
		 GROUP BY type`,
		params...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query type totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t model.TypeTotal
		if err := rows.Scan(&t.Type, &t.Total, &t.Count, &t.Average); err != nil {
			return nil, fmt.Errorf("failed to scan type total: %w", err)
		}
		stats.Totals = append(stats.Totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate type totals: %w", err)
	}

	// カテゴリ別内訳
	catRows, err := r.db.QueryContext(ctx,
		`SELECT COALESCE(c.name, 'Uncategorized'), COALESCE(c.icon, ''), COALESCE(c.color, ''),
		        t.type, SUM(t.amount), COUNT(*)
		 FROM transactions t
		 LEFT JOIN categories c ON t.category_id = c.id
		 WHERE t.user_id = $1`+strings.ReplaceAll(dateFilter, "transaction_date", "t.transaction_date")+`
		 GROUP BY c.name, c.icon, c.color, t.type
		 ORDER BY SUM(t.amount) DESC`,
		params...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query category totals: %w", err)
	}
	defer catRows.Close()

	for catRows.Next() {
		var c model.CategoryTotal
		if err := catRows.Scan(&c.Category, &c.Icon, &c.Color, &c.Type, &c.Total, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		stats.ByCategory = append(stats.ByCategory, c)
	}
	if err := catRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category totals: %w", err)
	}

	// 月次推移
	trendRows, err := r.db.QueryContext(ctx,
		`SELECT DATE_TRUNC('month', transaction_date), type, SUM(amount)
		 FROM transactions
		 WHERE user_id = $1`+dateFilter+`
		 GROUP BY 1, type
		 ORDER BY 1 DESC`,
		params...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly trends: %w", err)
	}
	defer trendRows.Close()

	for trendRows.Next() {
		var m model.MonthlyTotal
		if err := trendRows.Scan(&m.Month, &m.Type, &m.Total); err != nil {
			return nil, fmt.Errorf("failed to scan monthly trend: %w", err)
		}
		stats.MonthlyTrends = append(stats.MonthlyTrends, m)
	}
	if err := trendRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate monthly trends: %w", err)
	}

	return stats, nil
}

// TypeTotalsSince は指定日数以内の種別ごとの合計と件数を返す。AIアドバイスのコンテキスト用。
func (r *PostgresTransactionRepo) TypeTotalsSince(ctx context.Context, userID string, days int) ([]model.TypeTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT type, SUM(amount), COUNT(*)
		 FROM transactions
		 WHERE user_id = $1 AND transaction_date >= CURRENT_DATE - $2 * INTERVAL '1 day'
		 GROUP BY type`,
		userID, days,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query type totals: %w", err)
	}
	defer rows.Close()

	var totals []model.TypeTotal
	for rows.Next() {
		var t model.TypeTotal
		if err := rows.Scan(&t.Type, &t.Total, &t.Count); err != nil {
			return nil, fmt.Errorf("failed to scan type total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate type totals: %w", err)
	}
	return totals, nil
}

// SpendingByCategorySince は指定日数以内のカテゴリ別支出集計を合計額降順で返す。
func (r *PostgresTransactionRepo) SpendingByCategorySince(ctx context.Context, userID string, days int) ([]SpendingByCategory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.name, AVG(t.amount), SUM(t.amount)
		 FROM transactions t
		 JOIN categories c ON t.category_id = c.id
		 WHERE t.user_id = $1
		   AND t.type = 'expense'
		   AND t.transaction_date >= CURRENT_DATE - $2 * INTERVAL '1 day'
		 GROUP BY c.name
		 ORDER BY SUM(t.amount) DESC`,
		userID, days,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query spending by category: %w", err)
	}
	defer rows.Close()

	var spending []SpendingByCategory
	for rows.Next() {
		var s SpendingByCategory
		if err := rows.Scan(&s.Category, &s.Average, &s.Total); err != nil {
			return nil, fmt.Errorf("failed to scan spending row: %w", err)
		}
		spending = append(spending, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate spending rows: %w", err)
	}
	return spending, nil
}

// ExpensesSince は指定日時以降の支出取引を取引日降順で返す。支出分析用。
func (r *PostgresTransactionRepo) ExpensesSince(ctx context.Context, userID string, since time.Time) ([]ExpenseRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.amount, t.description, COALESCE(c.name, ''), t.transaction_date
		 FROM transactions t
		 LEFT JOIN categories c ON t.category_id = c.id
		 WHERE t.user_id = $1 AND t.type = 'expense' AND t.transaction_date >= $2
		 ORDER BY t.transaction_date DESC`,
		userID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []ExpenseRecord
	for rows.Next() {
		var e ExpenseRecord
		if err := rows.Scan(&e.Amount, &e.Description, &e.Category, &e.TransactionDate); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

// compile-time interface check
var _ TransactionRepository = (*PostgresTransactionRepo)(nil)
