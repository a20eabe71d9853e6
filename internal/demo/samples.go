package demo

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/fintrack/internal/model"
	"github.com/hitoshi/fintrack/internal/repository"
)

// sampleSpec はサンプル取引の定義。日付は現在からの相対日数で持つ。
type sampleSpec struct {
	description string
	merchant    string
	amount      string
	txType      model.TransactionType
	category    string
	daysAgo     int
}

// sampleSpecs はデモリセットで投入する取引の定義一覧。
// 直近3ヶ月の現実的な家計を模し、上限50件に対して余裕を残す件数にしてある。
var sampleSpecs = []sampleSpec{
	// 収入
	{"Monthly Salary - Acme Corporation", "Acme Corp", "5200.00", model.TransactionTypeIncome, "Salary", 5},
	{"Monthly Salary - Acme Corporation", "Acme Corp", "5200.00", model.TransactionTypeIncome, "Salary", 35},
	{"Freelance Web Development Project", "Tech Startup Inc", "1500.00", model.TransactionTypeIncome, "Freelance", 15},
	{"Consulting Services", "Small Business LLC", "800.00", model.TransactionTypeIncome, "Freelance", 42},
	{"Dividend Payment", "Investment Portfolio", "125.50", model.TransactionTypeIncome, "Investment", 28},

	// 食費
	{"Weekly Groceries", "Whole Foods Market", "127.43", model.TransactionTypeExpense, "Food & Dining", 2},
	{"Coffee and Breakfast", "Starbucks", "12.50", model.TransactionTypeExpense, "Food & Dining", 3},
	{"Lunch Meeting", "Chipotle Mexican Grill", "24.75", model.TransactionTypeExpense, "Food & Dining", 7},
	{"Dinner with Friends", "Olive Garden", "68.90", model.TransactionTypeExpense, "Food & Dining", 10},
	{"Weekly Groceries", "Trader Joes", "94.32", model.TransactionTypeExpense, "Food & Dining", 9},
	{"Pizza Night", "Dominos Pizza", "32.00", model.TransactionTypeExpense, "Food & Dining", 14},
	{"Grocery Shopping", "Safeway", "112.67", model.TransactionTypeExpense, "Food & Dining", 30},
	{"Restaurant Dinner", "Local Bistro", "85.40", model.TransactionTypeExpense, "Food & Dining", 45},

	// 交通費
	{"Gas Fill-up", "Shell Gas Station", "52.30", model.TransactionTypeExpense, "Transportation", 4},
	{"Ride Share to Airport", "Uber", "45.00", model.TransactionTypeExpense, "Transportation", 12},
	{"Monthly Metro Pass", "Public Transit Authority", "85.00", model.TransactionTypeExpense, "Transportation", 6},
	{"Gas Fill-up", "Chevron", "48.75", model.TransactionTypeExpense, "Transportation", 25},
	{"Oil Change and Service", "Jiffy Lube", "79.99", model.TransactionTypeExpense, "Transportation", 40},

	// 買い物
	{"Online Purchase - Electronics", "Amazon", "149.99", model.TransactionTypeExpense, "Shopping", 8},
	{"Home Supplies", "Target", "67.43", model.TransactionTypeExpense, "Shopping", 11},
	{"Clothing Purchase", "H&M", "89.50", model.TransactionTypeExpense, "Shopping", 20},
	{"Household Items", "Walmart", "54.32", model.TransactionTypeExpense, "Shopping", 27},
	{"Online Shopping", "Amazon", "78.90", model.TransactionTypeExpense, "Shopping", 50},

	// 娯楽
	{"Netflix Subscription", "Netflix", "15.99", model.TransactionTypeExpense, "Entertainment", 5},
	{"Spotify Premium", "Spotify", "10.99", model.TransactionTypeExpense, "Entertainment", 8},
	{"Movie Tickets", "AMC Theaters", "34.00", model.TransactionTypeExpense, "Entertainment", 22},
	{"Concert Tickets", "Ticketmaster", "125.00", model.TransactionTypeExpense, "Entertainment", 48},

	// 公共料金
	{"Electric Bill", "City Power & Electric", "142.67", model.TransactionTypeExpense, "Utilities", 10},
	{"Internet Service", "Comcast Xfinity", "79.99", model.TransactionTypeExpense, "Utilities", 15},
	{"Mobile Phone Bill", "Verizon Wireless", "85.00", model.TransactionTypeExpense, "Utilities", 12},

	// 住居
	{"Monthly Rent Payment", "Apartment Management", "1850.00", model.TransactionTypeExpense, "Housing", 1},
	{"Monthly Rent Payment", "Apartment Management", "1850.00", model.TransactionTypeExpense, "Housing", 31},

	// 医療
	{"Prescription Medication", "CVS Pharmacy", "28.50", model.TransactionTypeExpense, "Healthcare", 16},
	{"Gym Membership", "Planet Fitness", "24.99", model.TransactionTypeExpense, "Healthcare", 7},
	{"Doctor Visit Copay", "City Medical Center", "45.00", model.TransactionTypeExpense, "Healthcare", 38},

	// その他
	{"Car Insurance Premium", "State Farm Insurance", "156.00", model.TransactionTypeExpense, "Other Expenses", 13},
	{"Birthday Gift", "Amazon", "65.00", model.TransactionTypeExpense, "Other Expenses", 35},
}

// SampleTransactions はデモリセット用のサンプル取引を生成する。
// 日付は与えられた基準時刻からの相対で決まる。
func SampleTransactions(now time.Time) []repository.DemoSample {
	samples := make([]repository.DemoSample, 0, len(sampleSpecs))
	for _, spec := range sampleSpecs {
		samples = append(samples, repository.DemoSample{
			CategoryName:    spec.category,
			Amount:          decimal.RequireFromString(spec.amount),
			Type:            spec.txType,
			Description:     spec.description,
			Merchant:        spec.merchant,
			TransactionDate: now.AddDate(0, 0, -spec.daysAgo),
		})
	}
	return samples
}
