package services

import (
	"time"

	"github.com/shopspring/decimal"

	"pocketbook/internal/models"
	"pocketbook/internal/pagination"
)

// UserServicer defines the contract for identity and profile business logic.
type UserServicer interface {
	Register(email, password, name string) (*models.User, error)
	Authenticate(email, password string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	UpdateUser(requesterID, userID string, name, password *string) (*models.User, error)
	DeleteUser(requesterID, userID string) error
	VerifyEmail(token string) (*models.User, error)
	ResendVerification(email string) error
	RequestPasswordReset(email string) error
	ResetPassword(token, newPassword string) error
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// Mailer sends account emails. Tokens are the raw values the user must present.
type Mailer interface {
	SendVerificationEmail(to, name, token string) error
	SendPasswordResetEmail(to, name, token string) error
}

// CategoryServicer defines the contract for the category hierarchy.
type CategoryServicer interface {
	CreateCategory(userID, name string, parentID *string) (*models.Category, error)
	GetUserCategories(userID string, parentID *string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	RenameCategory(userID, categoryID, name string) (*models.Category, error)
	ReparentCategory(userID, categoryID string, newParentID *string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// BudgetInput holds the fields of a new budget.
type BudgetInput struct {
	Month           int
	Year            int
	Description     string
	ExpectedIncome  decimal.Decimal
	ExpectedExpense decimal.Decimal
}

// BudgetUpdate holds the fields to change on a budget; nil fields are kept.
type BudgetUpdate struct {
	Month           *int
	Year            *int
	Description     *string
	ExpectedIncome  *decimal.Decimal
	ExpectedExpense *decimal.Decimal
}

// BudgetFilter holds optional search criteria for budgets.
type BudgetFilter struct {
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Description string
	MinIncome   *decimal.Decimal
	MaxIncome   *decimal.Decimal
	MinExpense  *decimal.Decimal
	MaxExpense  *decimal.Decimal
}

// BudgetServicer defines the contract for the budget lifecycle.
type BudgetServicer interface {
	CreateBudget(userID string, in BudgetInput) (*models.Budget, error)
	SearchBudgets(userID string, filter BudgetFilter) ([]models.Budget, error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	GetActiveBudget(userID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, in BudgetUpdate) (*models.Budget, error)
	ActivateBudget(userID, budgetID string) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
}

// TransactionInput holds the fields of a new transaction.
type TransactionInput struct {
	Description         string
	Amount              decimal.Decimal
	Date                time.Time
	CategoryID          *string
	IsRecurrent         bool
	RecurrenceFrequency *models.RecurrenceFrequency
	Installments        *int
	InstallmentsPaid    *int
}

// TransactionUpdate holds the fields to change on a transaction; nil fields
// are kept. An empty CategoryID clears the category.
type TransactionUpdate struct {
	Description         *string
	Amount              *decimal.Decimal
	Date                *time.Time
	CategoryID          *string
	IsRecurrent         *bool
	RecurrenceFrequency *models.RecurrenceFrequency
	Installments        *int
	InstallmentsPaid    *int
}

// TransactionKind selects transactions by the sign of their amount.
type TransactionKind string

const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
)

// TransactionSort describes the ordering of a transaction listing.
type TransactionSort struct {
	By   string // date, amount or description
	Desc bool
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
	CategoryID *string
	Kind       TransactionKind
	Sort       TransactionSort
}

// TransactionServicer defines the contract for the transaction journal.
type TransactionServicer interface {
	CreateTransaction(userID string, in TransactionInput) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, in TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
}

// MarginSign selects reports by the sign of their margin.
type MarginSign string

const (
	MarginPositive MarginSign = "positive"
	MarginNegative MarginSign = "negative"
)

// ReportFilter holds optional filter parameters for listing reports.
type ReportFilter struct {
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Sign        MarginSign
	MinMargin   *decimal.Decimal
	MaxMargin   *decimal.Decimal
}

// CategoryBreakdown aggregates a report's transactions sharing one category.
type CategoryBreakdown struct {
	CategoryID   *string         `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Total        decimal.Decimal `json:"total"`
	Count        int             `json:"count"`
}

// ReportSummary counts a report's transactions.
type ReportSummary struct {
	TotalTransactions     int     `json:"totalTransactions"`
	IncomeCount           int     `json:"incomeCount"`
	ExpenseCount          int     `json:"expenseCount"`
	BudgetUsagePercentage float64 `json:"budgetUsagePercentage"`
}

// ReportDetail is a report together with the transactions it summarizes.
type ReportDetail struct {
	Report       models.MonthlyReport `json:"report"`
	Transactions []models.Transaction `json:"transactions"`
	ByCategory   []CategoryBreakdown  `json:"byCategory"`
	Summary      ReportSummary        `json:"summary"`
}

// ReportServicer defines the contract for monthly reports.
type ReportServicer interface {
	GenerateReport(userID string, month, year int) (*models.MonthlyReport, error)
	GetUserReports(userID string, page pagination.PageRequest, filter ReportFilter) (*pagination.PageResponse[models.MonthlyReport], error)
	GetReportDetail(userID, reportID string) (*ReportDetail, error)
	DeleteReport(userID, reportID string) error
	ExportReport(userID, reportID string) ([]byte, error)
	PendingReportUsers(month, year int) ([]string, error)
}

// GoalStatus selects saving goals by completion.
type GoalStatus string

const (
	GoalAll       GoalStatus = "all"
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
)

// SavingGoalInput holds the fields of a new saving goal.
type SavingGoalInput struct {
	Name               string
	TargetAmount       decimal.Decimal
	MonthlySavingGoal  decimal.Decimal
	CurrentSavedAmount decimal.Decimal
	StartDate          time.Time
	TargetDate         time.Time
}

// SavingGoalUpdate holds the fields to change on a goal; nil fields are kept.
type SavingGoalUpdate struct {
	Name               *string
	TargetAmount       *decimal.Decimal
	MonthlySavingGoal  *decimal.Decimal
	CurrentSavedAmount *decimal.Decimal
	StartDate          *time.Time
	TargetDate         *time.Time
}

// SavingGoalServicer defines the contract for saving goals.
type SavingGoalServicer interface {
	CreateSavingGoal(userID string, in SavingGoalInput) (*models.SavingGoalView, error)
	GetUserSavingGoals(userID string, status GoalStatus, page pagination.PageRequest) (*pagination.PageResponse[models.SavingGoalView], error)
	GetSavingGoalByID(userID, goalID string) (*models.SavingGoalView, error)
	UpdateSavingGoal(userID, goalID string, in SavingGoalUpdate) (*models.SavingGoalView, error)
	DeleteSavingGoal(userID, goalID string) (*models.SavingGoal, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
