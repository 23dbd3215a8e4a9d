package services

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pocketbook/internal/authz"
	apperrors "pocketbook/internal/errors"
	"pocketbook/internal/models"
	"pocketbook/internal/pagination"
)

const uncategorizedName = "Uncategorized"

// reportService derives monthly reports from the transaction journal. It
// reads transactions and budgets and only ever writes reports.
type reportService struct {
	db *gorm.DB
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB) ReportServicer {
	return &reportService{db: db}
}

// GenerateReport computes and stores the report of one calendar month. It is
// meant for trusted callers and performs no end-user permission check.
func (s *reportService) GenerateReport(userID string, month, year int) (*models.MonthlyReport, error) {
	if month < 1 || month > 12 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
	}
	if year < minBudgetYear || year > maxBudgetYear {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "year must be between 2000 and 9999")
	}

	var report *models.MonthlyReport
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.MonthlyReport{}).
			Where("user_id = ? AND month = ? AND year = ?", userID, month, year).
			Count(&existing).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if existing > 0 {
			return apperrors.ErrReportExists
		}

		var budget models.Budget
		if err := tx.Where("user_id = ? AND is_active = ? AND month = ? AND year = ?", userID, true, month, year).
			First(&budget).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNoActiveBudgetForPeriod
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var amounts []decimal.Decimal
		start, end := monthBounds(month, year)
		if err := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
			Pluck("amount", &amounts).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		income, expense := sumAmounts(amounts)

		report = &models.MonthlyReport{
			UserID:       userID,
			Month:        month,
			Year:         year,
			TotalIncome:  income,
			TotalExpense: expense,
			Margin:       income.Sub(expense),
			BudgetID:     budget.ID,
		}
		if err := tx.Create(report).Error; err != nil {
			if isUniqueViolation(err) {
				return apperrors.Wrap(apperrors.ErrReportExists, err)
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		report.Budget = &budget
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// GetUserReports retrieves the user's reports, newest period first, each with
// its budget when the budget still exists.
func (s *reportService) GetUserReports(userID string, page pagination.PageRequest, filter ReportFilter) (*pagination.PageResponse[models.MonthlyReport], error) {
	page.Defaults()

	q := s.db.Model(&models.MonthlyReport{}).Where("user_id = ?", userID)

	if filter.CreatedFrom != nil {
		q = q.Where("created_at >= ?", filter.CreatedFrom.UTC())
	}
	if filter.CreatedTo != nil {
		q = q.Where("created_at <= ?", filter.CreatedTo.UTC())
	}
	switch filter.Sign {
	case MarginPositive:
		q = q.Where("margin > 0")
	case MarginNegative:
		q = q.Where("margin < 0")
	}
	if filter.MinMargin != nil {
		q = q.Where("margin >= ?", *filter.MinMargin)
	}
	if filter.MaxMargin != nil {
		q = q.Where("margin <= ?", *filter.MaxMargin)
	}

	var totalItems int64
	if err := q.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var reports []models.MonthlyReport
	if err := q.Preload("Budget").
		Order("year DESC").Order("month DESC").Order("created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&reports).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(reports, page.Page, page.Limit, totalItems)
	return &result, nil
}

// GetReportDetail returns a report with the month's transactions grouped by
// category and summary counts.
func (s *reportService) GetReportDetail(userID, reportID string) (*ReportDetail, error) {
	report, err := authz.LoadOwned[models.MonthlyReport](s.db, reportID, userID, apperrors.ErrReportNotFound)
	if err != nil {
		return nil, err
	}

	var budget models.Budget
	if err := s.db.Where("id = ?", report.BudgetID).First(&budget).Error; err == nil {
		report.Budget = &budget
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	start, end := monthBounds(report.Month, report.Year)
	transactions := []models.Transaction{}
	if err := s.db.Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Order("date ASC").Order("id ASC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := s.db.Where("user_id = ?", userID).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	return &ReportDetail{
		Report:       *report,
		Transactions: transactions,
		ByCategory:   groupByCategory(transactions, names),
		Summary:      summarize(report, transactions),
	}, nil
}

// DeleteReport hard-deletes a report owned by userID.
func (s *reportService) DeleteReport(userID, reportID string) error {
	report, err := authz.LoadOwned[models.MonthlyReport](s.db, reportID, userID, apperrors.ErrReportNotFound)
	if err != nil {
		return err
	}

	if err := s.db.Delete(report).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ExportReport renders a report's detail as an xlsx workbook.
func (s *reportService) ExportReport(userID, reportID string) ([]byte, error) {
	detail, err := s.GetReportDetail(userID, reportID)
	if err != nil {
		return nil, err
	}

	data, err := renderReportWorkbook(detail)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return data, nil
}

// PendingReportUsers lists the users with an active budget for the period
// and no report for it yet.
func (s *reportService) PendingReportUsers(month, year int) ([]string, error) {
	var userIDs []string
	if err := s.db.Model(&models.Budget{}).
		Where("is_active = ? AND month = ? AND year = ?", true, month, year).
		Where("NOT EXISTS (SELECT 1 FROM monthly_reports r WHERE r.user_id = budgets.user_id AND r.month = ? AND r.year = ?)", month, year).
		Order("user_id").
		Distinct("user_id").
		Pluck("user_id", &userIDs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return userIDs, nil
}

// sumAmounts splits signed amounts into total income and the absolute
// total of expenses.
func sumAmounts(amounts []decimal.Decimal) (income, expense decimal.Decimal) {
	income, expense = decimal.Zero, decimal.Zero
	for _, a := range amounts {
		if a.IsPositive() {
			income = income.Add(a)
		} else {
			expense = expense.Add(a.Abs())
		}
	}
	return income.Round(2), expense.Round(2)
}

func groupByCategory(transactions []models.Transaction, names map[string]string) []CategoryBreakdown {
	index := map[string]int{}
	groups := []CategoryBreakdown{}
	for _, t := range transactions {
		key := ""
		name := uncategorizedName
		if t.CategoryID != nil {
			key = *t.CategoryID
			if n, ok := names[key]; ok {
				name = n
			}
		}

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, CategoryBreakdown{CategoryID: t.CategoryID, CategoryName: name, Total: decimal.Zero})
		}
		groups[i].Total = groups[i].Total.Add(t.Amount)
		groups[i].Count++
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].CategoryName < groups[b].CategoryName
	})
	return groups
}

func summarize(report *models.MonthlyReport, transactions []models.Transaction) ReportSummary {
	summary := ReportSummary{TotalTransactions: len(transactions)}
	for i := range transactions {
		switch {
		case transactions[i].IsIncome():
			summary.IncomeCount++
		case transactions[i].IsExpense():
			summary.ExpenseCount++
		}
	}

	if report.Budget != nil && report.Budget.ExpectedExpense.IsPositive() {
		summary.BudgetUsagePercentage = report.TotalExpense.
			Div(report.Budget.ExpectedExpense).
			Mul(decimal.NewFromInt(100)).
			Round(2).
			InexactFloat64()
	}
	return summary
}
