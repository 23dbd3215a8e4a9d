package services

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet      = "Summary"
	categorySheet     = "Categories"
	transactionsSheet = "Transactions"
)

// renderReportWorkbook writes the report, its category breakdown and its
// transactions to three sheets of one workbook.
func renderReportWorkbook(detail *ReportDetail) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	for _, name := range []string{categorySheet, transactionsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	r := detail.Report
	period := fmt.Sprintf("%04d-%02d", r.Year, r.Month)
	budgetDescription := "(deleted)"
	if r.Budget != nil {
		budgetDescription = r.Budget.Description
	}

	summaryRows := [][]interface{}{
		{"Period", period},
		{"Budget", budgetDescription},
		{"Total income", r.TotalIncome.InexactFloat64()},
		{"Total expense", r.TotalExpense.InexactFloat64()},
		{"Margin", r.Margin.InexactFloat64()},
		{"Transactions", detail.Summary.TotalTransactions},
		{"Income transactions", detail.Summary.IncomeCount},
		{"Expense transactions", detail.Summary.ExpenseCount},
		{"Budget usage %", detail.Summary.BudgetUsagePercentage},
	}
	f.SetColWidth(summarySheet, "A", "A", 24)
	f.SetColWidth(summarySheet, "B", "B", 30)
	for i, row := range summaryRows {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return nil, err
		}
	}
	f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(summaryRows)), headerStyle)

	if err := writeHeader(f, categorySheet, headerStyle, "Category", "Total", "Count"); err != nil {
		return nil, err
	}
	f.SetColWidth(categorySheet, "A", "A", 30)
	for i, g := range detail.ByCategory {
		row := []interface{}{g.CategoryName, g.Total.InexactFloat64(), g.Count}
		if err := f.SetSheetRow(categorySheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}

	if err := writeHeader(f, transactionsSheet, headerStyle, "Date", "Description", "Amount", "Recurrent", "Installments"); err != nil {
		return nil, err
	}
	f.SetColWidth(transactionsSheet, "A", "A", 20)
	f.SetColWidth(transactionsSheet, "B", "B", 40)
	for i, t := range detail.Transactions {
		row := []interface{}{
			t.Date.Format("2006-01-02 15:04:05"),
			t.Description,
			t.Amount.InexactFloat64(),
			t.IsRecurrent,
			fmt.Sprintf("%d/%d", t.InstallmentsPaid, t.Installments),
		}
		if err := f.SetSheetRow(transactionsSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, style int, headers ...string) error {
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, style)
	}
	return nil
}
