package stocksheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"

	"barstock-backend/internal/financial"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const xlsxSheetName = "Income Statement"

// StatementRows lays out the income statement as label/value rows shared by
// the CSV and XLSX exports. Blank rows are nil.
func StatementRows(business, currency string, st *IncomeStatement) [][]string {
	money := func(label string, v decimal.Decimal) []string {
		return []string{label, financial.FormatMoney(currency, v)}
	}

	rows := [][]string{
		{strings.ToUpper(business) + " - INCOME STATEMENT"},
		{"Date: " + st.Date},
		nil,
		{"REVENUE"},
		money("Total Sales", st.TotalSales),
		nil,
		{"COST OF GOODS SOLD"},
		money("Opening Stock", st.OpeningStock),
		money("Purchases", st.TotalPurchases),
		money("Closing Stock", st.ClosingStock),
		money("Cost of Goods Sold", st.CostOfGoodsSold),
		nil,
		money("GROSS PROFIT", st.GrossProfit),
		nil,
		{"EXPENSES"},
	}

	cats := make([]string, 0, len(st.ExpensesByCategory))
	for c := range st.ExpensesByCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		rows = append(rows, money(c, st.ExpensesByCategory[c]))
	}

	net := "NET PROFIT"
	if st.IsLoss {
		net = "NET LOSS"
	}
	rows = append(rows,
		money("Total Expenses", st.TotalExpenses),
		nil,
		money(net, st.NetProfit),
	)
	return rows
}

func ExportFilename(st *IncomeStatement, ext string) string {
	return fmt.Sprintf("income-statement-%s.%s", st.Date, ext)
}

func WriteCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, r := range rows {
		if r == nil {
			r = []string{""}
		}
		if err := w.Write(r); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteXLSX puts labels in column A and values in column B.
func WriteXLSX(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheetName); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	for i, r := range rows {
		for j, v := range r {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(xlsxSheetName, cell, v); err != nil {
				return nil, fmt.Errorf("set %s: %w", cell, err)
			}
		}
		// section headings have no value column
		if len(r) == 1 && r[0] != "" {
			cell := fmt.Sprintf("A%d", i+1)
			_ = f.SetCellStyle(xlsxSheetName, cell, cell, bold)
		}
	}
	_ = f.SetColWidth(xlsxSheetName, "A", "A", 40)
	_ = f.SetColWidth(xlsxSheetName, "B", "B", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
