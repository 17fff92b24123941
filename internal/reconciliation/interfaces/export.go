package interfaces

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	reconciliation "finbooks/internal/reconciliation/domain"
)

// BuildStatementPDF renders a minimal PDF for a bank statement with its
// reconciliation state.
func BuildStatementPDF(stmt *reconciliation.BankStatement, accountName string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Bank Statement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Account: %s", accountName))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", stmt.StatementDate.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", stmt.Status))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Opening Balance: %s", stmt.OpeningBalance.StringFixed(2)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Closing Balance: %s", stmt.ClosingBalance.StringFixed(2)))
	pdf.Ln(8)

	// Items table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(30, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(70, 6, "Description", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Reconciled", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, item := range stmt.Items {
		reconciled := "no"
		if item.Reconciled {
			reconciled = "yes"
		}
		pdf.CellFormat(30, 6, item.TransactionDate.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(70, 6, item.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, item.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, reconciled, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildStatementXLSX renders a minimal XLSX for a bank statement.
func BuildStatementXLSX(stmt *reconciliation.BankStatement, accountName string) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	itemsSheet := "items"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(itemsSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Bank Statement")
	_ = f.SetCellValue(summarySheet, "A3", "Account")
	_ = f.SetCellValue(summarySheet, "B3", accountName)
	_ = f.SetCellValue(summarySheet, "A4", "Date")
	_ = f.SetCellValue(summarySheet, "B4", stmt.StatementDate.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A5", "Status")
	_ = f.SetCellValue(summarySheet, "B5", string(stmt.Status))
	_ = f.SetCellValue(summarySheet, "A6", "Opening Balance")
	_ = f.SetCellValue(summarySheet, "B6", stmt.OpeningBalance.StringFixed(2))
	_ = f.SetCellValue(summarySheet, "A7", "Closing Balance")
	_ = f.SetCellValue(summarySheet, "B7", stmt.ClosingBalance.StringFixed(2))

	_ = f.SetCellValue(itemsSheet, "A1", "Date")
	_ = f.SetCellValue(itemsSheet, "B1", "Description")
	_ = f.SetCellValue(itemsSheet, "C1", "Amount")
	_ = f.SetCellValue(itemsSheet, "D1", "Reconciled")
	_ = f.SetCellValue(itemsSheet, "E1", "Voucher Entry ID")
	for i, item := range stmt.Items {
		row := i + 2
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("A%d", row), item.TransactionDate.Format("2006-01-02"))
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("B%d", row), item.Description)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("C%d", row), item.Amount.StringFixed(2))
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("D%d", row), item.Reconciled)
		if item.VoucherEntryID != 0 {
			_ = f.SetCellValue(itemsSheet, fmt.Sprintf("E%d", row), item.VoucherEntryID)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
