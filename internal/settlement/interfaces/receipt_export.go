package interfaces

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	settlement "finbooks/internal/settlement/domain"
)

// BuildReceiptPDF renders a payment receipt. All payments share one receipt
// number when they were settled in the same batch.
func BuildReceiptPDF(payments []settlement.Payment, bankAccountName string) ([]byte, error) {
	if len(payments) == 0 {
		return nil, fmt.Errorf("receipt: no payments")
	}
	first := payments[0]

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Payment Receipt")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Receipt: %s", first.ReceiptNumber))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", first.PaymentDate.Format("2006-01-02")))
	pdf.Ln(6)
	if bankAccountName != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Bank Account: %s", bankAccountName))
		pdf.Ln(6)
	}
	if first.Method != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Method: %s", first.Method))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(40, 7, "Source", "1", 0, "", false, 0, "")
	pdf.CellFormat(60, 7, "Voucher", "1", 0, "", false, 0, "")
	pdf.CellFormat(40, 7, "Amount", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, "Status", "1", 1, "", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	total := decimal.Zero
	for _, p := range payments {
		pdf.CellFormat(40, 7, string(sourceKind(p)), "1", 0, "", false, 0, "")
		pdf.CellFormat(60, 7, fmt.Sprintf("#%d", p.VoucherID), "1", 0, "", false, 0, "")
		pdf.CellFormat(40, 7, p.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, string(p.Status), "1", 1, "", false, 0, "")
		total = total.Add(p.Amount)
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(100, 7, "Total", "1", 0, "", false, 0, "")
	pdf.CellFormat(40, 7, total.StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, "", "1", 1, "", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sourceKind(p settlement.Payment) settlement.SourceKind {
	switch {
	case p.BillID != 0:
		return settlement.SourceBill
	case p.TaxDeclarationID != 0:
		return settlement.SourceTax
	case p.PurchaseOrderID != 0:
		return settlement.SourcePurchaseOrder
	}
	return ""
}
