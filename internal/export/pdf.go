package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/negotiations-service/internal/model"
)

type PDFGenerator struct {
	fontName string
}

func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{fontName: "Helvetica"}
}

func (g *PDFGenerator) Generate(register model.ContractRegister) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Completed contracts register", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated at %s", register.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Contracts: %d, total negotiated profit: %s", len(register.Snapshots), register.TotalProfit.StringFixed(2)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	headers := []string{"Request", "Vendor", "Product", "Requester", "Counts", "Profit", "Completed", "Renewal"}
	colWidths := []float64{28, 45, 45, 45, 28, 24, 26, 26}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)

	for _, snapshot := range register.Snapshots {
		renewal := ""
		if snapshot.RenewalDate != nil {
			renewal = snapshot.RenewalDate.Format("2006-01-02")
		}
		row := []string{
			snapshot.RequestKey,
			snapshot.Vendor,
			snapshot.Product,
			snapshot.RequesterName,
			fmt.Sprintf("%d > %d %s", snapshot.CurrentCount, snapshot.NewCount, snapshot.Unit),
			snapshot.Profit.StringFixed(2),
			snapshot.CompletedAt.Format("2006-01-02"),
			renewal,
		}
		drawTableRow(pdf, g.fontName, row, colWidths, false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 9)
	for i, col := range cols {
		align := "L"
		if i >= 4 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}
