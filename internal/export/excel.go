package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/negotiations-service/internal/model"
)

type ExcelGenerator struct{}

func NewExcelGenerator() *ExcelGenerator {
	return &ExcelGenerator{}
}

// Generate renders the completed-contracts register as a workbook with a
// summary sheet and one row per snapshot.
func (g *ExcelGenerator) Generate(register model.ContractRegister) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "Contracts"
	file.SetSheetName("Sheet1", sheet)

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Completed contracts register")
	set("A2", "Generated at")
	set("B2", formatDateTime(register.GeneratedAt))
	set("A3", "Contracts")
	set("B3", len(register.Snapshots))
	set("A4", "Total negotiated profit")
	set("B4", register.TotalProfit.StringFixed(2))

	tableRow := 6
	headers := []string{
		"Request",
		"Vendor",
		"Product",
		"Requester",
		"Current count",
		"New count",
		"Unit",
		"Profit",
		"Completed",
		"Renewal date",
		"Duration, months",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, snapshot := range register.Snapshots {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), snapshot.RequestKey)
		set(fmt.Sprintf("B%d", row), snapshot.Vendor)
		set(fmt.Sprintf("C%d", row), snapshot.Product)
		set(fmt.Sprintf("D%d", row), snapshot.RequesterName)
		set(fmt.Sprintf("E%d", row), snapshot.CurrentCount)
		set(fmt.Sprintf("F%d", row), snapshot.NewCount)
		set(fmt.Sprintf("G%d", row), snapshot.Unit)
		set(fmt.Sprintf("H%d", row), snapshot.Profit.StringFixed(2))
		set(fmt.Sprintf("I%d", row), formatDate(snapshot.CompletedAt))
		set(fmt.Sprintf("J%d", row), formatDatePtr(snapshot.RenewalDate))
		set(fmt.Sprintf("K%d", row), formatIntPtr(snapshot.DurationMonths))
	}

	_ = file.SetColWidth(sheet, "A", "A", 14)
	_ = file.SetColWidth(sheet, "B", "D", 28)
	_ = file.SetColWidth(sheet, "E", "H", 14)
	_ = file.SetColWidth(sheet, "I", "J", 16)
	_ = file.SetColWidth(sheet, "K", "K", 18)

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

func formatIntPtr(value *int) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%d", *value)
}
