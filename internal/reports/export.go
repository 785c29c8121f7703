package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	analytics "wastetrack-cloud/internal/analytics/domain"
	entries "wastetrack-cloud/internal/entries/domain"
)

// Summary bundles everything a dashboard report renders.
type Summary struct {
	Snapshot analytics.Snapshot
	Series   []analytics.SeriesPoint
	Range    entries.TimeRange
	Unit     entries.Unit
}

// BuildEntriesCSV renders the waste entry collection as CSV. Weights are
// converted to the display unit.
func BuildEntriesCSV(list []entries.WasteEntry, unit entries.Unit) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	header := []string{"id", "user_id", "category", "weight_" + string(unit), "timestamp", "recyclable", "location", "notes"}
	if err := writer.Write(header); err != nil {
		return nil, err
	}
	for _, entry := range list {
		record := []string{
			entry.ID,
			entry.UserID,
			string(entry.Category),
			strconv.FormatFloat(unit.FromKilograms(entry.Weight), 'f', 3, 64),
			entry.Timestamp.Format(time.RFC3339),
			strconv.FormatBool(entry.Recyclable),
			entry.Location,
			entry.Notes,
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildSummaryPDF renders a dashboard summary PDF.
func BuildSummaryPDF(summary Summary) ([]byte, error) {
	snap := summary.Snapshot
	unit := summary.Unit

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Waste Tracking Summary")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", snap.LastUpdated.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Range: %s", summary.Range))
	pdf.Ln(8)

	pdf.Cell(0, 6, fmt.Sprintf("Today Recycled (%s): %.2f", unit, unit.FromKilograms(snap.TodayRecycled)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Today Waste (%s): %.2f", unit, unit.FromKilograms(snap.TodayWaste)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Recycling Rate: %.1f%% (%s)", snap.CurrentRate, snap.WeeklyTrend))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Monthly Landfill (%s): %.2f", unit, unit.FromKilograms(snap.MonthlyLandfillTotal)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Monthly Recycling (%s): %.2f", unit, unit.FromKilograms(snap.MonthlyRecyclingTotal)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Pending Landfill (%s): %.2f", unit, unit.FromKilograms(snap.PendingLandfillWeight)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Pending Recycling (%s): %.2f", unit, unit.FromKilograms(snap.PendingRecyclingWeight)))
	pdf.Ln(8)

	// Category table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(70, 6, "Category", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, fmt.Sprintf("Weight (%s)", unit), "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, category := range entries.AllCategories {
		weight := snap.CategoryTotals[string(category)]
		pdf.CellFormat(70, 6, string(category), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, fmt.Sprintf("%.3f", unit.FromKilograms(weight)), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if len(summary.Series) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(40, 6, "Bucket", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, "Recycled", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, "Waste", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, point := range summary.Series {
			pdf.CellFormat(40, 6, point.Label, "1", 0, "C", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("%.3f", unit.FromKilograms(point.Recycled)), "1", 0, "R", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("%.3f", unit.FromKilograms(point.Waste)), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildSummaryXLSX renders a dashboard summary workbook.
func BuildSummaryXLSX(summary Summary) ([]byte, error) {
	snap := summary.Snapshot
	unit := summary.Unit

	f := excelize.NewFile()
	summarySheet := "summary"
	categorySheet := "categories"
	seriesSheet := "series"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(categorySheet)
	f.NewSheet(seriesSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Waste Tracking Summary")
	_ = f.SetCellValue(summarySheet, "A3", "Generated")
	_ = f.SetCellValue(summarySheet, "B3", snap.LastUpdated.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A4", "Today Recycled ("+string(unit)+")")
	_ = f.SetCellValue(summarySheet, "B4", unit.FromKilograms(snap.TodayRecycled))
	_ = f.SetCellValue(summarySheet, "A5", "Today Waste ("+string(unit)+")")
	_ = f.SetCellValue(summarySheet, "B5", unit.FromKilograms(snap.TodayWaste))
	_ = f.SetCellValue(summarySheet, "A6", "Recycling Rate (%)")
	_ = f.SetCellValue(summarySheet, "B6", snap.CurrentRate)
	_ = f.SetCellValue(summarySheet, "A7", "Trend")
	_ = f.SetCellValue(summarySheet, "B7", string(snap.WeeklyTrend))
	_ = f.SetCellValue(summarySheet, "A8", "Monthly Landfill ("+string(unit)+")")
	_ = f.SetCellValue(summarySheet, "B8", unit.FromKilograms(snap.MonthlyLandfillTotal))
	_ = f.SetCellValue(summarySheet, "A9", "Monthly Recycling ("+string(unit)+")")
	_ = f.SetCellValue(summarySheet, "B9", unit.FromKilograms(snap.MonthlyRecyclingTotal))
	_ = f.SetCellValue(summarySheet, "A10", "Pending Landfill ("+string(unit)+")")
	_ = f.SetCellValue(summarySheet, "B10", unit.FromKilograms(snap.PendingLandfillWeight))
	_ = f.SetCellValue(summarySheet, "A11", "Pending Recycling ("+string(unit)+")")
	_ = f.SetCellValue(summarySheet, "B11", unit.FromKilograms(snap.PendingRecyclingWeight))

	_ = f.SetCellValue(categorySheet, "A1", "Category")
	_ = f.SetCellValue(categorySheet, "B1", "Weight ("+string(unit)+")")
	for i, category := range entries.AllCategories {
		row := i + 2
		_ = f.SetCellValue(categorySheet, fmt.Sprintf("A%d", row), string(category))
		_ = f.SetCellValue(categorySheet, fmt.Sprintf("B%d", row), unit.FromKilograms(snap.CategoryTotals[string(category)]))
	}

	_ = f.SetCellValue(seriesSheet, "A1", "Bucket")
	_ = f.SetCellValue(seriesSheet, "B1", "Recycled ("+string(unit)+")")
	_ = f.SetCellValue(seriesSheet, "C1", "Waste ("+string(unit)+")")
	for i, point := range summary.Series {
		row := i + 2
		_ = f.SetCellValue(seriesSheet, fmt.Sprintf("A%d", row), point.Label)
		_ = f.SetCellValue(seriesSheet, fmt.Sprintf("B%d", row), unit.FromKilograms(point.Recycled))
		_ = f.SetCellValue(seriesSheet, fmt.Sprintf("C%d", row), unit.FromKilograms(point.Waste))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
