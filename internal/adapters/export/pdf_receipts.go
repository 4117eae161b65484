package export

import (
	"bytes"
	"fmt"
	"oil-collection-service/internal/domain"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// ReceiptSummaryPDF renders the month's buyer receipt confirmations.
func ReceiptSummaryPDF(month time.Time, rows []domain.ReceiptConfirmationRow) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Receipt Confirmations")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Month: %s", month.Format("2006-01")))
	pdf.Ln(5)

	var weighed, net float64
	for _, r := range rows {
		weighed += r.WeighedMass
		net += r.NetWeight
	}
	pdf.Cell(0, 6, fmt.Sprintf("Weigh-ins: %d", len(rows)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Weighed (t): %.3f", weighed))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Net (t): %.3f", net))
	pdf.Ln(8)

	headers := []string{"Date", "Doc No", "Plate", "Driver", "Weighed", "Tare", "Gross", "Net", "Adj %"}
	widths := []float64{26, 40, 30, 40, 26, 24, 26, 26, 20}

	pdf.SetFont("Arial", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, r := range rows {
		cells := []string{
			r.PickupDate.Format("2006-01-02"),
			r.SettlementDocNo,
			tr(r.VehiclePlate),
			tr(r.Driver),
			fmt.Sprintf("%.2f", r.WeighedMass),
			fmt.Sprintf("%.2f", r.TareWeight),
			fmt.Sprintf("%.3f", r.GrossWeight),
			fmt.Sprintf("%.3f", r.NetWeight),
			fmt.Sprintf("%+.1f", r.ShortfallPct),
		}
		for i, c := range cells {
			align := "R"
			if i < 4 {
				align = "C"
			}
			pdf.CellFormat(widths[i], 6, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("receipt summary pdf: %w", err)
	}
	return buf.Bytes(), nil
}
