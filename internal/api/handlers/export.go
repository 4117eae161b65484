package handlers

import (
	"fmt"
	"log"
	"net/http"
	"oil-collection-service/internal/adapters/export"
	"oil-collection-service/internal/domain"
	"oil-collection-service/internal/ports"
	"time"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType  = "application/pdf"
)

type ExportHandler struct {
	Ledger ports.LedgerRepository
}

// Export renders the stored ledgers as a workbook (format=xlsx, the default)
// or the month's receipt summary (format=pdf).
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	month := domain.Day(time.Now())
	if m := q.Get("month"); m != "" {
		parsed, err := parseMonth(m)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		month = parsed
	}

	var (
		data        []byte
		contentType string
		ext         string
		err         error
	)
	switch format := q.Get("format"); format {
	case "", "xlsx":
		data, err = h.workbook(r, month)
		contentType, ext = xlsxContentType, "xlsx"
	case "pdf":
		var receipts []domain.ReceiptConfirmationRow
		receipts, err = h.Ledger.ListReceipts(r.Context(), month)
		if err == nil {
			data, err = export.ReceiptSummaryPDF(month, receipts)
		}
		contentType, ext = pdfContentType, "pdf"
	default:
		writeError(w, r, http.StatusBadRequest, "format must be xlsx or pdf")
		return
	}
	if err != nil {
		log.Printf("export ledgers failed: format=%s err=%v", ext, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ledgers-%s.%s"`, month.Format("2006-01"), ext))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Printf("write export failed: %v", err)
	}
}

func (h *ExportHandler) workbook(r *http.Request, month time.Time) ([]byte, error) {
	ctx := r.Context()

	collection, err := h.Ledger.ListCollectionRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collection rows: %w", err)
	}
	balance, err := h.Ledger.ListBalanceRows(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("list balance rows: %w", err)
	}
	total, err := h.Ledger.ListTotalSheet(ctx)
	if err != nil {
		return nil, fmt.Errorf("list total sheet: %w", err)
	}
	receipts, err := h.Ledger.ListReceipts(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}

	return export.LedgerWorkbook(export.Ledgers{
		Collection: collection,
		Balance:    balance,
		Total:      total,
		Receipts:   receipts,
	})
}
