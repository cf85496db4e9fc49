package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/fieldquote-sync/internal/entity"
)

// HistorySource lists notification history in arrival order.
type HistorySource interface {
	List(ctx context.Context, limit int) ([]entity.HistoryEntry, error)
}

// Service produces XLSX bytes for exports.
type Service struct {
	history HistorySource
	logger  *slog.Logger
}

func NewService(history HistorySource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{history: history, logger: logger}
}

const historySheet = "Notifications"

// HistoryXLSX returns the notification history as an XLSX workbook, oldest
// first. from and to bound the arrival day (inclusive, UTC); either may be nil.
func (s *Service) HistoryXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	entries, err := s.history.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	lo, hi := dayBounds(from, to)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName(f.GetSheetName(0), historySheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(historySheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{"Received At", "Type", "Title", "Body", "Quote ID", "Client", "Amount"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(historySheet, cell, h)
	}

	row := 2
	for _, e := range entries {
		if (lo != nil && e.ReceivedAt.Before(*lo)) || (hi != nil && !e.ReceivedAt.Before(*hi)) {
			continue
		}
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(historySheet, cell, v)
		}
		write(1, e.ReceivedAt.UTC().Format(time.RFC3339))
		write(2, string(e.EventType))
		write(3, e.Title)
		write(4, truncate(e.Body, 140))
		write(5, e.Reference)
		write(6, e.Payload["clientName"])
		write(7, e.Payload["totalAmount"])
		row++
	}

	_ = f.SetColWidth(historySheet, "A", "A", 22)
	_ = f.SetColWidth(historySheet, "B", "B", 16)
	_ = f.SetColWidth(historySheet, "C", "C", 24)
	_ = f.SetColWidth(historySheet, "D", "D", 60)
	_ = f.SetColWidth(historySheet, "E", "G", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"sheet", historySheet,
		"rows", row-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// dayBounds turns optional dates into a half-open [lo, hi) UTC range.
func dayBounds(from, to *time.Time) (lo, hi *time.Time) {
	if from != nil {
		d := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		lo = &d
	}
	if to != nil {
		d := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
		hi = &d
	}
	return lo, hi
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
