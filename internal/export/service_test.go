package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/fieldquote-sync/constants"
	"github.com/joseph-ayodele/fieldquote-sync/internal/entity"
)

type staticHistory struct {
	entries []entity.HistoryEntry
	err     error
}

func (h staticHistory) List(context.Context, int) ([]entity.HistoryEntry, error) {
	return h.entries, h.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func day(d int) time.Time {
	return time.Date(2026, 5, d, 15, 4, 5, 0, time.UTC)
}

func entries() []entity.HistoryEntry {
	return []entity.HistoryEntry{
		{EventType: constants.EventQuoteViewed, Title: "Quote Viewed", Body: "Acme is viewing your quote", ReceivedAt: day(1)},
		{EventType: constants.EventQuoteAccepted, Title: "Quote Accepted!", Body: "Acme has accepted your quote for $500",
			Reference: "q-1", Payload: map[string]string{"clientName": "Acme", "totalAmount": "500"}, ReceivedAt: day(2)},
		{EventType: constants.EventReminder, Title: "Quote Reminder", Body: constants.DefaultReminderMessage, ReceivedAt: day(3)},
	}
}

func readRows(t *testing.T, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(historySheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	return rows
}

func TestHistoryXLSXAllRows(t *testing.T) {
	svc := NewService(staticHistory{entries: entries()}, discardLogger())
	data, err := svc.HistoryXLSX(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("HistoryXLSX: %v", err)
	}
	rows := readRows(t, data)
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header + 3", len(rows))
	}
	want := []string{"2026-05-02T15:04:05Z", "quote_accepted", "Quote Accepted!", "Acme has accepted your quote for $500", "q-1", "Acme", "500"}
	if diff := cmp.Diff(want, rows[2]); diff != "" {
		t.Errorf("accepted row mismatch (-want +got):\n%s", diff)
	}
}

func TestHistoryXLSXDateWindow(t *testing.T) {
	svc := NewService(staticHistory{entries: entries()}, discardLogger())
	from, to := day(2), day(2)
	data, err := svc.HistoryXLSX(context.Background(), &from, &to)
	if err != nil {
		t.Fatalf("HistoryXLSX: %v", err)
	}
	rows := readRows(t, data)
	if len(rows) != 2 || rows[1][1] != "quote_accepted" {
		t.Errorf("rows = %v", rows)
	}
}

func TestHistoryXLSXSourceError(t *testing.T) {
	svc := NewService(staticHistory{err: errors.New("db closed")}, discardLogger())
	if _, err := svc.HistoryXLSX(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("héllo", 3); got != "hé…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("hi", 3); got != "hi" {
		t.Errorf("truncate = %q", got)
	}
}
