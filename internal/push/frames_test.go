package push

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/fieldquote-sync/internal/entity"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReaderRoutesFrames(t *testing.T) {
	stream := strings.Join([]string{
		`{"token":"tok-1"}`,
		``,
		`not json`,
		`{"data":{"type":"quote_viewed","clientName":"Acme"}}`,
		`{}`,
		`{"token":"tok-2","data":{"type":"reminder"}}`,
	}, "\n")

	tokens := make(chan string, 4)
	events := make(chan entity.InboundEvent, 4)
	r := NewReader(tokens, events, discardLogger())
	if err := r.Run(context.Background(), strings.NewReader(stream)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	close(tokens)
	close(events)

	var gotTokens []string
	for tok := range tokens {
		gotTokens = append(gotTokens, tok)
	}
	if diff := cmp.Diff([]string{"tok-1", "tok-2"}, gotTokens); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}

	var gotTypes []string
	for ev := range events {
		if ev.ReceivedAt.IsZero() {
			t.Error("event without arrival time")
		}
		gotTypes = append(gotTypes, ev.Get("type"))
	}
	if diff := cmp.Diff([]string{"quote_viewed", "reminder"}, gotTypes); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestReaderStopsOnCancelWhenFull(t *testing.T) {
	tokens := make(chan string) // unbuffered and never read
	events := make(chan entity.InboundEvent)
	r := NewReader(tokens, events, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.Run(ctx, strings.NewReader(`{"token":"tok-1"}`))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestReaderSkipsOversizedFrame(t *testing.T) {
	stream := `{"token":"tok-before"}` + "\n" +
		`{"data":{"body":"` + strings.Repeat("x", 3*maxFrameBytes) + `"}}` + "\n" +
		`{"token":"tok-after"}` + "\n" +
		strings.Repeat("y", maxFrameBytes+10)

	tokens := make(chan string, 4)
	events := make(chan entity.InboundEvent, 4)
	r := NewReader(tokens, events, discardLogger())
	if err := r.Run(context.Background(), strings.NewReader(stream)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	close(tokens)
	close(events)

	var got []string
	for tok := range tokens {
		got = append(got, tok)
	}
	if diff := cmp.Diff([]string{"tok-before", "tok-after"}, got); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
	if n := len(events); n != 0 {
		t.Errorf("events delivered = %d, want 0", n)
	}
}

func TestReaderHandlesCRLF(t *testing.T) {
	tokens := make(chan string, 2)
	r := NewReader(tokens, make(chan entity.InboundEvent, 1), discardLogger())
	if err := r.Run(context.Background(), strings.NewReader("{\"token\":\"tok-1\"}\r\n")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := <-tokens; got != "tok-1" {
		t.Errorf("token = %q, want tok-1", got)
	}
}
