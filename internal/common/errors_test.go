package common

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestTaxonomyMatchesWithErrorsIs(t *testing.T) {
	cause := errors.New("disk full")
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not initialized", NotInitializedError("update profile"), ErrNotInitialized},
		{"storage fault", StorageFaultError("write profile", cause), ErrStorageFault},
		{"storage fault keeps cause", StorageFaultError("write profile", cause), cause},
		{"upload failed", UploadFailedError(cause), ErrUploadFailed},
		{"validation", ValidationFailedError("bad"), ErrValidation},
		{"degraded", Degraded("op", cause).Err, ErrNetworkDegraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.want)
			}
		})
	}
}

func TestResultDiscardLogsOnlyFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	Succeeded("track").Discard(logger)
	if buf.Len() != 0 {
		t.Fatalf("success logged: %s", buf.String())
	}
	Degraded("track", errors.New("timeout")).Discard(logger)
	if out := buf.String(); !strings.Contains(out, "op=track") || !strings.Contains(out, "timeout") {
		t.Errorf("log = %q", out)
	}
}

func TestValidatorCollectsAllFailures(t *testing.T) {
	v := NewValidator()
	v.Field("name", "  ", Required, MaxLength(3))
	v.Field("long", "abcd", MaxLength(3))
	v.Field("currency", "usd", CurrencyCode)
	v.Field("server", "ftp://x", HTTPURL)
	v.Field("rate", -1.5, NonNegative)
	v.Field("days", 30, NonNegative)

	if got := len(v.Errors()); got != 5 {
		t.Fatalf("got %d errors, want 5: %s", got, v.ErrorMessage())
	}
	if err := v.Err(); !errors.Is(err, ErrValidation) {
		t.Errorf("Err() = %v", err)
	}
	if err := NewValidator().Field("ok", "x", Required).Err(); err != nil {
		t.Errorf("clean validator Err() = %v", err)
	}
}
