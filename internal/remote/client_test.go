package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/fieldquote-sync/internal/common"
	"github.com/joseph-ayodele/fieldquote-sync/internal/entity"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient() *Client {
	return NewClient(Config{Timeout: 5 * time.Second, APIPrefix: "/api"}, discardLogger())
}

func testProfile(serverURL string) entity.BusinessProfile {
	p := entity.NewBusinessProfile("Acme Plumbing", "Jo Smith", "jo@acme.test", "555-0100")
	p.BusinessID = "biz-1"
	p.ServerURL = serverURL
	p.DeliveryToken = entity.Ptr("tok-1")
	p.NotificationEmail = entity.Ptr("alerts@acme.test")
	return p
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{APIPrefix: "/api/"}, nil)
	if c.http.Timeout != common.DefaultRemoteTimeout {
		t.Errorf("timeout = %v, want %v", c.http.Timeout, common.DefaultRemoteTimeout)
	}
	if c.cfg.APIPrefix != "/api" {
		t.Errorf("APIPrefix = %q, want /api", c.cfg.APIPrefix)
	}
}

func TestRegisterBusiness(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/register-business" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := newTestClient().RegisterBusiness(context.Background(), testProfile(srv.URL)); err != nil {
		t.Fatalf("RegisterBusiness: %v", err)
	}
	checks := map[string]any{
		"businessId":        "biz-1",
		"businessName":      "Acme Plumbing",
		"fcmToken":          "tok-1",
		"notificationEmail": "alerts@acme.test",
		"notificationPhone": "555-0100",
	}
	for k, want := range checks {
		if got[k] != want {
			t.Errorf("%s = %v, want %v", k, got[k], want)
		}
	}
}

func TestRegisterBusinessNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := newTestClient().RegisterBusiness(context.Background(), testProfile(srv.URL))
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("error = %v, want StatusError 503", err)
	}
}

func TestUpdateDeliveryToken(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/update-fcm-token" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
	}))
	defer srv.Close()

	res := newTestClient().UpdateDeliveryToken(context.Background(), Target{ServerURL: srv.URL, BusinessID: "biz-1"}, "tok-2")
	if !res.OK() {
		t.Fatalf("result = %+v", res)
	}
	if body["businessId"] != "biz-1" || body["token"] != "tok-2" {
		t.Errorf("body = %v", body)
	}
}

func TestUpdateDeliveryTokenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := newTestClient().UpdateDeliveryToken(context.Background(), Target{ServerURL: url, BusinessID: "biz-1"}, "tok")
	if res.OK() || !errors.Is(res.Err, common.ErrNetworkDegraded) {
		t.Fatalf("result = %+v, want degraded", res)
	}
}

func TestTrackQuoteShared(t *testing.T) {
	var body map[string]any
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("X-API-Key")
		_ = json.NewDecoder(r.Body).Decode(&body)
	}))
	defer srv.Close()

	sharedAt := time.UnixMilli(1_700_000_000_000)
	res := newTestClient().TrackQuoteShared(context.Background(),
		Target{ServerURL: srv.URL, APIKey: "k", BusinessID: "biz-1"}, "q-1", sharedAt)
	if !res.OK() {
		t.Fatalf("result = %+v", res)
	}
	if apiKey != "k" {
		t.Errorf("X-API-Key = %q", apiKey)
	}
	if body["quoteId"] != "q-1" || body["method"] != "link" || body["sharedAt"] != float64(1_700_000_000_000) {
		t.Errorf("body = %v", body)
	}
}

func TestQuoteStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  bool
		accepted bool
	}{
		{"accepted", 200, `{"accepted":true,"acceptedAt":"2026-04-01T10:00:00Z","clientName":"Acme","totalAmount":500}`, false, true},
		{"nulls allowed", 200, `{"accepted":false,"viewedAt":null}`, false, false},
		{"missing accepted", 200, `{"clientName":"Acme"}`, true, false},
		{"wrong type", 200, `{"accepted":"yes"}`, true, false},
		{"epoch millis timestamp", 200, `{"accepted":true,"acceptedAt":1775037600000,"viewedAt":1775030000000}`, false, true},
		{"amount as string", 200, `{"accepted":true,"totalAmount":"500.00"}`, false, true},
		{"unparseable amount dropped", 200, `{"accepted":true,"totalAmount":"five hundred"}`, false, true},
		{"blank timestamp", 200, `{"accepted":true,"acceptedAt":"  "}`, false, true},
		{"not json", 200, `<html>`, true, false},
		{"server error", 500, `{"accepted":true}`, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet || r.URL.Path != "/api/quote-status/q-1" {
					t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
				}
				if r.Header.Get("X-Business-Id") != "biz-1" {
					t.Errorf("X-Business-Id = %q", r.Header.Get("X-Business-Id"))
				}
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			st, err := newTestClient().QuoteStatus(context.Background(), Target{ServerURL: srv.URL, BusinessID: "biz-1"}, "q-1")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if st.Accepted != tt.accepted {
				t.Errorf("Accepted = %v, want %v", st.Accepted, tt.accepted)
			}
		})
	}
}

func TestQuoteStatusDecodesOptionalFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"accepted":true,"clientName":"Acme","clientEmail":"a@acme.test","totalAmount":512.5}`)
	}))
	defer srv.Close()

	st, err := newTestClient().QuoteStatus(context.Background(), Target{ServerURL: srv.URL, BusinessID: "biz-1"}, "q-1")
	if err != nil {
		t.Fatalf("QuoteStatus: %v", err)
	}
	if entity.StrOrEmpty(st.ClientName) != "Acme" || st.TotalAmount == nil || *st.TotalAmount != 512.5 {
		t.Errorf("status = %+v", st)
	}
	if st.ViewedAt != nil {
		t.Errorf("ViewedAt = %v, want nil", *st.ViewedAt)
	}
}

func TestQuoteStatusCoercesLooseFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"accepted":true,"acceptedAt":1775037600000,"viewedAt":" 2026-04-01T09:00:00Z ","totalAmount":" 500.25 ","clientName":null}`)
	}))
	defer srv.Close()

	st, err := newTestClient().QuoteStatus(context.Background(), Target{ServerURL: srv.URL, BusinessID: "biz-1"}, "q-1")
	if err != nil {
		t.Fatalf("QuoteStatus: %v", err)
	}
	want := entity.QuoteStatus{
		Accepted:    true,
		AcceptedAt:  entity.Ptr("1775037600000"),
		ViewedAt:    entity.Ptr("2026-04-01T09:00:00Z"),
		TotalAmount: entity.Ptr(500.25),
	}
	if diff := cmp.Diff(want, st); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestQuoteStatusDropsUnparseableAmount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"accepted":true,"totalAmount":"NaN"}`)
	}))
	defer srv.Close()

	st, err := newTestClient().QuoteStatus(context.Background(), Target{ServerURL: srv.URL, BusinessID: "biz-1"}, "q-1")
	if err != nil {
		t.Fatalf("QuoteStatus: %v", err)
	}
	if !st.Accepted || st.TotalAmount != nil {
		t.Errorf("status = %+v, want accepted with no amount", st)
	}
}

func uploadFixture() Upload {
	p := testProfile("http://unused")
	q := entity.Quote{
		ClientName:  "Acme Corp",
		ClientEmail: entity.Ptr("buyer@acme.test"),
		Tiers: []entity.Tier{{Title: "Basic", Items: []entity.Item{
			{ServiceType: "Labor", Quantity: 2, Rate: 100, Unit: "hr"},
		}}},
	}
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	return Upload{
		Record:      entity.NewTransferRecord("local-id", p, q, now),
		Document:    []byte("%PDF-1.4 test"),
		Filename:    "quote-local-id.pdf",
		QuoteDetail: []byte(`{"grandTotal":200}`),
		Preferences: []byte(`{"enablePush":true}`),
	}
}

func TestUploadQuoteMultipart(t *testing.T) {
	up := uploadFixture()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/upload-quote" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "secret" {
			t.Errorf("X-API-Key = %q", r.Header.Get("X-API-Key"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		want := map[string]string{
			"quoteId":                 "local-id",
			"businessId":              "biz-1",
			"businessOwner":           "Jo Smith",
			"clientName":              "Acme Corp",
			"clientEmail":             "buyer@acme.test",
			"clientPhone":             "",
			"totalAmount":             "200.00",
			"quoteDetails":            `{"grandTotal":200}`,
			"notificationPreferences": `{"enablePush":true}`,
		}
		for k, v := range want {
			if got := r.FormValue(k); got != v {
				t.Errorf("field %s = %q, want %q", k, got, v)
			}
		}
		f, hdr, err := r.FormFile("pdf")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if string(data) != "%PDF-1.4 test" || hdr.Header.Get("Content-Type") != "application/pdf" {
			t.Errorf("pdf part = %q (%s)", data, hdr.Header.Get("Content-Type"))
		}
		_, _ = io.WriteString(w, `{"quoteId":"server-id"}`)
	}))
	defer srv.Close()

	id, err := newTestClient().UploadQuote(context.Background(),
		Target{ServerURL: srv.URL, APIKey: "secret", BusinessID: "biz-1"}, up)
	if err != nil {
		t.Fatalf("UploadQuote: %v", err)
	}
	if id != "server-id" {
		t.Errorf("id = %q, want server-id", id)
	}
}

func TestUploadQuoteResponses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantID  string
		wantErr bool
	}{
		{"empty body", 200, "", "", false},
		{"no quoteId", 201, `{"ok":true}`, "", false},
		{"null quoteId", 200, `{"quoteId":null}`, "", false},
		{"numeric quoteId", 200, `{"quoteId":98765}`, "98765", false},
		{"quoteId wrong type", 200, `{"quoteId":{"id":"x"}}`, "", true},
		{"bad json", 200, `not json`, "", true},
		{"rejected", 413, `{"error":"too large"}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			id, err := newTestClient().UploadQuote(context.Background(), Target{ServerURL: srv.URL, BusinessID: "biz-1"}, uploadFixture())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if id != tt.wantID {
				t.Errorf("id = %q, want %q", id, tt.wantID)
			}
		})
	}
}

func TestTargetForTrimsServerURL(t *testing.T) {
	p := testProfile("https://quotes.example.com/")
	p.APIKey = entity.Ptr("k")
	got := TargetFor(p)
	if got.ServerURL != "https://quotes.example.com" || got.APIKey != "k" || got.BusinessID != "biz-1" {
		t.Errorf("TargetFor = %+v", got)
	}
}
