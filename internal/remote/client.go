// Package remote is the HTTP+JSON client for the quote acceptance server.
// Every call is scoped by the business identifier; the server isolates
// stored quote data per business.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/fieldquote-sync/internal/common"
	"github.com/joseph-ayodele/fieldquote-sync/internal/entity"
)

// Config for the acceptance server client.
type Config struct {
	Timeout   time.Duration // finite; defaults to common.DefaultRemoteTimeout
	APIPrefix string        // path segment between server URL and endpoint, e.g. "/api"
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = common.DefaultRemoteTimeout
	}
	cfg.APIPrefix = strings.TrimRight(cfg.APIPrefix, "/")
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Target identifies the server and tenant for a call.
type Target struct {
	ServerURL  string
	APIKey     string
	BusinessID string
}

// TargetFor derives the call target from a profile.
func TargetFor(p entity.BusinessProfile) Target {
	return Target{
		ServerURL:  strings.TrimRight(p.ServerURL, "/"),
		APIKey:     entity.StrOrEmpty(p.APIKey),
		BusinessID: p.BusinessID,
	}
}

func (c *Client) endpoint(t Target, path string) string {
	return strings.TrimRight(t.ServerURL, "/") + c.cfg.APIPrefix + path
}

func authHeaders(t Target) map[string]string {
	h := map[string]string{}
	if t.APIKey != "" {
		h["X-API-Key"] = t.APIKey
	}
	return h
}

type registerRequest struct {
	BusinessID               string `json:"businessId"`
	BusinessName             string `json:"businessName"`
	OwnerName                string `json:"ownerName"`
	Email                    string `json:"email"`
	Phone                    string `json:"phone"`
	FCMToken                 string `json:"fcmToken"`
	EnablePushNotifications  bool   `json:"enablePushNotifications"`
	EnableEmailNotifications bool   `json:"enableEmailNotifications"`
	EnableSmsNotifications   bool   `json:"enableSmsNotifications"`
	NotificationEmail        string `json:"notificationEmail"`
	NotificationPhone        string `json:"notificationPhone"`
}

// RegisterBusiness sends the full profile to POST /register-business.
func (c *Client) RegisterBusiness(ctx context.Context, p entity.BusinessProfile) error {
	t := TargetFor(p)
	body := registerRequest{
		BusinessID:               p.BusinessID,
		BusinessName:             p.BusinessName,
		OwnerName:                p.OwnerName,
		Email:                    p.Email,
		Phone:                    p.Phone,
		FCMToken:                 p.Token(),
		EnablePushNotifications:  p.EnablePushNotifications,
		EnableEmailNotifications: p.EnableEmailNotifications,
		EnableSmsNotifications:   p.EnableSmsNotifications,
		NotificationEmail:        p.NotificationEmailAddress(),
		NotificationPhone:        p.NotificationPhoneNumber(),
	}
	if _, _, err := c.sendJSON(ctx, http.MethodPost, c.endpoint(t, "/register-business"), body, authHeaders(t)); err != nil {
		return fmt.Errorf("register business: %w", err)
	}
	return nil
}

// UpdateDeliveryToken sends POST /update-fcm-token. Best-effort.
func (c *Client) UpdateDeliveryToken(ctx context.Context, t Target, token string) common.Result {
	const op = "update-fcm-token"
	body := map[string]string{"businessId": t.BusinessID, "token": token}
	if _, _, err := c.sendJSON(ctx, http.MethodPost, c.endpoint(t, "/update-fcm-token"), body, authHeaders(t)); err != nil {
		return common.Degraded(op, err)
	}
	return common.Succeeded(op)
}

// TrackQuoteShared sends POST /track-quote-shared. Best-effort.
func (c *Client) TrackQuoteShared(ctx context.Context, t Target, quoteID string, sharedAt time.Time) common.Result {
	const op = "track-quote-shared"
	body := map[string]any{
		"quoteId":    quoteID,
		"businessId": t.BusinessID,
		"sharedAt":   sharedAt.UnixMilli(),
		"method":     "link",
	}
	if _, _, err := c.sendJSON(ctx, http.MethodPost, c.endpoint(t, "/track-quote-shared"), body, authHeaders(t)); err != nil {
		return common.Degraded(op, err)
	}
	return common.Succeeded(op)
}

// QuoteStatus sends GET /quote-status/{id}. Errors are returned as-is; the
// quotes service decides how to degrade.
func (c *Client) QuoteStatus(ctx context.Context, t Target, quoteID string) (entity.QuoteStatus, error) {
	headers := authHeaders(t)
	headers["X-Business-Id"] = t.BusinessID

	raw, _, err := c.sendJSON(ctx, http.MethodGet, c.endpoint(t, "/quote-status/"+url.PathEscape(quoteID)), nil, headers)
	if err != nil {
		return entity.QuoteStatus{}, fmt.Errorf("quote status: %w", err)
	}
	var st entity.QuoteStatus
	dropped, err := decodeValidated(quoteStatusSchema, raw, &st, sanitizeQuoteStatus)
	if err != nil {
		c.logger.Warn("remote.quote_status.invalid_response", "quote_id", quoteID, "error", err)
		return entity.QuoteStatus{}, fmt.Errorf("quote status: %w", err)
	}
	if len(dropped) > 0 {
		c.logger.Debug("remote.quote_status.fields_dropped", "quote_id", quoteID, "fields", dropped)
	}
	return st, nil
}

// Upload is one multipart transfer to POST /upload-quote.
type Upload struct {
	Record      entity.QuoteTransferRecord
	Document    []byte
	Filename    string
	QuoteDetail []byte // JSON
	Preferences []byte // JSON
}

// UploadQuote sends the multipart transfer and returns the server-confirmed
// transfer id, or "" when the response does not carry one.
func (c *Client) UploadQuote(ctx context.Context, t Target, up Upload) (string, error) {
	body, contentType, err := encodeUpload(up)
	if err != nil {
		return "", fmt.Errorf("encode upload: %w", err)
	}
	headers := authHeaders(t)
	headers["Content-Type"] = contentType

	raw, _, err := c.send(ctx, http.MethodPost, c.endpoint(t, "/upload-quote"), bytes.NewReader(body), headers)
	if err != nil {
		return "", fmt.Errorf("upload quote: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", nil
	}
	var resp struct {
		QuoteID *string `json:"quoteId"`
	}
	if _, err := decodeValidated(uploadResponseSchema, raw, &resp, sanitizeUploadResponse); err != nil {
		return "", fmt.Errorf("upload quote response: %w", err)
	}
	return entity.StrOrEmpty(resp.QuoteID), nil
}

func encodeUpload(up Upload) ([]byte, string, error) {
	rec := up.Record
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"quoteId", rec.TransferID},
		{"businessId", rec.Business.BusinessID},
		{"businessName", rec.Business.BusinessName},
		{"businessEmail", rec.Business.Email},
		{"businessPhone", rec.Business.Phone},
		{"businessAddress", rec.Business.Address},
		{"businessWebsite", rec.Business.Website},
		{"businessOwner", rec.Business.OwnerName},
		{"clientName", rec.Quote.ClientName},
		{"clientPhone", entity.StrOrEmpty(rec.Quote.ClientPhone)},
		{"clientEmail", entity.StrOrEmpty(rec.Quote.ClientEmail)},
		{"jobAddress", entity.StrOrEmpty(rec.Quote.JobAddress)},
		{"totalAmount", strconv.FormatFloat(rec.Totals.GrandTotal, 'f', 2, 64)},
		{"quoteDate", strconv.FormatInt(rec.QuoteDate.UnixMilli(), 10)},
		{"validUntil", strconv.FormatInt(rec.ValidUntil.UnixMilli(), 10)},
		{"notificationPreferences", string(up.Preferences)},
		{"quoteDetails", string(up.QuoteDetail)},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.name, err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="pdf"; filename=%q`, up.Filename))
	h.Set("Content-Type", "application/pdf")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create pdf part: %w", err)
	}
	if _, err := part.Write(up.Document); err != nil {
		return nil, "", fmt.Errorf("write pdf part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
