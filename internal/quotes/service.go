// Package quotes uploads quote documents to the acceptance server, builds the
// share link and message, and queries acceptance state.
package quotes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/fieldquote-sync/internal/async"
	"github.com/joseph-ayodele/fieldquote-sync/internal/common"
	"github.com/joseph-ayodele/fieldquote-sync/internal/entity"
	"github.com/joseph-ayodele/fieldquote-sync/internal/remote"
)

// ProfileSource supplies the active business profile.
type ProfileSource interface {
	Get(ctx context.Context) (*entity.BusinessProfile, error)
}

// Client is the subset of the acceptance server client used here.
type Client interface {
	UploadQuote(ctx context.Context, t remote.Target, up remote.Upload) (string, error)
	QuoteStatus(ctx context.Context, t remote.Target, quoteID string) (entity.QuoteStatus, error)
	TrackQuoteShared(ctx context.Context, t remote.Target, quoteID string, sharedAt time.Time) common.Result
}

// Scheduler runs best-effort tasks off the caller's goroutine.
type Scheduler interface {
	Enqueue(ctx context.Context, name string, task async.Task) error
}

type Service struct {
	profiles ProfileSource
	client   Client
	tasks    Scheduler
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces the transfer id source.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

func NewService(profiles ProfileSource, client Client, tasks Scheduler, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		profiles: profiles,
		client:   client,
		tasks:    tasks,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Upload sends the quote and its rendered document to the server and returns
// the transfer id the server confirmed, or the locally generated one when the
// response carries none. Any transport or server failure is ErrUploadFailed;
// the caller falls back to sharing the document offline.
func (s *Service) Upload(ctx context.Context, q entity.Quote, pdf []byte) (string, error) {
	p, err := s.activeProfile(ctx, "upload quote")
	if err != nil {
		return "", err
	}
	id, _, err := s.upload(ctx, *p, q, pdf)
	return id, err
}

func (s *Service) upload(ctx context.Context, p entity.BusinessProfile, q entity.Quote, pdf []byte) (string, entity.QuoteTransferRecord, error) {
	if err := validateQuote(q, pdf); err != nil {
		return "", entity.QuoteTransferRecord{}, err
	}

	start := time.Now()
	localID := s.newID()
	rec := entity.NewTransferRecord(localID, p, q, s.now().UTC())

	details, err := detailsJSON(rec)
	if err != nil {
		return "", rec, common.UploadFailedError(fmt.Errorf("encode quote details: %w", err))
	}
	prefs, err := preferencesJSON(rec.Business)
	if err != nil {
		return "", rec, common.UploadFailedError(fmt.Errorf("encode notification preferences: %w", err))
	}

	serverID, err := s.client.UploadQuote(ctx, remote.TargetFor(p), remote.Upload{
		Record:      rec,
		Document:    pdf,
		Filename:    "quote-" + localID + ".pdf",
		QuoteDetail: details,
		Preferences: prefs,
	})
	if err != nil {
		s.logger.Warn("quotes.upload.failed", "business_id", p.BusinessID, "transfer_id", localID,
			"elapsed_ms", time.Since(start).Milliseconds(), "error", err)
		return "", rec, common.UploadFailedError(err)
	}

	id := localID
	if serverID != "" {
		id = serverID
	}
	rec.TransferID = id
	s.logger.Info("quotes.upload.done", "business_id", p.BusinessID, "transfer_id", id,
		"server_assigned", serverID != "" && serverID != localID, "grand_total", rec.Totals.GrandTotal,
		"elapsed_ms", time.Since(start).Milliseconds())
	return id, rec, nil
}

// TrackShared reports a share to the server. It never blocks on the network
// and never fails.
func (s *Service) TrackShared(ctx context.Context, transferID, businessID string) {
	const op = "track-quote-shared"
	sharedAt := s.now().UTC()
	err := s.tasks.Enqueue(ctx, op, func(ctx context.Context) common.Result {
		p, err := s.profiles.Get(ctx)
		if err != nil {
			return common.Degraded(op, err)
		}
		if p == nil {
			return common.Degraded(op, common.ErrNotInitialized)
		}
		t := remote.TargetFor(*p)
		t.BusinessID = businessID
		return s.client.TrackQuoteShared(ctx, t, transferID, sharedAt)
	})
	if err != nil {
		common.Degraded(op, err).Discard(s.logger)
	}
}

// CheckStatus returns the acceptance state of a transfer. Every failure,
// including a missing profile, yields a not-accepted status with no details.
func (s *Service) CheckStatus(ctx context.Context, transferID string) entity.QuoteStatus {
	const op = "quote-status"
	p, err := s.profiles.Get(ctx)
	if err != nil || p == nil {
		if err == nil {
			err = common.ErrNotInitialized
		}
		common.Degraded(op, err).Discard(s.logger)
		return entity.QuoteStatus{}
	}
	st, err := s.client.QuoteStatus(ctx, remote.TargetFor(*p), transferID)
	if err != nil {
		common.Degraded(op, err).Discard(s.logger.With("transfer_id", transferID))
		return entity.QuoteStatus{}
	}
	return st
}

// ShareResult is what the caller needs to deliver a quote. When Offline is
// set the upload failed and the caller sends the document without tracking.
type ShareResult struct {
	TransferID string
	Link       string
	Message    string
	Offline    bool
}

// Share uploads the quote, builds the acceptance link and message, and
// schedules share tracking. An upload failure is not an error here; it
// yields an Offline result.
func (s *Service) Share(ctx context.Context, q entity.Quote, pdf []byte) (ShareResult, error) {
	p, err := s.activeProfile(ctx, "share quote")
	if err != nil {
		return ShareResult{}, err
	}
	id, rec, err := s.upload(ctx, *p, q, pdf)
	if errors.Is(err, common.ErrUploadFailed) {
		s.logger.Info("quotes.share.offline", "business_id", p.BusinessID)
		return ShareResult{Offline: true}, nil
	}
	if err != nil {
		return ShareResult{}, err
	}

	link := BuildAcceptanceLink(id, *p)
	s.TrackShared(ctx, id, p.BusinessID)
	return ShareResult{
		TransferID: id,
		Link:       link,
		Message:    BuildShareMessage(*p, q, rec.Totals.GrandTotal, link),
	}, nil
}

func (s *Service) activeProfile(ctx context.Context, op string) (*entity.BusinessProfile, error) {
	p, err := s.profiles.Get(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, common.NotInitializedError(op)
	}
	return p, nil
}

func validateQuote(q entity.Quote, pdf []byte) error {
	v := common.NewValidator()
	v.Field("clientName", q.ClientName, common.Required, common.MaxLength(200))
	if q.TaxRate != nil {
		v.Field("taxRate", *q.TaxRate, common.NonNegative)
	}
	for _, t := range q.Tiers {
		for _, it := range t.Items {
			v.Field("quantity", it.Quantity, common.NonNegative)
			v.Field("rate", it.Rate, common.NonNegative)
		}
	}
	if len(pdf) == 0 {
		v.Field("pdf", "", common.Required)
	}
	return v.Err()
}
