// Package tokens keeps the push delivery token reconciled between the local
// profile and the acceptance server.
package tokens

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/joseph-ayodele/fieldquote-sync/internal/async"
	"github.com/joseph-ayodele/fieldquote-sync/internal/common"
	"github.com/joseph-ayodele/fieldquote-sync/internal/entity"
	"github.com/joseph-ayodele/fieldquote-sync/internal/profiles"
	"github.com/joseph-ayodele/fieldquote-sync/internal/remote"
)

// Remote is the subset of the acceptance server client the manager calls.
type Remote interface {
	RegisterBusiness(ctx context.Context, p entity.BusinessProfile) error
	UpdateDeliveryToken(ctx context.Context, t remote.Target, token string) common.Result
}

// Scheduler runs best-effort tasks off the caller's goroutine.
type Scheduler interface {
	Enqueue(ctx context.Context, name string, task async.Task) error
}

type Manager struct {
	store  *profiles.Store
	remote Remote
	tasks  Scheduler
	logger *slog.Logger

	mu      sync.Mutex
	pending string // issued before onboarding
}

func NewManager(store *profiles.Store, rc Remote, tasks Scheduler, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, remote: rc, tasks: tasks, logger: logger}
}

// OnTokenIssued persists a new or rotated token into the active profile and
// then schedules the remote token sync. The returned error reflects local
// persistence only. Without a profile the token is held until RegisterProfile.
func (m *Manager) OnTokenIssued(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return common.NewAppError(common.CodeValidation, "delivery token is empty", common.ErrInvalidInput)
	}

	p, err := m.store.SetDeliveryToken(ctx, token)
	if errors.Is(err, common.ErrNotInitialized) {
		m.setPending(token)
		m.logger.Info("tokens.pending", "token", redact(token))
		return nil
	}
	if err != nil {
		m.logger.Error("tokens.persist_failed", "token", redact(token), "error", err)
		return err
	}
	m.setPending("")
	m.logger.Info("tokens.persisted", "business_id", p.BusinessID, "token", redact(token))

	err = m.tasks.Enqueue(ctx, opUpdateToken, func(ctx context.Context) common.Result {
		return m.syncToken(ctx, p, token)
	})
	if err != nil {
		common.Degraded(opUpdateToken, err).Discard(m.logger)
	}
	return nil
}

const opUpdateToken = "update-fcm-token"

// syncToken sends token unless the stored token has rotated since it was
// scheduled; the task for the newer token sends that one instead.
func (m *Manager) syncToken(ctx context.Context, issued entity.BusinessProfile, token string) common.Result {
	target := remote.TargetFor(issued)
	cur, err := m.store.Get(ctx)
	if err != nil {
		m.logger.Warn("tokens.reread_failed", "business_id", issued.BusinessID, "error", err)
	} else if cur != nil {
		if cur.Token() != token {
			m.logger.Debug("tokens.update.superseded", "business_id", cur.BusinessID, "token", redact(token))
			return common.Succeeded(opUpdateToken)
		}
		target = remote.TargetFor(*cur)
	}
	return m.remote.UpdateDeliveryToken(ctx, target, token)
}

// RegisterProfile pushes the full profile to the server. A token issued before
// onboarding is attached first. On success the profile is marked synced; on
// failure the profile stays valid locally and nothing is retried.
func (m *Manager) RegisterProfile(ctx context.Context, p entity.BusinessProfile) common.Result {
	const op = "register-business"

	if p.Token() == "" {
		if tok := m.PendingToken(); tok != "" {
			p.DeliveryToken = entity.Ptr(tok)
			updated, err := m.store.Update(ctx, func(cur entity.BusinessProfile) entity.BusinessProfile {
				if cur.Token() == "" {
					cur.DeliveryToken = entity.Ptr(tok)
				}
				return cur
			})
			if err != nil {
				m.logger.Warn("tokens.attach_pending_failed", "business_id", p.BusinessID, "error", err)
			} else {
				m.setPending("")
				p = updated
			}
		}
	}

	if err := m.remote.RegisterBusiness(ctx, p); err != nil {
		return common.Degraded(op, err)
	}
	if _, err := m.store.MarkSynced(ctx); err != nil {
		m.logger.Warn("tokens.mark_synced_failed", "business_id", p.BusinessID, "error", err)
	}
	m.logger.Info("tokens.registered", "business_id", p.BusinessID)
	return common.Succeeded(op)
}

// Run consumes issued tokens until the channel closes or ctx ends.
func (m *Manager) Run(ctx context.Context, issued <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case tok, ok := <-issued:
			if !ok {
				return
			}
			// errors are already logged
			_ = m.OnTokenIssued(ctx, tok)
		}
	}
}

// PendingToken returns the token held for a profile that does not exist yet.
func (m *Manager) PendingToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

func (m *Manager) setPending(tok string) {
	m.mu.Lock()
	m.pending = tok
	m.mu.Unlock()
}

func redact(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:8] + "..."
}
