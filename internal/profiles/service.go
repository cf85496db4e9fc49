package profiles

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joseph-ayodele/fieldquote-sync/constants"
	"github.com/joseph-ayodele/fieldquote-sync/internal/common"
	"github.com/joseph-ayodele/fieldquote-sync/internal/entity"
	"github.com/joseph-ayodele/fieldquote-sync/internal/repository"
)

// Store owns the single active business profile. All mutations go through
// Put or Update, which share one writer lock so read-modify-write
// sequences never interleave. Get does not take the lock.
type Store struct {
	repo   repository.ProfileRepository
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex // serializes writers

	setupComplete atomic.Bool
	activeID      atomic.Value // string
}

// Timestamps are kept at millisecond resolution.
const timeResolution = time.Millisecond

type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates the profile store and primes the cached setup flag and
// active id from persisted state.
func NewStore(ctx context.Context, repo repository.ProfileRepository, logger *slog.Logger, opts ...Option) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.activeID.Store("")

	done, err := repo.SetupComplete(ctx)
	if err != nil {
		return nil, common.StorageFaultError("read setup flag", err)
	}
	id, err := repo.ActiveBusinessID(ctx)
	if err != nil {
		return nil, common.StorageFaultError("read active business id", err)
	}
	s.setupComplete.Store(done)
	s.activeID.Store(id)
	return s, nil
}

// Get returns the active profile, or nil if onboarding never completed or
// the stored record is unreadable.
func (s *Store) Get(ctx context.Context) (*entity.BusinessProfile, error) {
	p, err := s.repo.Load(ctx)
	if err != nil {
		return nil, common.StorageFaultError("read profile", err)
	}
	return p, nil
}

// Put replaces the stored profile and stamps UpdatedAt. The first successful
// Put marks setup complete. The stored identifier may not change; Clear first
// to switch businesses.
func (s *Store) Put(ctx context.Context, p entity.BusinessProfile) (entity.BusinessProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.repo.Load(ctx)
	if err != nil {
		return entity.BusinessProfile{}, common.StorageFaultError("read profile", err)
	}
	if cur != nil && cur.BusinessID != p.BusinessID {
		return entity.BusinessProfile{}, common.NewAppError(common.CodeValidation,
			"a different business profile is active", common.ErrImmutableID)
	}
	return s.save(ctx, cur, p.Clone())
}

// Update applies fn to the current profile and stores the result. It fails
// with ErrNotInitialized when no profile exists. fn receives a private copy.
func (s *Store) Update(ctx context.Context, fn func(entity.BusinessProfile) entity.BusinessProfile) (entity.BusinessProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.repo.Load(ctx)
	if err != nil {
		return entity.BusinessProfile{}, common.StorageFaultError("read profile", err)
	}
	if cur == nil {
		return entity.BusinessProfile{}, common.NotInitializedError("update profile")
	}

	next := fn(cur.Clone())
	if next.BusinessID != cur.BusinessID {
		return entity.BusinessProfile{}, common.NewAppError(common.CodeValidation,
			"update may not change the business id", common.ErrImmutableID)
	}
	next.CreatedAt = cur.CreatedAt
	return s.save(ctx, cur, next)
}

// Clear erases the profile, the setup flag and the active id.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Clear(ctx); err != nil {
		return common.StorageFaultError("clear profile", err)
	}
	s.setupComplete.Store(false)
	s.activeID.Store("")
	s.logger.Info("business profile cleared")
	return nil
}

// IsSetupComplete reports the cached persistent setup flag.
func (s *Store) IsSetupComplete() bool {
	return s.setupComplete.Load()
}

// ActiveID returns the cached active business id, or "" when none.
func (s *Store) ActiveID() string {
	return s.activeID.Load().(string)
}

// save must be called with mu held.
func (s *Store) save(ctx context.Context, cur *entity.BusinessProfile, next entity.BusinessProfile) (entity.BusinessProfile, error) {
	if err := validate(next); err != nil {
		return entity.BusinessProfile{}, err
	}

	now := s.now().UTC().Truncate(timeResolution)
	if cur != nil && !now.After(cur.UpdatedAt) {
		now = cur.UpdatedAt.Add(timeResolution)
	}
	if next.CreatedAt.IsZero() {
		next.CreatedAt = now
	}
	next.UpdatedAt = now

	if err := s.repo.Save(ctx, next); err != nil {
		return entity.BusinessProfile{}, common.StorageFaultError("write profile", err)
	}
	s.setupComplete.Store(true)
	s.activeID.Store(next.BusinessID)

	s.logger.Debug("business profile saved", "business_id", next.BusinessID, "updated_at", next.UpdatedAt)
	return next, nil
}

func validate(p entity.BusinessProfile) error {
	v := common.NewValidator()
	v.Field("businessId", p.BusinessID, common.Required)
	v.Field("businessName", p.BusinessName, common.Required, common.MaxLength(200))
	v.Field("ownerName", p.OwnerName, common.Required, common.MaxLength(200))
	v.Field("email", p.Email, common.Required)
	v.Field("phone", p.Phone, common.Required)
	v.Field("serverUrl", p.ServerURL, common.HTTPURL)
	v.Field("currency", p.Currency, common.CurrencyCode)
	v.Field("quoteValidityDays", p.QuoteValidityDays, common.NonNegative)
	v.Field("defaultTaxRate", p.DefaultTaxRate, common.NonNegative)
	return v.Err()
}

// Normalize trims the contact fields and fills the onboarding defaults for
// empty settings. It is applied by the onboarding collaborator before Put.
func Normalize(p entity.BusinessProfile) entity.BusinessProfile {
	p.BusinessName = strings.TrimSpace(p.BusinessName)
	p.OwnerName = strings.TrimSpace(p.OwnerName)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.ServerURL = strings.TrimRight(strings.TrimSpace(p.ServerURL), "/")
	if p.ServerURL == "" {
		p.ServerURL = constants.DefaultServerURL
	}
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	if p.Currency == "" {
		p.Currency = constants.DefaultCurrency
	}
	return p
}
