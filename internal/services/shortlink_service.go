package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/foxcode/shorter/internal/audit"
	"github.com/foxcode/shorter/internal/config"
	"github.com/foxcode/shorter/internal/models"
	"github.com/foxcode/shorter/internal/store"
)

type CreateShortlinkRequest struct {
	Identity       string
	DestinationURL string
	// ExpiryDays is nil for a link that never expires. Zero expires the
	// link at creation.
	ExpiryDays *int
}

type CreateShortlinkResult struct {
	Shortlink        *models.Shortlink `json:"-"`
	ShortCode        string            `json:"short_code"`
	ShortURL         string            `json:"short_url"`
	ExpiresAt        *time.Time        `json:"expires_at,omitempty"`
	RemainingBalance decimal.Decimal   `json:"remaining_balance"`
}

// ShortlinkService sequences the ledger and the registry. A shortlink and the
// debit that paid for it commit together or not at all.
type ShortlinkService struct {
	store     store.Store
	ledger    *LedgerService
	registry  *RegistryService
	limiter   *RateLimiter
	validator *ValidationHelper
	audit     *audit.Logger
	config    *config.ShortlinkConfig
}

func NewShortlinkService(st store.Store, ledger *LedgerService, registry *RegistryService, limiter *RateLimiter, auditLogger *audit.Logger, cfg *config.ShortlinkConfig) *ShortlinkService {
	return &ShortlinkService{
		store:     st,
		ledger:    ledger,
		registry:  registry,
		limiter:   limiter,
		validator: NewValidationHelper(),
		audit:     auditLogger,
		config:    cfg,
	}
}

// CreateShortlink charges the configured cost and creates the link in one
// storage transaction.
func (s *ShortlinkService) CreateShortlink(ctx context.Context, req CreateShortlinkRequest) (*CreateShortlinkResult, error) {
	destination := strings.TrimSpace(req.DestinationURL)
	if err := s.validator.ValidateURL(destination, s.config.MaxURLLength); err != nil {
		return nil, err
	}

	var expiry *time.Duration
	if req.ExpiryDays != nil {
		if *req.ExpiryDays < 0 {
			return nil, fmt.Errorf("%w: expiry_days must not be negative", models.ErrInvalidInput)
		}
		if maxDays := s.maxExpiryDays(); *req.ExpiryDays > maxDays {
			return nil, fmt.Errorf("%w: expiry_days must be at most %d", models.ErrInvalidInput, maxDays)
		}
		d := time.Duration(*req.ExpiryDays) * 24 * time.Hour
		expiry = &d
	}

	release, err := s.limiter.Reserve(ctx, req.Identity)
	if err != nil {
		return nil, err
	}

	reference := uuid.NewString()
	cost := s.config.Cost

	var account *models.Account
	var link *models.Shortlink
	err = s.store.InTx(ctx, func(tx store.Store) error {
		var err error
		account, _, err = s.ledger.TryDebitTx(ctx, tx, req.Identity, cost, reference, "shortlink creation")
		if err != nil {
			return err
		}
		link, err = s.registry.CreateTx(ctx, tx, account.ID, destination, expiry, reference)
		return err
	})
	if err != nil {
		release()
		var rbErr *store.RollbackError
		if errors.As(err, &rbErr) {
			log.Printf("[SHORTLINK] CRITICAL: create for %s left storage inconsistent (reference %s): %v", req.Identity, reference, err)
			s.audit.LogInconsistency(reference, req.Identity, "create_shortlink", err)
		}
		return nil, err
	}

	s.audit.LogDebit(reference, account.Identity, cost, account.Balance, map[string]string{"short_code": link.ShortCode})
	log.Printf("[SHORTLINK] created - identity: %s, code: %s, remaining: %s", account.Identity, link.ShortCode, account.Balance)

	return &CreateShortlinkResult{
		Shortlink:        link,
		ShortCode:        link.ShortCode,
		ShortURL:         s.config.ShortURL(link.ShortCode),
		ExpiresAt:        link.ExpiresAt,
		RemainingBalance: account.Balance,
	}, nil
}

func (s *ShortlinkService) maxExpiryDays() int {
	if s.config.MaxExpiryDays > 0 {
		return s.config.MaxExpiryDays
	}
	return 3650
}

// Redirect returns the destination for code and counts the hit.
func (s *ShortlinkService) Redirect(ctx context.Context, code string) (string, error) {
	return s.registry.ResolveAndRecordHit(ctx, code)
}

// ListShortlinks returns the owner's links, newest first.
func (s *ShortlinkService) ListShortlinks(ctx context.Context, identity string) ([]models.Shortlink, error) {
	account, err := s.ledger.GetAccount(ctx, identity)
	if err != nil {
		return nil, err
	}
	return s.registry.ListForOwner(ctx, account.ID)
}

// GetShortlink returns one link of identity regardless of its status. Links
// owned by someone else read as ErrNotFound unless asAdmin is set.
func (s *ShortlinkService) GetShortlink(ctx context.Context, code, identity string, asAdmin bool) (*models.Shortlink, error) {
	link, err := s.registry.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if !asAdmin {
		account, err := s.ledger.GetAccount(ctx, identity)
		if err != nil {
			return nil, err
		}
		if link.AccountID != account.ID {
			return nil, models.ErrNotFound
		}
	}
	// The janitor may not have swept it yet.
	if link.Status == models.LinkStatusActive && link.ExpiredAt(s.registry.nowFunc()) {
		link.Status = models.LinkStatusExpired
	}
	return link, nil
}

// DeleteShortlink hard-deletes a link owned by identity. Admins may delete
// any link.
func (s *ShortlinkService) DeleteShortlink(ctx context.Context, code, identity string, asAdmin bool) error {
	var accountID int64
	if !asAdmin {
		account, err := s.ledger.GetAccount(ctx, identity)
		if err != nil {
			return err
		}
		accountID = account.ID
	}
	return s.registry.Delete(ctx, code, accountID, asAdmin)
}

// ExpireOverdue runs one expiry sweep over all owners.
func (s *ShortlinkService) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := s.registry.ExpireOverdue(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("[SHORTLINK] expired %d overdue links", n)
		s.audit.LogExpiry("all", n)
	}
	return n, nil
}

// RunJanitor sweeps overdue links every interval until ctx is done.
func (s *ShortlinkService) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.ExpireOverdue(ctx); err != nil && ctx.Err() == nil {
				log.Printf("[SHORTLINK] janitor sweep failed: %v", err)
			}
		}
	}
}
