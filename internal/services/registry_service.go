package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/foxcode/shorter/internal/models"
	"github.com/foxcode/shorter/internal/store"
)

// CodeGenerator draws short code candidates.
type CodeGenerator interface {
	NewCode() (string, error)
}

// RandomCodeGenerator draws fixed-length codes uniformly from an alphabet.
type RandomCodeGenerator struct {
	alphabet string
	length   int
}

func NewRandomCodeGenerator(alphabet string, length int) *RandomCodeGenerator {
	return &RandomCodeGenerator{alphabet: alphabet, length: length}
}

func (g *RandomCodeGenerator) NewCode() (string, error) {
	if g.length <= 0 || len(g.alphabet) < 2 {
		return "", fmt.Errorf("code generator misconfigured: length %d, alphabet of %d", g.length, len(g.alphabet))
	}
	code := make([]byte, g.length)
	charsetLen := big.NewInt(int64(len(g.alphabet)))

	for i := range code {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", fmt.Errorf("random source: %w", err)
		}
		code[i] = g.alphabet[n.Int64()]
	}
	return string(code), nil
}

// RegistryService owns shortlinks: code allocation, redirect resolution,
// lazy expiry and deletion. It knows nothing about cost.
type RegistryService struct {
	store       store.Store
	codes       CodeGenerator
	maxAttempts int
	nowFunc     func() time.Time
}

func NewRegistryService(st store.Store, codes CodeGenerator, maxAttempts int) *RegistryService {
	if maxAttempts <= 0 {
		maxAttempts = 1000
	}
	return &RegistryService{
		store:       st,
		codes:       codes,
		maxAttempts: maxAttempts,
		nowFunc:     time.Now,
	}
}

// AllocateCode reserves a code that was never issued before. After
// maxAttempts collisions it gives up with ErrConflict.
func (s *RegistryService) AllocateCode(ctx context.Context, tx store.Store) (string, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.codes.NewCode()
		if err != nil {
			return "", err
		}

		reserved, err := tx.Shortlinks().ReserveCode(ctx, code, s.nowFunc())
		if err != nil {
			return "", err
		}
		if reserved {
			if attempt > 1 {
				log.Printf("[REGISTRY] code allocated after %d attempts", attempt)
			}
			return code, nil
		}
	}

	log.Printf("[REGISTRY] CRITICAL: no free short code after %d attempts; check the random source and keyspace", s.maxAttempts)
	return "", fmt.Errorf("%w: %d attempts", models.ErrConflict, s.maxAttempts)
}

// Create allocates a code and stores an active shortlink in its own
// transaction.
func (s *RegistryService) Create(ctx context.Context, accountID int64, destination string, expiry *time.Duration, debitReference string) (*models.Shortlink, error) {
	var link *models.Shortlink
	err := s.store.InTx(ctx, func(tx store.Store) error {
		var err error
		link, err = s.CreateTx(ctx, tx, accountID, destination, expiry, debitReference)
		return err
	})
	return link, err
}

// CreateTx is Create inside the caller's transaction. A nil expiry means the
// link never expires.
func (s *RegistryService) CreateTx(ctx context.Context, tx store.Store, accountID int64, destination string, expiry *time.Duration, debitReference string) (*models.Shortlink, error) {
	if expiry != nil && *expiry < 0 {
		return nil, fmt.Errorf("%w: expiry must not be negative", models.ErrInvalidInput)
	}

	code, err := s.AllocateCode(ctx, tx)
	if err != nil {
		return nil, err
	}

	now := s.nowFunc()
	link := &models.Shortlink{
		AccountID:      accountID,
		DestinationURL: destination,
		ShortCode:      code,
		Status:         models.LinkStatusActive,
		DebitReference: debitReference,
		CreatedAt:      now,
	}
	if expiry != nil {
		expiresAt := now.Add(*expiry)
		link.ExpiresAt = &expiresAt
	}

	if err := tx.Shortlinks().Insert(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

var errLinkExpired = errors.New("link expired")

// ResolveAndRecordHit returns the destination of an active link and counts
// the hit. Absent, expired and deleted links all yield ErrNotFound. A link
// found past its expiry is marked expired before returning.
func (s *RegistryService) ResolveAndRecordHit(ctx context.Context, code string) (string, error) {
	var destination string
	expired := false
	err := s.store.InTx(ctx, func(tx store.Store) error {
		link, err := tx.Shortlinks().LockByCode(ctx, code)
		if err != nil {
			return err
		}
		if link.Status != models.LinkStatusActive {
			return models.ErrNotFound
		}

		now := s.nowFunc()
		if link.ExpiredAt(now) {
			if err := tx.Shortlinks().MarkExpired(ctx, link.ID); err != nil {
				return err
			}
			log.Printf("[REGISTRY] link expired on access - code: %s", code)
			expired = true
			return nil
		}

		if _, err := tx.Shortlinks().RecordHit(ctx, link.ID, now); err != nil {
			return err
		}
		destination = link.DestinationURL
		return nil
	})
	if err != nil {
		return "", err
	}
	if expired {
		return "", fmt.Errorf("%w: %v", models.ErrNotFound, errLinkExpired)
	}
	return destination, nil
}

// ListForOwner expires the owner's overdue links and returns all of the
// owner's links, newest first.
func (s *RegistryService) ListForOwner(ctx context.Context, accountID int64) ([]models.Shortlink, error) {
	var links []models.Shortlink
	err := s.store.InTx(ctx, func(tx store.Store) error {
		if _, err := tx.Shortlinks().ExpireOverdue(ctx, s.nowFunc(), accountID); err != nil {
			return err
		}
		var err error
		links, err = tx.Shortlinks().ListByAccount(ctx, accountID)
		return err
	})
	return links, err
}

// Get returns a link by code regardless of status.
func (s *RegistryService) Get(ctx context.Context, code string) (*models.Shortlink, error) {
	return s.store.Shortlinks().GetByCode(ctx, code)
}

// Delete removes the link. Callers other than the owner see ErrNotFound
// unless asAdmin is set. The code itself stays reserved.
func (s *RegistryService) Delete(ctx context.Context, code string, accountID int64, asAdmin bool) error {
	return s.store.InTx(ctx, func(tx store.Store) error {
		link, err := tx.Shortlinks().LockByCode(ctx, code)
		if err != nil {
			return err
		}
		if !asAdmin && link.AccountID != accountID {
			return models.ErrNotFound
		}
		if err := tx.Shortlinks().Delete(ctx, link.ID); err != nil {
			return err
		}
		log.Printf("[REGISTRY] link deleted - code: %s, owner: %d, admin: %t", code, link.AccountID, asAdmin)
		return nil
	})
}

// ExpireOverdue marks every overdue active link as expired.
func (s *RegistryService) ExpireOverdue(ctx context.Context) (int64, error) {
	return s.store.Shortlinks().ExpireOverdue(ctx, s.nowFunc(), 0)
}
