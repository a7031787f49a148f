package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leadgrid/leadgrid-server/internal/logger"
	"github.com/leadgrid/leadgrid-server/internal/mask"
	"github.com/leadgrid/leadgrid-server/internal/metrics"
	"github.com/leadgrid/leadgrid-server/internal/model"
)

// RevealCosts holds the credit price per reveal type.
type RevealCosts struct {
	Email int
	Phone int
}

// RevealMarkerCache is a look-aside cache over reveal record existence.
// Safe because records are write-once.
type RevealMarkerCache interface {
	Seen(ctx context.Context, userID, profileID uuid.UUID, revealType model.RevealType) bool
	Mark(ctx context.Context, userID, profileID uuid.UUID, revealType model.RevealType)
}

// profileLocator is the slice of the profile directory the coordinator
// needs: an unmasked fetch by id.
type profileLocator interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.Profile, error)
}

// Reveals coordinates the billed, one-time disclosure of masked contact
// fields. The flow is: check the reveal record, conditionally debit the
// ledger, write the record plus its transaction row, and refund the debit
// if that write fails. Reveals are idempotent: the first successful charge
// makes every later call for the same (user, profile, type) free.
type Reveals struct {
	store    model.RevealStore
	users    model.UserStore
	profiles profileLocator
	cache    RevealMarkerCache
	costs    RevealCosts
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

func NewReveals(
	store model.RevealStore,
	users model.UserStore,
	profiles profileLocator,
	cache RevealMarkerCache,
	costs RevealCosts,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *Reveals {
	return &Reveals{
		store:    store,
		users:    users,
		profiles: profiles,
		cache:    cache,
		costs:    costs,
		metrics:  metrics,
		logger:   logger,
	}
}

func (s *Reveals) cost(revealType model.RevealType) int {
	if revealType == model.RevealPhone {
		return s.costs.Phone
	}
	return s.costs.Email
}

func fields(profile model.Profile, revealType model.RevealType) []string {
	if revealType == model.RevealPhone {
		return profile.Phones
	}
	return profile.Emails
}

func transactionType(revealType model.RevealType) model.TransactionType {
	if revealType == model.RevealPhone {
		return model.TxRevealPhone
	}
	return model.TxRevealEmail
}

// Reveal discloses the requested contact field to the user, charging the
// ledger exactly once per (user, profile, type).
func (s *Reveals) Reveal(ctx context.Context, userID, profileID uuid.UUID, revealType model.RevealType) (model.RevealResult, error) {
	if !revealType.Valid() {
		return model.RevealResult{}, fmt.Errorf("unknown reveal type %q", revealType)
	}

	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return model.RevealResult{}, fmt.Errorf("failed to fetch profile: %w", err)
	}

	revealed, err := s.alreadyRevealed(ctx, userID, profileID, revealType)
	if err != nil {
		return model.RevealResult{}, err
	}
	if revealed {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return model.RevealResult{}, fmt.Errorf("failed to fetch user: %w", err)
		}
		s.metrics.IncrementRevealOutcome(string(revealType), "repeat")
		return model.RevealResult{
			Fields:           fields(profile, revealType),
			CreditsUsed:      0,
			CreditsRemaining: user.Credits,
			AlreadyRevealed:  true,
		}, nil
	}

	cost := s.cost(revealType)
	balance, err := s.users.DebitIfSufficient(ctx, userID, cost)
	if err != nil {
		var insufficient *model.InsufficientCreditsError
		if errors.As(err, &insufficient) {
			s.metrics.IncrementRevealOutcome(string(revealType), "insufficient")
			return model.RevealResult{}, err
		}
		return model.RevealResult{}, fmt.Errorf("failed to debit credits: %w", err)
	}

	// The user is charged from here on. Recording runs detached from the
	// caller's cancellation: the compensation below, not context
	// propagation, is what guarantees no charge survives without a record.
	recordCtx := context.WithoutCancel(ctx)

	record := model.RevealRecord{
		ID:         uuid.New(),
		UserID:     userID,
		ProfileID:  profileID,
		RevealType: revealType,
		RevealedAt: time.Now().UTC(),
	}
	tx := model.CreditTransaction{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      -cost,
		Type:        transactionType(revealType),
		ReferenceID: &profileID,
	}

	err = s.store.Record(recordCtx, record, tx)
	if err == nil {
		if s.cache != nil {
			s.cache.Mark(recordCtx, userID, profileID, revealType)
		}
		s.metrics.IncrementRevealOutcome(string(revealType), "revealed")
		return model.RevealResult{
			Fields:           fields(profile, revealType),
			CreditsUsed:      cost,
			CreditsRemaining: balance,
			AlreadyRevealed:  false,
		}, nil
	}

	if errors.Is(err, model.ErrAlreadyExists) {
		// A concurrent call won the record insert; this charge is refunded
		// and the call degrades to a free repeat.
		refunded, rerr := s.refund(recordCtx, userID, profileID, cost)
		if rerr != nil {
			return model.RevealResult{}, rerr
		}
		s.metrics.IncrementRevealOutcome(string(revealType), "repeat")
		return model.RevealResult{
			Fields:           fields(profile, revealType),
			CreditsUsed:      0,
			CreditsRemaining: refunded,
			AlreadyRevealed:  true,
		}, nil
	}

	// WRITE_FAILED: the debit landed but the record did not. Refund so the
	// user ends with exactly the balance they started with.
	s.metrics.IncrementCompensation("reveal")
	if _, rerr := s.refund(recordCtx, userID, profileID, cost); rerr != nil {
		return model.RevealResult{}, rerr
	}
	s.metrics.IncrementRevealOutcome(string(revealType), "rolled_back")
	return model.RevealResult{}, &model.InconsistentWriteError{Op: "reveal", Err: err}
}

// Preview returns a profile's contact fields with anything the user has not
// paid for masked out. Revealed fields come back in the clear.
func (s *Reveals) Preview(ctx context.Context, userID, profileID uuid.UUID) (model.ContactPreview, error) {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return model.ContactPreview{}, fmt.Errorf("failed to fetch profile: %w", err)
	}

	emailsRevealed, err := s.alreadyRevealed(ctx, userID, profileID, model.RevealEmail)
	if err != nil {
		return model.ContactPreview{}, err
	}
	phonesRevealed, err := s.alreadyRevealed(ctx, userID, profileID, model.RevealPhone)
	if err != nil {
		return model.ContactPreview{}, err
	}

	preview := model.ContactPreview{
		Emails:         mask.Emails(profile.Emails),
		Phones:         mask.Phones(profile.Phones),
		CompanyDomain:  mask.Domain(profile.CompanyDomain),
		EmailsRevealed: emailsRevealed,
		PhonesRevealed: phonesRevealed,
	}
	if emailsRevealed {
		preview.Emails = profile.Emails
		preview.CompanyDomain = profile.CompanyDomain
	}
	if phonesRevealed {
		preview.Phones = profile.Phones
	}

	return preview, nil
}

// refund restores a debit whose reveal record never landed. The failed
// record transaction wrote no ledger rows, so the refund writes none
// either; the account nets to zero as if the attempt never happened. A
// refund failure is the one state with no automatic recovery.
func (s *Reveals) refund(ctx context.Context, userID, profileID uuid.UUID, amount int) (int, error) {
	balance, err := s.users.Credit(ctx, userID, amount)
	if err != nil {
		s.logger.Error("reveal refund failed, manual reconciliation required",
			"user_id", userID,
			"profile_id", profileID,
			"amount", amount,
			"error", err.Error())
		return 0, &model.InconsistentWriteError{Op: "reveal refund", Err: err}
	}
	return balance, nil
}

func (s *Reveals) alreadyRevealed(ctx context.Context, userID, profileID uuid.UUID, revealType model.RevealType) (bool, error) {
	if s.cache != nil && s.cache.Seen(ctx, userID, profileID, revealType) {
		return true, nil
	}

	_, err := s.store.GetRecord(ctx, userID, profileID, revealType)
	if err == nil {
		if s.cache != nil {
			s.cache.Mark(ctx, userID, profileID, revealType)
		}
		return true, nil
	}
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check reveal record: %w", err)
}
