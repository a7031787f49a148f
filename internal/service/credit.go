package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/leadgrid/leadgrid-server/internal/logger"
	"github.com/leadgrid/leadgrid-server/internal/model"
)

// Ledger manages user accounts and their credit balances. Balance changes
// go through the store's atomic primitives only; reveal-tied movements get
// an append-only transaction row.
type Ledger struct {
	users   model.UserStore
	reveals model.RevealStore
	logger  *logger.Logger
}

func NewLedger(users model.UserStore, reveals model.RevealStore, logger *logger.Logger) *Ledger {
	return &Ledger{
		users:   users,
		reveals: reveals,
		logger:  logger,
	}
}

// CreateUser registers a new account.
func (s *Ledger) CreateUser(ctx context.Context, email, fullName string, role model.UserRole, credits int) (model.User, error) {
	user := model.User{
		ID:       uuid.New(),
		Email:    normalize(email),
		FullName: fullName,
		Role:     role,
		Credits:  credits,
		IsActive: true,
	}

	saved, err := s.users.Create(ctx, user)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return saved, nil
}

// GetUser fetches an account by id.
func (s *Ledger) GetUser(ctx context.Context, id uuid.UUID) (model.User, error) {
	return s.users.GetByID(ctx, id)
}

// AddCredits tops up an account and appends the matching ledger entry.
// Used for plan purchases and admin adjustments.
func (s *Ledger) AddCredits(ctx context.Context, userID uuid.UUID, amount int, txType model.TransactionType) (int, error) {
	balance, err := s.users.Credit(ctx, userID, amount)
	if err != nil {
		return 0, fmt.Errorf("failed to add credits: %w", err)
	}

	err = s.reveals.AppendTransaction(ctx, model.CreditTransaction{
		ID:     uuid.New(),
		UserID: userID,
		Amount: amount,
		Type:   txType,
	})
	if err != nil {
		// Balance moved but the audit row is missing; log enough to
		// reconcile by hand.
		s.logger.Error("credit applied but transaction row failed",
			"user_id", userID,
			"amount", amount,
			"type", string(txType),
			"error", err.Error())
	}

	return balance, nil
}

// DebitIfSufficient exposes the conditional debit for administrative use.
func (s *Ledger) DebitIfSufficient(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	return s.users.DebitIfSufficient(ctx, userID, amount)
}

// Transactions lists a user's ledger history, newest first.
func (s *Ledger) Transactions(ctx context.Context, userID uuid.UUID, limit int) ([]model.CreditTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.reveals.ListTransactions(ctx, userID, limit)
}
