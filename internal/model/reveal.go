package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RevealStore persists reveal records and credit transactions. Record writes
// the reveal marker and its ledger entry together; on storage layers with
// multi-row transactions the two go into one transaction.
type RevealStore interface {
	// GetRecord returns the reveal record for the compound key, or
	// ErrNotFound if the user has not paid for this field yet.
	GetRecord(ctx context.Context, userID, profileID uuid.UUID, revealType RevealType) (RevealRecord, error)
	// Record writes the reveal marker plus the transaction row. A duplicate
	// compound key returns ErrAlreadyExists so a concurrent racer can be
	// refunded.
	Record(ctx context.Context, record RevealRecord, tx CreditTransaction) error
	// AppendTransaction writes a standalone ledger entry (top-ups, refunds,
	// admin adjustments).
	AppendTransaction(ctx context.Context, tx CreditTransaction) error
	// ListTransactions returns a user's ledger entries, newest first.
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]CreditTransaction, error)
}

// RevealType names the contact field being disclosed.
type RevealType string

const (
	RevealEmail RevealType = "email"
	RevealPhone RevealType = "phone"
)

// Valid reports whether t is a known reveal type.
func (t RevealType) Valid() bool {
	return t == RevealEmail || t == RevealPhone
}

// RevealRecord marks that a user has paid to see one contact field on one
// profile. Existence of the record is the idempotency marker; records are
// never updated or deleted.
type RevealRecord struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ProfileID  uuid.UUID
	RevealType RevealType
	RevealedAt time.Time
}

// TransactionType classifies ledger entries.
type TransactionType string

const (
	TxRevealEmail     TransactionType = "reveal_email"
	TxRevealPhone     TransactionType = "reveal_phone"
	TxPurchase        TransactionType = "purchase"
	TxAdminAdjustment TransactionType = "admin_adjustment"
)

// CreditTransaction is an append-only ledger entry. Amount is negative for
// deductions, positive for additions. ReferenceID carries the profile id
// for reveal-tied entries.
type CreditTransaction struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Amount      int
	Type        TransactionType
	ReferenceID *uuid.UUID
	CreatedAt   time.Time
}

// ContactPreview is a profile's contact fields as shown before payment.
// Fields the user already paid to reveal come back in the clear. The
// company domain is tied to the email reveal: a revealed address exposes
// its domain anyway.
type ContactPreview struct {
	Emails         []string
	Phones         []string
	CompanyDomain  string
	EmailsRevealed bool
	PhonesRevealed bool
}

// RevealResult is what the coordinator returns to the caller.
type RevealResult struct {
	Fields           []string
	CreditsUsed      int
	CreditsRemaining int
	AlreadyRevealed  bool
}
