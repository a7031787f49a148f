package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/leadgrid/leadgrid-server/internal/model"
)

var _ model.RevealStore = (*RevealRepository)(nil)

const pgUniqueViolation = "23505"

type RevealRepository struct {
	db *Connection
}

func NewRevealRepository(db *Connection) *RevealRepository {
	return &RevealRepository{
		db: db,
	}
}

func (r *RevealRepository) GetRecord(ctx context.Context, userID, profileID uuid.UUID, revealType model.RevealType) (model.RevealRecord, error) {
	var record model.RevealRecord
	query := `SELECT id, user_id, profile_id, reveal_type, revealed_at
			  FROM revealed_contacts
			  WHERE user_id = $1 AND profile_id = $2 AND reveal_type = $3`

	err := r.db.QueryRow(ctx, query, userID, profileID, string(revealType)).Scan(
		&record.ID, &record.UserID, &record.ProfileID, &record.RevealType, &record.RevealedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RevealRecord{}, model.ErrNotFound
		}
		return model.RevealRecord{}, fmt.Errorf("failed to get reveal record: %w", err)
	}

	return record, nil
}

// Record writes the reveal marker and its ledger entry in one transaction.
// A duplicate (user, profile, type) key maps to ErrAlreadyExists so the
// coordinator can refund the losing racer.
func (r *RevealRepository) Record(ctx context.Context, record model.RevealRecord, tx model.CreditTransaction) error {
	pgtx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer pgtx.Rollback(ctx)

	_, err = pgtx.Exec(ctx,
		`INSERT INTO revealed_contacts (id, user_id, profile_id, reveal_type, revealed_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		record.ID, record.UserID, record.ProfileID, string(record.RevealType), record.RevealedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert reveal record: %w", err)
	}

	if err := insertTransaction(ctx, pgtx, tx); err != nil {
		return err
	}

	if err := pgtx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reveal record: %w", err)
	}

	return nil
}

func (r *RevealRepository) AppendTransaction(ctx context.Context, tx model.CreditTransaction) error {
	return insertTransaction(ctx, r.db, tx)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertTransaction(ctx context.Context, db execer, tx model.CreditTransaction) error {
	_, err := db.Exec(ctx,
		`INSERT INTO credit_transactions (id, user_id, amount, transaction_type, reference_id)
		 VALUES ($1, $2, $3, $4, $5)`,
		tx.ID, tx.UserID, tx.Amount, string(tx.Type), tx.ReferenceID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert credit transaction: %w", err)
	}
	return nil
}

func (r *RevealRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]model.CreditTransaction, error) {
	query := `SELECT id, user_id, amount, transaction_type, reference_id, created_at
			  FROM credit_transactions
			  WHERE user_id = $1
			  ORDER BY created_at DESC
			  LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list credit transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.CreditTransaction
	for rows.Next() {
		var tx model.CreditTransaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Amount, &tx.Type, &tx.ReferenceID, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan credit transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate credit transactions: %w", err)
	}

	return txs, nil
}
