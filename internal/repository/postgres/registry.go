package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/leadgrid/leadgrid-server/internal/model"
)

var (
	_ model.EmailRegistry  = (*EmailRegistryRepository)(nil)
	_ model.DomainRegistry = (*DomainRegistryRepository)(nil)
)

// EmailRegistryRepository backs the global email index with the
// unique_emails table. ON CONFLICT DO NOTHING makes RegisterIfAbsent a
// single atomic insert-if-absent; concurrent claims on the same email are
// serialized by the primary key.
type EmailRegistryRepository struct {
	db *Connection
}

func NewEmailRegistryRepository(db *Connection) *EmailRegistryRepository {
	return &EmailRegistryRepository{
		db: db,
	}
}

func (r *EmailRegistryRepository) Lookup(ctx context.Context, email string) (model.UniqueEmailRecord, error) {
	var record model.UniqueEmailRecord
	query := `SELECT email, profile_id, partition FROM unique_emails WHERE email = $1`

	err := r.db.QueryRow(ctx, query, email).Scan(&record.Email, &record.ProfileID, &record.Partition)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.UniqueEmailRecord{}, model.ErrNotFound
		}
		return model.UniqueEmailRecord{}, fmt.Errorf("failed to look up email: %w", err)
	}

	return record, nil
}

func (r *EmailRegistryRepository) RegisterIfAbsent(ctx context.Context, record model.UniqueEmailRecord) error {
	query := `INSERT INTO unique_emails (email, profile_id, partition)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (email) DO NOTHING`

	cmd, err := r.db.Exec(ctx, query, record.Email, record.ProfileID, record.Partition)
	if err != nil {
		return fmt.Errorf("failed to register email: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrAlreadyExists
	}

	return nil
}

func (r *EmailRegistryRepository) Release(ctx context.Context, email string) error {
	query := `DELETE FROM unique_emails WHERE email = $1`

	if _, err := r.db.Exec(ctx, query, email); err != nil {
		return fmt.Errorf("failed to release email: %w", err)
	}

	return nil
}

// DomainRegistryRepository backs the global domain index with the
// unique_domains table.
type DomainRegistryRepository struct {
	db *Connection
}

func NewDomainRegistryRepository(db *Connection) *DomainRegistryRepository {
	return &DomainRegistryRepository{
		db: db,
	}
}

func (r *DomainRegistryRepository) Lookup(ctx context.Context, domain string) (model.UniqueDomainRecord, error) {
	var record model.UniqueDomainRecord
	query := `SELECT domain, company_id, partition FROM unique_domains WHERE domain = $1`

	err := r.db.QueryRow(ctx, query, domain).Scan(&record.Domain, &record.CompanyID, &record.Partition)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.UniqueDomainRecord{}, model.ErrNotFound
		}
		return model.UniqueDomainRecord{}, fmt.Errorf("failed to look up domain: %w", err)
	}

	return record, nil
}

func (r *DomainRegistryRepository) RegisterIfAbsent(ctx context.Context, record model.UniqueDomainRecord) error {
	query := `INSERT INTO unique_domains (domain, company_id, partition)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (domain) DO NOTHING`

	cmd, err := r.db.Exec(ctx, query, record.Domain, record.CompanyID, record.Partition)
	if err != nil {
		return fmt.Errorf("failed to register domain: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrAlreadyExists
	}

	return nil
}

func (r *DomainRegistryRepository) Release(ctx context.Context, domain string) error {
	query := `DELETE FROM unique_domains WHERE domain = $1`

	if _, err := r.db.Exec(ctx, query, domain); err != nil {
		return fmt.Errorf("failed to release domain: %w", err)
	}

	return nil
}
