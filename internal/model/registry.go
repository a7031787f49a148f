package model

import (
	"context"

	"github.com/google/uuid"
)

// EmailRegistry is the global email → profile index. It is independent of
// profile partitioning: exactly one record may exist per normalized email.
// RegisterIfAbsent must be a single atomic insert-if-absent; callers
// normalize values before calling, the registry stores what it is given.
type EmailRegistry interface {
	Lookup(ctx context.Context, email string) (UniqueEmailRecord, error)
	RegisterIfAbsent(ctx context.Context, record UniqueEmailRecord) error
	Release(ctx context.Context, email string) error
}

// DomainRegistry is the global domain → company index, with the same
// contract as EmailRegistry.
type DomainRegistry interface {
	Lookup(ctx context.Context, domain string) (UniqueDomainRecord, error)
	RegisterIfAbsent(ctx context.Context, record UniqueDomainRecord) error
	Release(ctx context.Context, domain string) error
}

// UniqueEmailRecord maps a normalized email to its owning profile and the
// partition that profile lives in.
type UniqueEmailRecord struct {
	Email     string
	ProfileID uuid.UUID
	Partition string
}

// UniqueDomainRecord maps a normalized domain to its owning company and the
// partition that company lives in.
type UniqueDomainRecord struct {
	Domain    string
	CompanyID uuid.UUID
	Partition string
}
