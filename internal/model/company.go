package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CompanyStore defines persistence operations for companies inside a single
// partition.
type CompanyStore interface {
	Create(ctx context.Context, partition string, company Company) (Company, error)
	GetByIDInPartition(ctx context.Context, partition string, id uuid.UUID) (Company, error)
	FindInPartition(ctx context.Context, partition string, filter CompanyFilter) ([]Company, error)
	UpdateInPartition(ctx context.Context, partition string, id uuid.UUID, update CompanyUpdate) (Company, error)
	DeleteInPartition(ctx context.Context, partition string, id uuid.UUID) error
}

// Company represents a stored company. Domain is its unique natural key,
// enforced by the domain registry rather than the partitioned tables.
type Company struct {
	ID           uuid.UUID
	Partition    string
	Name         string
	Domain       string
	LinkedInURL  string
	Revenue      string
	EmployeeSize string
	Industry     string
	Description  string
	City         string
	State        string
	Country      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CompanyDraft contains parameters to create a company.
type CompanyDraft struct {
	Name         string
	Domain       string
	LinkedInURL  string
	Revenue      string
	EmployeeSize string
	Industry     string
	Description  string
	City         string
	State        string
	Country      string
}

// CompanyUpdate contains optional field updates; nil fields are left untouched.
type CompanyUpdate struct {
	Name         *string
	Domain       *string
	LinkedInURL  *string
	Revenue      *string
	EmployeeSize *string
	Industry     *string
	Description  *string
	City         *string
	State        *string
	Country      *string
}

// CompanyFilter holds search predicates for companies. Name, Industry and
// location fields match as case-insensitive substrings; Revenue and
// EmployeeSize match exactly.
type CompanyFilter struct {
	Name         string
	Industry     string
	Revenue      string
	EmployeeSize string
	City         string
	State        string
	Country      string
}

// CompanyPage is one page of a fan-out company search result.
type CompanyPage struct {
	Companies []Company
	Total     int
	Page      int
	PageSize  int
	Degraded  bool
}
