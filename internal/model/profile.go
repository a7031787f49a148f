package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProfileStore defines persistence operations for profiles inside a single
// partition. Routing between partitions is the service's job; every call here
// names the partition it addresses.
type ProfileStore interface {
	Create(ctx context.Context, partition string, profile Profile) (Profile, error)
	GetByIDInPartition(ctx context.Context, partition string, id uuid.UUID) (Profile, error)
	FindInPartition(ctx context.Context, partition string, filter ProfileFilter) ([]Profile, error)
	UpdateInPartition(ctx context.Context, partition string, id uuid.UUID, update ProfileUpdate) (Profile, error)
	DeleteInPartition(ctx context.Context, partition string, id uuid.UUID) error
}

// Profile represents a stored person profile.
type Profile struct {
	ID             uuid.UUID
	Partition      string
	FirstName      string
	LastName       string
	JobTitle       string
	Industry       string
	SubIndustry    string
	Keywords       []string
	SEODescription string
	CompanyID      uuid.UUID
	// CompanyName and CompanyDomain are a denormalized cache of the linked
	// company. They are refreshed on profile update only and may go stale if
	// the company record changes afterwards.
	CompanyName        string
	CompanyDomain      string
	ProfileLinkedInURL string
	CompanyLinkedInURL string
	Emails             []string
	Phones             []string
	City               string
	State              string
	Country            string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ProfileDraft contains parameters to create a profile. CompanyDomain is
// required: it resolves or creates the owning company.
type ProfileDraft struct {
	FirstName          string
	LastName           string
	JobTitle           string
	Industry           string
	SubIndustry        string
	Keywords           []string
	SEODescription     string
	CompanyName        string
	CompanyDomain      string
	ProfileLinkedInURL string
	CompanyLinkedInURL string
	Emails             []string
	Phones             []string
	City               string
	State              string
	Country            string
}

// ProfileUpdate contains optional field updates; nil fields are left untouched.
type ProfileUpdate struct {
	FirstName          *string
	LastName           *string
	JobTitle           *string
	Industry           *string
	SubIndustry        *string
	Keywords           *[]string
	SEODescription     *string
	CompanyID          *uuid.UUID
	CompanyName        *string
	CompanyDomain      *string
	ProfileLinkedInURL *string
	CompanyLinkedInURL *string
	Emails             *[]string
	Phones             *[]string
	City               *string
	State              *string
	Country            *string
}

// ProfileFilter holds search predicates. String fields match as
// case-insensitive substrings; Keywords matches any overlap.
type ProfileFilter struct {
	FirstName   string
	LastName    string
	JobTitle    string
	Industry    string
	SubIndustry string
	CompanyName string
	City        string
	State       string
	Country     string
	Keywords    []string
}

// ProfilePage is one page of a fan-out search result. Total counts matches
// across every partition, not just the returned page. Degraded is true when
// one or more partitions timed out and their results are missing.
type ProfilePage struct {
	Profiles []Profile
	Total    int
	Page     int
	PageSize int
	Degraded bool
}
