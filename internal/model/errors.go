package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by stores when an entity does not exist in any partition.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned by the uniqueness registries when a natural key
	// is already claimed. It is the expected signal that the constraint is working;
	// services translate it into ErrEmailTaken or ErrDomainTaken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrEmailTaken is returned when a profile email is already owned by another profile.
	ErrEmailTaken = errors.New("email already taken")
	// ErrDomainTaken is returned when a company domain is already owned by another company.
	ErrDomainTaken = errors.New("domain already taken")
)

// InsufficientCreditsError is returned when a conditional debit is refused.
// It carries the shortfall so callers can report how many credits are missing.
type InsufficientCreditsError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

// InconsistentWriteError marks a failure that required a compensating write.
// It wraps the original failure; whether the compensation itself succeeded
// is logged by the coordinator, not carried here.
type InconsistentWriteError struct {
	Op  string
	Err error
}

func (e *InconsistentWriteError) Error() string {
	return fmt.Sprintf("inconsistent write during %s: %v", e.Op, e.Err)
}

func (e *InconsistentWriteError) Unwrap() error {
	return e.Err
}
