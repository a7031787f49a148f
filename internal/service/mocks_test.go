package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/leadgrid/leadgrid-server/internal/model"
)

// MockProfileStore mocks the ProfileStore interface
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) Create(ctx context.Context, partition string, profile model.Profile) (model.Profile, error) {
	args := m.Called(ctx, partition, profile)
	return args.Get(0).(model.Profile), args.Error(1)
}

func (m *MockProfileStore) GetByIDInPartition(ctx context.Context, partition string, id uuid.UUID) (model.Profile, error) {
	args := m.Called(ctx, partition, id)
	return args.Get(0).(model.Profile), args.Error(1)
}

func (m *MockProfileStore) FindInPartition(ctx context.Context, partition string, filter model.ProfileFilter) ([]model.Profile, error) {
	args := m.Called(ctx, partition, filter)
	return args.Get(0).([]model.Profile), args.Error(1)
}

func (m *MockProfileStore) UpdateInPartition(ctx context.Context, partition string, id uuid.UUID, update model.ProfileUpdate) (model.Profile, error) {
	args := m.Called(ctx, partition, id, update)
	return args.Get(0).(model.Profile), args.Error(1)
}

func (m *MockProfileStore) DeleteInPartition(ctx context.Context, partition string, id uuid.UUID) error {
	args := m.Called(ctx, partition, id)
	return args.Error(0)
}

// MockCompanyStore mocks the CompanyStore interface
type MockCompanyStore struct {
	mock.Mock
}

func (m *MockCompanyStore) Create(ctx context.Context, partition string, company model.Company) (model.Company, error) {
	args := m.Called(ctx, partition, company)
	return args.Get(0).(model.Company), args.Error(1)
}

func (m *MockCompanyStore) GetByIDInPartition(ctx context.Context, partition string, id uuid.UUID) (model.Company, error) {
	args := m.Called(ctx, partition, id)
	return args.Get(0).(model.Company), args.Error(1)
}

func (m *MockCompanyStore) FindInPartition(ctx context.Context, partition string, filter model.CompanyFilter) ([]model.Company, error) {
	args := m.Called(ctx, partition, filter)
	return args.Get(0).([]model.Company), args.Error(1)
}

func (m *MockCompanyStore) UpdateInPartition(ctx context.Context, partition string, id uuid.UUID, update model.CompanyUpdate) (model.Company, error) {
	args := m.Called(ctx, partition, id, update)
	return args.Get(0).(model.Company), args.Error(1)
}

func (m *MockCompanyStore) DeleteInPartition(ctx context.Context, partition string, id uuid.UUID) error {
	args := m.Called(ctx, partition, id)
	return args.Error(0)
}

// MockEmailRegistry mocks the EmailRegistry interface
type MockEmailRegistry struct {
	mock.Mock
}

func (m *MockEmailRegistry) Lookup(ctx context.Context, email string) (model.UniqueEmailRecord, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.UniqueEmailRecord), args.Error(1)
}

func (m *MockEmailRegistry) RegisterIfAbsent(ctx context.Context, record model.UniqueEmailRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockEmailRegistry) Release(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// MockDomainRegistry mocks the DomainRegistry interface
type MockDomainRegistry struct {
	mock.Mock
}

func (m *MockDomainRegistry) Lookup(ctx context.Context, domain string) (model.UniqueDomainRecord, error) {
	args := m.Called(ctx, domain)
	return args.Get(0).(model.UniqueDomainRecord), args.Error(1)
}

func (m *MockDomainRegistry) RegisterIfAbsent(ctx context.Context, record model.UniqueDomainRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockDomainRegistry) Release(ctx context.Context, domain string) error {
	args := m.Called(ctx, domain)
	return args.Error(0)
}

// MockUserStore mocks the UserStore interface
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) DebitIfSufficient(ctx context.Context, id uuid.UUID, amount int) (int, error) {
	args := m.Called(ctx, id, amount)
	return args.Int(0), args.Error(1)
}

func (m *MockUserStore) Credit(ctx context.Context, id uuid.UUID, amount int) (int, error) {
	args := m.Called(ctx, id, amount)
	return args.Int(0), args.Error(1)
}

// MockRevealStore mocks the RevealStore interface
type MockRevealStore struct {
	mock.Mock
}

func (m *MockRevealStore) GetRecord(ctx context.Context, userID, profileID uuid.UUID, revealType model.RevealType) (model.RevealRecord, error) {
	args := m.Called(ctx, userID, profileID, revealType)
	return args.Get(0).(model.RevealRecord), args.Error(1)
}

func (m *MockRevealStore) Record(ctx context.Context, record model.RevealRecord, tx model.CreditTransaction) error {
	args := m.Called(ctx, record, tx)
	return args.Error(0)
}

func (m *MockRevealStore) AppendTransaction(ctx context.Context, tx model.CreditTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockRevealStore) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]model.CreditTransaction, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]model.CreditTransaction), args.Error(1)
}

// MockRevealCache mocks the RevealMarkerCache interface
type MockRevealCache struct {
	mock.Mock
}

func (m *MockRevealCache) Seen(ctx context.Context, userID, profileID uuid.UUID, revealType model.RevealType) bool {
	args := m.Called(ctx, userID, profileID, revealType)
	return args.Bool(0)
}

func (m *MockRevealCache) Mark(ctx context.Context, userID, profileID uuid.UUID, revealType model.RevealType) {
	m.Called(ctx, userID, profileID, revealType)
}

// MockProfileLocator mocks the profileLocator interface
type MockProfileLocator struct {
	mock.Mock
}

func (m *MockProfileLocator) GetByID(ctx context.Context, id uuid.UUID) (model.Profile, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Profile), args.Error(1)
}
