//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/leadgrid/leadgrid-server/internal/model"
	repo "github.com/leadgrid/leadgrid-server/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "leadgrid_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/leadgrid_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestRepositories_CRUD(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	t.Run("user_repository", func(t *testing.T) {
		ur := repo.NewUserRepository(conn)
		u := model.User{
			ID:       uuid.New(),
			Email:    "user@example.com",
			FullName: "Test User",
			Role:     model.RoleUser,
			Credits:  10,
			IsActive: true,
		}
		saved, err := ur.Create(ctx, u)
		require.NoError(t, err)
		require.Equal(t, u.ID, saved.ID)

		byEmail, err := ur.GetByEmail(ctx, u.Email)
		require.NoError(t, err)
		require.Equal(t, u.ID, byEmail.ID)

		byID, err := ur.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, 10, byID.Credits)

		balance, err := ur.DebitIfSufficient(ctx, u.ID, 3)
		require.NoError(t, err)
		require.Equal(t, 7, balance)

		balance, err = ur.Credit(ctx, u.ID, 3)
		require.NoError(t, err)
		require.Equal(t, 10, balance)

		_, err = ur.GetByID(ctx, uuid.New())
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("company_repository", func(t *testing.T) {
		cr := repo.NewCompanyRepository(conn)
		c := model.Company{
			ID:       uuid.New(),
			Name:     "Acme",
			Domain:   "acme-crud.com",
			Industry: "Software",
			City:     "Austin",
		}
		saved, err := cr.Create(ctx, "a", c)
		require.NoError(t, err)
		require.Equal(t, "a", saved.Partition)

		got, err := cr.GetByIDInPartition(ctx, "a", c.ID)
		require.NoError(t, err)
		require.Equal(t, "acme-crud.com", got.Domain)

		// The row is only visible through its own partition.
		_, err = cr.GetByIDInPartition(ctx, "b", c.ID)
		require.ErrorIs(t, err, model.ErrNotFound)

		found, err := cr.FindInPartition(ctx, "a", model.CompanyFilter{Name: "acm"})
		require.NoError(t, err)
		require.NotEmpty(t, found)

		industry := "Robotics"
		updated, err := cr.UpdateInPartition(ctx, "a", c.ID, model.CompanyUpdate{Industry: &industry})
		require.NoError(t, err)
		require.Equal(t, "Robotics", updated.Industry)

		require.NoError(t, cr.DeleteInPartition(ctx, "a", c.ID))
		require.ErrorIs(t, cr.DeleteInPartition(ctx, "a", c.ID), model.ErrNotFound)
	})

	t.Run("profile_repository", func(t *testing.T) {
		cr := repo.NewCompanyRepository(conn)
		pr := repo.NewProfileRepository(conn)

		company, err := cr.Create(ctx, "a", model.Company{ID: uuid.New(), Name: "Acme", Domain: "acme-profiles.com"})
		require.NoError(t, err)

		p := model.Profile{
			ID:            uuid.New(),
			FirstName:     "Alice",
			LastName:      "Lee",
			JobTitle:      "Engineer",
			Keywords:      []string{"golang", "search"},
			CompanyID:     company.ID,
			CompanyName:   company.Name,
			CompanyDomain: company.Domain,
			Emails:        []string{"alice@acme-profiles.com"},
			Phones:        []string{"+1 555 123 4567"},
		}
		saved, err := pr.Create(ctx, "l", p)
		require.NoError(t, err)
		require.Equal(t, "l", saved.Partition)

		got, err := pr.GetByIDInPartition(ctx, "l", p.ID)
		require.NoError(t, err)
		require.Equal(t, []string{"alice@acme-profiles.com"}, got.Emails)

		found, err := pr.FindInPartition(ctx, "l", model.ProfileFilter{Keywords: []string{"golang"}})
		require.NoError(t, err)
		require.NotEmpty(t, found)

		title := "Staff Engineer"
		updated, err := pr.UpdateInPartition(ctx, "l", p.ID, model.ProfileUpdate{JobTitle: &title})
		require.NoError(t, err)
		require.Equal(t, "Staff Engineer", updated.JobTitle)

		require.NoError(t, pr.DeleteInPartition(ctx, "l", p.ID))
		_, err = pr.GetByIDInPartition(ctx, "l", p.ID)
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("registries", func(t *testing.T) {
		er := repo.NewEmailRegistryRepository(conn)
		dr := repo.NewDomainRegistryRepository(conn)

		profileID := uuid.New()
		require.NoError(t, er.RegisterIfAbsent(ctx, model.UniqueEmailRecord{
			Email:     "claimed@example.com",
			ProfileID: profileID,
			Partition: "l",
		}))
		err := er.RegisterIfAbsent(ctx, model.UniqueEmailRecord{
			Email:     "claimed@example.com",
			ProfileID: uuid.New(),
			Partition: "m",
		})
		require.ErrorIs(t, err, model.ErrAlreadyExists)

		rec, err := er.Lookup(ctx, "claimed@example.com")
		require.NoError(t, err)
		require.Equal(t, profileID, rec.ProfileID)
		require.Equal(t, "l", rec.Partition)

		require.NoError(t, er.Release(ctx, "claimed@example.com"))
		// Release is idempotent.
		require.NoError(t, er.Release(ctx, "claimed@example.com"))
		_, err = er.Lookup(ctx, "claimed@example.com")
		require.ErrorIs(t, err, model.ErrNotFound)

		companyID := uuid.New()
		require.NoError(t, dr.RegisterIfAbsent(ctx, model.UniqueDomainRecord{
			Domain:    "claimed.com",
			CompanyID: companyID,
			Partition: "c",
		}))
		err = dr.RegisterIfAbsent(ctx, model.UniqueDomainRecord{
			Domain:    "claimed.com",
			CompanyID: uuid.New(),
			Partition: "d",
		})
		require.ErrorIs(t, err, model.ErrAlreadyExists)
		require.NoError(t, dr.Release(ctx, "claimed.com"))
	})
}

func TestRevealRepository_RecordAndLedger(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ur := repo.NewUserRepository(conn)
	rr := repo.NewRevealRepository(conn)

	user, err := ur.Create(ctx, model.User{ID: uuid.New(), Email: "reveal@example.com", Role: model.RoleUser, Credits: 5, IsActive: true})
	require.NoError(t, err)

	profileID := uuid.New()
	record := model.RevealRecord{
		ID:         uuid.New(),
		UserID:     user.ID,
		ProfileID:  profileID,
		RevealType: model.RevealEmail,
		RevealedAt: time.Now().UTC(),
	}
	tx := model.CreditTransaction{
		ID:          uuid.New(),
		UserID:      user.ID,
		Amount:      -1,
		Type:        model.TxRevealEmail,
		ReferenceID: &profileID,
	}
	require.NoError(t, rr.Record(ctx, record, tx))

	got, err := rr.GetRecord(ctx, user.ID, profileID, model.RevealEmail)
	require.NoError(t, err)
	require.Equal(t, record.ID, got.ID)

	// The same (user, profile, type) cannot be recorded twice, and the
	// rejected attempt must leave no ledger row behind.
	dup := record
	dup.ID = uuid.New()
	dupTx := tx
	dupTx.ID = uuid.New()
	err = rr.Record(ctx, dup, dupTx)
	require.ErrorIs(t, err, model.ErrAlreadyExists)

	txs, err := rr.ListTransactions(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, -1, txs[0].Amount)

	// A phone reveal for the same profile is a distinct record.
	phoneRecord := model.RevealRecord{
		ID:         uuid.New(),
		UserID:     user.ID,
		ProfileID:  profileID,
		RevealType: model.RevealPhone,
		RevealedAt: time.Now().UTC(),
	}
	phoneTx := model.CreditTransaction{ID: uuid.New(), UserID: user.ID, Amount: -3, Type: model.TxRevealPhone, ReferenceID: &profileID}
	require.NoError(t, rr.Record(ctx, phoneRecord, phoneTx))

	txs, err = rr.ListTransactions(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	// Newest first.
	require.Equal(t, model.TxRevealPhone, txs[0].Type)
}

func TestEmailRegistry_ConcurrentRegisterHasOneWinner(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	er := repo.NewEmailRegistryRepository(conn)

	const contenders = 16
	errs := make([]error, contenders)
	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = er.RegisterIfAbsent(ctx, model.UniqueEmailRecord{
				Email:     "contested@example.com",
				ProfileID: uuid.New(),
				Partition: "a",
			})
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, model.ErrAlreadyExists)
		}
	}
	require.Equal(t, 1, wins)
}

func TestUserRepository_ConcurrentDebitNeverOverspends(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ur := repo.NewUserRepository(conn)
	user, err := ur.Create(ctx, model.User{ID: uuid.New(), Email: "debit@example.com", Role: model.RoleUser, Credits: 10, IsActive: true})
	require.NoError(t, err)

	// 10 credits at 3 per debit allows exactly 3 successes.
	const attempts = 20
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ur.DebitIfSufficient(ctx, user.ID, 3)
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var insufficient *model.InsufficientCreditsError
		require.ErrorAs(t, err, &insufficient)
	}
	require.Equal(t, 3, succeeded)

	final, err := ur.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 1, final.Credits)
}
