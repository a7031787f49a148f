package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leadgrid/leadgrid-server/internal/logger"
	"github.com/leadgrid/leadgrid-server/internal/metrics"
	"github.com/leadgrid/leadgrid-server/internal/model"
	"github.com/leadgrid/leadgrid-server/internal/shard"
)

// fanoutLimit bounds how many partitions are queried at once during a
// fan-out. 27 partitions at this limit keeps the pool from being drained
// by a single search.
const fanoutLimit = 9

// normalize prepares a natural key (email, domain) for registry use.
// Read and write paths must normalize identically.
func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// Companies resolves and maintains company records across the 27
// partitions, with the domain registry enforcing global domain uniqueness.
type Companies struct {
	store          model.CompanyStore
	domains        model.DomainRegistry
	fanoutTimeout  time.Duration
	partialResults bool
	metrics        *metrics.Metrics
	logger         *logger.Logger
}

func NewCompanies(
	store model.CompanyStore,
	domains model.DomainRegistry,
	fanoutTimeout time.Duration,
	partialResults bool,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *Companies {
	return &Companies{
		store:          store,
		domains:        domains,
		fanoutTimeout:  fanoutTimeout,
		partialResults: partialResults,
		metrics:        metrics,
		logger:         logger,
	}
}

// FindByDomain resolves a company through the domain registry: one registry
// lookup plus one partition fetch, instead of scanning all 27 partitions.
func (s *Companies) FindByDomain(ctx context.Context, domain string) (model.Company, error) {
	record, err := s.domains.Lookup(ctx, normalize(domain))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Company{}, model.ErrNotFound
		}
		return model.Company{}, fmt.Errorf("failed to look up domain: %w", err)
	}

	company, err := s.store.GetByIDInPartition(ctx, record.Partition, record.CompanyID)
	if err != nil {
		return model.Company{}, fmt.Errorf("failed to fetch company for domain %q: %w", domain, err)
	}

	return company, nil
}

// Create inserts the company into its partition and then claims the domain
// in the registry. The registry is the source of truth for uniqueness, so
// the ordering is insert, register, compensate: if another company already
// owns the domain the provisional insert is deleted and the call fails
// with ErrDomainTaken.
func (s *Companies) Create(ctx context.Context, draft model.CompanyDraft) (model.Company, error) {
	domain := normalize(draft.Domain)
	if domain == "" {
		return model.Company{}, fmt.Errorf("company domain is required")
	}

	partition := shard.PartitionFor(draft.Name)
	company := model.Company{
		ID:           uuid.New(),
		Name:         draft.Name,
		Domain:       domain,
		LinkedInURL:  draft.LinkedInURL,
		Revenue:      draft.Revenue,
		EmployeeSize: draft.EmployeeSize,
		Industry:     draft.Industry,
		Description:  draft.Description,
		City:         draft.City,
		State:        draft.State,
		Country:      draft.Country,
	}

	saved, err := s.store.Create(ctx, partition, company)
	if err != nil {
		return model.Company{}, fmt.Errorf("failed to insert company: %w", err)
	}

	err = s.domains.RegisterIfAbsent(ctx, model.UniqueDomainRecord{
		Domain:    domain,
		CompanyID: saved.ID,
		Partition: partition,
	})
	if err == nil {
		return saved, nil
	}

	if errors.Is(err, model.ErrAlreadyExists) {
		s.compensateCompanyInsert(ctx, partition, saved.ID, domain)
		return model.Company{}, model.ErrDomainTaken
	}

	s.compensateCompanyInsert(ctx, partition, saved.ID, domain)
	return model.Company{}, fmt.Errorf("failed to register domain: %w", err)
}

func (s *Companies) compensateCompanyInsert(ctx context.Context, partition string, id uuid.UUID, domain string) {
	s.metrics.IncrementCompensation("company_create")
	if err := s.store.DeleteInPartition(ctx, partition, id); err != nil {
		// The orphan row holds no registry claim, so it cannot shadow the
		// winner; log for manual cleanup.
		s.logger.Error("failed to roll back company insert",
			"company_id", id,
			"partition", partition,
			"domain", domain,
			"error", err.Error())
	}
}

// FindOrCreateByDomain returns the company owning the domain, creating it
// if absent. The create is not atomic with the lookup: when two callers
// race on a new domain only one registration wins, and the loser retries
// the lookup once before failing.
func (s *Companies) FindOrCreateByDomain(ctx context.Context, name, domain string) (model.Company, error) {
	company, err := s.FindByDomain(ctx, domain)
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.Company{}, err
	}

	company, err = s.Create(ctx, model.CompanyDraft{Name: name, Domain: domain})
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, model.ErrDomainTaken) {
		return model.Company{}, err
	}

	// Lost the race: the winner's registration is in place now.
	company, err = s.FindByDomain(ctx, domain)
	if err != nil {
		return model.Company{}, fmt.Errorf("failed to resolve domain after losing create race: %w", err)
	}

	return company, nil
}

// GetByID fans out across all partitions; the id does not encode the
// partition, so every one is asked and the first match wins.
func (s *Companies) GetByID(ctx context.Context, id uuid.UUID) (model.Company, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanoutLimit)

	var (
		mu    sync.Mutex
		found *model.Company
	)

	for _, partition := range shard.Partitions() {
		partition := partition
		g.Go(func() error {
			pctx, pcancel := context.WithTimeout(gctx, s.fanoutTimeout)
			defer pcancel()

			company, err := s.store.GetByIDInPartition(pctx, partition, id)
			if errors.Is(err, model.ErrNotFound) {
				return nil
			}
			if err != nil {
				if gctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("partition %q: %w", partition, err)
			}

			mu.Lock()
			found = &company
			mu.Unlock()
			cancel()
			return nil
		})
	}

	err := g.Wait()
	if found != nil {
		return *found, nil
	}
	if err != nil {
		return model.Company{}, fmt.Errorf("failed to locate company: %w", err)
	}

	return model.Company{}, model.ErrNotFound
}

// Search fans the filter out to every partition, concatenates the results
// in partition order and paginates over the combined set. Total counts all
// matches, which means every matching row is read on each call.
func (s *Companies) Search(ctx context.Context, filter model.CompanyFilter, page, pageSize int) (model.CompanyPage, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveSearchLatency("company", time.Since(start)) }()

	partitions := shard.Partitions()
	results := make([][]model.Company, len(partitions))
	var degraded bool
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanoutLimit)

	for i, partition := range partitions {
		i, partition := i, partition
		g.Go(func() error {
			pctx, pcancel := context.WithTimeout(gctx, s.fanoutTimeout)
			defer pcancel()

			companies, err := s.store.FindInPartition(pctx, partition, filter)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) && s.partialResults {
					s.metrics.IncrementPartitionTimeout()
					s.logger.Warn("partition timed out during company search, degrading results",
						"partition", partition)
					mu.Lock()
					degraded = true
					mu.Unlock()
					return nil
				}
				return fmt.Errorf("partition %q: %w", partition, err)
			}
			results[i] = companies
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return model.CompanyPage{}, fmt.Errorf("failed to search companies: %w", err)
	}

	var all []model.Company
	for _, companies := range results {
		all = append(all, companies...)
	}

	return model.CompanyPage{
		Companies: paginate(all, page, pageSize),
		Total:     len(all),
		Page:      page,
		PageSize:  pageSize,
		Degraded:  degraded,
	}, nil
}

// Update mutates a company in place. A domain change re-registers the new
// domain before touching the row and releases the old one afterwards, so
// the registry invariant holds throughout.
func (s *Companies) Update(ctx context.Context, id uuid.UUID, update model.CompanyUpdate) (model.Company, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return model.Company{}, err
	}

	var oldDomain string
	if update.Domain != nil {
		domain := normalize(*update.Domain)
		update.Domain = &domain
		if domain != current.Domain {
			err := s.domains.RegisterIfAbsent(ctx, model.UniqueDomainRecord{
				Domain:    domain,
				CompanyID: current.ID,
				Partition: current.Partition,
			})
			if errors.Is(err, model.ErrAlreadyExists) {
				return model.Company{}, model.ErrDomainTaken
			}
			if err != nil {
				return model.Company{}, fmt.Errorf("failed to register new domain: %w", err)
			}
			oldDomain = current.Domain
		}
	}

	company, err := s.store.UpdateInPartition(ctx, current.Partition, id, update)
	if err != nil {
		if oldDomain != "" {
			// Undo the provisional claim so the failed update leaves no trace.
			s.metrics.IncrementCompensation("company_update")
			if rerr := s.domains.Release(ctx, *update.Domain); rerr != nil {
				s.logger.Error("failed to roll back domain registration",
					"company_id", id,
					"domain", *update.Domain,
					"error", rerr.Error())
			}
		}
		return model.Company{}, fmt.Errorf("failed to update company: %w", err)
	}

	if oldDomain != "" {
		if err := s.domains.Release(ctx, oldDomain); err != nil {
			s.logger.Error("failed to release old domain",
				"company_id", id,
				"domain", oldDomain,
				"error", err.Error())
		}
	}

	return company, nil
}

// Delete removes a company and releases its domain registration so the
// domain can be claimed again.
func (s *Companies) Delete(ctx context.Context, id uuid.UUID) error {
	company, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteInPartition(ctx, company.Partition, id); err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}

	if err := s.domains.Release(ctx, company.Domain); err != nil {
		s.logger.Error("failed to release domain of deleted company",
			"company_id", id,
			"domain", company.Domain,
			"error", err.Error())
	}

	return nil
}

// paginate slices one page out of the combined fan-out result.
func paginate[T any](items []T, page, pageSize int) []T {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
