package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leadgrid/leadgrid-server/internal/logger"
	"github.com/leadgrid/leadgrid-server/internal/mask"
	"github.com/leadgrid/leadgrid-server/internal/metrics"
	"github.com/leadgrid/leadgrid-server/internal/model"
	"github.com/leadgrid/leadgrid-server/internal/shard"
)

// Profiles maintains person profiles across the 27 partitions. Email
// uniqueness is enforced through the global email registry; the link to the
// owning company is resolved through the Companies service.
type Profiles struct {
	store          model.ProfileStore
	emails         model.EmailRegistry
	companies      *Companies
	fanoutTimeout  time.Duration
	partialResults bool
	metrics        *metrics.Metrics
	logger         *logger.Logger
}

func NewProfiles(
	store model.ProfileStore,
	emails model.EmailRegistry,
	companies *Companies,
	fanoutTimeout time.Duration,
	partialResults bool,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *Profiles {
	return &Profiles{
		store:          store,
		emails:         emails,
		companies:      companies,
		fanoutTimeout:  fanoutTimeout,
		partialResults: partialResults,
		metrics:        metrics,
		logger:         logger,
	}
}

// Create inserts a profile. Emails are prechecked against the registry so
// obvious conflicts fail before any write, then the owning company is
// resolved, the profile inserted into its partition, and every email
// registered. The precheck cannot see concurrent claims, so a registration
// conflict after the insert rolls the whole creation back.
func (s *Profiles) Create(ctx context.Context, draft model.ProfileDraft) (model.Profile, error) {
	emails := normalizeAll(draft.Emails)

	for _, email := range emails {
		if !mask.ValidEmail(email) {
			return model.Profile{}, fmt.Errorf("invalid email %q", email)
		}
	}
	for _, phone := range draft.Phones {
		if !mask.ValidPhone(phone) {
			return model.Profile{}, fmt.Errorf("invalid phone %q", phone)
		}
	}

	for _, email := range emails {
		_, err := s.emails.Lookup(ctx, email)
		if err == nil {
			return model.Profile{}, model.ErrEmailTaken
		}
		if !errors.Is(err, model.ErrNotFound) {
			return model.Profile{}, fmt.Errorf("failed to precheck email: %w", err)
		}
	}

	company, err := s.companies.FindOrCreateByDomain(ctx, draft.CompanyName, draft.CompanyDomain)
	if err != nil {
		return model.Profile{}, fmt.Errorf("failed to resolve company: %w", err)
	}

	partition := shard.PartitionFor(draft.LastName)
	profile := model.Profile{
		ID:                 uuid.New(),
		FirstName:          draft.FirstName,
		LastName:           draft.LastName,
		JobTitle:           draft.JobTitle,
		Industry:           draft.Industry,
		SubIndustry:        draft.SubIndustry,
		Keywords:           draft.Keywords,
		SEODescription:     draft.SEODescription,
		CompanyID:          company.ID,
		CompanyName:        company.Name,
		CompanyDomain:      company.Domain,
		ProfileLinkedInURL: draft.ProfileLinkedInURL,
		CompanyLinkedInURL: draft.CompanyLinkedInURL,
		Emails:             emails,
		Phones:             draft.Phones,
		City:               draft.City,
		State:              draft.State,
		Country:            draft.Country,
	}

	saved, err := s.store.Create(ctx, partition, profile)
	if err != nil {
		return model.Profile{}, fmt.Errorf("failed to insert profile: %w", err)
	}

	if err := s.registerEmails(ctx, emails, saved.ID, partition); err != nil {
		s.metrics.IncrementCompensation("profile_create")
		if derr := s.store.DeleteInPartition(ctx, partition, saved.ID); derr != nil {
			s.logger.Error("failed to roll back profile insert",
				"profile_id", saved.ID,
				"partition", partition,
				"error", derr.Error())
		}
		return model.Profile{}, err
	}

	return saved, nil
}

// registerEmails claims every email for the profile, releasing the ones
// already claimed in this batch if a later one conflicts.
func (s *Profiles) registerEmails(ctx context.Context, emails []string, profileID uuid.UUID, partition string) error {
	var registered []string
	for _, email := range emails {
		err := s.emails.RegisterIfAbsent(ctx, model.UniqueEmailRecord{
			Email:     email,
			ProfileID: profileID,
			Partition: partition,
		})
		if err == nil {
			registered = append(registered, email)
			continue
		}

		s.releaseEmails(ctx, registered, profileID)
		if errors.Is(err, model.ErrAlreadyExists) {
			return model.ErrEmailTaken
		}
		return fmt.Errorf("failed to register email: %w", err)
	}
	return nil
}

func (s *Profiles) releaseEmails(ctx context.Context, emails []string, profileID uuid.UUID) {
	for _, email := range emails {
		if err := s.emails.Release(ctx, email); err != nil {
			s.logger.Error("failed to release email registration",
				"profile_id", profileID,
				"email", email,
				"error", err.Error())
		}
	}
}

// GetByID fans out across all partitions and returns the first match; ids
// are globally unique by construction so at most one partition answers.
func (s *Profiles) GetByID(ctx context.Context, id uuid.UUID) (model.Profile, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanoutLimit)

	var (
		mu    sync.Mutex
		found *model.Profile
	)

	for _, partition := range shard.Partitions() {
		partition := partition
		g.Go(func() error {
			pctx, pcancel := context.WithTimeout(gctx, s.fanoutTimeout)
			defer pcancel()

			profile, err := s.store.GetByIDInPartition(pctx, partition, id)
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
			found = &profile
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
		return model.Profile{}, fmt.Errorf("failed to locate profile: %w", err)
	}

	return model.Profile{}, model.ErrNotFound
}

// Search fans the filter out to every partition concurrently, concatenates
// in partition order and paginates the combined set. With PartialResults
// enabled a timed-out partition degrades the result instead of failing the
// call.
func (s *Profiles) Search(ctx context.Context, filter model.ProfileFilter, page, pageSize int) (model.ProfilePage, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveSearchLatency("profile", time.Since(start)) }()

	partitions := shard.Partitions()
	results := make([][]model.Profile, len(partitions))
	var degraded bool
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanoutLimit)

	for i, partition := range partitions {
		i, partition := i, partition
		g.Go(func() error {
			pctx, pcancel := context.WithTimeout(gctx, s.fanoutTimeout)
			defer pcancel()

			profiles, err := s.store.FindInPartition(pctx, partition, filter)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) && s.partialResults {
					s.metrics.IncrementPartitionTimeout()
					s.logger.Warn("partition timed out during profile search, degrading results",
						"partition", partition)
					mu.Lock()
					degraded = true
					mu.Unlock()
					return nil
				}
				return fmt.Errorf("partition %q: %w", partition, err)
			}
			results[i] = profiles
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return model.ProfilePage{}, fmt.Errorf("failed to search profiles: %w", err)
	}

	var all []model.Profile
	for _, profiles := range results {
		all = append(all, profiles...)
	}

	return model.ProfilePage{
		Profiles: paginate(all, page, pageSize),
		Total:    len(all),
		Page:     page,
		PageSize: pageSize,
		Degraded: degraded,
	}, nil
}

// Update mutates a profile in place. Email changes keep the registry in
// step: new addresses are claimed before the row is touched, removed ones
// are released afterwards. A new company domain re-resolves the owning
// company and refreshes the denormalized company fields; the cache is not
// refreshed on company updates, only here.
func (s *Profiles) Update(ctx context.Context, id uuid.UUID, update model.ProfileUpdate) (model.Profile, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return model.Profile{}, err
	}

	var added, removed []string
	if update.Emails != nil {
		emails := normalizeAll(*update.Emails)
		update.Emails = &emails
		for _, email := range emails {
			if !mask.ValidEmail(email) {
				return model.Profile{}, fmt.Errorf("invalid email %q", email)
			}
		}
		for _, email := range emails {
			if !slices.Contains(current.Emails, email) {
				added = append(added, email)
			}
		}
		for _, email := range current.Emails {
			if !slices.Contains(emails, email) {
				removed = append(removed, email)
			}
		}
		if err := s.registerEmails(ctx, added, current.ID, current.Partition); err != nil {
			return model.Profile{}, err
		}
	}

	if update.CompanyDomain != nil {
		name := current.CompanyName
		if update.CompanyName != nil {
			name = *update.CompanyName
		}
		company, err := s.companies.FindOrCreateByDomain(ctx, name, *update.CompanyDomain)
		if err != nil {
			s.releaseEmails(ctx, added, current.ID)
			return model.Profile{}, fmt.Errorf("failed to resolve company: %w", err)
		}
		update.CompanyID = &company.ID
		update.CompanyName = &company.Name
		update.CompanyDomain = &company.Domain
	}

	profile, err := s.store.UpdateInPartition(ctx, current.Partition, id, update)
	if err != nil {
		s.metrics.IncrementCompensation("profile_update")
		s.releaseEmails(ctx, added, current.ID)
		return model.Profile{}, fmt.Errorf("failed to update profile: %w", err)
	}

	s.releaseEmails(ctx, removed, current.ID)

	return profile, nil
}

// Delete removes a profile and releases its email registrations so the
// addresses can be claimed again.
func (s *Profiles) Delete(ctx context.Context, id uuid.UUID) error {
	profile, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteInPartition(ctx, profile.Partition, id); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	s.releaseEmails(ctx, profile.Emails, id)

	return nil
}

func normalizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = normalize(v)
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
