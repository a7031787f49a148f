package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/leadgrid/leadgrid-server/internal/model"
)

var _ model.ProfileStore = (*ProfileRepository)(nil)

type ProfileRepository struct {
	db *Connection
}

func NewProfileRepository(db *Connection) *ProfileRepository {
	return &ProfileRepository{
		db: db,
	}
}

const profileColumns = `id, partition, first_name, last_name, job_title, industry, sub_industry,
	keywords, seo_description, company_id, company_name, company_domain,
	profile_linkedin_url, company_linkedin_url, emails, phones,
	city, state, country, created_at, updated_at`

func scanProfile(row pgx.Row) (model.Profile, error) {
	var p model.Profile
	err := row.Scan(
		&p.ID, &p.Partition, &p.FirstName, &p.LastName, &p.JobTitle, &p.Industry, &p.SubIndustry,
		&p.Keywords, &p.SEODescription, &p.CompanyID, &p.CompanyName, &p.CompanyDomain,
		&p.ProfileLinkedInURL, &p.CompanyLinkedInURL, &p.Emails, &p.Phones,
		&p.City, &p.State, &p.Country, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *ProfileRepository) Create(ctx context.Context, partition string, profile model.Profile) (model.Profile, error) {
	query := `INSERT INTO profiles (id, partition, first_name, last_name, job_title, industry, sub_industry,
				keywords, seo_description, company_id, company_name, company_domain,
				profile_linkedin_url, company_linkedin_url, emails, phones, city, state, country)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
			  RETURNING ` + profileColumns

	saved, err := scanProfile(r.db.QueryRow(ctx, query,
		profile.ID, partition, profile.FirstName, profile.LastName, profile.JobTitle,
		profile.Industry, profile.SubIndustry, profile.Keywords, profile.SEODescription,
		profile.CompanyID, profile.CompanyName, profile.CompanyDomain,
		profile.ProfileLinkedInURL, profile.CompanyLinkedInURL, profile.Emails, profile.Phones,
		profile.City, profile.State, profile.Country,
	))
	if err != nil {
		return model.Profile{}, fmt.Errorf("failed to create profile: %w", err)
	}

	return saved, nil
}

func (r *ProfileRepository) GetByIDInPartition(ctx context.Context, partition string, id uuid.UUID) (model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE partition = $1 AND id = $2`

	profile, err := scanProfile(r.db.QueryRow(ctx, query, partition, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, model.ErrNotFound
		}
		return model.Profile{}, fmt.Errorf("failed to get profile by id: %w", err)
	}

	return profile, nil
}

func (r *ProfileRepository) FindInPartition(ctx context.Context, partition string, filter model.ProfileFilter) ([]model.Profile, error) {
	where := []string{"partition = $1"}
	args := []any{partition}

	addLike := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, "%"+value+"%")
		where = append(where, fmt.Sprintf("%s ILIKE $%d", column, len(args)))
	}

	addLike("first_name", filter.FirstName)
	addLike("last_name", filter.LastName)
	addLike("job_title", filter.JobTitle)
	addLike("industry", filter.Industry)
	addLike("sub_industry", filter.SubIndustry)
	addLike("company_name", filter.CompanyName)
	addLike("city", filter.City)
	addLike("state", filter.State)
	addLike("country", filter.Country)
	if len(filter.Keywords) > 0 {
		args = append(args, filter.Keywords)
		where = append(where, fmt.Sprintf("keywords && $%d", len(args)))
	}

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}

	return profiles, nil
}

func (r *ProfileRepository) UpdateInPartition(ctx context.Context, partition string, id uuid.UUID, update model.ProfileUpdate) (model.Profile, error) {
	set := []string{"updated_at = NOW()"}
	args := []any{partition, id}

	addSet := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.FirstName != nil {
		addSet("first_name", *update.FirstName)
	}
	if update.LastName != nil {
		addSet("last_name", *update.LastName)
	}
	if update.JobTitle != nil {
		addSet("job_title", *update.JobTitle)
	}
	if update.Industry != nil {
		addSet("industry", *update.Industry)
	}
	if update.SubIndustry != nil {
		addSet("sub_industry", *update.SubIndustry)
	}
	if update.Keywords != nil {
		addSet("keywords", *update.Keywords)
	}
	if update.SEODescription != nil {
		addSet("seo_description", *update.SEODescription)
	}
	if update.CompanyID != nil {
		addSet("company_id", *update.CompanyID)
	}
	if update.CompanyName != nil {
		addSet("company_name", *update.CompanyName)
	}
	if update.CompanyDomain != nil {
		addSet("company_domain", *update.CompanyDomain)
	}
	if update.ProfileLinkedInURL != nil {
		addSet("profile_linkedin_url", *update.ProfileLinkedInURL)
	}
	if update.CompanyLinkedInURL != nil {
		addSet("company_linkedin_url", *update.CompanyLinkedInURL)
	}
	if update.Emails != nil {
		addSet("emails", *update.Emails)
	}
	if update.Phones != nil {
		addSet("phones", *update.Phones)
	}
	if update.City != nil {
		addSet("city", *update.City)
	}
	if update.State != nil {
		addSet("state", *update.State)
	}
	if update.Country != nil {
		addSet("country", *update.Country)
	}

	query := `UPDATE profiles SET ` + strings.Join(set, ", ") +
		` WHERE partition = $1 AND id = $2 RETURNING ` + profileColumns

	profile, err := scanProfile(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, model.ErrNotFound
		}
		return model.Profile{}, fmt.Errorf("failed to update profile: %w", err)
	}

	return profile, nil
}

func (r *ProfileRepository) DeleteInPartition(ctx context.Context, partition string, id uuid.UUID) error {
	query := `DELETE FROM profiles WHERE partition = $1 AND id = $2`

	cmd, err := r.db.Exec(ctx, query, partition, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}
