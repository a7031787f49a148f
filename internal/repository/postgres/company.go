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

var _ model.CompanyStore = (*CompanyRepository)(nil)

type CompanyRepository struct {
	db *Connection
}

func NewCompanyRepository(db *Connection) *CompanyRepository {
	return &CompanyRepository{
		db: db,
	}
}

const companyColumns = `id, partition, name, domain, linkedin_url, revenue, employee_size,
	industry, description, city, state, country, created_at, updated_at`

func scanCompany(row pgx.Row) (model.Company, error) {
	var c model.Company
	err := row.Scan(
		&c.ID, &c.Partition, &c.Name, &c.Domain, &c.LinkedInURL, &c.Revenue, &c.EmployeeSize,
		&c.Industry, &c.Description, &c.City, &c.State, &c.Country, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *CompanyRepository) Create(ctx context.Context, partition string, company model.Company) (model.Company, error) {
	query := `INSERT INTO companies (id, partition, name, domain, linkedin_url, revenue, employee_size,
				industry, description, city, state, country)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			  RETURNING ` + companyColumns

	saved, err := scanCompany(r.db.QueryRow(ctx, query,
		company.ID, partition, company.Name, company.Domain, company.LinkedInURL,
		company.Revenue, company.EmployeeSize, company.Industry, company.Description,
		company.City, company.State, company.Country,
	))
	if err != nil {
		return model.Company{}, fmt.Errorf("failed to create company: %w", err)
	}

	return saved, nil
}

func (r *CompanyRepository) GetByIDInPartition(ctx context.Context, partition string, id uuid.UUID) (model.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE partition = $1 AND id = $2`

	company, err := scanCompany(r.db.QueryRow(ctx, query, partition, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Company{}, model.ErrNotFound
		}
		return model.Company{}, fmt.Errorf("failed to get company by id: %w", err)
	}

	return company, nil
}

func (r *CompanyRepository) FindInPartition(ctx context.Context, partition string, filter model.CompanyFilter) ([]model.Company, error) {
	where := []string{"partition = $1"}
	args := []any{partition}

	addLike := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, "%"+value+"%")
		where = append(where, fmt.Sprintf("%s ILIKE $%d", column, len(args)))
	}
	addEqual := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	addLike("name", filter.Name)
	addLike("industry", filter.Industry)
	addEqual("revenue", filter.Revenue)
	addEqual("employee_size", filter.EmployeeSize)
	addLike("city", filter.City)
	addLike("state", filter.State)
	addLike("country", filter.Country)

	query := `SELECT ` + companyColumns + ` FROM companies WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find companies: %w", err)
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate companies: %w", err)
	}

	return companies, nil
}

func (r *CompanyRepository) UpdateInPartition(ctx context.Context, partition string, id uuid.UUID, update model.CompanyUpdate) (model.Company, error) {
	set := []string{"updated_at = NOW()"}
	args := []any{partition, id}

	addSet := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Name != nil {
		addSet("name", *update.Name)
	}
	if update.Domain != nil {
		addSet("domain", *update.Domain)
	}
	if update.LinkedInURL != nil {
		addSet("linkedin_url", *update.LinkedInURL)
	}
	if update.Revenue != nil {
		addSet("revenue", *update.Revenue)
	}
	if update.EmployeeSize != nil {
		addSet("employee_size", *update.EmployeeSize)
	}
	if update.Industry != nil {
		addSet("industry", *update.Industry)
	}
	if update.Description != nil {
		addSet("description", *update.Description)
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

	query := `UPDATE companies SET ` + strings.Join(set, ", ") +
		` WHERE partition = $1 AND id = $2 RETURNING ` + companyColumns

	company, err := scanCompany(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Company{}, model.ErrNotFound
		}
		return model.Company{}, fmt.Errorf("failed to update company: %w", err)
	}

	return company, nil
}

func (r *CompanyRepository) DeleteInPartition(ctx context.Context, partition string, id uuid.UUID) error {
	query := `DELETE FROM companies WHERE partition = $1 AND id = $2`

	cmd, err := r.db.Exec(ctx, query, partition, id)
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}
