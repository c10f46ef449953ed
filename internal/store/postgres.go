package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements ServiceStore and ApplicationStore on a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const serviceColumns = `id, provider_email, service_name, service_area, service_description,
	provider_name, provider_image, price, application_date, application_count, created_at`

func scanService(row pgx.Row, s *Service) error {
	return row.Scan(&s.ID, &s.ProviderEmail, &s.ServiceName, &s.ServiceArea, &s.ServiceDescription,
		&s.ProviderName, &s.ProviderImage, &s.Price, &s.ApplicationDate, &s.ApplicationCount, &s.CreatedAt)
}

// serviceWhere renders the filter as a WHERE clause with positional args.
func serviceWhere(f ServiceFilter) (string, []any) {
	var where []string
	var args []any
	if f.Search != "" {
		where = append(where, fmt.Sprintf("(service_name ILIKE $%d OR service_area ILIKE $%d)", len(args)+1, len(args)+2))
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern)
	}
	if f.ProviderEmail != "" {
		where = append(where, fmt.Sprintf("provider_email = $%d", len(args)+1))
		args = append(args, f.ProviderEmail)
	}
	if f.OnlyWithApplications {
		where = append(where, "application_count > 0")
	}
	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (p *Postgres) ListServices(ctx context.Context, f ServiceFilter) ([]Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services`
	clause, args := serviceWhere(f)
	query += clause
	if f.SortByPriceAsc {
		query += " ORDER BY price ASC, created_at DESC"
	} else {
		query += " ORDER BY created_at DESC"
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.Limit(), f.Offset())

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []Service
	for rows.Next() {
		var s Service
		if err := scanService(rows, &s); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func (p *Postgres) CountServices(ctx context.Context, f ServiceFilter) (int64, error) {
	clause, args := serviceWhere(f)
	var count int64
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM services`+clause, args...).Scan(&count)
	return count, err
}

func (p *Postgres) GetService(ctx context.Context, id string) (*Service, error) {
	var s Service
	err := scanService(p.pool.QueryRow(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id = $1`, id), &s)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (p *Postgres) CreateService(ctx context.Context, s *Service) (string, error) {
	s.ID = uuid.New().String()
	_, err := p.pool.Exec(ctx,
		`INSERT INTO services (id, provider_email, service_name, service_area, service_description,
			provider_name, provider_image, price, application_date, application_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.ID, s.ProviderEmail, s.ServiceName, s.ServiceArea, s.ServiceDescription,
		s.ProviderName, s.ProviderImage, s.Price, s.ApplicationDate, s.ApplicationCount, s.CreatedAt)
	if err != nil {
		return "", err
	}
	return s.ID, nil
}

func (p *Postgres) UpdateService(ctx context.Context, id string, patch ServicePatch) error {
	// Build SET from the allow-listed fields, and a matching change check
	// so an update that alters nothing reports ErrNotFound, same as a
	// missing id.
	type field struct {
		column string
		value  any
	}
	var fields []field
	if patch.ServiceName != nil {
		fields = append(fields, field{"service_name", *patch.ServiceName})
	}
	if patch.ServiceArea != nil {
		fields = append(fields, field{"service_area", *patch.ServiceArea})
	}
	if patch.ServiceDescription != nil {
		fields = append(fields, field{"service_description", *patch.ServiceDescription})
	}
	if patch.ProviderName != nil {
		fields = append(fields, field{"provider_name", *patch.ProviderName})
	}
	if patch.ProviderImage != nil {
		fields = append(fields, field{"provider_image", *patch.ProviderImage})
	}
	if patch.Price != nil {
		fields = append(fields, field{"price", *patch.Price})
	}
	if patch.ApplicationDate != nil {
		fields = append(fields, field{"application_date", *patch.ApplicationDate})
	}
	if len(fields) == 0 {
		return ErrNotFound
	}

	var sets, changed []string
	args := []any{id}
	for _, f := range fields {
		args = append(args, f.value)
		sets = append(sets, fmt.Sprintf("%s = $%d", f.column, len(args)))
		changed = append(changed, fmt.Sprintf("%s IS DISTINCT FROM $%d", f.column, len(args)))
	}
	query := fmt.Sprintf(`UPDATE services SET %s WHERE id = $1 AND (%s)`,
		strings.Join(sets, ", "), strings.Join(changed, " OR "))

	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteService(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) AdjustApplicationCount(ctx context.Context, id string, delta int) error {
	// Single atomic update-by-filter; never read-modify-write. The floor
	// at zero guards against decrements for applications whose service
	// was recreated or hand-edited.
	tag, err := p.pool.Exec(ctx,
		`UPDATE services SET application_count = GREATEST(application_count + $2, 0) WHERE id = $1`,
		id, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const applicationColumns = `id, service_id, applicant_email, applicant_name, status, created_at, updated_at`

func scanApplication(row pgx.Row, a *Application) error {
	return row.Scan(&a.ID, &a.ServiceID, &a.ApplicantEmail, &a.ApplicantName, &a.Status, &a.CreatedAt, &a.UpdatedAt)
}

func (p *Postgres) CreateApplication(ctx context.Context, a *Application) (string, error) {
	a.ID = uuid.New().String()
	_, err := p.pool.Exec(ctx,
		`INSERT INTO service_applications (id, service_id, applicant_email, applicant_name, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.ServiceID, a.ApplicantEmail, a.ApplicantName, a.Status, a.CreatedAt)
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

func (p *Postgres) queryApplications(ctx context.Context, query string, args ...any) ([]Application, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		var a Application
		if err := scanApplication(rows, &a); err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

func (p *Postgres) ApplicationsByService(ctx context.Context, serviceID string) ([]Application, error) {
	return p.queryApplications(ctx,
		`SELECT `+applicationColumns+` FROM service_applications WHERE service_id = $1 ORDER BY created_at DESC`,
		serviceID)
}

func (p *Postgres) ApplicationsByApplicant(ctx context.Context, email string) ([]Application, error) {
	return p.queryApplications(ctx,
		`SELECT `+applicationColumns+` FROM service_applications WHERE applicant_email = $1 ORDER BY created_at DESC`,
		email)
}

func (p *Postgres) ApplicationsByServiceIDs(ctx context.Context, serviceIDs []string) ([]Application, error) {
	if len(serviceIDs) == 0 {
		return nil, nil
	}
	return p.queryApplications(ctx,
		`SELECT `+applicationColumns+` FROM service_applications WHERE service_id = ANY($1) ORDER BY created_at DESC`,
		serviceIDs)
}

func (p *Postgres) UpdateApplicationStatus(ctx context.Context, id string, status Status, now time.Time) error {
	// Matching only when the status actually differs preserves the
	// "not found or unchanged" contract.
	tag, err := p.pool.Exec(ctx,
		`UPDATE service_applications SET status = $2, updated_at = $3 WHERE id = $1 AND status <> $2`,
		id, status, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteApplication(ctx context.Context, id string) (*Application, error) {
	var a Application
	err := scanApplication(p.pool.QueryRow(ctx,
		`DELETE FROM service_applications WHERE id = $1 RETURNING `+applicationColumns, id), &a)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
