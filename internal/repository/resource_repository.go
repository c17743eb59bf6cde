package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/booking-service/internal/domain"
)

// ResourceRepository defines persistence access for bookable resources.
type ResourceRepository interface {
	Create(ctx context.Context, resource *domain.Resource) error
	Update(ctx context.Context, resource *domain.Resource) error
	GetByID(ctx context.Context, id string) (*domain.Resource, error)
	List(ctx context.Context) ([]domain.Resource, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type resourceRepository struct {
	pool *pgxpool.Pool
}

// NewResourceRepository returns a Postgres-backed implementation.
func NewResourceRepository(pool *pgxpool.Pool) ResourceRepository {
	return &resourceRepository{pool: pool}
}

func (r *resourceRepository) Create(ctx context.Context, resource *domain.Resource) error {
	const query = `
        INSERT INTO resources (name, type, description, capacity, active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		resource.Name,
		resource.Type,
		resource.Description,
		resource.Capacity,
		resource.Active,
	).Scan(&resource.ID, &resource.CreatedAt, &resource.UpdatedAt)
}

func (r *resourceRepository) Update(ctx context.Context, resource *domain.Resource) error {
	const query = `
        UPDATE resources SET name=$1, type=$2, description=$3, capacity=$4, active=$5, updated_at=NOW()
        WHERE id=$6`

	cmd, err := r.pool.Exec(ctx, query,
		resource.Name,
		resource.Type,
		resource.Description,
		resource.Capacity,
		resource.Active,
		resource.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *resourceRepository) GetByID(ctx context.Context, id string) (*domain.Resource, error) {
	const query = `
        SELECT id, name, type, description, capacity, active, created_at, updated_at
        FROM resources WHERE id=$1`

	var resource domain.Resource
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&resource.ID,
		&resource.Name,
		&resource.Type,
		&resource.Description,
		&resource.Capacity,
		&resource.Active,
		&resource.CreatedAt,
		&resource.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &resource, nil
}

func (r *resourceRepository) List(ctx context.Context) ([]domain.Resource, error) {
	const query = `
        SELECT id, name, type, description, capacity, active, created_at, updated_at
        FROM resources ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Resource
	for rows.Next() {
		var resource domain.Resource
		if err := rows.Scan(
			&resource.ID,
			&resource.Name,
			&resource.Type,
			&resource.Description,
			&resource.Capacity,
			&resource.Active,
			&resource.CreatedAt,
			&resource.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, resource)
	}
	return result, rows.Err()
}

func (r *resourceRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM resources WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *resourceRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM resources`).Scan(&count)
	return count, err
}
