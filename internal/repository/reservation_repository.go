package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/booking-service/internal/domain"
)

// ReservationFilter captures listing parameters. Optional predicates are nil
// when absent; with no predicates set the filter matches every reservation.
type ReservationFilter struct {
	Username *string
	Status   *domain.ReservationStatus
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Page     int
	Size     int
	Sort     string
}

// ReservationRepository encapsulates reservation persistence.
type ReservationRepository interface {
	// Create persists a new reservation. When enforceOverlap is set the
	// CONFIRMED-overlap check and the insert run as one atomic unit; ErrOverlap
	// is returned and nothing is written when the range collides.
	Create(ctx context.Context, reservation *domain.Reservation, enforceOverlap bool) error
	// Update persists changed fields. When enforceOverlap is set the check
	// excludes the reservation itself.
	Update(ctx context.Context, reservation *domain.Reservation, enforceOverlap bool) error
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	Delete(ctx context.Context, id string) error
	FindOverlapping(ctx context.Context, resourceID string, status domain.ReservationStatus, start, end time.Time) ([]domain.Reservation, error)
	// ListWithFilter returns one page of matching reservations plus the total
	// match count, both computed by the store.
	ListWithFilter(ctx context.Context, filter ReservationFilter) ([]domain.Reservation, int64, error)
}

type reservationRepository struct {
	pool *pgxpool.Pool
}

// NewReservationRepository instantiates a Postgres-backed repository.
func NewReservationRepository(pool *pgxpool.Pool) ReservationRepository {
	return &reservationRepository{pool: pool}
}

const reservationColumns = `r.id, r.resource_id, res.name, r.user_id, u.username,
               r.price, r.start_time, r.end_time, r.status, r.created_at, r.updated_at`

const reservationFrom = `FROM reservations r
        JOIN resources res ON res.id = r.resource_id
        JOIN users u ON u.id = r.user_id`

const overlapQuery = `
        SELECT ` + reservationColumns + `
        ` + reservationFrom + `
        WHERE r.resource_id=$1 AND r.status=$2 AND r.start_time < $4 AND r.end_time > $3`

func (r *reservationRepository) Create(ctx context.Context, reservation *domain.Reservation, enforceOverlap bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if enforceOverlap {
		if err := guardOverlap(ctx, tx, reservation, ""); err != nil {
			return err
		}
	}

	const query = `
        INSERT INTO reservations (resource_id, user_id, price, start_time, end_time, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, query,
		reservation.ResourceID,
		reservation.UserID,
		reservation.Price,
		reservation.StartTime,
		reservation.EndTime,
		reservation.Status,
	).Scan(&reservation.ID, &reservation.CreatedAt, &reservation.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *reservationRepository) Update(ctx context.Context, reservation *domain.Reservation, enforceOverlap bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if enforceOverlap {
		if err := guardOverlap(ctx, tx, reservation, reservation.ID); err != nil {
			return err
		}
	}

	const query = `
        UPDATE reservations SET price=$1, start_time=$2, end_time=$3, status=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	if err := tx.QueryRow(ctx, query,
		reservation.Price,
		reservation.StartTime,
		reservation.EndTime,
		reservation.Status,
		reservation.ID,
	).Scan(&reservation.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// guardOverlap serializes writers per resource and rejects colliding ranges.
// The advisory lock is released when the surrounding transaction ends.
func guardOverlap(ctx context.Context, tx pgx.Tx, reservation *domain.Reservation, excludeID string) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, reservation.ResourceID); err != nil {
		return err
	}

	query := `
        SELECT COUNT(*) FROM reservations
        WHERE resource_id=$1 AND status=$2 AND start_time < $4 AND end_time > $3`
	args := []any{reservation.ResourceID, domain.ReservationStatusConfirmed, reservation.StartTime, reservation.EndTime}
	if excludeID != "" {
		query += ` AND id <> $5`
		args = append(args, excludeID)
	}

	var count int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return ErrOverlap
	}
	return nil
}

func (r *reservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	const query = `
        SELECT ` + reservationColumns + `
        ` + reservationFrom + `
        WHERE r.id=$1`

	var reservation domain.Reservation
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&reservation.ID,
		&reservation.ResourceID,
		&reservation.ResourceName,
		&reservation.UserID,
		&reservation.Username,
		&reservation.Price,
		&reservation.StartTime,
		&reservation.EndTime,
		&reservation.Status,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM reservations WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *reservationRepository) FindOverlapping(ctx context.Context, resourceID string, status domain.ReservationStatus, start, end time.Time) ([]domain.Reservation, error) {
	rows, err := r.pool.Query(ctx, overlapQuery, resourceID, status, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReservations(rows)
}

func (r *reservationRepository) ListWithFilter(ctx context.Context, filter ReservationFilter) ([]domain.Reservation, int64, error) {
	clauses, args := buildFilterClauses(filter)
	where := strings.Join(clauses, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) %s WHERE %s`, reservationFrom, where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, size := normalizePage(filter.Page, filter.Size)
	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		reservationColumns, reservationFrom, where, buildOrderBy(filter.Sort), size, page*size)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	reservations, err := scanReservations(rows)
	if err != nil {
		return nil, 0, err
	}
	return reservations, total, nil
}

// buildFilterClauses compiles the optional predicates into a SQL conjunction.
// With nothing set it degenerates to an always-true clause.
func buildFilterClauses(filter ReservationFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Username != nil {
		args = append(args, *filter.Username)
		clauses = append(clauses, fmt.Sprintf("u.username=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("r.status=$%d", len(args)))
	}
	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		clauses = append(clauses, fmt.Sprintf("r.price >= $%d", len(args)))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		clauses = append(clauses, fmt.Sprintf("r.price <= $%d", len(args)))
	}
	return clauses, args
}

var sortableColumns = map[string]string{
	"id":        "r.id",
	"price":     "r.price",
	"startTime": "r.start_time",
	"endTime":   "r.end_time",
	"status":    "r.status",
	"createdAt": "r.created_at",
	"updatedAt": "r.updated_at",
}

const defaultOrderBy = "r.created_at DESC"

// buildOrderBy maps a "field,direction" sort parameter onto a whitelisted
// column. Direction defaults to descending unless "asc" is given; unknown
// fields fall back to the default ordering.
func buildOrderBy(sort string) string {
	if strings.TrimSpace(sort) == "" {
		return defaultOrderBy
	}
	parts := strings.Split(sort, ",")
	column, ok := sortableColumns[strings.TrimSpace(parts[0])]
	if !ok {
		return defaultOrderBy
	}
	direction := "DESC"
	if len(parts) > 1 && strings.EqualFold(strings.TrimSpace(parts[1]), "asc") {
		direction = "ASC"
	}
	return column + " " + direction
}

func normalizePage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size < 1 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return page, size
}

func scanReservations(rows pgx.Rows) ([]domain.Reservation, error) {
	var result []domain.Reservation
	for rows.Next() {
		var reservation domain.Reservation
		if err := rows.Scan(
			&reservation.ID,
			&reservation.ResourceID,
			&reservation.ResourceName,
			&reservation.UserID,
			&reservation.Username,
			&reservation.Price,
			&reservation.StartTime,
			&reservation.EndTime,
			&reservation.Status,
			&reservation.CreatedAt,
			&reservation.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, reservation)
	}
	return result, rows.Err()
}
