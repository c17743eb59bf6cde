package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/repository"
	apperrors "github.com/spec-kit/booking-service/pkg/util"
)

// ---- in-memory fakes -------------------------------------------------------

type fakeReservationRepo struct {
	mu    sync.Mutex
	seq   int
	items map[string]domain.Reservation
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{items: map[string]domain.Reservation{}}
}

func (f *fakeReservationRepo) hasConfirmedOverlap(resourceID string, start, end time.Time, excludeID string) bool {
	for _, existing := range f.items {
		if existing.ID == excludeID || existing.ResourceID != resourceID {
			continue
		}
		if existing.Status == domain.ReservationStatusConfirmed && existing.Overlaps(start, end) {
			return true
		}
	}
	return false
}

func (f *fakeReservationRepo) Create(_ context.Context, reservation *domain.Reservation, enforceOverlap bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if enforceOverlap && f.hasConfirmedOverlap(reservation.ResourceID, reservation.StartTime, reservation.EndTime, "") {
		return repository.ErrOverlap
	}
	f.seq++
	reservation.ID = fmt.Sprintf("rsv-%03d", f.seq)
	reservation.CreatedAt = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.seq) * time.Second)
	reservation.UpdatedAt = reservation.CreatedAt
	f.items[reservation.ID] = *reservation
	return nil
}

func (f *fakeReservationRepo) Update(_ context.Context, reservation *domain.Reservation, enforceOverlap bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[reservation.ID]; !ok {
		return pgx.ErrNoRows
	}
	if enforceOverlap && f.hasConfirmedOverlap(reservation.ResourceID, reservation.StartTime, reservation.EndTime, reservation.ID) {
		return repository.ErrOverlap
	}
	reservation.UpdatedAt = reservation.UpdatedAt.Add(time.Second)
	f.items[reservation.ID] = *reservation
	return nil
}

func (f *fakeReservationRepo) GetByID(_ context.Context, id string) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reservation, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &reservation, nil
}

func (f *fakeReservationRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

func (f *fakeReservationRepo) FindOverlapping(_ context.Context, resourceID string, status domain.ReservationStatus, start, end time.Time) ([]domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Reservation
	for _, existing := range f.items {
		if existing.ResourceID == resourceID && existing.Status == status && existing.Overlaps(start, end) {
			result = append(result, existing)
		}
	}
	return result, nil
}

func (f *fakeReservationRepo) ListWithFilter(_ context.Context, filter repository.ReservationFilter) ([]domain.Reservation, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []domain.Reservation
	for _, reservation := range f.items {
		if filter.Username != nil && reservation.Username != *filter.Username {
			continue
		}
		if filter.Status != nil && reservation.Status != *filter.Status {
			continue
		}
		if filter.MinPrice != nil && reservation.Price.LessThan(*filter.MinPrice) {
			continue
		}
		if filter.MaxPrice != nil && reservation.Price.GreaterThan(*filter.MaxPrice) {
			continue
		}
		matched = append(matched, reservation)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	offset := filter.Page * filter.Size
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + filter.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

type fakeResourceRepo struct {
	items map[string]domain.Resource
}

func (f *fakeResourceRepo) Create(_ context.Context, resource *domain.Resource) error {
	resource.ID = fmt.Sprintf("res-%03d", len(f.items)+1)
	f.items[resource.ID] = *resource
	return nil
}

func (f *fakeResourceRepo) Update(_ context.Context, resource *domain.Resource) error {
	if _, ok := f.items[resource.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.items[resource.ID] = *resource
	return nil
}

func (f *fakeResourceRepo) GetByID(_ context.Context, id string) (*domain.Resource, error) {
	resource, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &resource, nil
}

func (f *fakeResourceRepo) List(_ context.Context) ([]domain.Resource, error) {
	var result []domain.Resource
	for _, resource := range f.items {
		result = append(result, resource)
	}
	return result, nil
}

func (f *fakeResourceRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

func (f *fakeResourceRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.items)), nil
}

type fakeUserRepo struct {
	items map[string]domain.User
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = fmt.Sprintf("usr-%03d", len(f.items)+1)
	f.items[user.Username] = *user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, user := range f.items {
		if user.ID == id {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	user, ok := f.items[username]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (f *fakeUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, ok := f.items[username]
	return ok, nil
}

// ---- fixture ---------------------------------------------------------------

type fixture struct {
	service      *ReservationService
	reservations *fakeReservationRepo
	roomA        string
}

var (
	alice = domain.Principal{UserID: "usr-001", Username: "alice"}
	bob   = domain.Principal{UserID: "usr-002", Username: "bob"}
	admin = domain.Principal{UserID: "usr-003", Username: "admin", IsAdmin: true}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := &fakeUserRepo{items: map[string]domain.User{
		"alice": {ID: "usr-001", Username: "alice", Role: domain.RoleUser, Enabled: true},
		"bob":   {ID: "usr-002", Username: "bob", Role: domain.RoleUser, Enabled: true},
		"admin": {ID: "usr-003", Username: "admin", Role: domain.RoleAdmin, Enabled: true},
	}}
	resources := &fakeResourceRepo{items: map[string]domain.Resource{
		"res-001": {ID: "res-001", Name: "Conference Room A", Type: "room", Active: true},
	}}
	reservations := newFakeReservationRepo()

	svc := NewReservationService(ReservationDependencies{
		ReservationRepo: reservations,
		ResourceRepo:    resources,
		UserRepo:        users,
	})
	return &fixture{service: svc, reservations: reservations, roomA: "res-001"}
}

func (f *fixture) createInput(start, end string) ReservationCreateInput {
	return ReservationCreateInput{
		ResourceID: f.roomA,
		Price:      decimal.NewFromInt(50),
		StartTime:  start,
		EndTime:    end,
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}

func strPtr(s string) *string { return &s }

func decPtr(d decimal.Decimal) *decimal.Decimal { return &d }

// ---- tests -----------------------------------------------------------------

func TestCreateDefaultsToPending(t *testing.T) {
	f := newFixture(t)

	reservation, err := f.service.Create(context.Background(), alice,
		f.createInput("2030-05-01T10:00:00Z", "2030-05-01T11:00:00Z"), true)
	require.NoError(t, err)

	assert.NotEmpty(t, reservation.ID)
	assert.Equal(t, domain.ReservationStatusPending, reservation.Status)
	assert.Equal(t, "alice", reservation.Username)
	assert.Equal(t, "Conference Room A", reservation.ResourceName)
	assert.True(t, reservation.Price.Equal(decimal.NewFromInt(50)))
}

func TestCreateUnknownResourceNotFound(t *testing.T) {
	f := newFixture(t)

	input := f.createInput("2030-05-01T10:00:00Z", "2030-05-01T11:00:00Z")
	input.ResourceID = "res-missing"

	_, err := f.service.Create(context.Background(), alice, input, true)
	assertCode(t, err, "NOT_FOUND")
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name  string
		input ReservationCreateInput
	}{
		{"inverted range", f.createInput("2030-05-01T11:00:00Z", "2030-05-01T10:00:00Z")},
		{"empty range", f.createInput("2030-05-01T10:00:00Z", "2030-05-01T10:00:00Z")},
		{"malformed timestamp", f.createInput("yesterday", "2030-05-01T11:00:00Z")},
		{"missing end", f.createInput("2030-05-01T10:00:00Z", "")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.Create(context.Background(), alice, tc.input, true)
			assertCode(t, err, "VALIDATION_FAILED")
		})
	}

	negative := f.createInput("2030-05-01T10:00:00Z", "2030-05-01T11:00:00Z")
	negative.Price = decimal.NewFromInt(-1)
	_, err := f.service.Create(context.Background(), alice, negative, true)
	assertCode(t, err, "VALIDATION_FAILED")

	badStatus := f.createInput("2030-05-01T10:00:00Z", "2030-05-01T11:00:00Z")
	badStatus.Status = strPtr("APPROVED")
	_, err = f.service.Create(context.Background(), alice, badStatus, true)
	assertCode(t, err, "VALIDATION_FAILED")

	// rejected requests must leave the store untouched
	assert.Empty(t, f.reservations.items)
}

func TestCreateConflictAgainstConfirmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// alice books 10:00-11:00; a new booking starts out PENDING
	first, err := f.service.Create(ctx, alice,
		f.createInput("2030-05-01T10:00:00Z", "2030-05-01T11:00:00Z"), true)
	require.NoError(t, err)
	require.Equal(t, domain.ReservationStatusPending, first.Status)

	// PENDING bookings do not block anyone
	_, err = f.service.Create(ctx, bob,
		f.createInput("2030-05-01T10:30:00Z", "2030-05-01T11:30:00Z"), true)
	require.NoError(t, err)

	// the admin confirms alice's booking
	_, err = f.service.Update(ctx, first.ID, admin, ReservationUpdateInput{Status: strPtr("CONFIRMED")})
	require.NoError(t, err)

	// now the same colliding range is rejected
	_, err = f.service.Create(ctx, bob,
		f.createInput("2030-05-01T10:15:00Z", "2030-05-01T10:45:00Z"), true)
	assertCode(t, err, "CONFLICT")

	// ranges only touching at the boundary never collide
	_, err = f.service.Create(ctx, bob,
		f.createInput("2030-05-01T11:00:00Z", "2030-05-01T12:00:00Z"), true)
	require.NoError(t, err)
	_, err = f.service.Create(ctx, bob,
		f.createInput("2030-05-01T09:00:00Z", "2030-05-01T10:00:00Z"), true)
	require.NoError(t, err)

	// with the check disabled the collision is admitted
	_, err = f.service.Create(ctx, bob,
		f.createInput("2030-05-01T10:15:00Z", "2030-05-01T10:45:00Z"), false)
	require.NoError(t, err)
}

func TestUpdateConfirmRerunsOverlapCheck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.Create(ctx, alice,
		f.createInput("2030-05-01T10:00:00Z", "2030-05-01T11:00:00Z"), true)
	require.NoError(t, err)
	second, err := f.service.Create(ctx, bob,
		f.createInput("2030-05-01T10:30:00Z", "2030-05-01T11:30:00Z"), true)
	require.NoError(t, err)

	_, err = f.service.Update(ctx, first.ID, admin, ReservationUpdateInput{Status: strPtr("CONFIRMED")})
	require.NoError(t, err)

	// promoting the second into the confirmed slot must fail
	_, err = f.service.Update(ctx, second.ID, admin, ReservationUpdateInput{Status: strPtr("CONFIRMED")})
	assertCode(t, err, "CONFLICT")

	// a confirmed booking updated in place does not collide with itself
	updated, err := f.service.Update(ctx, first.ID, admin, ReservationUpdateInput{Price: decPtr(decimal.NewFromInt(75))})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.NewFromInt(75)))
	assert.Equal(t, domain.ReservationStatusConfirmed, updated.Status)
}

func TestUpdateValidatesMergedRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reservation, err := f.service.Create(ctx, alice,
		f.createInput("2030-05-01T10:00:00Z", "2030-05-01T11:00:00Z"), true)
	require.NoError(t, err)

	// moving only the start past the existing end inverts the range
	_, err = f.service.Update(ctx, reservation.ID, alice, ReservationUpdateInput{
		StartTime: strPtr("2030-05-01T12:00:00Z"),
	})
	assertCode(t, err, "VALIDATION_FAILED")

	// moving both endpoints together is fine
	updated, err := f.service.Update(ctx, reservation.ID, alice, ReservationUpdateInput{
		StartTime: strPtr("2030-05-01T12:00:00Z"),
		EndTime:   strPtr("2030-05-01T13:00:00Z"),
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC), updated.StartTime)
}

func TestOwnershipGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reservation, err := f.service.Create(ctx, alice,
		f.createInput("2030-05-01T10:00:00Z", "2030-05-01T11:00:00Z"), true)
	require.NoError(t, err)

	// owner and admin may read it
	_, err = f.service.GetByID(ctx, reservation.ID, alice)
	require.NoError(t, err)
	_, err = f.service.GetByID(ctx, reservation.ID, admin)
	require.NoError(t, err)

	// other users may not read, update, or delete it
	_, err = f.service.GetByID(ctx, reservation.ID, bob)
	assertCode(t, err, "FORBIDDEN")
	_, err = f.service.Update(ctx, reservation.ID, bob, ReservationUpdateInput{Price: decPtr(decimal.NewFromInt(1))})
	assertCode(t, err, "FORBIDDEN")
	err = f.service.Delete(ctx, reservation.ID, bob)
	assertCode(t, err, "FORBIDDEN")

	// a denied update leaves the record untouched
	unchanged, err := f.service.GetByID(ctx, reservation.ID, alice)
	require.NoError(t, err)
	assert.True(t, unchanged.Price.Equal(decimal.NewFromInt(50)))

	// missing IDs stay NOT_FOUND, not FORBIDDEN
	_, err = f.service.GetByID(ctx, "rsv-999", bob)
	assertCode(t, err, "NOT_FOUND")
}

func TestDeleteRemovesReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reservation, err := f.service.Create(ctx, alice,
		f.createInput("2030-05-01T10:00:00Z", "2030-05-01T11:00:00Z"), true)
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(ctx, reservation.ID, alice))

	err = f.service.Delete(ctx, reservation.ID, alice)
	assertCode(t, err, "NOT_FOUND")
}

func TestListVisibilityAndFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seed := func(principal domain.Principal, price int64, status string) {
		input := f.createInput("2030-05-01T10:00:00Z", "2030-05-01T11:00:00Z")
		input.Price = decimal.NewFromInt(price)
		input.Status = strPtr(status)
		_, err := f.service.Create(ctx, principal, input, false)
		require.NoError(t, err)
	}
	seed(alice, 10, "PENDING")
	seed(alice, 40, "CONFIRMED")
	seed(bob, 70, "CONFIRMED")
	seed(bob, 90, "CANCELLED")

	// non-admins only see their own reservations
	page, err := f.service.List(ctx, alice, ReservationListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalElements)
	for _, item := range page.Items {
		assert.Equal(t, "alice", item.Username)
	}

	// admins see everything
	page, err = f.service.List(ctx, admin, ReservationListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 4, page.TotalElements)

	// filters compose with visibility
	page, err = f.service.List(ctx, bob, ReservationListFilter{Status: strPtr("CONFIRMED")})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].Price.Equal(decimal.NewFromInt(70)))

	minPrice := decimal.NewFromInt(40)
	maxPrice := decimal.NewFromInt(70)
	page, err = f.service.List(ctx, admin, ReservationListFilter{MinPrice: &minPrice, MaxPrice: &maxPrice})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalElements)

	// an unknown status filter is rejected, not silently ignored
	_, err = f.service.List(ctx, admin, ReservationListFilter{Status: strPtr("DONE")})
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestListPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := f.service.Create(ctx, alice,
			f.createInput("2030-05-01T10:00:00Z", "2030-05-01T11:00:00Z"), false)
		require.NoError(t, err)
	}

	page, err := f.service.List(ctx, alice, ReservationListFilter{Page: 0, Size: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.EqualValues(t, 25, page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)

	page, err = f.service.List(ctx, alice, ReservationListFilter{Page: 2, Size: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)

	page, err = f.service.List(ctx, alice, ReservationListFilter{Page: 5, Size: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.EqualValues(t, 25, page.TotalElements)

	// out-of-range inputs are clamped, not rejected
	page, err = f.service.List(ctx, alice, ReservationListFilter{Page: -3, Size: -1})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Page)
	assert.Equal(t, 10, page.Size)
	assert.Len(t, page.Items, 10)
}
