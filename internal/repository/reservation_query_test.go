package repository

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/booking-service/internal/domain"
)

func TestBuildFilterClausesMatchAllWhenEmpty(t *testing.T) {
	clauses, args := buildFilterClauses(ReservationFilter{})
	assert.Equal(t, []string{"1=1"}, clauses)
	assert.Empty(t, args)
}

func TestBuildFilterClausesAllPredicates(t *testing.T) {
	username := "alice"
	status := domain.ReservationStatusConfirmed
	minPrice := decimal.NewFromInt(10)
	maxPrice := decimal.NewFromInt(50)

	clauses, args := buildFilterClauses(ReservationFilter{
		Username: &username,
		Status:   &status,
		MinPrice: &minPrice,
		MaxPrice: &maxPrice,
	})

	require.Equal(t, []string{
		"1=1",
		"u.username=$1",
		"r.status=$2",
		"r.price >= $3",
		"r.price <= $4",
	}, clauses)
	require.Len(t, args, 4)
	assert.Equal(t, username, args[0])
	assert.Equal(t, status, args[1])
	assert.Equal(t, minPrice, args[2])
	assert.Equal(t, maxPrice, args[3])
}

func TestBuildFilterClausesIndependentPredicates(t *testing.T) {
	maxPrice := decimal.NewFromFloat(99.99)
	clauses, args := buildFilterClauses(ReservationFilter{MaxPrice: &maxPrice})

	assert.Equal(t, []string{"1=1", "r.price <= $1"}, clauses)
	require.Len(t, args, 1)
	assert.Equal(t, maxPrice, args[0])
}

func TestBuildOrderBy(t *testing.T) {
	cases := []struct {
		sort string
		want string
	}{
		{"", "r.created_at DESC"},
		{"price", "r.price DESC"},
		{"price,asc", "r.price ASC"},
		{"price,ASC", "r.price ASC"},
		{"startTime,desc", "r.start_time DESC"},
		{"createdAt,asc", "r.created_at ASC"},
		{"nonexistent,asc", "r.created_at DESC"},
		{"created_at; DROP TABLE reservations", "r.created_at DESC"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, buildOrderBy(tc.sort), "sort=%q", tc.sort)
	}
}

func TestNormalizePage(t *testing.T) {
	page, size := normalizePage(-5, -1)
	assert.Equal(t, 0, page)
	assert.Equal(t, 10, size)

	page, size = normalizePage(2, 25)
	assert.Equal(t, 2, page)
	assert.Equal(t, 25, size)

	_, size = normalizePage(0, 5000)
	assert.Equal(t, 100, size)
}
