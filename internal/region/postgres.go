package region

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curbcycle/curbcycle/internal/schedule"
)

// PostgresLookup answers from the zip_counties reference dataset.
type PostgresLookup struct {
	pool *pgxpool.Pool
}

// NewPostgresLookup creates a lookup backed by the reference dataset.
func NewPostgresLookup(pool *pgxpool.Pool) *PostgresLookup {
	return &PostgresLookup{pool: pool}
}

// County implements Lookup.
func (l *PostgresLookup) County(ctx context.Context, zipCode string) (schedule.Region, error) {
	const query = `
		SELECT county, state
		FROM zip_counties
		WHERE zip = $1`

	var county, state string
	err := l.pool.QueryRow(ctx, query, zipCode).Scan(&county, &state)
	if errors.Is(err, pgx.ErrNoRows) {
		return schedule.Region{}, ErrNotFound
	}
	if err != nil {
		return schedule.Region{}, fmt.Errorf("query zip_counties: %w", err)
	}

	// The dataset stores full county names ("Hamilton County").
	county = strings.TrimSuffix(county, " County")

	return schedule.Region{County: county, State: state}, nil
}
