package postgres

import (
	"context"
	"errors"
	"fmt"
)

// schemaCheckQuery checks for the last table created by the migrations.
const schemaCheckQuery = "SELECT to_regclass('public.pix_transfers') IS NOT NULL"

// HealthCheck implements ports.HealthChecker for PostgreSQL. A reachable
// database without the migrated schema is reported unhealthy.
type HealthCheck struct {
	pool Pool
}

// NewHealthCheck creates a PostgreSQL health checker.
func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

// Ping checks connectivity and that migrations have been applied.
func (h *HealthCheck) Ping(ctx context.Context) error {
	if err := h.pool.Ping(ctx); err != nil {
		return err
	}

	var migrated bool
	if err := h.pool.QueryRow(ctx, schemaCheckQuery).Scan(&migrated); err != nil {
		return fmt.Errorf("probing schema: %w", err)
	}
	if !migrated {
		return errors.New("schema not migrated")
	}
	return nil
}

// Name returns the dependency name.
func (h *HealthCheck) Name() string {
	return "postgresql"
}
