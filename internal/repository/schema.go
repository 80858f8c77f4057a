package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strconv"
	"time"
)

//go:embed schema.sql
var Schema string

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("could not apply schema: %w", err)
	}
	return nil
}

const (
	pqUniqueViolation = "23505"
	pqCheckViolation  = "23514"
	maxIDAttempts     = 5
)

func millisID(now time.Time, bump int) string {
	return strconv.FormatInt(now.UnixMilli()+int64(bump), 10)
}
