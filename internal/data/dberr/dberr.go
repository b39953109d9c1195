package dberr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrConflict   = errors.New("conflicting record")
	ErrReferenced = errors.New("record is still referenced")
	ErrRetryable  = errors.New("transient storage failure")
	ErrStorage    = errors.New("storage failure")
)

// Map tags a gorm/pgx failure with one of the sentinels above while keeping
// the original error in the chain.
func Map(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %w", op, ErrRetryable, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return fmt.Errorf("%s: %w: %w", op, ErrConflict, err) // unique_violation
		case "23503":
			return fmt.Errorf("%s: %w: %w", op, ErrReferenced, err) // foreign_key_violation
		case "40001", "40P01", "55P03", "57P01":
			return fmt.Errorf("%s: %w: %w", op, ErrRetryable, err)
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "foreign key"):
		return fmt.Errorf("%s: %w: %w", op, ErrReferenced, err)
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "unique constraint"):
		return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "connection refused"):
		return fmt.Errorf("%s: %w: %w", op, ErrRetryable, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
