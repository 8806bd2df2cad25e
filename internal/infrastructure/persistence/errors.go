package persistence

import (
	"errors"
	"fmt"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// PostgreSQL error codes that mean "try again"
const (
	pgLockNotAvailable     = "55P03"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// TranslateError maps driver and GORM errors onto domain errors. Errors that
// are already domain errors pass through unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s", shared.ErrAlreadyExists, err.Error())
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%w: %s (%s)", shared.ErrContended, pgErr.Message, pgErr.Code)
		case "23505":
			return fmt.Errorf("%w: %s", shared.ErrAlreadyExists, pgErr.Message)
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		if liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked {
			return fmt.Errorf("%w: %s", shared.ErrContended, liteErr.Error())
		}
	}
	return err
}

// notFound translates a lookup error, naming the entity on NOT_FOUND
func notFound(err error, entity string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &shared.DomainError{
			Code:    shared.CodeNotFound,
			Message: fmt.Sprintf("%s %v not found", entity, id),
			Details: map[string]any{"entity": entity, "id": id},
		}
	}
	return TranslateError(err)
}
