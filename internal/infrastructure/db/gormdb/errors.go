package gormdb

import (
	"errors"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/etiya/crm-api/internal/core/domain"
)

var errMissingReference = domain.Invalid("referenced record does not exist")

// translateError maps driver errors onto the domain error kinds. GORM's own
// translation covers SQLite and pgx; lib/pq errors are matched by SQLSTATE.
func translateError(err, notFound, conflict error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return conflict
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return errMissingReference
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return conflict
		case "23503":
			return errMissingReference
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return conflict
		case sqlite3.ErrConstraintForeignKey:
			return errMissingReference
		}
	}
	return err
}
