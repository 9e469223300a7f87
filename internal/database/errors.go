package database

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"

	"vidstream/internal/apperr"
)

// MySQL server error numbers
const (
	mysqlDuplicateEntry     = 1062
	mysqlBadNull            = 1048
	mysqlNoReferencedRow    = 1452
	mysqlCheckConstraintErr = 3819
)

// translate maps driver errors onto application error kinds so callers
// never need to know which database is in use
func translate(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Wrap(apperr.KindNotFound, "Not found.", err)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return apperr.Wrap(apperr.KindConflict, "Already exists.", err)
		case sqlite3.ErrConstraintForeignKey:
			return apperr.Wrap(apperr.KindNotFound, "Referenced record not found.", err)
		case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
			return apperr.Wrap(apperr.KindValidation, "Invalid value.", err)
		}
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return apperr.Wrap(apperr.KindConflict, "Already exists.", err)
		case mysqlNoReferencedRow:
			return apperr.Wrap(apperr.KindNotFound, "Referenced record not found.", err)
		case mysqlBadNull, mysqlCheckConstraintErr:
			return apperr.Wrap(apperr.KindValidation, "Invalid value.", err)
		}
	}

	return apperr.Storage(err)
}

func kindLabel(err error) string {
	return apperr.KindOf(err).String()
}
