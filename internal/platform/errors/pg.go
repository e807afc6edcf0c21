package errors

import (
	stderrs "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// FromPostgres wraps a job store error with a code picked from its SQLSTATE class
// pgx.ErrNoRows is NotFound, contention and connection classes are Unavailable so callers retry
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	if stderrs.Is(err, pgx.ErrNoRows) {
		return Wrap(err, ErrorCodeNotFound, msg)
	}
	var pgErr *pgconn.PgError
	if !stderrs.As(err, &pgErr) {
		if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
			return Wrap(err, ErrorCodeUnavailable, msg)
		}
		return Wrap(err, ErrorCodeDB, msg)
	}
	switch {
	case pgErr.Code == "23505":
		return Wrap(err, ErrorCodeConflict, msg)
	case pgErr.Code == "22P02", pgErr.Code == "22001", pgErr.Code == "23514":
		return Wrap(err, ErrorCodeInvalidArgument, msg)
	case pgErr.Code == "40001", pgErr.Code == "40P01", pgErr.Code == "55P03":
		return Wrap(err, ErrorCodeUnavailable, msg)
	case len(pgErr.Code) == 5 && (pgErr.Code[:2] == "08" || pgErr.Code[:2] == "57"):
		return Wrap(err, ErrorCodeUnavailable, msg)
	}
	return Wrap(err, ErrorCodeDB, msg)
}
