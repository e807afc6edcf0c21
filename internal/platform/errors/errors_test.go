package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want int
	}{
		{NotFoundf("job %s not found", "j-1"), http.StatusNotFound},
		{InvalidArgf("unknown refinement module %q", "x"), http.StatusUnprocessableEntity},
		{New(ErrorCodeValidation, "imageData is a required field"), http.StatusBadRequest},
		{JSONErrf("empty body"), http.StatusBadRequest},
		{Conflictf("job is active"), http.StatusConflict},
		{Unavailablef("provider down"), http.StatusServiceUnavailable},
		{New(ErrorCodeTooManyRequests, "slow down"), http.StatusTooManyRequests},
		{PanicErrf("boom"), http.StatusInternalServerError},
		{stderrs.New("foreign"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestWrap_ChainAndWire(t *testing.T) {
	t.Parallel()

	cause := stderrs.New("dial tcp: refused")
	err := fmt.Errorf("tier1: %w", Wrapf(cause, ErrorCodeUnavailable, "classify with %s", "gemini"))

	if !stderrs.Is(err, cause) {
		t.Fatalf("cause lost")
	}
	if !IsCode(err, ErrorCodeUnavailable) {
		t.Fatalf("code = %v", CodeOf(err))
	}
	if got := err.Error(); got != "tier1: classify with gemini: dial tcp: refused" {
		t.Fatalf("Error() = %q", got)
	}
	w := WireFrom(err)
	if w.Code != ErrorCodeUnavailable || w.Message != "classify with gemini" {
		t.Fatalf("wire = %+v", w)
	}
	if (WireFrom(nil) != Wire{}) {
		t.Fatalf("nil should give zero wire")
	}
	if w := WireFrom(stderrs.New("raw")); w.Code != ErrorCodeUnknown || w.Message != "raw" {
		t.Fatalf("foreign wire = %+v", w)
	}
}

func TestFromPostgres(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"no rows", pgx.ErrNoRows, ErrorCodeNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, ErrorCodeConflict},
		{"bad uuid", &pgconn.PgError{Code: "22P02"}, ErrorCodeInvalidArgument},
		{"serialization", &pgconn.PgError{Code: "40001"}, ErrorCodeUnavailable},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, ErrorCodeUnavailable},
		{"connection", &pgconn.PgError{Code: "08006"}, ErrorCodeUnavailable},
		{"syntax", &pgconn.PgError{Code: "42601"}, ErrorCodeDB},
		{"foreign", stderrs.New("???"), ErrorCodeDB},
	}
	for _, tc := range cases {
		err := FromPostgres(fmt.Errorf("scan: %w", tc.err), "select tier2 job")
		if got := CodeOf(err); got != tc.want {
			t.Errorf("%s: code = %v, want %v", tc.name, got, tc.want)
		}
	}
	if FromPostgres(nil, "x") != nil {
		t.Fatalf("nil in, nil out")
	}
}
