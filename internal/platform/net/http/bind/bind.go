// Package bind decodes and validates json request bodies
package bind

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entrans "github.com/go-playground/validator/v10/translations/en"

	perr "worlddex/internal/platform/errors"
)

// JSONOptions controls ParseJSON
type JSONOptions struct {
	MaxBytes        int64 // zero means 1MiB
	DisallowUnknown bool
}

// Validator pairs the validate instance with its english translator
type Validator struct {
	V     *validator.Validate
	Trans ut.Translator
}

var (
	once   sync.Once
	shared Validator
)

// Get returns the process validator, field names in messages are json tag names
func Get() Validator {
	once.Do(func() {
		loc := en.New()
		trans, _ := ut.New(loc, loc).GetTranslator("en")
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = entrans.RegisterDefaultTranslations(v, trans)
		short(v, trans, "min", "{0} must be at least {1}")
		short(v, trans, "max", "{0} must be at most {1}")
		short(v, trans, "gte", "{0} must be at least {1}")
		short(v, trans, "lte", "{0} must be at most {1}")
		shared = Validator{V: v, Trans: trans}
	})
	return shared
}

// short swaps the stock message for tag with a terser one
func short(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}

// ParseJSON reads one json value into T and validates it
// oversize, empty and trailing bodies fail as ErrorCodeJSON, rule violations as ErrorCodeValidation
func ParseJSON[T any](r *http.Request, opts JSONOptions) (T, error) {
	var zero T
	limit := opts.MaxBytes
	if limit <= 0 {
		limit = 1 << 20
	}
	defer func() { _ = r.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return zero, perr.Wrap(err, perr.ErrorCodeJSON, "read body")
	}
	if int64(len(raw)) > limit {
		return zero, perr.JSONErrf("body exceeds %d bytes", limit)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return zero, perr.JSONErrf("empty body")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if opts.DisallowUnknown {
		dec.DisallowUnknownFields()
	}
	var dst T
	if err := dec.Decode(&dst); err != nil {
		return zero, perr.JSONErrf("invalid JSON: %v", err)
	}
	if dec.More() {
		return zero, perr.JSONErrf("unexpected trailing data")
	}

	if err := Get().V.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			// non struct T, nothing to validate
			return dst, nil
		}
		return zero, perr.New(perr.ErrorCodeValidation, ve[0].Translate(Get().Trans))
	}
	return dst, nil
}
