// Package errs carries the coded infrastructure errors of the store. Codes
// read <component>.<operation>.<reason>; the trailing reason drives
// classification and HTTP mapping.
package errs

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeStoreOpenFailure        Code = "store.open.failure"
	CodeStoreSchemaFailure      Code = "store.schema.failure"
	CodeStoreDatabaseFailure    Code = "store.database.failure"
	CodeStoreIndexFailure       Code = "store.index.failure"
	CodeStoreRecordNotFound     Code = "store.record.not_found"
	CodeStoreInvalidInput       Code = "store.record.invalid_input"
	CodeStoreBackendUnsupported Code = "store.backend.unsupported"

	CodeMigrateApplyFailure Code = "migrate.apply.failure"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeServerStartFailure    Code = "server.start.failure"
	CodeServerShutdownFailure Code = "server.shutdown.failure"

	CodeCLIInputInvalid Code = "cli.input.invalid"
)

// Attr is a structured key/value attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates an Attr.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// New creates a coded error.
func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

// Wrap annotates err with a code, message and fields. A nil err stays nil.
func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}
	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

// Wrapf annotates err with a code and a formatted message.
func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return oops.Code(code).Wrapf(err, format, args...)
}

// CodeOf returns the outermost code attached to err, or "".
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	switch code := oopsErr.Code().(type) {
	case Code:
		return code
	case string:
		return Code(code)
	case nil:
		return ""
	default:
		return Code(fmt.Sprintf("%v", code))
	}
}

// FieldsOf returns the structured context attached to err.
func FieldsOf(err error) map[string]any {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}
	return oopsErr.Context()
}

// HasCode reports whether err carries code.
func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value"
}

// HTTPStatus maps a coded error to a status code.
func HTTPStatus(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsInvalidInput(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	s := string(code)
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[i+1:]
	}
	return s
}
