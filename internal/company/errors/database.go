package errors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes recognised by FromDatabase.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidTextRep      = "22P02"
	pgNotNullViolation    = "23502"
)

const (
	msgConflict      = "a record with these values already exists"
	msgForeignKey    = "related entity not found"
	msgInvalidFormat = "invalid format for one of the fields"
	msgMissingField  = "a required field is missing"
	msgDefault       = "internal server error"
)

// FromDatabase classifies a persistence failure. The vendor code decides the
// Kind and the user message; the driver's own text goes to Detail only.
// Unrecognised failures become INTERNAL with defaultMessage.
// A nil err yields nil.
func FromDatabase(err error, defaultMessage string) *Error {
	if err == nil {
		return nil
	}
	if defaultMessage == "" {
		defaultMessage = msgDefault
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		detail := pgErr.Detail
		if detail == "" {
			detail = pgErr.Message
		}
		return fromCode(pgErr.Code, detail, defaultMessage, err)
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fromCode(pgUniqueViolation, err.Error(), defaultMessage, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fromCode(pgForeignKeyViolation, err.Error(), defaultMessage, err)
	}

	return &Error{
		Kind:    KindInternal,
		Message: defaultMessage,
		Detail:  err.Error(),
		Err:     err,
	}
}

func fromCode(code, detail, defaultMessage string, cause error) *Error {
	out := &Error{Detail: detail, Err: cause}
	switch code {
	case pgUniqueViolation:
		out.Kind, out.Message = KindConflict, msgConflict
	case pgForeignKeyViolation:
		out.Kind, out.Message = KindBadRequest, msgForeignKey
	case pgInvalidTextRep:
		out.Kind, out.Message = KindBadRequest, msgInvalidFormat
	case pgNotNullViolation:
		out.Kind, out.Message = KindBadRequest, msgMissingField
	default:
		out.Kind, out.Message = KindInternal, defaultMessage
	}
	return out
}
