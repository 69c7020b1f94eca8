package animals

import (
	"errors"
	"strings"
)

var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrNotFound         = errors.New("not found")
	ErrWriteRejected    = errors.New("write rejected")
	ErrUpdateRejected   = errors.New("update rejected")
	ErrDeleteRejected   = errors.New("delete rejected")
	ErrInvalidID        = errors.New("invalid id")
	ErrValidation       = errors.New("validation failure")
	ErrMalformedRecord  = errors.New("malformed record")
)

// MsgDeleteNotAcknowledged es el mensaje cuando la tabla responde sin error
// pero con un status distinto de OK.
const MsgDeleteNotAcknowledged = "Deletion did not succeed"

// StoreError lleva el detalle que devolvió la tabla junto al tipo de error.
type StoreError struct {
	Kind  error
	Msg   string
	Cause error
}

func (e *StoreError) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Msg
}

func (e *StoreError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// Rejected envuelve un tipo (ErrWriteRejected, etc.) con el detalle de la tabla.
func Rejected(kind error, storeMessage string) error {
	return &StoreError{Kind: kind, Msg: strings.TrimSpace(storeMessage)}
}

// Unavailable marca un error de transporte/conectividad contra la tabla.
func Unavailable(cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &StoreError{Kind: ErrStoreUnavailable, Msg: msg, Cause: cause}
}

// StoreMessage devuelve el detalle de la tabla, o el texto del error si no lo hay.
func StoreMessage(err error) string {
	if err == nil {
		return ""
	}
	var se *StoreError
	if errors.As(err, &se) {
		return se.Msg
	}
	return err.Error()
}

// Message traduce un error del flujo a un texto para mostrar al usuario.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidID):
		return "Invalid ID type provided."
	case errors.Is(err, ErrNotFound):
		return "No data found for this ID."
	case errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, ErrWriteRejected):
		return "Failed to create new entry: " + StoreMessage(err)
	case errors.Is(err, ErrUpdateRejected):
		return "Update failed: " + StoreMessage(err)
	case errors.Is(err, ErrDeleteRejected):
		if StoreMessage(err) == MsgDeleteNotAcknowledged {
			return MsgDeleteNotAcknowledged
		}
		return "Error deleting animal: " + StoreMessage(err)
	case errors.Is(err, ErrStoreUnavailable):
		return "Failed to fetch data: " + StoreMessage(err)
	case errors.Is(err, ErrMalformedRecord):
		return "Stored data is malformed: " + err.Error()
	default:
		return "internal error"
	}
}

var errLoopingToken = errors.New("scan returned a continuation token twice")
