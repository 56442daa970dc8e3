// Package apperr porte la taxonomie d'erreurs métier. Les moteurs ne
// renvoient que des *Error ; la couche HTTP traduit Kind en code de statut.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidArgument   Kind = "invalid_argument"
	KindInsufficientStock Kind = "insufficient_stock"
	KindForbidden         Kind = "forbidden"
	KindAlreadyPaid       Kind = "already_paid"
	KindAlreadyDelivered  Kind = "already_delivered"
	KindConflict          Kind = "conflict"
	KindInternal          Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func InvalidArgument(format string, args ...any) *Error {
	return New(KindInvalidArgument, format, args...)
}

func InsufficientStock(format string, args ...any) *Error {
	return New(KindInsufficientStock, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, format, args...)
}

func AlreadyPaid(format string, args ...any) *Error {
	return New(KindAlreadyPaid, format, args...)
}

func AlreadyDelivered(format string, args ...any) *Error {
	return New(KindAlreadyDelivered, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

// Internal enveloppe une erreur de stockage sans exposer son détail au client.
func Internal(err error, format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf renvoie la Kind d'une erreur, KindInternal pour tout inclassé.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind teste la Kind sans exposer le type aux appelants.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// PublicMessage renvoie le message montrable au client. Les erreurs internes
// sont masquées derrière un message générique.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "Erreur interne du serveur"
}

// HTTPStatus traduit la Kind en code HTTP. InsufficientStock et les gardes
// d'idempotence sont des erreurs client, donc 400 ; Conflict en 409.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidArgument, KindInsufficientStock, KindAlreadyPaid, KindAlreadyDelivered:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
