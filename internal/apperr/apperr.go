// Package apperr holds the error type surfaced to users of the API client:
// a failure kind, the HTTP status it came from, and a localized message.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure independently of the resource that produced it
type Kind int

const (
	KindUnexpected Kind = iota
	KindInvalidCredentials
	KindAccessDenied
	KindNotFound
	KindConflict
	KindBadRequest
	KindServerError
	KindNoStoredCredentials
	KindAmbiguousRole
	KindNetwork
)

var kindNames = map[Kind]string{
	KindUnexpected:          "unexpected",
	KindInvalidCredentials:  "invalid-credentials",
	KindAccessDenied:        "access-denied",
	KindNotFound:            "not-found",
	KindConflict:            "conflict",
	KindBadRequest:          "bad-request",
	KindServerError:         "server-error",
	KindNoStoredCredentials: "no-credentials",
	KindAmbiguousRole:       "ambiguous-role",
	KindNetwork:             "network",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// AppError is a user-displayable failure. Msg is safe to print; Base and
// Description carry the underlying cause for logs and errors.Is/As.
type AppError struct {
	Kind        Kind
	Code        int
	Msg         string
	Base        error  `json:"-"`
	Description string `json:"-"`
}

func (err *AppError) Error() string {
	return err.Msg
}

func (err *AppError) Unwrap() error {
	return err.Base
}

// Is matches another *AppError of the same kind, so errors.Is(err, apperr.New(KindNotFound, ""))
// works without comparing messages.
func (err *AppError) Is(target error) bool {
	var targetAppErr *AppError
	if !errors.As(target, &targetAppErr) {
		return false
	}
	return targetAppErr.Kind == err.Kind
}

// Wrap records the underlying cause and a free-form description
func (err *AppError) Wrap(baseErr error, desc string) *AppError {
	err.Base = baseErr
	err.Description = desc
	return err
}

// IsInternalError reports whether the failure came from a 5xx response
func (err *AppError) IsInternalError() bool {
	return err.Code/100 == 5
}

// New builds an AppError of the given kind with an explicit message
func New(kind Kind, msg string) *AppError {
	return &AppError{Kind: kind, Msg: msg}
}

// NewNoStoredCredentials is returned when an operation needs a session and none is stored
func NewNoStoredCredentials() *AppError {
	return &AppError{Kind: KindNoStoredCredentials, Msg: "Aucune session active. Veuillez vous connecter."}
}

// NewAmbiguousRole is returned when strict role inference refuses to guess
func NewAmbiguousRole() *AppError {
	return &AppError{Kind: KindAmbiguousRole, Msg: "Impossible de déterminer votre rôle. Contactez un administrateur."}
}

// NewNetwork wraps a transport-level failure (no HTTP response at all)
func NewNetwork(err error) *AppError {
	return (&AppError{Kind: KindNetwork, Msg: fmt.Sprintf("Erreur: %v", err)}).Wrap(err, "")
}

// KindFromStatus maps an HTTP status code to a failure kind
func KindFromStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindInvalidCredentials
	case status == http.StatusForbidden:
		return KindAccessDenied
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusBadRequest:
		return KindBadRequest
	case status >= 500:
		return KindServerError
	default:
		return KindUnexpected
	}
}

// FromStatus builds the AppError for a non-2xx response of the given resource.
// body is kept in Description only.
func FromStatus(resource Resource, status int, body string) *AppError {
	kind := KindFromStatus(status)
	return &AppError{
		Kind:        kind,
		Code:        status,
		Msg:         resource.message(kind, status),
		Description: body,
	}
}

// StatusCode extracts the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return 0
}

// KindOf extracts the kind carried by err, or KindUnexpected
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnexpected
}
