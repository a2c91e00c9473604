package notion

import (
	"errors"
	"fmt"
)

// Kind classifies a failed fetch cycle.
type Kind string

const (
	KindConfigMissing    Kind = "CONFIG_MISSING"
	KindIDInvalidFormat  Kind = "ID_INVALID_FORMAT"
	KindSourceNotFound   Kind = "SOURCE_NOT_FOUND"
	KindSourceUnreadable Kind = "SOURCE_UNREADABLE"
	KindFetchFailed      Kind = "FETCH_FAILED"
)

// Error is the only error type FetchAllPosts returns.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := "notion: " + string(e.Kind)
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind, so the
// sentinels below can be used with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrConfigMissing    = &Error{Kind: KindConfigMissing}
	ErrIDInvalidFormat  = &Error{Kind: KindIDInvalidFormat}
	ErrSourceNotFound   = &Error{Kind: KindSourceNotFound}
	ErrSourceUnreadable = &Error{Kind: KindSourceUnreadable}
	ErrFetchFailed      = &Error{Kind: KindFetchFailed}

	// ErrPostNotFound is returned by slug lookups that match nothing.
	ErrPostNotFound = errors.New("notion: post not found")

	// ErrMissingToken is returned by NewClient when no credential is configured.
	ErrMissingToken = errors.New("notion: integration token is required")
)

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of err, or "" when err is not a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsUnavailable reports whether err means the content source is not
// provisioned correctly, as opposed to failing right now.
func IsUnavailable(err error) bool {
	switch KindOf(err) {
	case KindConfigMissing, KindIDInvalidFormat, KindSourceNotFound, KindSourceUnreadable:
		return true
	}
	return false
}

// APIError is a non-2xx response from the Notion API.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion api: %d %s: %s", e.Status, e.Code, e.Message)
}

func apiStatus(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}
