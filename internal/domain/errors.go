package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidSymbol = errors.New("invalid symbol")
)

// ErrorKind classifies why a quote could not be produced.
type ErrorKind string

const (
	KindTransport        ErrorKind = "transport"
	KindParse            ErrorKind = "parse"
	KindValidation       ErrorKind = "validation"
	KindAllSourcesFailed ErrorKind = "all_sources_failed"
)

// FetchError is returned by quote providers.
type FetchError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func TransportError(provider string, err error) error {
	return &FetchError{Provider: provider, Kind: KindTransport, Err: err}
}

func ParseError(provider string, err error) error {
	return &FetchError{Provider: provider, Kind: KindParse, Err: err}
}

func ValidationError(provider string, err error) error {
	return &FetchError{Provider: provider, Kind: KindValidation, Err: err}
}

// KindOf reports the ErrorKind carried by err, defaulting to KindTransport
// for errors that did not come from a provider parser.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindTransport
}
