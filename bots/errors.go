package bots

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch is returned when a page could not be downloaded.
	ErrFetch = errors.New("fetch failed")

	// ErrParse is returned when a card lacks the markup an article needs.
	ErrParse = errors.New("card parse failed")

	// ErrUnresolvableTimestamp is returned for relative times in units other
	// than minutes, hours or days.
	ErrUnresolvableTimestamp = errors.New("unresolvable relative time")

	// ErrInvalidRequest is returned for an unusable crawl request.
	ErrInvalidRequest = errors.New("invalid crawl request")
)

// FetchError describes a failed page download.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrFetch, e.Err}
}

// ParseError describes a card that was skipped.
type ParseError struct {
	Index  int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("card %d: %s", e.Index, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}
