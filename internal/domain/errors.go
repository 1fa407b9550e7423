package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyFeed is wrapped by ParseError when a feed carries no records at all.
var ErrEmptyFeed = errors.New("empty feed")

// TransportError means the upstream could not be reached or answered with an
// HTTP failure after retries. Always fatal to the run.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PagingProtocolError means a page lacked the count/next markers, so the
// cursor cannot be followed.
type PagingProtocolError struct {
	URL    string
	Reason string
}

func (e *PagingProtocolError) Error() string {
	return fmt.Sprintf("paging protocol violation at %s: %s", e.URL, e.Reason)
}

// ParseError is a malformed or schema-violating document.
type ParseError struct {
	Customer string
	Job      string
	Feed     string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("customer %s job %s: error parsing %s feed: %v", e.Customer, e.Job, e.Feed, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
