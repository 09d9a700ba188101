// Package parsererror holds the typed errors surfaced by ingestion, storage
// and remote fetching. Row-level rejections are not errors and never appear here.
package parsererror

import (
	"fmt"
	"strings"
)

// ValidationError reports that a file does not look like the provider's
// export. Problems carries the human-readable findings of the validator.
type ValidationError struct {
	Provider string
	File     string
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return fmt.Sprintf("%s: %s is not a valid export", e.Provider, e.File)
	}
	return fmt.Sprintf("%s: %s is not a valid export: %s",
		e.Provider, e.File, strings.Join(e.Problems, "; "))
}

// UnknownProviderError is returned when a provider id is not registered.
type UnknownProviderError struct {
	ID string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q", e.ID)
}

// UnsupportedFormatError is returned when no dialect of the provider accepts
// the file, by extension or by content.
type UnsupportedFormatError struct {
	Provider string
	File     string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: unsupported file type for %s", e.Provider, e.File)
}

// ParseError wraps a decoding failure of a whole file (malformed JSON,
// unreadable workbook).
type ParseError struct {
	Provider string
	Format   string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to decode %s input: %v", e.Provider, e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StoreError wraps a storage failure. It aborts the batch that hit it.
type StoreError struct {
	Operation string
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Operation, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// FetchError reports a failed call to a provider's remote API.
type FetchError struct {
	Provider string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: fetch failed with status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: fetch failed: %v", e.Provider, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// CategorizationError reports a failing categorization strategy.
type CategorizationError struct {
	Purchase string
	Strategy string
	Err      error
}

func (e *CategorizationError) Error() string {
	return fmt.Sprintf("categorization failed for %s using %s: %v", e.Purchase, e.Strategy, e.Err)
}

func (e *CategorizationError) Unwrap() error {
	return e.Err
}
