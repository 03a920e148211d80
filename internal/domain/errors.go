package domain

import "errors"

// Fill-extraction errors (handled locally by dropping the fill; never propagated)
var (
	// ErrInvalidFill is returned when a fill's date cannot be parsed or its
	// days-supply is non-positive. Fills failing this check are dropped.
	ErrInvalidFill = errors.New("invalid fill: unparseable date or non-positive days supply")
)

// Orchestration errors (surfaced per-item, never raised out of calculations)
var (
	// ErrNoQualifyingDispenses is returned when a patient has no MA-qualifying
	// fills in the measurement year. Not an exception: callers receive a
	// structured result with an empty measures list.
	ErrNoQualifyingDispenses = errors.New("no MA-qualifying dispenses in measurement year")

	// ErrStoreRead is returned when fetching dispenses for a patient fails.
	ErrStoreRead = errors.New("dispense store read failed")

	// ErrStoreWrite is returned when persisting an observation fails.
	ErrStoreWrite = errors.New("observation store write failed")

	// ErrSummaryUpdate is returned when writing the patient-level summary
	// fails. Does not invalidate observations already written.
	ErrSummaryUpdate = errors.New("patient summary update failed")
)

// ErrPatientNotFound mirrors a not-found result from the patient store.
var ErrPatientNotFound = errors.New("patient not found")
