package models

import "errors"

// Domain errors represent pipeline failures the caller must tell apart.
// Per-page extraction degrade is deliberately absent: it is recovered
// inside the extractor and never surfaces as an error.
var (
	// ErrSourceUnreadable indicates the uploaded PDF could not be opened.
	// Fatal to that ingestion; nothing is written to the index.
	ErrSourceUnreadable = errors.New("source unreadable")

	// ErrUnauthorizedScope indicates every requested document filter
	// belongs to another user. Distinct from an empty result set.
	ErrUnauthorizedScope = errors.New("unauthorized document scope")

	// ErrSynthesisFailed indicates the completion call failed. Fatal to
	// that conversation turn.
	ErrSynthesisFailed = errors.New("answer synthesis failed")

	// ErrIndexUnavailable indicates the vector store is unreachable.
	// There is no fallback to unindexed search.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrNotFound indicates a requested entity does not exist or is not
	// owned by the requesting user.
	ErrNotFound = errors.New("not found")
)
