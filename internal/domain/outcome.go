package domain

import "time"

// Status is the lifecycle of a dedupe record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Failure/skip reasons surfaced in the run summary. Operators filter on
// these, so they stay specific (a rate-limit backlog reads differently from
// a credential problem).
const (
	ReasonInvalidListing = "invalid-listing"
	ReasonDuplicate      = "duplicate"
	ReasonRewriteFailed  = "rewrite-failed"
	ReasonFactLoss       = "fact-loss"
	ReasonPublishFailed  = "publish-failed"
	ReasonInterrupted    = "interrupted"
	ReasonInternalError  = "internal-error"
)

// DedupeRecord is the persisted row keyed by fingerprint. At most one exists
// per fingerprint; only the orchestrator mutates it.
type DedupeRecord struct {
	Fingerprint string
	Status      Status
	PostID      int64 // remote post id, set only when published
	Attempts    int
	LastError   string // set only when failed
	LastAttempt time.Time
}

// PublishResult is the outcome of one publish attempt. It is never persisted
// directly; the orchestrator folds it into the DedupeRecord.
type PublishResult struct {
	PostID int64
}
