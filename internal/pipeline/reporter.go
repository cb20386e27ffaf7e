package pipeline

import (
	"sync"

	"jobpress-engine/internal/domain"
)

// Outcome is the terminal result for a single listing.
type Outcome struct {
	Fingerprint string // source URL when the listing never got a fingerprint
	Title       string
	Status      domain.Status // published | skipped | failed
	Reason      string        // set for skipped/failed
	PostID      int64         // set for published (0 in dry runs)
}

// Failure pairs a fingerprint with the reason it was skipped or failed.
type Failure struct {
	Fingerprint string
	Reason      string
}

// Summary is the immutable result of a finished run.
type Summary struct {
	Published int
	Skipped   int
	Failed    int
	Failures  []Failure // skipped and failed listings, with reasons
}

func (s Summary) Total() int { return s.Published + s.Skipped + s.Failed }

// Reporter accumulates outcomes from workers. It exposes nothing until
// Finalize, so nobody can act on a half-finished run while stragglers are
// still in flight.
type Reporter struct {
	mu        sync.Mutex
	summary   Summary
	finalized bool
}

func NewReporter() *Reporter {
	return &Reporter{}
}

func (r *Reporter) Record(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return
	}

	switch o.Status {
	case domain.StatusPublished:
		r.summary.Published++
	case domain.StatusSkipped:
		r.summary.Skipped++
		r.summary.Failures = append(r.summary.Failures, Failure{Fingerprint: o.Fingerprint, Reason: o.Reason})
	default:
		r.summary.Failed++
		r.summary.Failures = append(r.summary.Failures, Failure{Fingerprint: o.Fingerprint, Reason: o.Reason})
	}
}

// Finalize closes the reporter and returns the summary. Further Records are
// dropped; the returned value never changes.
func (r *Reporter) Finalize() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finalized = true

	out := r.summary
	out.Failures = append([]Failure(nil), r.summary.Failures...)
	return out
}
