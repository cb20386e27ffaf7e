package pipeline

import (
	"sync"
	"testing"

	"jobpress-engine/internal/domain"
)

func TestReporterCounts(t *testing.T) {
	r := NewReporter()
	r.Record(Outcome{Fingerprint: "a", Status: domain.StatusPublished, PostID: 1})
	r.Record(Outcome{Fingerprint: "b", Status: domain.StatusSkipped, Reason: domain.ReasonDuplicate})
	r.Record(Outcome{Fingerprint: "c", Status: domain.StatusFailed, Reason: domain.ReasonRewriteFailed})

	s := r.Finalize()
	if s.Published != 1 || s.Skipped != 1 || s.Failed != 1 || s.Total() != 3 {
		t.Fatalf("summary = %+v", s)
	}
	if len(s.Failures) != 2 {
		t.Fatalf("failures = %+v", s.Failures)
	}
}

func TestReporterDropsRecordsAfterFinalize(t *testing.T) {
	r := NewReporter()
	r.Record(Outcome{Fingerprint: "a", Status: domain.StatusPublished})
	s := r.Finalize()

	r.Record(Outcome{Fingerprint: "late", Status: domain.StatusFailed, Reason: domain.ReasonInternalError})
	s2 := r.Finalize()
	if s2.Failed != 0 || s2.Published != s.Published {
		t.Fatalf("late record mutated the summary: %+v", s2)
	}
}

func TestReporterFinalizeSnapshotIsStable(t *testing.T) {
	r := NewReporter()
	r.Record(Outcome{Fingerprint: "a", Status: domain.StatusFailed, Reason: domain.ReasonFactLoss})
	s := r.Finalize()

	s.Failures[0].Reason = "mutated"
	if got := r.Finalize().Failures[0].Reason; got != domain.ReasonFactLoss {
		t.Fatalf("caller mutation leaked into the reporter: %q", got)
	}
}

func TestReporterConcurrentRecords(t *testing.T) {
	r := NewReporter()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Record(Outcome{Fingerprint: "x", Status: domain.StatusPublished})
		}()
	}
	wg.Wait()
	if s := r.Finalize(); s.Published != 100 {
		t.Fatalf("Published = %d, want 100", s.Published)
	}
}
