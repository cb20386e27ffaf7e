package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"jobpress-engine/internal/domain"
	"jobpress-engine/internal/fingerprint"
	"jobpress-engine/internal/normalize"
	"jobpress-engine/internal/publish"
	"jobpress-engine/internal/retry"
	"jobpress-engine/internal/rewrite"
	"jobpress-engine/internal/store"
)

// ErrAuthRejected is run-fatal: the publish target rejected our credentials,
// which will recur for every listing in the batch.
var ErrAuthRejected = errors.New("publish credentials rejected")

// Pipeline drives each listing through
// normalize -> fingerprint -> reserve -> rewrite -> verify -> publish -> commit.
// Listings are processed independently under a bounded worker pool; one
// listing's failure never touches its siblings.
type Pipeline struct {
	deps Deps
	opts Options

	abortOnce sync.Once
	abortErr  error
	cancelRun context.CancelFunc
}

func New(deps Deps, opts Options) *Pipeline {
	opts.applyDefaults()
	return &Pipeline{deps: deps, opts: opts}
}

// Run processes one batch to completion and returns the finalized summary.
// The error is non-nil only for run-fatal conditions (store unreachable,
// auth rejection); per-listing failures live in the summary.
func (p *Pipeline) Run(ctx context.Context, batch []domain.RawListing) (Summary, error) {
	if p.opts.Limit > 0 && len(batch) > p.opts.Limit {
		batch = batch[:p.opts.Limit]
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.cancelRun = cancel

	reporter := NewReporter()

	var g errgroup.Group
	g.SetLimit(p.opts.Workers)

	for _, raw := range batch {
		g.Go(func() error {
			out := p.processSafe(runCtx, raw)
			reporter.Record(out)
			if out.Status == domain.StatusPublished {
				log.Printf("[pipeline] published %q post_id=%d", out.Title, out.PostID)
			} else {
				log.Printf("[pipeline] %s %q reason=%s", out.Status, out.Title, out.Reason)
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := reporter.Finalize()

	if p.abortErr != nil {
		return summary, p.abortErr
	}
	// an operator abort or run timeout is not an error; the summary already
	// holds the interrupted outcomes
	return summary, nil
}

// abort stops the whole run on a fatal condition; in-flight listings finish
// their current call and land as interrupted.
func (p *Pipeline) abort(err error) {
	p.abortOnce.Do(func() {
		log.Printf("[pipeline] run-fatal: %v", err)
		p.abortErr = err
		if p.cancelRun != nil {
			p.cancelRun()
		}
	})
}

// processSafe isolates a single listing: a panic inside its state machine
// becomes a failed outcome for that listing only.
func (p *Pipeline) processSafe(ctx context.Context, raw domain.RawListing) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[pipeline] listing %q panicked: %v", raw.SourceURL, r)
			out = Outcome{
				Fingerprint: raw.SourceURL,
				Title:       raw.Title,
				Status:      domain.StatusFailed,
				Reason:      domain.ReasonInternalError,
			}
		}
	}()
	return p.process(ctx, raw)
}

func (p *Pipeline) process(ctx context.Context, raw domain.RawListing) Outcome {
	if ctx.Err() != nil {
		return Outcome{
			Fingerprint: raw.SourceURL,
			Title:       raw.Title,
			Status:      domain.StatusFailed,
			Reason:      domain.ReasonInterrupted,
		}
	}

	// Fetched -> Normalized. Failures here never reach the store, so a
	// corrected sighting of the same URL can still succeed later.
	n, err := normalize.Listing(raw)
	if err != nil {
		return Outcome{
			Fingerprint: raw.SourceURL,
			Title:       raw.Title,
			Status:      domain.StatusFailed,
			Reason:      domain.ReasonInvalidListing,
		}
	}

	fp := fingerprint.Compute(n)
	fail := func(reason string) Outcome {
		return Outcome{Fingerprint: fp, Title: n.Title, Status: domain.StatusFailed, Reason: reason}
	}

	// Normalized -> DedupeChecked
	if p.opts.DryRun {
		// read-only dedupe check: a dry run must leave no record behind,
		// or it would shadow the listing from the next real run; with
		// rebuild, a failed record counts as "would be retried"
		rec, seen, err := p.deps.Store.Lookup(ctx, fp)
		if err != nil {
			p.abort(err)
			return fail(domain.ReasonInterrupted)
		}
		if seen && !(p.opts.Rebuild && rec.Status == domain.StatusFailed) {
			return Outcome{Fingerprint: fp, Title: n.Title, Status: domain.StatusSkipped, Reason: domain.ReasonDuplicate}
		}
	} else {
		if p.opts.Rebuild {
			if reset, err := p.deps.Store.ResetFailed(ctx, fp); err != nil {
				p.abort(err)
				return fail(domain.ReasonInterrupted)
			} else if reset {
				log.Printf("[pipeline] rebuild: reset failed record %s", fp)
			}
		}

		created, err := p.deps.Store.Reserve(ctx, fp)
		if err != nil {
			p.abort(err)
			return fail(domain.ReasonInterrupted)
		}
		if !created {
			return Outcome{Fingerprint: fp, Title: n.Title, Status: domain.StatusSkipped, Reason: domain.ReasonDuplicate}
		}
	}

	// DedupeChecked -> Rewritten
	rw, attempts, err := p.rewriteListing(ctx, n)
	if err != nil {
		if ctx.Err() != nil {
			return fail(domain.ReasonInterrupted)
		}
		p.commit(ctx, fp, domain.StatusFailed, 0, attempts, fmt.Sprintf("%s: %v", domain.ReasonRewriteFailed, err))
		return fail(domain.ReasonRewriteFailed)
	}

	// integrity gate: never publish text that lost its facts
	if missing := rewrite.MissingFacts(rw.RewrittenDescription, n.RequiredFacts()); len(missing) > 0 {
		p.commit(ctx, fp, domain.StatusFailed, 0, attempts, fmt.Sprintf("%s: missing %v", domain.ReasonFactLoss, missing))
		return fail(domain.ReasonFactLoss)
	}

	// Rewritten -> Published
	if p.opts.DryRun {
		// publish becomes a no-op success; nothing was reserved or
		// committed, so a real run afterward still processes this listing
		return Outcome{Fingerprint: fp, Title: n.Title, Status: domain.StatusPublished}
	}

	res, pubAttempts, err := p.publishListing(ctx, rw)
	if err != nil {
		if ctx.Err() != nil && !retry.AuthFailure(err) {
			return fail(domain.ReasonInterrupted)
		}
		p.commit(ctx, fp, domain.StatusFailed, 0, attempts+pubAttempts, fmt.Sprintf("%s: %v", domain.ReasonPublishFailed, err))
		if retry.AuthFailure(err) {
			p.abort(fmt.Errorf("%w: %v", ErrAuthRejected, err))
		}
		return fail(domain.ReasonPublishFailed)
	}

	// attempts across both remote stages, so the record shows the full cost
	p.commit(ctx, fp, domain.StatusPublished, res.PostID, attempts+pubAttempts, "")
	return Outcome{Fingerprint: fp, Title: n.Title, Status: domain.StatusPublished, PostID: res.PostID}
}

// rewriteListing runs the description rewrite under the shared retry policy
// and fills in title/excerpt/tips best-effort (falling back to the source
// text when those calls fail; only the description is integrity-critical).
func (p *Pipeline) rewriteListing(ctx context.Context, n domain.NormalizedListing) (domain.RewrittenListing, int, error) {
	rw := domain.RewrittenListing{NormalizedListing: n}
	facts := n.RequiredFacts()

	// the apply link must be part of the rewritten body for the fact
	// check to hold end to end
	input := n.Description + applyBlock(n.ApplyURL)

	var desc string
	attempts, err := p.opts.Retry.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, p.opts.RewriteTimeout)
		defer cancel()

		var rerr error
		desc, rerr = p.deps.Rewriter.Description(callCtx, input, facts)
		return rerr
	})
	if err != nil {
		return rw, attempts, err
	}
	rw.RewrittenDescription = desc

	rw.RewrittenTitle = n.Title
	if t, err := p.deps.Rewriter.Title(ctx, n.Title); err == nil && t != "" {
		rw.RewrittenTitle = t
	}

	excerpt := fmt.Sprintf("%s is hiring a %s in %s.", orUnknown(n.Company), n.Title, orUnknown(n.Location))
	rw.RewrittenExcerpt = excerpt
	if e, err := p.deps.Rewriter.Excerpt(ctx, excerpt); err == nil && e != "" {
		rw.RewrittenExcerpt = e
	}

	if tips, err := p.deps.Rewriter.StandoutTips(ctx, rw.RewrittenTitle, n.Raw.JobField, n.Raw.Qualification); err == nil && tips != "" {
		rw.RewrittenDescription += "<h2>How to Stand Out for This Job</h2>" + tips
	}

	return rw, attempts, nil
}

func (p *Pipeline) publishListing(ctx context.Context, rw domain.RewrittenListing) (domain.PublishResult, int, error) {
	post := publish.Post{
		Title:   rw.RewrittenTitle,
		Content: rw.RewrittenDescription,
		Excerpt: rw.RewrittenExcerpt,
		Status:  p.opts.PostStatus,
		Meta: publish.PostMeta{
			SourceURL: rw.Raw.SourceURL,
			Company:   rw.Company,
			ApplyURL:  rw.ApplyURL,
		},
	}

	if p.deps.Terms != nil {
		// taxonomy is presentation; resolution failures don't block the post
		if ids, err := p.deps.Terms.Resolve(ctx, "categories", rw.Raw.Categories); err == nil {
			post.Categories = ids
		} else {
			log.Printf("[pipeline] category resolve failed for %q: %v", rw.Title, err)
		}
		if ids, err := p.deps.Terms.Resolve(ctx, "tags", rw.Raw.Tags); err == nil {
			post.Tags = ids
		} else {
			log.Printf("[pipeline] tag resolve failed for %q: %v", rw.Title, err)
		}
	}

	var res domain.PublishResult
	attempts, err := p.opts.Retry.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, p.opts.PublishTimeout)
		defer cancel()

		var perr error
		res, perr = p.deps.Publisher.CreatePost(callCtx, post)
		return perr
	})
	return res, attempts, err
}

// commit writes terminal state; a store failure here is run-fatal like any
// other store failure.
func (p *Pipeline) commit(ctx context.Context, fp string, status domain.Status, postID int64, attempts int, lastError string) {
	if p.opts.DryRun {
		return
	}
	// use a background-capable context so a cancelled run can still record
	// outcomes of work that already happened
	cctx := ctx
	if ctx.Err() != nil {
		cctx = context.WithoutCancel(ctx)
	}
	if err := p.deps.Store.Commit(cctx, fp, status, postID, attempts, lastError); err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			p.abort(err)
			return
		}
		log.Printf("[pipeline] commit %s -> %s failed: %v", fp, status, err)
	}
}

func applyBlock(applyURL string) string {
	return "<p><b>How to Apply:</b> <a href='" + applyURL + "'>" + applyURL + "</a></p>"
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
