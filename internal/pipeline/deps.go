package pipeline

import (
	"context"
	"time"

	"jobpress-engine/internal/domain"
	"jobpress-engine/internal/publish"
	"jobpress-engine/internal/retry"
)

// FingerprintStore is the durability contract the orchestrator drives. Every
// mutation of shared state goes through Reserve/Commit; nothing else is
// shared between workers.
type FingerprintStore interface {
	Lookup(ctx context.Context, fp string) (domain.DedupeRecord, bool, error)
	Reserve(ctx context.Context, fp string) (bool, error)
	Commit(ctx context.Context, fp string, status domain.Status, postID int64, attempts int, lastError string) error
	ResetFailed(ctx context.Context, fp string) (bool, error)
}

// Rewriter turns source text into publishable text.
type Rewriter interface {
	Description(ctx context.Context, html string, facts []string) (string, error)
	Title(ctx context.Context, original string) (string, error)
	Excerpt(ctx context.Context, original string) (string, error)
	StandoutTips(ctx context.Context, title, field, qualification string) (string, error)
}

// Publisher creates remote posts.
type Publisher interface {
	CreatePost(ctx context.Context, p publish.Post) (domain.PublishResult, error)
}

// TermLookup resolves category/tag names to remote term ids. May be nil,
// in which case posts are published without taxonomy.
type TermLookup interface {
	Resolve(ctx context.Context, taxonomy string, names []string) ([]int64, error)
}

// Deps wires the external collaborators into the orchestrator.
type Deps struct {
	Store     FingerprintStore
	Rewriter  Rewriter
	Publisher Publisher
	Terms     TermLookup
}

// Options tune one run.
type Options struct {
	Workers        int
	Limit          int  // 0 = no cap
	DryRun         bool // full pass, no publish, no commits
	Rebuild        bool // reset failed records before reserving
	PostStatus     string
	RewriteTimeout time.Duration
	PublishTimeout time.Duration
	Retry          retry.Policy
}

func (o *Options) applyDefaults() {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.PostStatus == "" {
		o.PostStatus = "publish"
	}
	if o.RewriteTimeout <= 0 {
		o.RewriteTimeout = 30 * time.Second
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = 15 * time.Second
	}
	if o.Retry.MaxAttempts <= 0 {
		o.Retry = retry.DefaultPolicy()
	}
}
