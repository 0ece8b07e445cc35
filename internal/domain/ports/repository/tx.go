package repository

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

// TransactionManager executes fn within a database transaction and hands the
// transaction handle to repositories through tx.
//
// The ctx passed to fn carries a commit hook list: work registered with
// AfterCommit runs only once the outermost transaction has committed, and is
// discarded on rollback. Repositories MUST accept a nil tx (non-transactional
// path).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

type commitHooksKey struct{}

// CommitHooks collects callbacks to run after a successful commit.
type CommitHooks struct {
	mu  sync.Mutex
	fns []func(ctx context.Context)
}

// WithCommitHooks attaches a fresh hook list to ctx. When ctx already carries
// one (nested transaction scope) it is returned unchanged with nil hooks, so
// only the outermost scope fires.
func WithCommitHooks(ctx context.Context) (context.Context, *CommitHooks) {
	if _, ok := ctx.Value(commitHooksKey{}).(*CommitHooks); ok {
		return ctx, nil
	}
	h := &CommitHooks{}
	return context.WithValue(ctx, commitHooksKey{}, h), h
}

// AfterCommit registers fn to run after the surrounding transaction commits.
// Outside a transaction scope fn runs immediately.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if h, ok := ctx.Value(commitHooksKey{}).(*CommitHooks); ok {
		h.mu.Lock()
		h.fns = append(h.fns, fn)
		h.mu.Unlock()
		return
	}
	fn(ctx)
}

// Fire runs the registered hooks in registration order. Safe on nil.
func (h *CommitHooks) Fire(ctx context.Context) {
	if h == nil {
		return
	}
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()

	// Hooks must not observe the finished transaction's scope.
	ctx = context.WithValue(ctx, commitHooksKey{}, nil)
	for _, fn := range fns {
		fn(ctx)
	}
}
