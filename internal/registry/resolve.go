package registry

import (
	"context"
	"fmt"

	"github.com/verte-zerg/notabot/internal/challenge"
)

// ResolutionState tags a Resolution.
type ResolutionState int

const (
	Pending ResolutionState = iota
	Ready
	Failed
)

func (s ResolutionState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Resolution is the tagged outcome of resolving a unit.
type Resolution struct {
	State   ResolutionState
	Factory challenge.Factory
	Err     error
}

// Status reports the cached resolution for id without blocking.
// Unknown ids fail immediately; ids whose loader has not finished are Pending.
func (r *Registry) Status(id int) Resolution {
	if _, ok := r.positions[id]; !ok {
		return Resolution{State: Failed, Err: fmt.Errorf("%w: %d", ErrNotFound, id)}
	}
	r.mu.RLock()
	res, ok := r.resolved[id]
	r.mu.RUnlock()
	if ok {
		return res
	}
	if _, ok := r.loaders[id]; !ok {
		return r.unknownUnit(id)
	}
	return Resolution{State: Pending}
}

// Resolve runs the loader for id at most once; concurrent callers share the run.
// Failures are cached like successes so a broken unit is not retried mid-run.
func (r *Registry) Resolve(ctx context.Context, id int) Resolution {
	if res := r.Status(id); res.State != Pending {
		return res
	}
	v, _, _ := r.group.Do(fmt.Sprint(id), func() (any, error) {
		if res := r.Status(id); res.State != Pending {
			return res, nil
		}
		res := r.load(ctx, id)
		if ctx.Err() != nil && res.State == Failed {
			// Cancelled callers must not poison the cache for later mounts.
			return res, nil
		}
		r.mu.Lock()
		r.resolved[id] = res
		r.mu.Unlock()
		return res, nil
	})
	return v.(Resolution)
}

func (r *Registry) load(ctx context.Context, id int) (res Resolution) {
	defer func() {
		if p := recover(); p != nil {
			res = Resolution{State: Failed, Err: fmt.Errorf("loader for challenge %d panicked: %v", id, p)}
		}
	}()
	factory, err := r.loaders[id](ctx)
	if err != nil {
		return Resolution{State: Failed, Err: fmt.Errorf("load challenge %d: %w", id, err)}
	}
	if factory == nil {
		return Resolution{State: Failed, Err: fmt.Errorf("load challenge %d: loader returned no factory", id)}
	}
	return Resolution{State: Ready, Factory: factory}
}

func (r *Registry) unknownUnit(id int) Resolution {
	d := r.descriptors[r.positions[id]]
	return Resolution{State: Failed, Err: fmt.Errorf("%w: %q (challenge %d)", ErrUnknownUnit, d.Unit, id)}
}
