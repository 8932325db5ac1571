// SPDX-License-Identifier: AGPL-3.0-or-later

package hostkit

import (
	"context"
	"fmt"
	"sync"

	"rulecraft/pkg/bridge"
	"rulecraft/pkg/node"
	"rulecraft/pkg/rkey"
)

// RuleFunc is the signature a host-registered rule function implements: it
// receives the Host it can use to read argument values and intern a result,
// plus the arguments already resolved to Keys in clause order, and returns
// the Key of the value it produced.
type RuleFunc func(ctx context.Context, h *Host, args []rkey.Key) (rkey.Key, error)

// FuncInvoker is a scheduler.Dispatcher that maps a Runnable's Func to an
// in-process RuleFunc, plus the one built-in mapping every Host needs:
// bridge.ProjectFunction dispatches straight to Host.Project rather than a
// registered function, matching pkg/node.ProjectFieldNode's contract.
type FuncInvoker struct {
	host *Host

	mu       sync.RWMutex
	funcs    map[rkey.Function]RuleFunc
	fallback RuleFunc
}

// NewFuncInvoker builds a FuncInvoker bound to host.
func NewFuncInvoker(host *Host) *FuncInvoker {
	return &FuncInvoker{host: host, funcs: make(map[rkey.Function]RuleFunc)}
}

// Register binds fn to a Function digest, so a Runnable carrying that Func
// is dispatched to it.
func (f *FuncInvoker) Register(fn rkey.Function, impl RuleFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.funcs[fn] = impl
}

// SetFallback installs a RuleFunc invoked for any Func with no Register
// entry, instead of a Throw. `rulecraft resolve` uses this to synthesize a
// placeholder value for every rule a loaded ruleset names, since a ruleset
// file describes a rule's selectors but never its Go implementation.
func (f *FuncInvoker) SetFallback(impl RuleFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallback = impl
}

// Dispatch implements scheduler.Dispatcher. A panic from an unregistered
// field lookup (Project/ProjectMulti) or a misbehaving RuleFunc is recovered
// and reported as a Throw rather than crashing the caller — the scheduler
// has no other way to learn that a demo host's wiring is incomplete for a
// particular subject.
func (f *FuncInvoker) Dispatch(ctx context.Context, r node.Runnable) (result node.Complete) {
	defer func() {
		if rec := recover(); rec != nil {
			result = node.Throw(fmt.Sprintf("hostkit: panic dispatching %s: %v", r.Func, rec))
		}
	}()

	if r.Func == bridge.ProjectFunction {
		return f.dispatchProject(r)
	}

	f.mu.RLock()
	impl, ok := f.funcs[r.Func]
	fallback := f.fallback
	f.mu.RUnlock()
	if !ok {
		if fallback == nil {
			return node.Throw(fmt.Sprintf("hostkit: no function registered for %s", r.Func))
		}
		impl = fallback
	}

	args := make([]rkey.Key, len(r.Args))
	for i, a := range r.Args {
		args[i] = a.Key()
	}

	produced, err := impl(ctx, f.host, args)
	if err != nil {
		return node.Throw(err.Error())
	}
	return node.Return(produced)
}

func (f *FuncInvoker) dispatchProject(r node.Runnable) node.Complete {
	if len(r.Args) != 2 {
		return node.Throw(fmt.Sprintf("hostkit: project requires exactly 2 args, got %d", len(r.Args)))
	}
	value, field := r.Args[0].Key(), r.Args[1].Key()
	return node.Return(f.host.Project(value, field))
}

var _ interface {
	Dispatch(ctx context.Context, r node.Runnable) node.Complete
} = (*FuncInvoker)(nil)
