// SPDX-License-Identifier: AGPL-3.0-or-later

/*
rulecraft is a Go library implementing the rule-resolution core of a
declarative build engine: a selector algebra, node state machine, and
rule registry evaluated lazily over a dependency graph.
*/

// Package scheduler drives the pure node.Step state machine to
// completion: a single-threaded, depth-first fixpoint loop that
// memoizes every node it visits and dispatches Runnables through a
// host-supplied Dispatcher. It is deliberately the simplest scheduler
// that satisfies the core's invariants — a production host is free to
// parallelize across independent Waiting branches, but correctness only
// requires that every node's completion be computed at most once and
// reused by ID thereafter.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"rulecraft/pkg/bridge"
	"rulecraft/pkg/logging"
	"rulecraft/pkg/node"
	"rulecraft/pkg/registry"
	"rulecraft/pkg/rkey"
	"rulecraft/pkg/selectors"
)

func selectFor(product rkey.TypeConstraint) selectors.Select {
	return selectors.NewSelect(product, nil, false)
}

// Dispatcher executes a Runnable on the host's behalf. Implementations
// decide how Runnable.Func maps to an actual callable — see
// internal/hostkit's FuncInvoker for an in-process example and its
// ShellInvoker for one that runs external commands.
type Dispatcher interface {
	Dispatch(ctx context.Context, r node.Runnable) node.Complete
}

// DispatcherFunc adapts a plain function to a Dispatcher.
type DispatcherFunc func(ctx context.Context, r node.Runnable) node.Complete

// Dispatch calls f.
func (f DispatcherFunc) Dispatch(ctx context.Context, r node.Runnable) node.Complete {
	return f(ctx, r)
}

// Scheduler resolves node.Node values to their terminal node.Complete,
// stepping dependencies depth-first and caching every completion by node
// ID for the scheduler's lifetime.
type Scheduler struct {
	reg        *registry.Tasks
	bridge     bridge.Bridge
	dispatcher Dispatcher

	mu          sync.Mutex
	completions map[rkey.Digest]node.Complete
	resolving   map[rkey.Digest]bool

	logger logging.Logger
	onStep func(n node.Node, state node.State)
}

// New builds a Scheduler over reg and br, dispatching Runnables through d.
func New(reg *registry.Tasks, br bridge.Bridge, d Dispatcher) *Scheduler {
	return &Scheduler{
		reg:         reg,
		bridge:      br,
		dispatcher:  d,
		completions: make(map[rkey.Digest]node.Complete),
		resolving:   make(map[rkey.Digest]bool),
		logger:      logging.NewLogger(false),
	}
}

// SetLogger replaces the scheduler's logger. Debug level reports every node
// transition (Waiting/Runnable/Complete); Error level reports Throws.
func (s *Scheduler) SetLogger(l logging.Logger) {
	s.logger = l
}

// SetOnStep installs a hook called after every Step, before the resulting
// State is acted on — `rulecraft graph` uses this to record the edges it
// walks without the scheduler needing to know anything about DOT output.
func (s *Scheduler) SetOnStep(f func(n node.Node, state node.State)) {
	s.onStep = f
}

// ResolveProduct is the common entry point: build the Select node for
// (subject, product, variants) and drive it to completion.
func (s *Scheduler) ResolveProduct(ctx context.Context, subject rkey.Key, product rkey.TypeConstraint, variants rkey.Variants) (node.Complete, error) {
	sel := node.NewSelectNode(subject, variants, selectFor(product))
	return s.Resolve(ctx, sel)
}

// Resolve drives n, and transitively everything it depends on, to a
// terminal Complete. It never returns node.State. When it returns a nil
// error, n.ID() has an entry in the scheduler's completion cache, except
// for the Throw returned when n is reached again through a dependency
// cycle, which is not cached.
func (s *Scheduler) Resolve(ctx context.Context, n node.Node) (node.Complete, error) {
	if s.enter(n.ID()) {
		defer s.leave(n.ID())
	} else {
		return node.Throw(fmt.Sprintf("dependency cycle detected at %s", n)), nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return node.Complete{}, err
		}

		if c, ok := s.lookup(n.ID()); ok {
			return c, nil
		}

		state := n.Step(node.NewStepContext(s.snapshot(), s.reg, s.bridge))
		if s.onStep != nil {
			s.onStep(n, state)
		}

		switch state.Kind {
		case node.StateComplete:
			s.logComplete(n, state.Complete)
			s.record(n.ID(), state.Complete)
			return state.Complete, nil

		case node.StateRunnable:
			s.logger.Debug("runnable dispatched", logging.NewField("node", n.String()))
			result := s.dispatcher.Dispatch(ctx, state.Runnable)
			s.logComplete(n, result)
			s.record(n.ID(), result)
			return result, nil

		case node.StateWaiting:
			s.logger.Debug("waiting", logging.NewField("node", n.String()), logging.NewField("deps", len(state.Waiting)))
			for _, dep := range state.Waiting {
				if _, err := s.Resolve(ctx, dep); err != nil {
					return node.Complete{}, err
				}
			}
			// Every dependency now has a cached completion; loop to
			// re-Step n with them visible via the fresh snapshot.
			continue

		default:
			return node.Complete{}, fmt.Errorf("scheduler: node %s returned an unrecognized state", n)
		}
	}
}

// enter marks id as being resolved on the current call stack, returning
// false if it already is (a dependency cycle).
func (s *Scheduler) enter(id rkey.Digest) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolving[id] {
		return false
	}
	s.resolving[id] = true
	return true
}

func (s *Scheduler) leave(id rkey.Digest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.resolving, id)
}

func (s *Scheduler) lookup(id rkey.Digest) (node.Complete, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.completions[id]
	return c, ok
}

func (s *Scheduler) record(id rkey.Digest, c node.Complete) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completions[id] = c
}

// snapshot copies the completion cache for a single Step call. node.Step
// is pure and must see a stable view of its dependencies even while other
// goroutines (were this scheduler extended to parallelize) record new
// entries concurrently.
func (s *Scheduler) snapshot() map[rkey.Digest]node.Complete {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[rkey.Digest]node.Complete, len(s.completions))
	for k, v := range s.completions {
		out[k] = v
	}
	return out
}

// logComplete reports a node's terminal result: Throw at Error level since
// it signals a rule or host failure, everything else at Debug.
func (s *Scheduler) logComplete(n node.Node, c node.Complete) {
	if c.Kind == node.CompleteThrow {
		s.logger.Error("throw", logging.NewField("node", n.String()), logging.NewField("message", c.Message))
		return
	}
	s.logger.Debug("complete", logging.NewField("node", n.String()), logging.NewField("result", c.String()))
}

// Products lists every product with at least one registered rule, for
// hosts that want to report resolvable products without running any of
// them.
func (s *Scheduler) Products() []string {
	return s.reg.Products()
}
