// SPDX-License-Identifier: AGPL-3.0-or-later

package hostkit

import (
	"context"
	"fmt"
	"sync"

	"rulecraft/pkg/executil"
	"rulecraft/pkg/node"
	"rulecraft/pkg/rkey"
)

// ShellFunc maps a rule function's resolved arguments to an external
// command and decodes the command's stdout back into a host value. It lets
// a ruleset describe rule functions that shell out — a linter, a
// compiler, a hashing tool — without the core ever knowing a process was
// involved.
type ShellFunc struct {
	// Build constructs the command to run from the rule's resolved
	// arguments, reading their Go values out of h as needed.
	Build func(h *Host, args []rkey.Key) executil.Command

	// Decode turns the command's stdout into the Go value (and the TypeID
	// to store it under) that becomes the rule's Return.
	Decode func(stdout []byte) (value any, typeID rkey.TypeID, err error)
}

// ShellInvoker is a scheduler.Dispatcher that runs rule functions as
// external commands via an executil.Runner, the same abstraction the
// teacher's tooling used for shelling out to docker/compose.
type ShellInvoker struct {
	host   *Host
	runner executil.Runner

	mu    sync.RWMutex
	funcs map[rkey.Function]ShellFunc
}

// NewShellInvoker builds a ShellInvoker bound to host, running commands
// through runner. Pass executil.NewRunner() for a real host; tests can
// supply a fake Runner.
func NewShellInvoker(host *Host, runner executil.Runner) *ShellInvoker {
	return &ShellInvoker{host: host, runner: runner, funcs: make(map[rkey.Function]ShellFunc)}
}

// Register binds fn to a ShellFunc.
func (s *ShellInvoker) Register(fn rkey.Function, impl ShellFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.funcs[fn] = impl
}

// Dispatch implements scheduler.Dispatcher. Like FuncInvoker.Dispatch, a
// panic from a misbehaving Build/Decode is recovered into a Throw.
func (s *ShellInvoker) Dispatch(ctx context.Context, r node.Runnable) (result node.Complete) {
	defer func() {
		if rec := recover(); rec != nil {
			result = node.Throw(fmt.Sprintf("hostkit: panic dispatching %s: %v", r.Func, rec))
		}
	}()

	s.mu.RLock()
	impl, ok := s.funcs[r.Func]
	s.mu.RUnlock()
	if !ok {
		return node.Throw(fmt.Sprintf("hostkit: no shell function registered for %s", r.Func))
	}

	args := make([]rkey.Key, len(r.Args))
	for i, a := range r.Args {
		args[i] = a.Key()
	}

	cmd := impl.Build(s.host, args)
	execResult, err := s.runner.Run(ctx, cmd)
	if err != nil {
		return node.Throw(fmt.Sprintf("hostkit: %s: %v", cmd.Name, err))
	}

	value, typeID, err := impl.Decode(execResult.Stdout)
	if err != nil {
		return node.Throw(fmt.Sprintf("hostkit: decoding %s output: %v", cmd.Name, err))
	}
	return node.Return(s.host.Put(typeID, value))
}

var _ interface {
	Dispatch(ctx context.Context, r node.Runnable) node.Complete
} = (*ShellInvoker)(nil)
