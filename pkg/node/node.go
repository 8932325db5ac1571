// SPDX-License-Identifier: AGPL-3.0-or-later

/*
rulecraft is a Go library implementing the rule-resolution core of a
declarative build engine: a selector algebra, node state machine, and
rule registry evaluated lazily over a dependency graph.
*/

// Package node implements the node state machine: a pure step function per
// node kind, dispatched by tag rather than open inheritance (§9), that
// lazily resolves one (selector, subject, variants) triple at a time.
package node

import "rulecraft/pkg/rkey"

// Node is one attempt to satisfy one (selector, subject, variants) triple.
// Implementations are immutable value holders; Step is a total function of
// the node's own fields and the dependency completions passed in via
// StepContext (Invariant 1, §3).
type Node interface {
	// ID is the node's structural identity: a content hash of every field
	// that participates in equality, per §3's memoization invariant
	// ("Two nodes with identical fields MUST be treated as the same cache
	// entry") and §9's recommended strategy ("arena of completions keyed
	// by structural hash of the node").
	ID() rkey.Digest

	// Step computes the next State given already-known dependency
	// completions.
	Step(ctx *StepContext) State

	// String renders a short debug form.
	String() string
}

// ArgKind discriminates Arg.
type ArgKind int

const (
	// ArgKindKey is a literal Key argument.
	ArgKindKey ArgKind = iota
	// ArgKindNode is a reference to another Node; the scheduler resolves
	// it to that node's Return value before dispatch.
	ArgKindNode
)

// Arg is one argument to a Runnable: either a literal Key or a reference
// to another Node.
type Arg struct {
	kind ArgKind
	key  rkey.Key
	node Node
}

// ValueArg builds a literal-Key Arg.
func ValueArg(k rkey.Key) Arg { return Arg{kind: ArgKindKey, key: k} }

// NodeRefArg builds an Arg that refers to another Node's eventual value.
func NodeRefArg(n Node) Arg { return Arg{kind: ArgKindNode, node: n} }

// Kind reports which form this Arg takes.
func (a Arg) Kind() ArgKind { return a.kind }

// Key returns the literal Key this Arg carries. Only valid when
// Kind() == ArgKindKey.
func (a Arg) Key() rkey.Key { return a.key }

// Node returns the Node this Arg refers to. Only valid when
// Kind() == ArgKindNode.
func (a Arg) Node() Node { return a.node }

// Runnable describes a host function call the scheduler must dispatch. The
// core never executes it; the host's result becomes the originating
// node's Complete.
type Runnable struct {
	Func      rkey.Function
	Args      []Arg
	Cacheable bool
}

// CompleteKind discriminates Complete.
type CompleteKind int

const (
	// CompleteReturn means the node produced a product value.
	CompleteReturn CompleteKind = iota
	// CompleteNoop means no rule matched or a prerequisite was absent.
	// Not an error.
	CompleteNoop
	// CompleteThrow means a rule-level or structural failure must
	// propagate.
	CompleteThrow
)

// Complete is the terminal result of a node.
type Complete struct {
	Kind CompleteKind

	// Value is set when Kind == CompleteReturn.
	Value rkey.Key

	// Reason and Cause are set when Kind == CompleteNoop. Cause is the
	// node that produced the Noop, if there is a single attributable one;
	// it may be nil.
	Reason string
	Cause  Node

	// Message is set when Kind == CompleteThrow.
	Message string
}

// Return builds a success Complete.
func Return(value rkey.Key) Complete {
	return Complete{Kind: CompleteReturn, Value: value}
}

// Noop builds a resolution-time-absence Complete.
func Noop(reason string, cause Node) Complete {
	return Complete{Kind: CompleteNoop, Reason: reason, Cause: cause}
}

// Throw builds a failure Complete. Message is opaque to the core;
// propagation is verbatim and unconditional (§7).
func Throw(message string) Complete {
	return Complete{Kind: CompleteThrow, Message: message}
}

// String renders a short debug form; never consulted for control flow.
func (c Complete) String() string {
	switch c.Kind {
	case CompleteReturn:
		return "Return(" + c.Value.String() + ")"
	case CompleteNoop:
		return "Noop(" + c.Reason + ")"
	case CompleteThrow:
		return "Throw(" + c.Message + ")"
	default:
		return "Complete(?)"
	}
}

// StateKind discriminates State.
type StateKind int

const (
	// StateWaiting means one or more dependencies must complete before
	// progress.
	StateWaiting StateKind = iota
	// StateRunnable means the node is ready for the host to execute.
	StateRunnable
	// StateComplete means the node is terminal.
	StateComplete
)

// State is the output of a single Step call.
type State struct {
	Kind StateKind

	Waiting  []Node
	Runnable Runnable
	Complete Complete
}

// Waiting builds a State that blocks on deps.
func Waiting(deps []Node) State {
	return State{Kind: StateWaiting, Waiting: deps}
}

// RunnableState builds a State ready for host dispatch.
func RunnableState(r Runnable) State {
	return State{Kind: StateRunnable, Runnable: r}
}

// CompleteState builds a terminal State.
func CompleteState(c Complete) State {
	return State{Kind: StateComplete, Complete: c}
}
