// SPDX-License-Identifier: AGPL-3.0-or-later

/*
rulecraft is a Go library implementing the rule-resolution core of a
declarative build engine: a selector algebra, node state machine, and
rule registry evaluated lazily over a dependency graph.
*/

// Package bridge defines the contract the core uses to call back into the
// host: subclass checks, field projection, list interning, and debug
// rendering. The core never interprets host values directly; every
// operation that needs to look inside one goes through a Bridge.
package bridge

import "rulecraft/pkg/rkey"

// Bridge is the authoritative contract a host implements to answer the
// five questions the core cannot answer on its own. Implementations may be
// backed by anything the host likes — an in-process object graph, a
// database, a remote service — the core only ever sees Keys and bools.
type Bridge interface {
	// IsSubclass reports whether typeID satisfies constraint. Answers
	// should be memoized by the implementation; CachedBridge does this for
	// any Bridge that does not already cache.
	IsSubclass(typeID rkey.TypeID, constraint rkey.TypeConstraint) bool

	// Project returns a new Key representing value.field.
	Project(value rkey.Key, field rkey.Field) rkey.Key

	// ProjectMulti returns the ordered elements of a collection-valued
	// field. Order must match the host's declaration order; SelectDependencies
	// relies on it for determinism.
	ProjectMulti(value rkey.Key, field rkey.Field) []rkey.Key

	// StoreList interns an ordered sequence of Keys as a single host value
	// whose type denotes a list. Must be idempotent on equal inputs.
	StoreList(items []rkey.Key) rkey.Key

	// ToStr is a best-effort debug rendering of a digest. It is purely
	// diagnostic and must never be consulted for control flow.
	ToStr(digest rkey.Digest) string
}

// sentinel is the prefix used when ToStr cannot decode a digest into
// something human-readable; callers may use it to recognize the fallback
// form without depending on its exact wording.
const sentinel = "<undecodable digest "

// FallbackToStr renders the sentinel form a Bridge implementation should
// fall back to when it cannot otherwise decode a digest into text.
func FallbackToStr(digest rkey.Digest) string {
	return sentinel + digest.String() + ">"
}

// ProjectFunction is the reserved Function a ProjectField node's Runnable
// carries in place of a registered rule function. A scheduler recognizes
// this sentinel and dispatches the Runnable straight to Bridge.Project(
// args[0], args[1]) rather than looking up a host-registered rule —
// projection is a bridge primitive, not a rule, so it needs no registry
// entry to be invoked uniformly alongside one.
var ProjectFunction = rkey.HashBytes([]byte("rulecraft/pkg/bridge.Project"))
