// SPDX-License-Identifier: AGPL-3.0-or-later

/*
rulecraft is a Go library implementing the rule-resolution core of a
declarative build engine: a selector algebra, node state machine, and
rule registry evaluated lazily over a dependency graph.
*/

// Package rkey defines the identity primitives the core uses to refer to
// host values, host types, and host functions without interpreting them.
package rkey

import (
	"crypto/sha256"
	"fmt"
)

// DigestSize is the length in bytes of a Digest.
const DigestSize = 32

// Digest is a 32-byte content hash identifying a host value or type.
// Equality and hashing are byte-wise; it is safe to use as a map key.
type Digest [DigestSize]byte

// String renders the first 4 bytes as hex, matching the host bridge's
// best-effort debug rendering in ToStr.
func (d Digest) String() string {
	return fmt.Sprintf("%02x%02x%02x%02x", d[0], d[1], d[2], d[3])
}

// IsZero reports whether d is the all-zero digest.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// TypeID identifies a host type.
type TypeID = Digest

// Function identifies a host-side callable.
type Function = Digest

// TypeConstraint identifies a host-side predicate over TypeIDs, e.g.
// "is-a Address". It is evaluated only through the host bridge; the core
// never inspects its bytes.
type TypeConstraint = Digest

// HashBytes derives a Digest by content-hashing b. Used to mint
// well-known sentinel handles (see bridge.ProjectFunction and
// node.ListField) and by hosts to content-address their values.
func HashBytes(b []byte) Digest {
	return Digest(sha256.Sum256(b))
}
