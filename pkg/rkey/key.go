// SPDX-License-Identifier: AGPL-3.0-or-later

/*
rulecraft is a Go library implementing the rule-resolution core of a
declarative build engine: a selector algebra, node state machine, and
rule registry evaluated lazily over a dependency graph.
*/

package rkey

// Key is a handle to a host value together with its type. Keys are
// immutable, cheaply copyable (two fixed-size arrays), and comparable with
// ==, so they can be used directly as map keys and struct fields in the
// node identity hash.
type Key struct {
	digest Digest
	typeID TypeID
}

// NewKey returns a Key for the given value digest and type.
func NewKey(digest Digest, typeID TypeID) Key {
	return Key{digest: digest, typeID: typeID}
}

// Empty is the sentinel Key the core substitutes for an absent optional
// input in Task.Step (see registry.Tasks.NoneKey). It is the zero Key.
var Empty = Key{}

// Digest returns the Key's value digest.
func (k Key) Digest() Digest {
	return k.digest
}

// TypeID returns the Key's type.
func (k Key) TypeID() TypeID {
	return k.typeID
}

// Less orders Keys by digest bytes, for deterministic tie-breaking when a
// caller needs a stable order over a set of Keys (e.g. sorting conflicting
// matches for a Throw message).
func (k Key) Less(other Key) bool {
	for i := 0; i < DigestSize; i++ {
		if k.digest[i] != other.digest[i] {
			return k.digest[i] < other.digest[i]
		}
	}
	for i := 0; i < DigestSize; i++ {
		if k.typeID[i] != other.typeID[i] {
			return k.typeID[i] < other.typeID[i]
		}
	}
	return false
}

// String renders a short debug form; it never drives control flow.
func (k Key) String() string {
	return k.digest.String() + "/" + k.typeID.String()
}

// Field is a Key naming a projectable attribute on a host value.
type Field = Key

// Variants is an ordered association list of (Field, Field) pairs used to
// discriminate candidate values during resolution. Ordering is significant
// for propagation; lookup is linear and the first match for a duplicate
// key wins.
type Variants []VariantEntry

// VariantEntry is one (key, value) pair within Variants.
type VariantEntry struct {
	Key   Field
	Value Field
}

// Get returns the value configured for key, and whether it was found.
func (v Variants) Get(key Field) (Field, bool) {
	for _, e := range v {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Field{}, false
}

// Merge returns a new Variants with entries of other appended after v's
// entries, for keys not already present in v. v's entries always win on
// conflict ("outer scope wins"), per the documented — and still open —
// merge semantics for propagated default variants.
func (v Variants) Merge(other Variants) Variants {
	if len(other) == 0 {
		return v
	}
	merged := make(Variants, len(v), len(v)+len(other))
	copy(merged, v)
	for _, e := range other {
		if _, ok := v.Get(e.Key); ok {
			continue
		}
		merged = append(merged, e)
	}
	return merged
}

// Equal reports whether v and other contain the same entries in the same
// order. Node identity (and therefore memoization) depends on this.
func (v Variants) Equal(other Variants) bool {
	if len(v) != len(other) {
		return false
	}
	for i := range v {
		if v[i] != other[i] {
			return false
		}
	}
	return true
}
