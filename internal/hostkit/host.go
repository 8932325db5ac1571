// SPDX-License-Identifier: AGPL-3.0-or-later

/*
rulecraft is a Go library implementing the rule-resolution core of a
declarative build engine: a selector algebra, node state machine, and
rule registry evaluated lazily over a dependency graph.
*/

// Package hostkit is an in-process demo implementation of pkg/bridge.Bridge:
// host values live in a Go map, the subclass lattice and field table are
// built by plain registration calls, and list values are interned the same
// way individual values are. It exists to give the scheduler, the ruleset
// loader, and the CLI something concrete to resolve against without
// depending on any particular host's real storage.
package hostkit

import (
	"fmt"
	"sync"

	"rulecraft/pkg/node"
	"rulecraft/pkg/rkey"
)

// Projector computes value.field, returning the projected Go value together
// with the TypeID it should be stored under.
type Projector func(value any) (projected any, typeID rkey.TypeID)

// ListProjector computes the ordered elements of a collection-valued field.
type ListProjector func(value any) []any

type fieldKey struct {
	typeID rkey.TypeID
	field  rkey.Field
}

// Host is an in-memory bridge host: a value store keyed by content digest,
// a subclass lattice, and a field projection table. Zero value is not
// usable; construct with New.
type Host struct {
	mu sync.RWMutex

	values map[rkey.Digest]any

	// subclasses[t][c] is true when t satisfies constraint c. A type
	// always satisfies itself without an explicit entry.
	subclasses map[rkey.TypeID]map[rkey.TypeConstraint]bool

	fields     map[fieldKey]Projector
	listFields map[fieldKey]ListProjector

	defaultField     Projector
	defaultListField ListProjector

	elemType rkey.TypeID // the TypeID every StoreList result is tagged with
}

// New constructs an empty Host. elemType is the TypeID StoreList results
// are tagged with; New registers a node.ListField projector for it so
// SelectDependencies can recurse over those results.
func New(elemType rkey.TypeID) *Host {
	h := &Host{
		values:     make(map[rkey.Digest]any),
		subclasses: make(map[rkey.TypeID]map[rkey.TypeConstraint]bool),
		fields:     make(map[fieldKey]Projector),
		listFields: make(map[fieldKey]ListProjector),
		elemType:   elemType,
	}

	// Every value StoreList produces is tagged elemType; registering
	// node.ListField's unwrap here (rather than asking every host to do it)
	// is what lets SelectDependencies' transitive fan-out flatten a nested
	// result without a dedicated Bridge operation.
	h.RegisterListField(elemType, node.ListField, func(v any) []any {
		keys := v.([]rkey.Key)
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = k
		}
		return out
	})

	return h
}

// RegisterSubclass declares that typeID satisfies constraint, beyond the
// implicit typeID == constraint identity every type already satisfies.
func (h *Host) RegisterSubclass(typeID rkey.TypeID, constraint rkey.TypeConstraint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subclasses[typeID]
	if !ok {
		set = make(map[rkey.TypeConstraint]bool)
		h.subclasses[typeID] = set
	}
	set[constraint] = true
}

// RegisterField registers how to compute field for values of typeID.
func (h *Host) RegisterField(typeID rkey.TypeID, field rkey.Field, p Projector) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fields[fieldKey{typeID: typeID, field: field}] = p
}

// RegisterListField registers how to enumerate a collection-valued field
// for values of typeID.
func (h *Host) RegisterListField(typeID rkey.TypeID, field rkey.Field, p ListProjector) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listFields[fieldKey{typeID: typeID, field: field}] = p
}

// SetDefaultField installs a Projector used for any (typeID, field) pair
// with no specific RegisterField entry, instead of panicking. `rulecraft
// resolve` uses this so a loaded ruleset's SelectProjection clauses have
// something to project against without the CLI knowing the host's real
// field layout.
func (h *Host) SetDefaultField(p Projector) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.defaultField = p
}

// SetDefaultListField is SetDefaultField for collection-valued fields.
func (h *Host) SetDefaultListField(p ListProjector) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.defaultListField = p
}

// Put interns value under typeID, returning the Key future lookups and
// bridge operations use to refer to it. Two Puts of values with identical
// %#v representations and the same typeID return the same Key, matching
// StoreList's idempotence requirement and letting node identity hashing
// see structurally-equal subjects as equal.
func (h *Host) Put(typeID rkey.TypeID, value any) rkey.Key {
	digest := rkey.HashBytes([]byte(fmt.Sprintf("%#v", value)))

	h.mu.Lock()
	defer h.mu.Unlock()
	h.values[digest] = value
	return rkey.NewKey(digest, typeID)
}

// Get returns the Go value a Key refers to.
func (h *Host) Get(key rkey.Key) (any, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.values[key.Digest()]
	return v, ok
}

// IsSubclass implements bridge.Bridge.
func (h *Host) IsSubclass(typeID rkey.TypeID, constraint rkey.TypeConstraint) bool {
	if typeID == constraint {
		return true
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.subclasses[typeID][constraint]
}

// Project implements bridge.Bridge.
func (h *Host) Project(value rkey.Key, field rkey.Field) rkey.Key {
	v, ok := h.Get(value)
	if !ok {
		panic(fmt.Sprintf("hostkit: Project called on unknown Key %s", value))
	}

	h.mu.RLock()
	p, ok := h.fields[fieldKey{typeID: value.TypeID(), field: field}]
	if !ok {
		p = h.defaultField
	}
	h.mu.RUnlock()
	if p == nil {
		panic(fmt.Sprintf("hostkit: no field %s registered for type %s", field, value.TypeID()))
	}

	projected, typeID := p(v)
	return h.Put(typeID, projected)
}

// ProjectMulti implements bridge.Bridge.
func (h *Host) ProjectMulti(value rkey.Key, field rkey.Field) []rkey.Key {
	v, ok := h.Get(value)
	if !ok {
		panic(fmt.Sprintf("hostkit: ProjectMulti called on unknown Key %s", value))
	}

	h.mu.RLock()
	p, ok := h.listFields[fieldKey{typeID: value.TypeID(), field: field}]
	if !ok {
		p = h.defaultListField
	}
	h.mu.RUnlock()
	if p == nil {
		panic(fmt.Sprintf("hostkit: no list field %s registered for type %s", field, value.TypeID()))
	}

	elems := p(v)
	keys := make([]rkey.Key, len(elems))
	// The element's own type is recovered from the Key the host already
	// minted for it where possible; demo hosts register list fields that
	// return rkey.Key directly rather than raw Go values for this reason.
	for i, e := range elems {
		if k, ok := e.(rkey.Key); ok {
			keys[i] = k
			continue
		}
		panic(fmt.Sprintf("hostkit: list field %s must enumerate rkey.Key elements, got %T", field, e))
	}
	return keys
}

// StoreList implements bridge.Bridge: items are interned as a single Host
// value (a Go slice of Key) tagged with elemType, and node.ListField's
// ProjectMulti round-trip unwraps it again via a registered list field.
func (h *Host) StoreList(items []rkey.Key) rkey.Key {
	cp := make([]rkey.Key, len(items))
	copy(cp, items)
	return h.Put(h.elemType, cp)
}

// ToStr implements bridge.Bridge with a best-effort rendering of whatever
// Go value, if any, is stored under digest.
func (h *Host) ToStr(digest rkey.Digest) string {
	h.mu.RLock()
	v, ok := h.values[digest]
	h.mu.RUnlock()
	if !ok {
		return digest.String()
	}
	return fmt.Sprintf("%v", v)
}
