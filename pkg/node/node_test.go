// SPDX-License-Identifier: AGPL-3.0-or-later

package node

import (
	"rulecraft/pkg/bridge"
	"rulecraft/pkg/registry"
	"rulecraft/pkg/rkey"
)

var _ bridge.Bridge = (*fakeBridge)(nil)

func dg(b byte) rkey.Digest {
	var d rkey.Digest
	d[0] = b
	return d
}

func keyOf(valByte, typeByte byte) rkey.Key {
	return rkey.NewKey(dg(valByte), dg(typeByte))
}

// fieldCall keys a fakeBridge's per-(value,field) response tables.
type fieldCall struct {
	value rkey.Key
	field rkey.Field
}

// fakeBridge is a minimal, fully scriptable bridge.Bridge for exercising
// node.Step in isolation, without a real host.
type fakeBridge struct {
	subclass func(typeID rkey.TypeID, constraint rkey.TypeConstraint) bool
	project  map[fieldCall]rkey.Key
	multi    map[fieldCall][]rkey.Key

	storedLists [][]rkey.Key
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{
		project: make(map[fieldCall]rkey.Key),
		multi:   make(map[fieldCall][]rkey.Key),
	}
}

func (b *fakeBridge) IsSubclass(typeID rkey.TypeID, constraint rkey.TypeConstraint) bool {
	if b.subclass != nil {
		return b.subclass(typeID, constraint)
	}
	return typeID == constraint
}

func (b *fakeBridge) Project(value rkey.Key, field rkey.Field) rkey.Key {
	return b.project[fieldCall{value: value, field: field}]
}

func (b *fakeBridge) ProjectMulti(value rkey.Key, field rkey.Field) []rkey.Key {
	return b.multi[fieldCall{value: value, field: field}]
}

// StoreList registers a reverse mapping under ListField so a later
// ProjectMulti(result, ListField) round-trips back to items, mirroring the
// convention a real host bridge is expected to honor.
func (b *fakeBridge) StoreList(items []rkey.Key) rkey.Key {
	idx := len(b.storedLists)
	b.storedLists = append(b.storedLists, items)
	result := keyOf(0xfe, byte(idx))
	b.multi[fieldCall{value: result, field: ListField}] = items
	return result
}

func (b *fakeBridge) ToStr(digest rkey.Digest) string {
	return digest.String()
}

type fixture struct {
	reg    *registry.Tasks
	bridge *fakeBridge
}

func newFixture() *fixture {
	reg := registry.NewTasks(
		keyOf(0xf1, 0xf0), // name
		keyOf(0xf2, 0xf0), // products
		keyOf(0xf3, 0xf0), // variants
		dg(0xa1),          // Address
		dg(0xa2),          // HasProducts
		dg(0xa3),          // HasVariants
		rkey.Empty,
	)
	return &fixture{reg: reg, bridge: newFakeBridge()}
}

func (f *fixture) ctx(deps map[rkey.Digest]Complete) *StepContext {
	return NewStepContext(deps, f.reg, f.bridge)
}

func withComplete(id rkey.Digest, c Complete) map[rkey.Digest]Complete {
	return map[rkey.Digest]Complete{id: c}
}
