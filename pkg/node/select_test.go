// SPDX-License-Identifier: AGPL-3.0-or-later

package node

import (
	"testing"

	"rulecraft/pkg/rkey"
	"rulecraft/pkg/selectors"
)

func TestSelectNode_LiteralIsAMatch(t *testing.T) {
	f := newFixture()
	subject := keyOf(1, 5)
	sel := selectors.NewSelect(dg(5), nil, false)
	n := NewSelectNode(subject, nil, sel)

	state := n.Step(f.ctx(nil))
	if state.Kind != StateComplete || state.Complete.Kind != CompleteReturn {
		t.Fatalf("expected immediate Return, got %+v", state)
	}
	if state.Complete.Value != subject {
		t.Fatalf("expected literal subject returned, got %v", state.Complete.Value)
	}
}

func TestSelectNode_HasAMatch(t *testing.T) {
	f := newFixture()
	containerType := dg(10)
	childProduct := dg(20)
	subject := keyOf(1, byte(containerType[0]))
	child := keyOf(2, byte(childProduct[0]))

	f.bridge.subclass = func(typeID, constraint rkey.TypeID) bool {
		switch {
		case typeID == childProduct && constraint == childProduct:
			return true
		case typeID == containerType && constraint == f.reg.TypeHasProducts():
			return true
		default:
			return false
		}
	}
	f.bridge.multi[fieldCall{value: subject, field: f.reg.FieldProducts()}] = []rkey.Key{child}

	sel := selectors.NewSelect(childProduct, nil, false)
	n := NewSelectNode(subject, nil, sel)

	state := n.Step(f.ctx(nil))
	if state.Kind != StateComplete || state.Complete.Kind != CompleteReturn {
		t.Fatalf("expected Return via has-a search, got %+v", state)
	}
	if state.Complete.Value != child {
		t.Fatalf("expected child returned, got %v", state.Complete.Value)
	}
}

func TestSelectNode_VariantGate_AbsentIsNoop(t *testing.T) {
	f := newFixture()
	subject := keyOf(1, 5)
	variantKey := keyOf(0x50, 0x51)
	sel := selectors.NewSelect(dg(99), &variantKey, false)
	n := NewSelectNode(subject, nil, sel)

	state := n.Step(f.ctx(nil))
	if state.Kind != StateComplete || state.Complete.Kind != CompleteNoop {
		t.Fatalf("expected Noop when variant key unconfigured, got %+v", state)
	}
}

func TestSelectNode_TaskMatch_Single(t *testing.T) {
	f := newFixture()
	subject := keyOf(1, 5)
	product := dg(30)
	valueType := dg(31)

	f.bridge.subclass = func(typeID, constraint rkey.TypeID) bool {
		return typeID == valueType && constraint == product
	}

	f.reg.TaskBegin(dg(40), product)
	f.reg.TaskEnd()

	sel := selectors.NewSelect(product, nil, false)
	n := NewSelectNode(subject, nil, sel)

	first := n.Step(f.ctx(nil))
	if first.Kind != StateWaiting || len(first.Waiting) != 1 {
		t.Fatalf("expected exactly one pending task node, got %+v", first)
	}
	taskNode := first.Waiting[0]
	produced := keyOf(1, byte(valueType[0]))
	second := n.Step(f.ctx(withComplete(taskNode.ID(), Return(produced))))
	if second.Kind != StateComplete || second.Complete.Kind != CompleteReturn {
		t.Fatalf("expected Return after task completes, got %+v", second)
	}
	if second.Complete.Value != produced {
		t.Fatalf("expected produced value, got %v", second.Complete.Value)
	}
}

func TestSelectNode_TaskMatch_ConflictThrows(t *testing.T) {
	f := newFixture()
	subject := keyOf(1, 5)
	product := dg(30)
	valueType := dg(31)

	f.bridge.subclass = func(typeID, constraint rkey.TypeID) bool {
		return typeID == valueType && constraint == product
	}

	f.reg.TaskBegin(dg(40), product)
	f.reg.TaskEnd()
	f.reg.TaskBegin(dg(41), product)
	f.reg.TaskEnd()

	sel := selectors.NewSelect(product, nil, false)
	n := NewSelectNode(subject, nil, sel)

	first := n.Step(f.ctx(nil))
	if first.Kind != StateWaiting || len(first.Waiting) != 2 {
		t.Fatalf("expected two pending task nodes, got %+v", first)
	}
	deps := map[rkey.Digest]Complete{
		first.Waiting[0].ID(): Return(keyOf(1, byte(valueType[0]))),
		first.Waiting[1].ID(): Return(keyOf(2, byte(valueType[0]))),
	}
	second := n.Step(f.ctx(deps))
	if second.Kind != StateComplete || second.Complete.Kind != CompleteThrow {
		t.Fatalf("expected Throw on conflicting matches, got %+v", second)
	}
}

func TestSelectNode_NoRuleNoops(t *testing.T) {
	f := newFixture()
	subject := keyOf(1, 5)
	sel := selectors.NewSelect(dg(77), nil, false)
	n := NewSelectNode(subject, nil, sel)

	state := n.Step(f.ctx(nil))
	if state.Kind != StateComplete || state.Complete.Kind != CompleteNoop {
		t.Fatalf("expected Noop when no rule or literal match exists, got %+v", state)
	}
}

func TestSelectNode_ThrowPropagatesFromDependency(t *testing.T) {
	f := newFixture()
	subject := keyOf(1, 5)
	product := dg(30)

	f.reg.TaskBegin(dg(40), product)
	f.reg.TaskEnd()

	sel := selectors.NewSelect(product, nil, false)
	n := NewSelectNode(subject, nil, sel)

	first := n.Step(f.ctx(nil))
	taskNode := first.Waiting[0]
	second := n.Step(f.ctx(withComplete(taskNode.ID(), Throw("boom"))))
	if second.Kind != StateComplete || second.Complete.Kind != CompleteThrow {
		t.Fatalf("expected Throw to propagate verbatim, got %+v", second)
	}
	if second.Complete.Message != "boom" {
		t.Fatalf("expected message preserved, got %q", second.Complete.Message)
	}
}
