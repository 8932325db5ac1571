// SPDX-License-Identifier: AGPL-3.0-or-later

package scheduler

import (
	"context"
	"testing"

	"rulecraft/pkg/bridge"
	"rulecraft/pkg/node"
	"rulecraft/pkg/registry"
	"rulecraft/pkg/rkey"
)

func dg(b byte) rkey.Digest {
	var d rkey.Digest
	d[0] = b
	return d
}

func keyOf(valByte, typeByte byte) rkey.Key {
	return rkey.NewKey(dg(valByte), dg(typeByte))
}

// fakeBridge mirrors pkg/node's test double; kept separate to avoid a
// test-only cross-package dependency.
type fakeBridge struct {
	subclass func(typeID, constraint rkey.Digest) bool
	project  map[[2]rkey.Key]rkey.Key
	multi    map[[2]rkey.Key][]rkey.Key
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{project: map[[2]rkey.Key]rkey.Key{}, multi: map[[2]rkey.Key][]rkey.Key{}}
}
func (b *fakeBridge) IsSubclass(t, c rkey.Digest) bool {
	if b.subclass != nil {
		return b.subclass(t, c)
	}
	return t == c
}
func (b *fakeBridge) Project(v, f rkey.Key) rkey.Key        { return b.project[[2]rkey.Key{v, f}] }
func (b *fakeBridge) ProjectMulti(v, f rkey.Key) []rkey.Key { return b.multi[[2]rkey.Key{v, f}] }
func (b *fakeBridge) StoreList(items []rkey.Key) rkey.Key   { return keyOf(0xfe, 0xfe) }
func (b *fakeBridge) ToStr(d rkey.Digest) string            { return d.String() }

var _ bridge.Bridge = (*fakeBridge)(nil)

func TestScheduler_ResolveProduct_LiteralMatch(t *testing.T) {
	reg := registry.NewTasks(keyOf(0xf1, 0xf0), keyOf(0xf2, 0xf0), keyOf(0xf3, 0xf0), dg(0xa1), dg(0xa2), dg(0xa3), rkey.Empty)
	br := newFakeBridge()
	s := New(reg, br, DispatcherFunc(func(ctx context.Context, r node.Runnable) node.Complete {
		t.Fatalf("did not expect a host dispatch for a pure literal match")
		return node.Complete{}
	}))

	subject := keyOf(1, 5)
	comp, err := s.ResolveProduct(context.Background(), subject, dg(5), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comp.Kind != node.CompleteReturn || comp.Value != subject {
		t.Fatalf("expected literal Return of the subject, got %+v", comp)
	}
}

func TestScheduler_ResolveProduct_DispatchesRule(t *testing.T) {
	reg := registry.NewTasks(keyOf(0xf1, 0xf0), keyOf(0xf2, 0xf0), keyOf(0xf3, 0xf0), dg(0xa1), dg(0xa2), dg(0xa3), rkey.Empty)
	product := dg(30)
	valueType := dg(31)
	br := newFakeBridge()
	br.subclass = func(t, c rkey.Digest) bool { return t == valueType && c == product }

	fn := dg(40)
	reg.TaskBegin(fn, product)
	reg.TaskEnd()

	produced := keyOf(99, byte(valueType[0]))
	dispatchCount := 0
	s := New(reg, br, DispatcherFunc(func(ctx context.Context, r node.Runnable) node.Complete {
		dispatchCount++
		if r.Func != fn {
			t.Fatalf("expected the registered rule func, got %v", r.Func)
		}
		return node.Return(produced)
	}))

	subject := keyOf(1, 5)
	comp, err := s.ResolveProduct(context.Background(), subject, product, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comp.Kind != node.CompleteReturn || comp.Value != produced {
		t.Fatalf("expected the dispatched rule's value, got %+v", comp)
	}
	if dispatchCount != 1 {
		t.Fatalf("expected exactly one dispatch, got %d", dispatchCount)
	}

	// A second resolution of the identical (subject, product, variants)
	// triple must hit the memoized completion, not dispatch again.
	comp2, err := s.ResolveProduct(context.Background(), subject, product, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comp2.Value != produced || dispatchCount != 1 {
		t.Fatalf("expected memoized completion without a second dispatch, dispatchCount=%d", dispatchCount)
	}
}

func TestScheduler_ResolveProduct_NoRuleNoops(t *testing.T) {
	reg := registry.NewTasks(keyOf(0xf1, 0xf0), keyOf(0xf2, 0xf0), keyOf(0xf3, 0xf0), dg(0xa1), dg(0xa2), dg(0xa3), rkey.Empty)
	br := newFakeBridge()
	s := New(reg, br, DispatcherFunc(func(ctx context.Context, r node.Runnable) node.Complete {
		t.Fatalf("did not expect a dispatch with no registered rule")
		return node.Complete{}
	}))

	comp, err := s.ResolveProduct(context.Background(), keyOf(1, 5), dg(77), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comp.Kind != node.CompleteNoop {
		t.Fatalf("expected Noop, got %+v", comp)
	}
}

func TestScheduler_SetOnStep_ObservesEveryTransition(t *testing.T) {
	reg := registry.NewTasks(keyOf(0xf1, 0xf0), keyOf(0xf2, 0xf0), keyOf(0xf3, 0xf0), dg(0xa1), dg(0xa2), dg(0xa3), rkey.Empty)
	br := newFakeBridge()
	s := New(reg, br, DispatcherFunc(func(ctx context.Context, r node.Runnable) node.Complete {
		t.Fatalf("did not expect a dispatch with no registered rule")
		return node.Complete{}
	}))

	var steps int
	s.SetOnStep(func(n node.Node, state node.State) { steps++ })

	if _, err := s.ResolveProduct(context.Background(), keyOf(1, 5), dg(77), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A no-rule resolution is a single Step straight to Noop.
	if steps != 1 {
		t.Fatalf("expected SetOnStep's hook to observe the single Step, got %d", steps)
	}
}
