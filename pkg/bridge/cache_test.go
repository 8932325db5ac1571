// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"testing"

	"rulecraft/pkg/rkey"
)

// countingBridge counts IsSubclass calls so tests can assert caching
// behavior without depending on a real host.
type countingBridge struct {
	calls   int
	answers map[subclassKey]bool
}

func (c *countingBridge) IsSubclass(typeID rkey.TypeID, constraint rkey.TypeConstraint) bool {
	c.calls++
	return c.answers[subclassKey{typeID: typeID, constraint: constraint}]
}

func (c *countingBridge) Project(value rkey.Key, field rkey.Field) rkey.Key { return value }
func (c *countingBridge) ProjectMulti(value rkey.Key, field rkey.Field) []rkey.Key {
	return nil
}
func (c *countingBridge) StoreList(items []rkey.Key) rkey.Key { return rkey.Empty }
func (c *countingBridge) ToStr(digest rkey.Digest) string     { return digest.String() }

func TestCachedBridge_MemoizesIsSubclass(t *testing.T) {
	var typeID, constraint rkey.Digest
	typeID[0] = 1
	constraint[0] = 2

	inner := &countingBridge{answers: map[subclassKey]bool{
		{typeID: typeID, constraint: constraint}: true,
	}}
	cached := NewCachedBridge(inner)

	for i := 0; i < 5; i++ {
		if !cached.IsSubclass(typeID, constraint) {
			t.Fatalf("expected cached answer to be true on call %d", i)
		}
	}

	if inner.calls != 1 {
		t.Fatalf("expected exactly 1 delegate call, got %d", inner.calls)
	}
}

func TestCachedBridge_DistinguishesKeys(t *testing.T) {
	var t1, t2, c1 rkey.Digest
	t1[0], t2[0], c1[0] = 1, 2, 9

	inner := &countingBridge{answers: map[subclassKey]bool{
		{typeID: t1, constraint: c1}: true,
		{typeID: t2, constraint: c1}: false,
	}}
	cached := NewCachedBridge(inner)

	if !cached.IsSubclass(t1, c1) {
		t.Errorf("expected true for t1/c1")
	}
	if cached.IsSubclass(t2, c1) {
		t.Errorf("expected false for t2/c1")
	}
	if inner.calls != 2 {
		t.Fatalf("expected 2 delegate calls for distinct keys, got %d", inner.calls)
	}
}

func TestFallbackToStr(t *testing.T) {
	var d rkey.Digest
	d[0] = 0xab
	got := FallbackToStr(d)
	if got == "" {
		t.Fatal("expected non-empty fallback rendering")
	}
}
