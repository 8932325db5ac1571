// SPDX-License-Identifier: AGPL-3.0-or-later

package hostkit

import (
	"fmt"
	"testing"

	"rulecraft/pkg/node"
	"rulecraft/pkg/rkey"
)

func typeID(b byte) rkey.TypeID {
	var d rkey.Digest
	d[0] = b
	return d
}

func TestHost_PutIsIdempotentOnEqualValues(t *testing.T) {
	h := New(typeID(0xff))
	k1 := h.Put(typeID(1), "hello")
	k2 := h.Put(typeID(1), "hello")
	if k1 != k2 {
		t.Fatalf("expected identical values to intern to the same Key")
	}
}

func TestHost_IsSubclass(t *testing.T) {
	h := New(typeID(0xff))
	address, hasProducts := typeID(1), typeID(2)
	h.RegisterSubclass(address, hasProducts)

	if !h.IsSubclass(address, address) {
		t.Fatalf("expected reflexive subclass to hold")
	}
	if !h.IsSubclass(address, hasProducts) {
		t.Fatalf("expected registered subclass relation to hold")
	}
	if h.IsSubclass(hasProducts, address) {
		t.Fatalf("subclass relation must not be symmetric by default")
	}
}

func TestHost_ProjectAndProjectMulti(t *testing.T) {
	h := New(typeID(0xff))
	pathType := typeID(1)
	nameField := rkey.NewKey(typeID(0xa1), typeID(0xa1))
	entriesField := rkey.NewKey(typeID(0xa2), typeID(0xa2))

	type path struct {
		name    string
		entries []string
	}

	h.RegisterField(pathType, nameField, func(v any) (any, rkey.TypeID) {
		return v.(path).name, typeID(2)
	})

	var entryKeys []rkey.Key
	h.RegisterListField(pathType, entriesField, func(v any) []any {
		p := v.(path)
		out := make([]any, len(p.entries))
		for i, e := range p.entries {
			k := h.Put(typeID(2), e)
			entryKeys = append(entryKeys, k)
			out[i] = k
		}
		return out
	})

	subject := h.Put(pathType, path{name: "root", entries: []string{"a", "b"}})

	nameKey := h.Project(subject, nameField)
	name, ok := h.Get(nameKey)
	if !ok || name.(string) != "root" {
		t.Fatalf("expected projected name %q, got %v (ok=%v)", "root", name, ok)
	}

	keys := h.ProjectMulti(subject, entriesField)
	if len(keys) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(keys))
	}
}

func TestHost_StoreListRoundTripsThroughListField(t *testing.T) {
	h := New(typeID(0xee))
	a := h.Put(typeID(1), "a")
	b := h.Put(typeID(1), "b")

	listKey := h.StoreList([]rkey.Key{a, b})

	got := h.ProjectMulti(listKey, node.ListField)
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("expected StoreList to round-trip via node.ListField, got %+v", got)
	}
}

func TestHost_DefaultFieldAvoidsPanic(t *testing.T) {
	h := New(typeID(0xff))
	h.SetDefaultField(func(v any) (any, rkey.TypeID) {
		return fmt.Sprintf("synthetic(%v)", v), typeID(0xab)
	})

	subject := h.Put(typeID(1), "value")
	got := h.Project(subject, rkey.NewKey(typeID(9), typeID(9)))

	v, ok := h.Get(got)
	if !ok || v.(string) != "synthetic(value)" {
		t.Fatalf("expected the default field projector to run, got %v (ok=%v)", v, ok)
	}
}

func TestHost_ProjectPanicsOnUnknownField(t *testing.T) {
	h := New(typeID(0xff))
	subject := h.Put(typeID(1), "value")

	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic for an unregistered field")
		}
	}()
	h.Project(subject, rkey.NewKey(typeID(9), typeID(9)))
}
