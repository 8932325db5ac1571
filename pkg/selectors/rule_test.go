// SPDX-License-Identifier: AGPL-3.0-or-later

package selectors

import (
	"testing"

	"rulecraft/pkg/rkey"
)

func dg(b byte) (d [32]byte) {
	d[0] = b
	return d
}

func TestRule_Equal(t *testing.T) {
	product := dg(1)
	fn := dg(2)
	clauseA := []Selector{NewSelect(dg(3), nil, false)}
	clauseB := []Selector{NewSelect(dg(3), nil, false)}

	r1 := Rule{Product: product, Clause: clauseA, Func: fn, Cacheable: true}
	r2 := Rule{Product: product, Clause: clauseB, Func: fn, Cacheable: true}
	if !r1.Equal(r2) {
		t.Fatalf("expected structurally identical rules to be equal")
	}

	r3 := Rule{Product: product, Clause: clauseB, Func: fn, Cacheable: false}
	if r1.Equal(r3) {
		t.Fatalf("expected rules differing in cacheable to be unequal")
	}
}

func TestRule_Equal_VariantKeyDiffers(t *testing.T) {
	vk1 := rkey.NewKey(dg(9), dg(0xf0))
	vk2 := rkey.NewKey(dg(10), dg(0xf0))

	r1 := Rule{Clause: []Selector{NewSelect(dg(1), &vk1, false)}}
	r2 := Rule{Clause: []Selector{NewSelect(dg(1), &vk2, false)}}
	if r1.Equal(r2) {
		t.Fatalf("expected different variant keys to make rules unequal")
	}
}
