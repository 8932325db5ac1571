// SPDX-License-Identifier: AGPL-3.0-or-later

package selectors

import "rulecraft/pkg/rkey"

// Rule (the source's "Task") is a declarative "clause ⇒ func" description
// of how to synthesize a product: gather one value per Selector in Clause,
// in order, then invoke Func with those values as arguments. Rules are
// immutable once registered.
type Rule struct {
	Product   rkey.TypeConstraint
	Clause    []Selector
	Func      rkey.Function
	Cacheable bool
}

// Equal reports whether r and other describe the same rule. Two equal
// rules registered for the same product is a double-registration error
// (§4.2).
func (r Rule) Equal(other Rule) bool {
	if r.Product != other.Product || r.Func != other.Func || r.Cacheable != other.Cacheable {
		return false
	}
	if len(r.Clause) != len(other.Clause) {
		return false
	}
	for i := range r.Clause {
		if !selectorsEqual(r.Clause[i], other.Clause[i]) {
			return false
		}
	}
	return true
}

func selectorsEqual(a, b Selector) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Select:
		bv := b.(Select)
		if av.product != bv.product || av.optional != bv.optional {
			return false
		}
		ak, aok := av.VariantKey()
		bk, bok := bv.VariantKey()
		return aok == bok && (!aok || ak == bk)
	case SelectLiteral:
		bv := b.(SelectLiteral)
		return av == bv
	case SelectDependencies:
		bv := b.(SelectDependencies)
		return av == bv
	case SelectProjection:
		bv := b.(SelectProjection)
		return av == bv
	default:
		return false
	}
}
