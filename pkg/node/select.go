// SPDX-License-Identifier: AGPL-3.0-or-later

package node

import (
	"fmt"

	"rulecraft/pkg/rkey"
	"rulecraft/pkg/selectors"
)

// SelectNode resolves a selectors.Select against one subject: variant
// propagation, then a literal is-a/has-a match, then registered rules
// (§4.3.1). It is the only node kind that can itself decide "no rule
// applies" without a host round-trip.
type SelectNode struct {
	subject  rkey.Key
	variants rkey.Variants
	selector selectors.Select
	id       rkey.Digest
}

// NewSelectNode builds a SelectNode, computing its identity eagerly so
// equal nodes compare cheaply via ID() alone.
func NewSelectNode(subject rkey.Key, variants rkey.Variants, sel selectors.Select) *SelectNode {
	b := newIDBuilder(tagSelect)
	b.writeKey(subject)
	b.writeVariants(variants)
	b.writeSelector(sel)
	return &SelectNode{subject: subject, variants: variants, selector: sel, id: b.sum()}
}

func (n *SelectNode) ID() rkey.Digest { return n.id }

func (n *SelectNode) String() string {
	return fmt.Sprintf("Select(subject=%s, product=%s)", n.subject, n.selector.Product())
}

// Product is the TypeConstraint this node resolves.
func (n *SelectNode) Product() rkey.TypeConstraint { return n.selector.Product() }

// Step implements §4.3.1 in order: variant propagation, the variant gate,
// a literal is-a/has-a match against the subject itself, then registered
// rules.
func (n *SelectNode) Step(ctx *StepContext) State {
	reg := ctx.Registry()
	variants := n.variants

	// Step 1: variant propagation. Subjects that are-a Address and are not
	// themselves being asked for their own variant mapping get any declared
	// variant mapping merged in ahead of the variant gate.
	if n.Product() != reg.TypeHasVariants() && ctx.Bridge().IsSubclass(n.subject.TypeID(), reg.TypeAddress()) {
		declNode := NewSelectNode(n.subject, n.variants, selectors.NewSelect(reg.TypeHasVariants(), nil, false))
		comp, ok := ctx.Get(declNode)
		if !ok {
			return Waiting([]Node{declNode})
		}
		switch comp.Kind {
		case CompleteThrow:
			return CompleteState(comp)
		case CompleteReturn:
			decl, err := decodeVariants(ctx.Bridge().ProjectMulti(comp.Value, reg.FieldVariants()))
			if err != nil {
				return CompleteState(Throw(err.Error()))
			}
			variants = n.variants.Merge(decl)
		case CompleteNoop:
			// No declared mapping; proceed with the variants already in scope.
		}
	}

	// Step 2: variant gate. A configured variant key that isn't present in
	// scope is an absence, not a failure.
	var variantValue *rkey.Key
	if vk, ok := n.selector.VariantKey(); ok {
		val, found := variants.Get(vk)
		if !found {
			return CompleteState(Noop(fmt.Sprintf("variant key %s not configured", vk), n))
		}
		variantValue = &val
	}

	// Steps 3-4: literal is-a/has-a match against the subject.
	if v, ok := n.selectLiteral(ctx, n.subject, variantValue); ok {
		return CompleteState(Return(v))
	}

	// Step 5: registered rules.
	var deps []Node
	var matches []rkey.Key
	for _, rule := range reg.GenRules(n.subject.TypeID(), n.Product()) {
		taskNode := NewTaskNode(n.subject, variants, rule)
		comp, ok := ctx.Get(taskNode)
		if !ok {
			deps = append(deps, taskNode)
			continue
		}
		switch comp.Kind {
		case CompleteThrow:
			return CompleteState(comp)
		case CompleteNoop:
			continue
		case CompleteReturn:
			if v, ok := n.selectLiteralSingle(ctx, comp.Value, variantValue); ok {
				matches = append(matches, v)
			}
		}
	}
	if len(deps) > 0 {
		return Waiting(deps)
	}
	if len(matches) > 1 {
		return CompleteState(Throw(fmt.Sprintf("conflicting values produced for %s on subject %s", n.Product(), n.subject)))
	}
	if len(matches) == 1 {
		return CompleteState(Return(matches[0]))
	}
	return CompleteState(Noop(fmt.Sprintf("no rule produced %s for subject %s", n.Product(), n.subject), n))
}

// selectLiteralSingle reports whether candidate itself satisfies Product
// and, when a variant is in force, whether candidate's configured "name"
// field agrees with it. It does not search has-a children — that's
// selectLiteral's job, and task-match results (already the rule's produced
// value) are checked against this narrower test alone (§4.3.1 step 5).
func (n *SelectNode) selectLiteralSingle(ctx *StepContext, candidate rkey.Key, variantValue *rkey.Key) (rkey.Key, bool) {
	if !ctx.Bridge().IsSubclass(candidate.TypeID(), n.Product()) {
		return rkey.Key{}, false
	}
	if variantValue != nil {
		name := ctx.Bridge().Project(candidate, ctx.Registry().FieldName())
		if name != *variantValue {
			return rkey.Key{}, false
		}
	}
	return candidate, true
}

// selectLiteral tests candidate directly, then — if candidate is-a
// HasProducts — each child in its "products" field, in declaration order,
// returning the first to pass selectLiteralSingle.
func (n *SelectNode) selectLiteral(ctx *StepContext, candidate rkey.Key, variantValue *rkey.Key) (rkey.Key, bool) {
	if v, ok := n.selectLiteralSingle(ctx, candidate, variantValue); ok {
		return v, true
	}
	if !ctx.Bridge().IsSubclass(candidate.TypeID(), ctx.Registry().TypeHasProducts()) {
		return rkey.Key{}, false
	}
	for _, child := range ctx.Bridge().ProjectMulti(candidate, ctx.Registry().FieldProducts()) {
		if v, ok := n.selectLiteralSingle(ctx, child, variantValue); ok {
			return v, true
		}
	}
	return rkey.Key{}, false
}

// decodeVariants interprets a host's projected "variants" field as a flat,
// even-length sequence of (key, value, key, value, ...) Keys — the
// convention this core asks a host to honor when it declares a subject's
// default variant mapping.
func decodeVariants(keys []rkey.Key) (rkey.Variants, error) {
	if len(keys)%2 != 0 {
		return nil, fmt.Errorf("malformed variants mapping: odd element count %d", len(keys))
	}
	out := make(rkey.Variants, 0, len(keys)/2)
	for i := 0; i < len(keys); i += 2 {
		out = append(out, rkey.VariantEntry{Key: keys[i], Value: keys[i+1]})
	}
	return out, nil
}
