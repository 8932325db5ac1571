// SPDX-License-Identifier: AGPL-3.0-or-later

package node

import (
	"fmt"

	"rulecraft/pkg/rkey"
	"rulecraft/pkg/selectors"
)

// ListField is the reserved field this core uses to round-trip a
// bridge.StoreList value back into its constituent Keys via
// Bridge.ProjectMulti. A transitive SelectDependencies fan-out uses it to
// flatten a nested SelectDependencies node's Return into its own result
// set, without needing a dedicated unwrap operation on the Bridge
// contract — StoreList and ProjectMulti already pair up for this.
var ListField = rkey.NewKey(
	rkey.HashBytes([]byte("rulecraft/pkg/node.ListValue")),
	rkey.HashBytes([]byte("rulecraft/pkg/node.ListType")),
)

// SelectDependenciesNode resolves DepProduct for the subject, projects
// Field off of it to get an ordered collection of dependency subjects,
// then requests Product for each one (§4.3.3). When Transitive is set, it
// additionally recurses into each dependency's own dependency set and
// flattens the result in.
type SelectDependenciesNode struct {
	subject  rkey.Key
	variants rkey.Variants
	selector selectors.SelectDependencies
	id       rkey.Digest
}

// NewSelectDependenciesNode builds a SelectDependenciesNode.
func NewSelectDependenciesNode(subject rkey.Key, variants rkey.Variants, sel selectors.SelectDependencies) *SelectDependenciesNode {
	b := newIDBuilder(tagSelectDependencies)
	b.writeKey(subject)
	b.writeVariants(variants)
	b.writeSelector(sel)
	return &SelectDependenciesNode{subject: subject, variants: variants, selector: sel, id: b.sum()}
}

func (n *SelectDependenciesNode) ID() rkey.Digest { return n.id }

func (n *SelectDependenciesNode) String() string {
	return fmt.Sprintf("SelectDependencies(subject=%s, product=%s)", n.subject, n.selector.Product())
}

// fanoutNode pairs the per-dependency Select(Product) node with an
// optional recursive SelectDependencies node, kept in dependency-key order
// so the final StoreList preserves the host's declared order.
type fanoutNode struct {
	product    *SelectNode
	transitive *SelectDependenciesNode
}

func (n *SelectDependenciesNode) Step(ctx *StepContext) State {
	sel := n.selector

	depProductNode := NewSelectNode(n.subject, n.variants, selectors.NewSelect(sel.DepProduct(), nil, false))
	comp, ok := ctx.Get(depProductNode)
	if !ok {
		return Waiting([]Node{depProductNode})
	}
	switch comp.Kind {
	case CompleteThrow:
		return CompleteState(comp)
	case CompleteNoop:
		return CompleteState(Noop("dependency product unavailable", depProductNode))
	}

	depKeys := ctx.Bridge().ProjectMulti(comp.Value, sel.Field())

	fanouts := make([]fanoutNode, len(depKeys))
	for i, dk := range depKeys {
		fo := fanoutNode{product: NewSelectNode(dk, n.variants, selectors.NewSelect(sel.Product(), nil, false))}
		if sel.Transitive() {
			fo.transitive = NewSelectDependenciesNode(dk, n.variants, sel)
		}
		fanouts[i] = fo
	}

	var deps []Node
	var results []rkey.Key
	for _, fo := range fanouts {
		pc, ok := ctx.Get(fo.product)
		if !ok {
			deps = append(deps, fo.product)
		} else if pc.Kind == CompleteThrow {
			return CompleteState(pc)
		} else if pc.Kind == CompleteNoop {
			return CompleteState(Throw("no source of explicit dep " + fo.product.String()))
		} else if pc.Kind == CompleteReturn {
			results = append(results, pc.Value)
		}

		if fo.transitive == nil {
			continue
		}
		tc, ok := ctx.Get(fo.transitive)
		if !ok {
			deps = append(deps, fo.transitive)
		} else if tc.Kind == CompleteThrow {
			return CompleteState(tc)
		} else if tc.Kind == CompleteReturn {
			results = append(results, ctx.Bridge().ProjectMulti(tc.Value, ListField)...)
		}
	}
	if len(deps) > 0 {
		return Waiting(deps)
	}
	return CompleteState(Return(ctx.Bridge().StoreList(results)))
}
