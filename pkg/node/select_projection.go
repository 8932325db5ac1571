// SPDX-License-Identifier: AGPL-3.0-or-later

package node

import (
	"fmt"

	"rulecraft/pkg/rkey"
	"rulecraft/pkg/selectors"
)

// SelectProjectionNode resolves InputProduct for the subject, projects
// Field off of that value (expecting a ProjectedSubject-typed result), and
// then resolves Product for the projected value (§4.3.5). Each stage only
// becomes a dependency once the previous one has Returned.
type SelectProjectionNode struct {
	subject  rkey.Key
	variants rkey.Variants
	selector selectors.SelectProjection
	id       rkey.Digest
}

// NewSelectProjectionNode builds a SelectProjectionNode.
func NewSelectProjectionNode(subject rkey.Key, variants rkey.Variants, sel selectors.SelectProjection) *SelectProjectionNode {
	b := newIDBuilder(tagSelectProjection)
	b.writeKey(subject)
	b.writeVariants(variants)
	b.writeSelector(sel)
	return &SelectProjectionNode{subject: subject, variants: variants, selector: sel, id: b.sum()}
}

func (n *SelectProjectionNode) ID() rkey.Digest { return n.id }

func (n *SelectProjectionNode) String() string {
	return fmt.Sprintf("SelectProjection(subject=%s, product=%s)", n.subject, n.selector.Product())
}

func (n *SelectProjectionNode) Step(ctx *StepContext) State {
	sel := n.selector

	inputNode := NewSelectNode(n.subject, n.variants, selectors.NewSelect(sel.InputProduct(), nil, false))
	inputComp, ok := ctx.Get(inputNode)
	if !ok {
		return Waiting([]Node{inputNode})
	}
	switch inputComp.Kind {
	case CompleteThrow:
		return CompleteState(inputComp)
	case CompleteNoop:
		return CompleteState(Noop("projection input unavailable", inputNode))
	}

	projNode := NewProjectFieldNode(inputComp.Value, sel.Field())
	projComp, ok := ctx.Get(projNode)
	if !ok {
		return Waiting([]Node{projNode})
	}
	switch projComp.Kind {
	case CompleteThrow:
		return CompleteState(projComp)
	case CompleteNoop:
		return CompleteState(Noop("projected field unavailable", projNode))
	}

	outputNode := NewSelectNode(projComp.Value, n.variants, selectors.NewSelect(sel.Product(), nil, false))
	outputComp, ok := ctx.Get(outputNode)
	if !ok {
		return Waiting([]Node{outputNode})
	}
	switch outputComp.Kind {
	case CompleteNoop:
		return CompleteState(Throw("no source of projected dependency"))
	default:
		return CompleteState(outputComp)
	}
}
