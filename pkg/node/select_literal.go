// SPDX-License-Identifier: AGPL-3.0-or-later

package node

import (
	"fmt"

	"rulecraft/pkg/rkey"
	"rulecraft/pkg/selectors"
)

// SelectLiteralNode always resolves to its selector's own subject, ignoring
// whatever dynamic subject it was built against (§4.3.2). Node.Create
// reflects this by passing selector.Subject() through as the node's
// subject rather than the caller's.
type SelectLiteralNode struct {
	subject  rkey.Key
	variants rkey.Variants
	selector selectors.SelectLiteral
	id       rkey.Digest
}

// NewSelectLiteralNode builds a SelectLiteralNode.
func NewSelectLiteralNode(subject rkey.Key, variants rkey.Variants, sel selectors.SelectLiteral) *SelectLiteralNode {
	b := newIDBuilder(tagSelectLiteral)
	b.writeKey(subject)
	b.writeVariants(variants)
	b.writeSelector(sel)
	return &SelectLiteralNode{subject: subject, variants: variants, selector: sel, id: b.sum()}
}

func (n *SelectLiteralNode) ID() rkey.Digest { return n.id }

func (n *SelectLiteralNode) String() string {
	return fmt.Sprintf("SelectLiteral(subject=%s)", n.selector.Subject())
}

// Step always returns the selector's literal subject. It never Waits and
// never Noops.
func (n *SelectLiteralNode) Step(ctx *StepContext) State {
	return CompleteState(Return(n.selector.Subject()))
}
