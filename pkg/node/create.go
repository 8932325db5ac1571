// SPDX-License-Identifier: AGPL-3.0-or-later

package node

import (
	"fmt"

	"rulecraft/pkg/rkey"
	"rulecraft/pkg/selectors"
)

// Create builds the Node a selector describes against subject/variants.
// SelectLiteral is the one case where the selector's own subject
// overrides the caller's — it always resolves to the value it carries,
// regardless of which node requested it (§4.3.2).
func Create(sel selectors.Selector, subject rkey.Key, variants rkey.Variants) Node {
	switch s := sel.(type) {
	case selectors.Select:
		return NewSelectNode(subject, variants, s)
	case selectors.SelectLiteral:
		return NewSelectLiteralNode(s.Subject(), variants, s)
	case selectors.SelectDependencies:
		return NewSelectDependenciesNode(subject, variants, s)
	case selectors.SelectProjection:
		return NewSelectProjectionNode(subject, variants, s)
	default:
		panic(fmt.Sprintf("node: unknown selector kind %T", sel))
	}
}
