// SPDX-License-Identifier: AGPL-3.0-or-later

package node

import (
	"fmt"

	"rulecraft/pkg/bridge"
	"rulecraft/pkg/rkey"
)

// ProjectFieldNode asks the host to project Field off of Value (§4.3.4).
// It exists so a field projection can be waited on like any other
// dependency — SelectProjection builds one internally once its input
// product is known — rather than calling Bridge.Project synchronously
// from inside another node's Step, which would hide the call from the
// scheduler's dispatch and caching.
//
// Its identity is exactly (value, field): two requests for the same
// projection share a cache entry regardless of which subject or rule
// chain asked for it first.
type ProjectFieldNode struct {
	value rkey.Key
	field rkey.Field
	id    rkey.Digest
}

// NewProjectFieldNode builds a ProjectFieldNode for value.field.
func NewProjectFieldNode(value rkey.Key, field rkey.Field) *ProjectFieldNode {
	b := newIDBuilder(tagProjectField)
	b.writeKey(value)
	b.writeKey(field)
	return &ProjectFieldNode{value: value, field: field, id: b.sum()}
}

func (n *ProjectFieldNode) ID() rkey.Digest { return n.id }

func (n *ProjectFieldNode) String() string {
	return fmt.Sprintf("ProjectField(value=%s, field=%s)", n.value, n.field)
}

// Step always emits a Runnable: the projection itself happens on the host
// side, identified by the reserved bridge.ProjectFunction so a scheduler
// can dispatch it without a registry lookup.
func (n *ProjectFieldNode) Step(ctx *StepContext) State {
	return RunnableState(Runnable{
		Func:      bridge.ProjectFunction,
		Args:      []Arg{ValueArg(n.value), ValueArg(n.field)},
		Cacheable: true,
	})
}
