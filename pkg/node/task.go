// SPDX-License-Identifier: AGPL-3.0-or-later

package node

import (
	"fmt"

	"rulecraft/pkg/rkey"
	"rulecraft/pkg/selectors"
)

// TaskNode gathers one value per selector in Rule.Clause, in order, then
// emits a Runnable that invokes Rule.Func with those values (§4.3.6). A
// Noop on a clause entry marked Optional is substituted with the
// registry's configured NoneKey and the task proceeds; a Noop on a
// required entry makes the whole task Noop.
type TaskNode struct {
	subject  rkey.Key
	variants rkey.Variants
	rule     selectors.Rule
	id       rkey.Digest
}

// NewTaskNode builds a TaskNode for rule against subject/variants.
func NewTaskNode(subject rkey.Key, variants rkey.Variants, rule selectors.Rule) *TaskNode {
	b := newIDBuilder(tagTask)
	b.writeKey(subject)
	b.writeVariants(variants)
	b.writeDigest(rule.Product)
	b.writeDigest(rule.Func)
	b.writeBool(rule.Cacheable)
	b.h.Write([]byte{byte(len(rule.Clause))})
	for _, s := range rule.Clause {
		b.writeSelector(s)
	}
	return &TaskNode{subject: subject, variants: variants, rule: rule, id: b.sum()}
}

func (n *TaskNode) ID() rkey.Digest { return n.id }

func (n *TaskNode) String() string {
	return fmt.Sprintf("Task(subject=%s, product=%s, func=%s)", n.subject, n.rule.Product, n.rule.Func)
}

func (n *TaskNode) Step(ctx *StepContext) State {
	var deps []Node
	var args []Arg

	for _, sel := range n.rule.Clause {
		dep := Create(sel, n.subject, n.variants)
		comp, ok := ctx.Get(dep)
		if !ok {
			deps = append(deps, dep)
			continue
		}
		switch comp.Kind {
		case CompleteThrow:
			return CompleteState(comp)
		case CompleteNoop:
			if !sel.Optional() {
				return CompleteState(Noop(fmt.Sprintf("required clause entry %s was absent", dep), dep))
			}
			args = append(args, ValueArg(ctx.Registry().NoneKey()))
		case CompleteReturn:
			args = append(args, ValueArg(comp.Value))
		}
	}

	if len(deps) > 0 {
		return Waiting(deps)
	}
	return RunnableState(Runnable{
		Func:      n.rule.Func,
		Args:      args,
		Cacheable: n.rule.Cacheable,
	})
}
