// SPDX-License-Identifier: AGPL-3.0-or-later

package node

import (
	"rulecraft/pkg/bridge"
	"rulecraft/pkg/registry"
	"rulecraft/pkg/rkey"
)

// StepContext is everything a node's Step needs beyond its own fields: the
// completions already known for its dependencies, the rule registry, and
// the host bridge. A scheduler builds one (by copying in whatever
// completions it already has) before calling Step; Step itself never
// mutates it (Invariant 1, §3).
type StepContext struct {
	deps     map[rkey.Digest]Complete
	registry *registry.Tasks
	bridge   bridge.Bridge
}

// NewStepContext builds a StepContext. deps maps a dependency node's ID to
// its already-known Complete; deps may be nil or partial — Get reports
// absence for anything not present, and the calling node responds with
// Waiting rather than guessing.
func NewStepContext(deps map[rkey.Digest]Complete, reg *registry.Tasks, br bridge.Bridge) *StepContext {
	return &StepContext{deps: deps, registry: reg, bridge: br}
}

// Get returns the completion already known for n, if any.
func (c *StepContext) Get(n Node) (Complete, bool) {
	comp, ok := c.deps[n.ID()]
	return comp, ok
}

// Registry returns the rule registry.
func (c *StepContext) Registry() *registry.Tasks { return c.registry }

// Bridge returns the host bridge.
func (c *StepContext) Bridge() bridge.Bridge { return c.bridge }
