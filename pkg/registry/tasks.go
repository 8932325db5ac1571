// SPDX-License-Identifier: AGPL-3.0-or-later

/*
rulecraft is a Go library implementing the rule-resolution core of a
declarative build engine: a selector algebra, node state machine, and
rule registry evaluated lazily over a dependency graph.
*/

// Package registry holds the mapping from product constraint to candidate
// rules, plus the host-supplied fixed fields and type constraints the core
// needs to resolve is-a/has-a relationships and variant propagation.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"rulecraft/pkg/rkey"
	"rulecraft/pkg/selectors"
)

// Instrumentation hooks for observability. Both are optional; set them
// before registering rules if a host wants to trace registry activity.
var (
	OnRuleRegistered      func(product rkey.TypeConstraint)
	OnIntrinsicRegistered func(subjectType rkey.TypeID, product rkey.TypeConstraint)
)

type intrinsicKey struct {
	subjectType rkey.TypeID
	product     rkey.TypeConstraint
}

// Tasks is the registry of rules able to produce each product, plus the
// fixed fields/constraints the core's resolution rules (§4.3.1's variant
// propagation, has-a search) depend on.
//
// Registration and lookup are both guarded by a RWMutex: lookups happen
// concurrently while a scheduler steps many nodes, and §4.2 requires that
// "rule addition must not overlap with stepping" — the lock makes that
// requirement cheap to honor rather than merely documented.
type Tasks struct {
	mu sync.RWMutex

	intrinsics map[intrinsicKey][]selectors.Rule
	tasks      map[rkey.TypeConstraint][]selectors.Rule

	fieldName     rkey.Field
	fieldProducts rkey.Field
	fieldVariants rkey.Field

	typeAddress      rkey.TypeConstraint
	typeHasProducts  rkey.TypeConstraint
	typeHasVariants  rkey.TypeConstraint

	noneKey rkey.Key

	preparing *pendingRule
}

// pendingRule is the single-task builder slot serializing rule
// construction, mirroring the source's "preparing: Option<Task>".
type pendingRule struct {
	product   rkey.TypeConstraint
	clause    []selectors.Selector
	fn        rkey.Function
	cacheable bool
}

// NewTasks constructs an empty registry configured with the host's fixed
// fields, type constraints, and "no value" sentinel Key (see SPEC_FULL.md
// §C.1 for why NoneKey is configurable rather than hard-coded to the zero
// Key).
func NewTasks(
	fieldName, fieldProducts, fieldVariants rkey.Field,
	typeAddress, typeHasProducts, typeHasVariants rkey.TypeConstraint,
	noneKey rkey.Key,
) *Tasks {
	return &Tasks{
		intrinsics:      make(map[intrinsicKey][]selectors.Rule),
		tasks:           make(map[rkey.TypeConstraint][]selectors.Rule),
		fieldName:       fieldName,
		fieldProducts:   fieldProducts,
		fieldVariants:   fieldVariants,
		typeAddress:     typeAddress,
		typeHasProducts: typeHasProducts,
		typeHasVariants: typeHasVariants,
		noneKey:         noneKey,
	}
}

// FieldName, FieldProducts and FieldVariants return the host's fixed field
// handles, used by node steps that need to project "name", "products", or
// "variants" off a host value.
func (t *Tasks) FieldName() rkey.Field     { return t.fieldName }
func (t *Tasks) FieldProducts() rkey.Field { return t.fieldProducts }
func (t *Tasks) FieldVariants() rkey.Field { return t.fieldVariants }

// TypeAddress, TypeHasProducts and TypeHasVariants return the host's fixed
// type constraints used by Select's literal-match and has-a search.
func (t *Tasks) TypeAddress() rkey.TypeConstraint     { return t.typeAddress }
func (t *Tasks) TypeHasProducts() rkey.TypeConstraint { return t.typeHasProducts }
func (t *Tasks) TypeHasVariants() rkey.TypeConstraint { return t.typeHasVariants }

// NoneKey returns the Key a Task substitutes for an optional selector that
// resolved to Noop.
func (t *Tasks) NoneKey() rkey.Key { return t.noneKey }

// GenRules returns the candidate rules for (subjectType, product): the
// intrinsic entry if one is registered, otherwise the generic task entry,
// otherwise nil. Intrinsics are never merged with tasks (§4.2).
func (t *Tasks) GenRules(subjectType rkey.TypeID, product rkey.TypeConstraint) []selectors.Rule {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if rules, ok := t.intrinsics[intrinsicKey{subjectType: subjectType, product: product}]; ok {
		return rules
	}
	return t.tasks[product]
}

// TaskBegin opens the builder slot for a new rule. Panics if a rule is
// already being built — callers must TaskEnd before starting another.
func (t *Tasks) TaskBegin(fn rkey.Function, product rkey.TypeConstraint) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.preparing != nil {
		panic("registry: must TaskEnd the previous rule before calling TaskBegin again")
	}
	t.preparing = &pendingRule{product: product, fn: fn, cacheable: true}
}

// AddSelect appends a Select clause entry to the rule currently being
// built.
func (t *Tasks) AddSelect(product rkey.TypeConstraint, variantKey *rkey.Field, optional bool) {
	t.appendClause(selectors.NewSelect(product, variantKey, optional))
}

// AddSelectLiteral appends a SelectLiteral clause entry.
func (t *Tasks) AddSelectLiteral(subject rkey.Key, product rkey.TypeConstraint) {
	t.appendClause(selectors.NewSelectLiteral(subject, product))
}

// AddSelectDependencies appends a SelectDependencies clause entry.
func (t *Tasks) AddSelectDependencies(product, depProduct rkey.TypeConstraint, field rkey.Field, transitive, optional bool) {
	t.appendClause(selectors.NewSelectDependencies(product, depProduct, field, transitive, optional))
}

// AddSelectProjection appends a SelectProjection clause entry.
func (t *Tasks) AddSelectProjection(product rkey.TypeConstraint, projectedSubject rkey.TypeID, field rkey.Field, inputProduct rkey.TypeConstraint, optional bool) {
	t.appendClause(selectors.NewSelectProjection(product, projectedSubject, field, inputProduct, optional))
}

func (t *Tasks) appendClause(s selectors.Selector) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.preparing == nil {
		panic("registry: must TaskBegin before adding clause entries")
	}
	t.preparing.clause = append(t.preparing.clause, s)
}

// TaskEnd moves the rule under construction into the registry, keyed by
// its product. Panics if an equal rule was already registered for that
// product — double-registration is a programmer error (§4.2).
func (t *Tasks) TaskEnd() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.preparing == nil {
		panic("registry: must TaskBegin before calling TaskEnd")
	}
	rule := selectors.Rule{
		Product:   t.preparing.product,
		Clause:    t.preparing.clause,
		Func:      t.preparing.fn,
		Cacheable: t.preparing.cacheable,
	}
	t.preparing = nil

	existing := t.tasks[rule.Product]
	for _, r := range existing {
		if r.Equal(rule) {
			panic(fmt.Sprintf("registry: rule %+v was double-registered", rule))
		}
	}
	t.tasks[rule.Product] = append(existing, rule)

	if OnRuleRegistered != nil {
		OnRuleRegistered(rule.Product)
	}
}

// IntrinsicAdd registers a one-shot intrinsic rule for (subjectType,
// product): a rule with no configured clause, bypassing the builder. Its
// clause is synthesized as a single Select whose product is subjectType
// itself, so the subject is passed straight to fn (§4.2).
func (t *Tasks) IntrinsicAdd(fn rkey.Function, subjectType rkey.TypeID, product rkey.TypeConstraint) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := intrinsicKey{subjectType: subjectType, product: product}
	rule := selectors.Rule{
		Product:   product,
		Clause:    []selectors.Selector{selectors.NewSelect(rkey.TypeConstraint(subjectType), nil, false)},
		Func:      fn,
		Cacheable: false,
	}
	t.intrinsics[key] = append(t.intrinsics[key], rule)

	if OnIntrinsicRegistered != nil {
		OnIntrinsicRegistered(subjectType, product)
	}
}

// Products returns every product with at least one registered task rule,
// in sorted string order, for deterministic listing (e.g. `rulecraft
// validate`'s summary output).
func (t *Tasks) Products() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, 0, len(t.tasks))
	for product := range t.tasks {
		out = append(out, product.String())
	}
	sort.Strings(out)
	return out
}
