// SPDX-License-Identifier: AGPL-3.0-or-later

/*
rulecraft is a Go library implementing the rule-resolution core of a
declarative build engine: a selector algebra, node state machine, and
rule registry evaluated lazily over a dependency graph.
*/

// Package selectors declares how a node obtains a product for a subject:
// the small algebra of Select, SelectLiteral, SelectDependencies, and
// SelectProjection, plus the Rule type that pairs a clause of selectors
// with a host function.
package selectors

import "rulecraft/pkg/rkey"

// Kind discriminates the Selector union. Selector is implemented as a
// tagged sum (an interface with an unexported marker method) rather than
// open inheritance, per §9's guidance to dispatch on a single tag.
type Kind int

const (
	// KindSelect requests a product for the current subject, optionally
	// discriminated by a configured variant.
	KindSelect Kind = iota
	// KindSelectLiteral ignores the dynamic subject and always resolves to
	// a subject carried by the selector itself.
	KindSelectLiteral
	// KindSelectDependencies fans out over a collection-valued field.
	KindSelectDependencies
	// KindSelectProjection resolves a product for a value obtained by
	// projecting a field off another computed value.
	KindSelectProjection
)

// Selector is the declarative description of how to obtain one product.
// Rule clauses and Select's own variant-propagation step are built out of
// values of this interface.
type Selector interface {
	// Kind identifies which concrete selector this is.
	Kind() Kind
	// Product is the TypeConstraint this selector resolves.
	Product() rkey.TypeConstraint
	// Optional reports whether a Noop resolving this selector inside a
	// Task's clause should be treated as "no value" (the registry's
	// configured none Key) rather than failing the whole Task. This
	// generalizes the "variant key not configured" escape hatch described
	// in §4.3.6 uniformly across selector kinds, since SelectDependencies
	// and SelectProjection can also resolve to Noop before they would
	// otherwise escalate to Throw.
	Optional() bool

	isSelector()
}

// Select requests Product for the current subject, consulting is-a/has-a
// literal matches and registered rules in turn. If VariantKey is set, a
// candidate is only accepted when its configured variant value (looked up
// in the node's Variants under VariantKey) agrees.
type Select struct {
	product    rkey.TypeConstraint
	variantKey *rkey.Field
	optional   bool
}

// NewSelect builds a Select for product. variantKey may be nil.
func NewSelect(product rkey.TypeConstraint, variantKey *rkey.Field, optional bool) Select {
	return Select{product: product, variantKey: variantKey, optional: optional}
}

func (s Select) Kind() Kind                      { return KindSelect }
func (s Select) Product() rkey.TypeConstraint     { return s.product }
func (s Select) Optional() bool                   { return s.optional }
func (s Select) VariantKey() (rkey.Field, bool) {
	if s.variantKey == nil {
		return rkey.Field{}, false
	}
	return *s.variantKey, true
}
func (Select) isSelector() {}

// SelectLiteral ignores the dynamic subject; the node it builds always
// resolves to Subject.
type SelectLiteral struct {
	subject rkey.Key
	product rkey.TypeConstraint
}

// NewSelectLiteral builds a SelectLiteral that always resolves to subject.
func NewSelectLiteral(subject rkey.Key, product rkey.TypeConstraint) SelectLiteral {
	return SelectLiteral{subject: subject, product: product}
}

func (s SelectLiteral) Kind() Kind                  { return KindSelectLiteral }
func (s SelectLiteral) Product() rkey.TypeConstraint { return s.product }
func (s SelectLiteral) Optional() bool              { return false }
func (s SelectLiteral) Subject() rkey.Key           { return s.subject }
func (SelectLiteral) isSelector()                   {}

// SelectDependencies first resolves DepProduct for the subject, then
// projects Field off of it (expecting a collection) and requests Product
// for each element in declaration order.
type SelectDependencies struct {
	product    rkey.TypeConstraint
	depProduct rkey.TypeConstraint
	field      rkey.Field
	transitive bool
	optional   bool
}

// NewSelectDependencies builds a SelectDependencies selector. When
// transitive is set, the node built from it also recurses into each
// dependency's own dependencies and flattens their results into its own.
func NewSelectDependencies(product, depProduct rkey.TypeConstraint, field rkey.Field, transitive, optional bool) SelectDependencies {
	return SelectDependencies{product: product, depProduct: depProduct, field: field, transitive: transitive, optional: optional}
}

func (s SelectDependencies) Kind() Kind                      { return KindSelectDependencies }
func (s SelectDependencies) Product() rkey.TypeConstraint     { return s.product }
func (s SelectDependencies) Optional() bool                   { return s.optional }
func (s SelectDependencies) DepProduct() rkey.TypeConstraint  { return s.depProduct }
func (s SelectDependencies) Field() rkey.Field                { return s.field }
func (s SelectDependencies) Transitive() bool                 { return s.transitive }
func (SelectDependencies) isSelector()                        {}

// SelectProjection resolves Product for the value obtained by projecting
// Field off of the subject's InputProduct value, where the projected value
// is expected to have type ProjectedSubject.
type SelectProjection struct {
	product          rkey.TypeConstraint
	projectedSubject rkey.TypeID
	field            rkey.Field
	inputProduct     rkey.TypeConstraint
	optional         bool
}

// NewSelectProjection builds a SelectProjection selector.
func NewSelectProjection(product rkey.TypeConstraint, projectedSubject rkey.TypeID, field rkey.Field, inputProduct rkey.TypeConstraint, optional bool) SelectProjection {
	return SelectProjection{
		product:          product,
		projectedSubject: projectedSubject,
		field:            field,
		inputProduct:     inputProduct,
		optional:         optional,
	}
}

func (s SelectProjection) Kind() Kind                     { return KindSelectProjection }
func (s SelectProjection) Product() rkey.TypeConstraint    { return s.product }
func (s SelectProjection) Optional() bool                  { return s.optional }
func (s SelectProjection) ProjectedSubject() rkey.TypeID   { return s.projectedSubject }
func (s SelectProjection) Field() rkey.Field               { return s.field }
func (s SelectProjection) InputProduct() rkey.TypeConstraint { return s.inputProduct }
func (SelectProjection) isSelector()                       {}
