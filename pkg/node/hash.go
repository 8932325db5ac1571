// SPDX-License-Identifier: AGPL-3.0-or-later

package node

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"

	"rulecraft/pkg/rkey"
	"rulecraft/pkg/selectors"
)

// nodeTag discriminates the concrete node kinds within the structural hash.
// Values are stable; changing them changes every node's identity.
type nodeTag byte

const (
	tagSelect nodeTag = iota
	tagSelectLiteral
	tagSelectDependencies
	tagProjectField
	tagSelectProjection
	tagTask
)

// idBuilder accumulates a node's canonical encoding and reduces it to a
// Digest. Two nodes that write the same byte sequence are, by construction,
// the same cache entry (§3's memoization invariant).
type idBuilder struct {
	h hash.Hash
}

func newIDBuilder(tag nodeTag) *idBuilder {
	b := &idBuilder{h: sha256.New()}
	b.h.Write([]byte{byte(tag)})
	return b
}

func (b *idBuilder) writeBool(v bool) {
	if v {
		b.h.Write([]byte{1})
	} else {
		b.h.Write([]byte{0})
	}
}

func (b *idBuilder) writeDigest(d rkey.Digest) {
	b.h.Write(d[:])
}

func (b *idBuilder) writeKey(k rkey.Key) {
	digest := k.Digest()
	typeID := k.TypeID()
	b.h.Write(digest[:])
	b.h.Write(typeID[:])
}

func (b *idBuilder) writeVariants(v rkey.Variants) {
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(v)))
	b.h.Write(lenBuf[:])
	for _, e := range v {
		b.writeKey(e.Key)
		b.writeKey(e.Value)
	}
}

func (b *idBuilder) writeOptionalField(f *rkey.Field) {
	if f == nil {
		b.writeBool(false)
		return
	}
	b.writeBool(true)
	b.writeKey(*f)
}

// writeSelector encodes any Selector's full field set, for use both in a
// Task's Clause and in Select's own recursive variant-propagation node.
func (b *idBuilder) writeSelector(s selectors.Selector) {
	switch sel := s.(type) {
	case selectors.Select:
		b.h.Write([]byte{byte(selectors.KindSelect)})
		b.writeDigest(sel.Product())
		vk, ok := sel.VariantKey()
		if ok {
			b.writeOptionalField(&vk)
		} else {
			b.writeOptionalField(nil)
		}
		b.writeBool(sel.Optional())
	case selectors.SelectLiteral:
		b.h.Write([]byte{byte(selectors.KindSelectLiteral)})
		b.writeKey(sel.Subject())
		b.writeDigest(sel.Product())
	case selectors.SelectDependencies:
		b.h.Write([]byte{byte(selectors.KindSelectDependencies)})
		b.writeDigest(sel.Product())
		b.writeDigest(sel.DepProduct())
		b.writeKey(sel.Field())
		b.writeBool(sel.Transitive())
		b.writeBool(sel.Optional())
	case selectors.SelectProjection:
		b.h.Write([]byte{byte(selectors.KindSelectProjection)})
		b.writeDigest(sel.Product())
		b.writeDigest(sel.ProjectedSubject())
		b.writeKey(sel.Field())
		b.writeDigest(sel.InputProduct())
		b.writeBool(sel.Optional())
	default:
		panic("node: unknown selector kind in identity hash")
	}
}

func (b *idBuilder) sum() rkey.Digest {
	var d rkey.Digest
	copy(d[:], b.h.Sum(nil))
	return d
}
