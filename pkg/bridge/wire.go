// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

// WireVersion identifies the layout of the buffers described below. Bump it
// if the field order or sizes of KeyBuffer/UTF8Buffer/KeyArrayBuffer ever
// change; embedders on the other side of a C ABI boundary key their decode
// logic off of it.
const WireVersion = "v1"

// KeyBuffer describes a single Key crossing a C ABI boundary: two
// contiguous 32-byte digests (value digest, then type digest), as
// documented in §6. The core copies out of buffers like this and never
// frees the memory they point to — ownership stays with whichever side
// allocated it.
type KeyBuffer struct {
	ValueDigest [32]byte
	TypeDigest  [32]byte
}

// KeyArrayBuffer describes a length-prefixed, contiguous run of KeyBuffers,
// the wire form ProjectMulti and StoreList exchange with the host.
type KeyArrayBuffer struct {
	Ptr uintptr
	Len uint64
}

// UTF8Buffer describes a length-prefixed run of UTF-8 bytes, the wire form
// ToStr returns. Decoding failure on the caller's side should fall back to
// FallbackToStr rather than panicking — ToStr is diagnostic-only.
type UTF8Buffer struct {
	Ptr uintptr
	Len uint64
}
