// SPDX-License-Identifier: AGPL-3.0-or-later
// iaxcore - an IAX2 voice conferencing bridge
// Copyright (C) 2023-2026 Jacob McSwain
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package iax2frame

import (
	"encoding/binary"
)

// IE is one parsed information element: an 8-bit type, implied length,
// and up to 255 bytes of value.
type IE struct {
	Type  IEType
	Value []byte
}

// IESet is an ordered collection of information elements, as carried in
// a full frame's payload. Every getter here is total: it returns
// (value, false) on absence rather than panicking, per spec.md §4.1.
type IESet []IE

// ParseIEs decodes a TLV sequence. Malformed trailing bytes (a truncated
// length-prefixed value) stop decoding and return what was successfully
// parsed rather than erroring, matching the codec's never-abort contract.
func ParseIEs(payload []byte) IESet {
	var ies IESet
	for len(payload) >= IEHeaderLen {
		t := IEType(payload[0])
		l := int(payload[1])
		if len(payload) < IEHeaderLen+l {
			break
		}
		value := payload[IEHeaderLen : IEHeaderLen+l]
		ies = append(ies, IE{Type: t, Value: value})
		payload = payload[IEHeaderLen+l:]
	}
	return ies
}

// Serialise encodes the IE set back into TLV bytes, truncating any value
// longer than MaxIEValueLen to that bound (setters that built the value
// are themselves responsible for respecting this, but Serialise never
// produces an unparseable frame).
func (ies IESet) Serialise() []byte {
	out := make([]byte, 0, len(ies)*8)
	for _, ie := range ies {
		v := ie.Value
		if len(v) > MaxIEValueLen {
			v = v[:MaxIEValueLen]
		}
		out = append(out, byte(ie.Type), byte(len(v)))
		out = append(out, v...)
	}
	return out
}

// Get returns the first IE of the given type, or (IE{}, false) if absent.
func (ies IESet) Get(t IEType) (IE, bool) {
	for _, ie := range ies {
		if ie.Type == t {
			return ie, true
		}
	}
	return IE{}, false
}

// GetAll returns every IE of the given type, in order.
func (ies IESet) GetAll(t IEType) []IE {
	var out []IE
	for _, ie := range ies {
		if ie.Type == t {
			out = append(out, ie)
		}
	}
	return out
}

// GetUint8 returns the IE's value as an unsigned byte.
func (ies IESet) GetUint8(t IEType) (uint8, bool) {
	ie, ok := ies.Get(t)
	if !ok || len(ie.Value) < 1 {
		return 0, false
	}
	return ie.Value[0], true
}

// GetUint16 returns the IE's value as a big-endian uint16.
func (ies IESet) GetUint16(t IEType) (uint16, bool) {
	ie, ok := ies.Get(t)
	if !ok || len(ie.Value) < 2 {
		return 0, false
	}
	return binary.BigEndian.Uint16(ie.Value[:2]), true
}

// GetUint32 returns the IE's value as a big-endian uint32.
func (ies IESet) GetUint32(t IEType) (uint32, bool) {
	ie, ok := ies.Get(t)
	if !ok || len(ie.Value) < 4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(ie.Value[:4]), true
}

// GetString returns the IE's value as a zero-terminated (or bare) ASCII
// string.
func (ies IESet) GetString(t IEType) (string, bool) {
	ie, ok := ies.Get(t)
	if !ok {
		return "", false
	}
	v := ie.Value
	for i, b := range v {
		if b == 0 {
			v = v[:i]
			break
		}
	}
	return string(v), true
}

// GetBytes returns the IE's raw value.
func (ies IESet) GetBytes(t IEType) ([]byte, bool) {
	ie, ok := ies.Get(t)
	if !ok {
		return nil, false
	}
	return ie.Value, true
}

// WithUint8 returns ies with an appended IE carrying a one-byte value.
func (ies IESet) WithUint8(t IEType, v uint8) IESet {
	return append(ies, IE{Type: t, Value: []byte{v}})
}

// WithUint16 returns ies with an appended IE carrying a big-endian
// two-byte value.
func (ies IESet) WithUint16(t IEType, v uint16) IESet {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return append(ies, IE{Type: t, Value: b})
}

// WithUint32 returns ies with an appended IE carrying a big-endian
// four-byte value.
func (ies IESet) WithUint32(t IEType, v uint32) IESet {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return append(ies, IE{Type: t, Value: b})
}

// WithString returns ies with an appended IE carrying s as bytes (no
// trailing NUL is appended; the wire length is implicit in the TLV).
func (ies IESet) WithString(t IEType, s string) IESet {
	return append(ies, IE{Type: t, Value: []byte(s)})
}

// WithBytes returns ies with an appended IE carrying v verbatim.
func (ies IESet) WithBytes(t IEType, v []byte) IESet {
	return append(ies, IE{Type: t, Value: v})
}
