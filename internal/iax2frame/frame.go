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
	"errors"
)

var (
	// ErrTooShort is returned by Parse when a datagram is below the
	// minimum header size for its discriminated frame kind.
	ErrTooShort = errors.New("iax2frame: datagram shorter than minimum header")
	// ErrTooLong is returned by Parse when a datagram exceeds MaxDatagramLen.
	ErrTooLong = errors.New("iax2frame: datagram exceeds maximum size")
	// ErrPayloadTooLarge is returned by Serialise when the assembled
	// frame would exceed MaxDatagramLen.
	ErrPayloadTooLarge = errors.New("iax2frame: serialised frame exceeds maximum size")
)

// Full is a parsed full frame: 12-byte header plus an IE-encoded or raw
// payload, depending on FrameType.
type Full struct {
	SourceCallID uint16 // 15 bits significant
	Retransmit   bool
	DestCallID   uint16 // 15 bits significant
	Timestamp    uint32
	OSeq         uint8
	ISeq         uint8
	Type         FrameType
	Subclass     uint8
	Payload      []byte // raw payload bytes (IEs for IAX frames, codec data for voice/DTMF/text)
}

// Mini is a parsed mini frame: 4-byte header plus codec payload.
type Mini struct {
	SourceCallID uint16 // 15 bits significant
	TimestampLow uint16
	Payload      []byte
}

// IsFull reports whether raw begins a full frame (F-bit of octet 0 set).
// It panics-never: an empty slice is treated as not full.
func IsFull(raw []byte) bool {
	if len(raw) == 0 {
		return false
	}
	return raw[0]&0x80 != 0
}

// ParseFull parses a full frame from raw. raw shorter than FullHeaderLen
// is rejected; raw longer than MaxDatagramLen is rejected. The returned
// Payload aliases raw's backing array; callers that retain a Full past
// the lifetime of the receive buffer must copy it.
func ParseFull(raw []byte) (Full, error) {
	var f Full
	if len(raw) > MaxDatagramLen {
		return f, ErrTooLong
	}
	if len(raw) < FullHeaderLen {
		return f, ErrTooShort
	}

	f.SourceCallID = binary.BigEndian.Uint16(raw[0:2]) & 0x7fff
	destWord := binary.BigEndian.Uint16(raw[2:4])
	f.Retransmit = destWord&0x8000 != 0
	f.DestCallID = destWord & 0x7fff
	f.Timestamp = binary.BigEndian.Uint32(raw[4:8])
	f.OSeq = raw[8]
	f.ISeq = raw[9]
	f.Type = FrameType(raw[10])
	f.Subclass = raw[11]
	f.Payload = raw[FullHeaderLen:]

	return f, nil
}

// Serialise encodes f as a full frame. The F-bit of SourceCallID is
// always set (full frame discriminator).
func (f Full) Serialise() ([]byte, error) {
	total := FullHeaderLen + len(f.Payload)
	if total > MaxDatagramLen {
		return nil, ErrPayloadTooLarge
	}

	out := make([]byte, total)
	binary.BigEndian.PutUint16(out[0:2], f.SourceCallID|0x8000)
	destWord := f.DestCallID & 0x7fff
	if f.Retransmit {
		destWord |= 0x8000
	}
	binary.BigEndian.PutUint16(out[2:4], destWord)
	binary.BigEndian.PutUint32(out[4:8], f.Timestamp)
	out[8] = f.OSeq
	out[9] = f.ISeq
	out[10] = byte(f.Type)
	out[11] = f.Subclass
	copy(out[FullHeaderLen:], f.Payload)

	return out, nil
}

// ParseMini parses a mini frame from raw.
func ParseMini(raw []byte) (Mini, error) {
	var m Mini
	if len(raw) > MaxDatagramLen {
		return m, ErrTooLong
	}
	if len(raw) < MiniHeaderLen {
		return m, ErrTooShort
	}

	m.SourceCallID = binary.BigEndian.Uint16(raw[0:2]) & 0x7fff
	m.TimestampLow = binary.BigEndian.Uint16(raw[2:4])
	m.Payload = raw[MiniHeaderLen:]

	return m, nil
}

// Serialise encodes m as a mini frame. The F-bit of SourceCallID is
// always clear (mini frame discriminator).
func (m Mini) Serialise() ([]byte, error) {
	total := MiniHeaderLen + len(m.Payload)
	if total > MaxDatagramLen {
		return nil, ErrPayloadTooLarge
	}

	out := make([]byte, total)
	binary.BigEndian.PutUint16(out[0:2], m.SourceCallID&0x7fff)
	binary.BigEndian.PutUint16(out[2:4], m.TimestampLow)
	copy(out[MiniHeaderLen:], m.Payload)

	return out, nil
}

// ackRequiredTypes enumerates the (Type, Subclass) combinations whose
// receipt must be acknowledged, per spec.md §4.4.
func ackRequired(t FrameType, subclass uint8) bool {
	switch t {
	case FrameTypeVoice, FrameTypeText, FrameTypeDTMF, FrameTypeDTMF2:
		return true
	case FrameTypeControl:
		switch ControlSubclass(subclass) {
		case ControlSubclassAnswer, ControlSubclassKey, ControlSubclassUnkey, ControlSubclassStopSounds:
			return true
		}
		return false
	case FrameTypeIAX:
		switch IAXSubclass(subclass) {
		case IAXSubclassNew, IAXSubclassHangup, IAXSubclassReject,
			IAXSubclassAccept, IAXSubclassPong, IAXSubclassAuthRep:
			return true
		}
		return false
	}
	return false
}

// AckRequired reports whether a received full frame of this type/subclass
// must be acknowledged by the recipient (spec.md §4.4 ACK-required set).
func (f Full) AckRequired() bool {
	return ackRequired(f.Type, f.Subclass)
}

// noAckOnRetransmit is the explicitly no-ACK set for retransmitted
// frames: ACK, VNAK, PING, LAGRQ never get ACKed even as retransmits.
func noAckOnRetransmit(t FrameType, subclass uint8) bool {
	if t != FrameTypeIAX {
		return false
	}
	switch IAXSubclass(subclass) {
	case IAXSubclassAck, IAXSubclassVNAK, IAXSubclassPing, IAXSubclassLagRq:
		return true
	}
	return false
}

// RetransmitAckRequired reports whether a retransmitted copy of this
// frame should still be acknowledged (spec.md §4.4: "If it is a
// retransmit and the class is not in the explicitly no-ACK set ... ACK
// again").
func (f Full) RetransmitAckRequired() bool {
	return !noAckOnRetransmit(f.Type, f.Subclass)
}

// OSeqRequired reports whether this frame's type-class requires an
// incremented outbound sequence number. Per spec.md §3, all frames
// except ACK and INVAL participate in sequencing.
func (f Full) OSeqRequired() bool {
	if f.Type != FrameTypeIAX {
		return true
	}
	switch IAXSubclass(f.Subclass) {
	case IAXSubclassAck, IAXSubclassInval:
		return false
	}
	return true
}
