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

// Package iax2frame implements the IAX2 wire format: full and mini frame
// parsing/serialisation and the information-element (IE) TLV codec that
// rides inside full frame payloads. Subclass numbering follows RFC 5456
// with the non-RFC CALLTOKEN and DTMF2 extensions this network uses.
package iax2frame

// FrameType is the 8-bit frame-type octet of a full frame header.
type FrameType uint8

const (
	FrameTypeDTMF    FrameType = 0x01
	FrameTypeVoice   FrameType = 0x02
	FrameTypeControl FrameType = 0x04
	FrameTypeIAX     FrameType = 0x06
	FrameTypeText    FrameType = 0x07
	// FrameTypeDTMF2 is a non-RFC standalone DTMF frame type used
	// alongside FrameTypeDTMF by some peers.
	FrameTypeDTMF2 FrameType = 0x0c
)

// IAXSubclass enumerates FrameTypeIAX subclasses (IAX control frames).
type IAXSubclass uint8

const (
	IAXSubclassNew        IAXSubclass = 0x01
	IAXSubclassPing       IAXSubclass = 0x02
	IAXSubclassPong       IAXSubclass = 0x03
	IAXSubclassAck        IAXSubclass = 0x04
	IAXSubclassHangup     IAXSubclass = 0x05
	IAXSubclassReject     IAXSubclass = 0x06
	IAXSubclassAccept     IAXSubclass = 0x07
	IAXSubclassAuthReq    IAXSubclass = 0x08
	IAXSubclassAuthRep    IAXSubclass = 0x09
	IAXSubclassInval      IAXSubclass = 0x0a
	IAXSubclassLagRq      IAXSubclass = 0x0b
	IAXSubclassLagRp      IAXSubclass = 0x0c
	IAXSubclassVNAK       IAXSubclass = 0x12
	IAXSubclassPoke       IAXSubclass = 0x1e
	// IAXSubclassCallToken is a non-RFC extension used by this network
	// for the call-token anti-spoofing challenge (spec.md §4.4, §9).
	IAXSubclassCallToken IAXSubclass = 40
)

// ControlSubclass enumerates FrameTypeControl subclasses.
type ControlSubclass uint8

const (
	ControlSubclassAnswer     ControlSubclass = 0x02
	ControlSubclassUnkey      ControlSubclass = 0x0d
	ControlSubclassKey        ControlSubclass = 0x0e
	ControlSubclassStopSounds ControlSubclass = 0xff
)

// CodecType identifies the negotiated audio codec using the IAX2
// capability-bitmask bit values. SLIN_48K is a local, non-official
// extension bit used when both ends negotiate 48kHz signed-linear
// directly, matching this bridge's native internal format.
type CodecType uint32

const (
	CodecUnknown CodecType = 0
	CodecG711ULaw CodecType = 0x00000004
	CodecSLIN     CodecType = 0x00000040
	CodecSLIN16K  CodecType = 0x00008000
	// CodecSLIN48K is a non-official extension bit.
	CodecSLIN48K CodecType = 0x20000000
)

// IEType is the 8-bit type octet of an information element.
type IEType uint8

const (
	IECalledNumber  IEType = 0x01
	IECallingNumber IEType = 0x02
	IECallingUser   IEType = 0x06
	IECapability    IEType = 0x08
	IEFormat        IEType = 0x09
	IELanguage      IEType = 0x0a
	IEVersion       IEType = 0x0b
	IEAuthMethods   IEType = 0x0e
	IEChallenge     IEType = 0x0f
	IEApparentAddr  IEType = 0x12
	// IETargetAddr and IETargetAddr2 are the local NAT-traversal
	// extension IE ids for POKE/PONG forwarding, see spec.md §9: their
	// assignment is a local convention and must be preserved for wire
	// compatibility.
	IETargetAddr    IEType = 0x13
	IETargetAddr2   IEType = 0x14
	IECodecPrefs    IEType = 0x26
	// IEEd25519Result is a non-RFC IE carrying the AUTHREP Ed25519
	// signature bytes for AuthModeChallengeEd25519.
	IEEd25519Result IEType = 0x29
	IECause         IEType = 0x31
	// IECallToken is the non-RFC call-token challenge/response IE.
	IECallToken      IEType = 0x36
	IECapabilityWide IEType = 0x37
	IEFormatWide     IEType = 0x38
	IEDateTime       IEType = 0x1f
)

const (
	// FullHeaderLen is the fixed header size of a full frame.
	FullHeaderLen = 12
	// MiniHeaderLen is the fixed header size of a mini frame.
	MiniHeaderLen = 4
	// MaxDatagramLen is the largest UDP payload this protocol permits.
	MaxDatagramLen = 1500
	// IEHeaderLen is the TLV header size (type octet + length octet)
	// preceding every information element's value.
	IEHeaderLen = 2
	// MaxIEValueLen is the largest value an information element may carry.
	MaxIEValueLen = 255
)
