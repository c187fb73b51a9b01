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

package line

import "github.com/allstarlink/iaxcore/internal/iax2frame"

// dnsLookupKind is which record type a call slot is waiting on; the
// line engine correlates a DNS response back to a slot purely by
// request id, so at most one lookup may be outstanding per slot at a
// time.
type dnsLookupKind uint8

const (
	dnsLookupA dnsLookupKind = iota
	dnsLookupSRV
	dnsLookupTXT
)

// pendingLookups maps an outstanding DNS request id to the slot and
// lookup kind it belongs to. Kept on the Engine rather than the slot so
// a response can be routed without scanning every slot.
type pendingLookup struct {
	slot *CallSlot
	kind dnsLookupKind
}

func (e *Engine) startDNSLookup(slot *CallSlot, kind dnsLookupKind) {
	var (
		query []byte
		id    uint16
		err   error
	)
	switch kind {
	case dnsLookupA:
		query, id, err = e.resolver.PackA(slot.RemoteNodeNumber)
	case dnsLookupSRV:
		query, id, err = e.resolver.PackSRV(slot.RemoteNodeNumber)
	case dnsLookupTXT:
		query, id, err = e.resolver.PackTXT(slot.RemoteNodeNumber)
	}
	if err != nil {
		e.log.Error("pack dns query", "err", err, "node", slot.RemoteNodeNumber)
		e.failCall(slot, "dns query build failed")
		return
	}

	slot.DNSRequestID = id
	if e.pending == nil {
		e.pending = make(map[uint16]pendingLookup)
	}
	e.pending[id] = pendingLookup{slot: slot, kind: kind}

	if err := e.transport.WriteDNS(query); err != nil {
		e.log.Debug("write dns query", "err", err)
		e.failCall(slot, "dns query send failed")
	}
}

// handleDNSResponse correlates a response to its pending lookup by
// request id and advances the owning slot's state. Any DNS failure
// (NXDOMAIN, SERVFAIL, a mismatched or already-abandoned request id)
// fails the call per spec.md §4.4 rather than retrying inline; a fresh
// call attempt will issue a fresh lookup.
func (e *Engine) handleDNSResponse(raw []byte) {
	id, ok := peekDNSID(raw)
	if !ok {
		return
	}
	pending, ok := e.pending[id]
	if !ok {
		return
	}
	delete(e.pending, id)
	slot := pending.slot
	if !slot.Active {
		return
	}

	switch pending.kind {
	case dnsLookupA:
		result, err := e.resolver.ParseA(raw)
		if err != nil || len(result.Addresses) == 0 {
			e.failCall(slot, "dns A lookup failed")
			return
		}

		if slot.Side == SideCaller {
			port := slot.srvPort
			if port == 0 {
				port = uint16(e.cfg.Port)
			}
			e.onARecordResolved(slot, addrPortString(result.Addresses[0].String(), port))
			return
		}

		resolved := result.Addresses[0].String() == slot.PeerAddr.Addr().String()
		slot.SourceAddrValidated = resolved
		if !resolved {
			e.sendReject(iax2frame.Full{SourceCallID: slot.RemoteCallID}, slot.PeerAddr, "source address mismatch")
			e.terminate(slot)
			return
		}
		slot.State = StateCallerValidated
		codec := iax2frame.CodecType(slot.NegotiatedCodec)
		e.sendAccept(slot, codec)

	case dnsLookupSRV:
		result, err := e.resolver.ParseSRV(raw)
		if err != nil {
			e.failCall(slot, "dns SRV lookup failed")
			return
		}
		e.onSRVResolved(slot, result)

	case dnsLookupTXT:
		result, err := e.resolver.ParseTXT(raw)
		if err != nil || len(result.Text) == 0 {
			e.failCall(slot, "dns TXT lookup failed")
			return
		}
		e.onTXTResolved(slot, result)
	}
}

// peekDNSID reads just the 16-bit transaction id from a raw DNS message
// without fully unpacking it, so a response for an id nobody is waiting
// on (e.g. a duplicate retransmitted by a resolver) is cheap to discard.
func peekDNSID(raw []byte) (uint16, bool) {
	if len(raw) < 2 {
		return 0, false
	}
	return uint16(raw[0])<<8 | uint16(raw[1]), true
}

func (e *Engine) failCall(slot *CallSlot, reason string) {
	e.log.Debug("call failed", "local_call_id", slot.LocalCallID, "reason", reason)
	e.terminate(slot)
}
