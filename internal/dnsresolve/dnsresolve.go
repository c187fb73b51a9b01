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

// Package dnsresolve builds and parses the A, SRV, and TXT queries the
// line engine's DNS state machine uses to resolve a calling or called
// node. It does not own a socket: the line engine owns the second UDP
// socket and correlates responses to call slots by the 16-bit DNS
// request id, so this package only packs queries and unpacks answers.
package dnsresolve

import (
	"errors"
	"fmt"
	"net"

	"github.com/miekg/dns"
)

// ErrNXDomain means the node is not registered under the configured
// root domain, distinct from a transient or malformed-response failure.
var ErrNXDomain = errors.New("dnsresolve: node not found (NXDOMAIN)")

// ErrDNSFailure covers every other non-success rcode or malformed
// response.
var ErrDNSFailure = errors.New("dnsresolve: lookup failed")

// Resolver packs queries scoped to a configured root domain (e.g.
// "nodes.allstarlink.org") and unpacks their answers. It holds no
// network state.
type Resolver struct {
	rootDomain string
}

// New returns a Resolver scoped to rootDomain, which should not have a
// leading or trailing dot.
func New(rootDomain string) *Resolver {
	return &Resolver{rootDomain: rootDomain}
}

// NodeARecordName returns the hostname an A lookup resolves for a given
// node number, scoped under the resolver's root domain.
func (r *Resolver) NodeARecordName(node string) string {
	return fmt.Sprintf("%s.%s.", node, r.rootDomain)
}

// NodeSRVRecordName returns the IAX2-over-UDP SRV record name for a node:
// _iax._udp.<node>.<rootDomain>.
func (r *Resolver) NodeSRVRecordName(node string) string {
	return fmt.Sprintf("_iax._udp.%s.%s.", node, r.rootDomain)
}

// NodeTXTRecordName returns the TXT record name carrying a node's
// published Ed25519 public key.
func (r *Resolver) NodeTXTRecordName(node string) string {
	return fmt.Sprintf("%s.%s.", node, r.rootDomain)
}

// PackA builds an A query and returns the wire bytes and the 16-bit
// request id the caller should store on the call slot for correlation.
func (r *Resolver) PackA(node string) ([]byte, uint16, error) {
	return r.pack(r.NodeARecordName(node), dns.TypeA)
}

// PackSRV builds an SRV query for a node's IAX2 service.
func (r *Resolver) PackSRV(node string) ([]byte, uint16, error) {
	return r.pack(r.NodeSRVRecordName(node), dns.TypeSRV)
}

// PackTXT builds a TXT query for a node's published public key.
func (r *Resolver) PackTXT(node string) ([]byte, uint16, error) {
	return r.pack(r.NodeTXTRecordName(node), dns.TypeTXT)
}

func (r *Resolver) pack(name string, qtype uint16) ([]byte, uint16, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(name, qtype)
	msg.RecursionDesired = true
	raw, err := msg.Pack()
	if err != nil {
		return nil, 0, fmt.Errorf("dnsresolve: pack query for %s: %w", name, err)
	}
	return raw, msg.Id, nil
}

// AResult is a parsed A-record answer.
type AResult struct {
	ID        uint16
	Addresses []net.IP
}

// ParseA unpacks an A response, validating its rcode and request id.
func (r *Resolver) ParseA(raw []byte) (AResult, error) {
	msg, err := r.unpack(raw)
	if err != nil {
		return AResult{}, err
	}
	result := AResult{ID: msg.Id}
	for _, rr := range msg.Answer {
		if a, ok := rr.(*dns.A); ok {
			result.Addresses = append(result.Addresses, a.A)
		}
	}
	return result, nil
}

// SRVResult is a parsed SRV-record answer, the peer's IAX2 endpoint.
type SRVResult struct {
	ID       uint16
	Target   string
	Port     uint16
	Priority uint16
	Weight   uint16
}

// ParseSRV unpacks an SRV response and returns its highest-priority
// (lowest-value) answer.
func (r *Resolver) ParseSRV(raw []byte) (SRVResult, error) {
	msg, err := r.unpack(raw)
	if err != nil {
		return SRVResult{}, err
	}
	result := SRVResult{ID: msg.Id}
	best := (*dns.SRV)(nil)
	for _, rr := range msg.Answer {
		srv, ok := rr.(*dns.SRV)
		if !ok {
			continue
		}
		if best == nil || srv.Priority < best.Priority {
			best = srv
		}
	}
	if best == nil {
		return result, fmt.Errorf("dnsresolve: no SRV answers: %w", ErrDNSFailure)
	}
	result.Target = best.Target
	result.Port = best.Port
	result.Priority = best.Priority
	result.Weight = best.Weight
	return result, nil
}

// TXTResult is a parsed TXT-record answer: Text holds the (possibly
// chunked) character-strings of every TXT answer, in order, unjoined.
type TXTResult struct {
	ID   uint16
	Text []string
}

// ParseTXT unpacks a TXT response.
func (r *Resolver) ParseTXT(raw []byte) (TXTResult, error) {
	msg, err := r.unpack(raw)
	if err != nil {
		return TXTResult{}, err
	}
	result := TXTResult{ID: msg.Id}
	for _, rr := range msg.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			result.Text = append(result.Text, txt.Txt...)
		}
	}
	return result, nil
}

func (r *Resolver) unpack(raw []byte) (*dns.Msg, error) {
	msg := new(dns.Msg)
	if err := msg.Unpack(raw); err != nil {
		return nil, fmt.Errorf("dnsresolve: unpack response: %w", err)
	}
	switch msg.Rcode {
	case dns.RcodeSuccess:
		return msg, nil
	case dns.RcodeNameError:
		return nil, ErrNXDomain
	default:
		return nil, fmt.Errorf("%w: rcode %s", ErrDNSFailure, dns.RcodeToString[msg.Rcode])
	}
}
