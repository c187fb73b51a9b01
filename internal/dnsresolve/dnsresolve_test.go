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

package dnsresolve_test

import (
	"net"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allstarlink/iaxcore/internal/dnsresolve"
)

func respondTo(t *testing.T, query []byte, answer dns.RR) []byte {
	t.Helper()
	q := new(dns.Msg)
	require.NoError(t, q.Unpack(query))

	resp := new(dns.Msg)
	resp.SetReply(q)
	if answer != nil {
		resp.Answer = append(resp.Answer, answer)
	}
	raw, err := resp.Pack()
	require.NoError(t, err)
	return raw
}

func TestRecordNames(t *testing.T) {
	t.Parallel()
	r := dnsresolve.New("nodes.allstarlink.org")
	assert.Equal(t, "61057.nodes.allstarlink.org.", r.NodeARecordName("61057"))
	assert.Equal(t, "_iax._udp.61057.nodes.allstarlink.org.", r.NodeSRVRecordName("61057"))
	assert.Equal(t, "61057.nodes.allstarlink.org.", r.NodeTXTRecordName("61057"))
}

func TestPackAndParseA(t *testing.T) {
	t.Parallel()
	r := dnsresolve.New("nodes.allstarlink.org")
	query, id, err := r.PackA("61057")
	require.NoError(t, err)

	rr, err := dns.NewRR("61057.nodes.allstarlink.org. 60 IN A 203.0.113.5")
	require.NoError(t, err)
	raw := respondTo(t, query, rr)

	result, err := r.ParseA(raw)
	require.NoError(t, err)
	assert.Equal(t, id, result.ID)
	require.Len(t, result.Addresses, 1)
	assert.True(t, result.Addresses[0].Equal(net.ParseIP("203.0.113.5")))
}

func TestPackAndParseSRVPicksLowestPriority(t *testing.T) {
	t.Parallel()
	r := dnsresolve.New("nodes.allstarlink.org")
	query, id, err := r.PackSRV("61057")
	require.NoError(t, err)

	low, err := dns.NewRR("_iax._udp.61057.nodes.allstarlink.org. 60 IN SRV 10 0 4569 node61057.nodes.allstarlink.org.")
	require.NoError(t, err)
	high, err := dns.NewRR("_iax._udp.61057.nodes.allstarlink.org. 60 IN SRV 20 0 4569 backup.nodes.allstarlink.org.")
	require.NoError(t, err)

	q := new(dns.Msg)
	require.NoError(t, q.Unpack(query))
	resp := new(dns.Msg)
	resp.SetReply(q)
	resp.Answer = append(resp.Answer, high, low)
	raw, err := resp.Pack()
	require.NoError(t, err)

	result, err := r.ParseSRV(raw)
	require.NoError(t, err)
	assert.Equal(t, id, result.ID)
	assert.Equal(t, "node61057.nodes.allstarlink.org.", result.Target)
	assert.EqualValues(t, 4569, result.Port)
	assert.EqualValues(t, 10, result.Priority)
}

func TestPackAndParseTXT(t *testing.T) {
	t.Parallel()
	r := dnsresolve.New("nodes.allstarlink.org")
	query, _, err := r.PackTXT("61057")
	require.NoError(t, err)

	rr, err := dns.NewRR(`61057.nodes.allstarlink.org. 60 IN TXT "ed25519-pubkey=abcd1234"`)
	require.NoError(t, err)
	raw := respondTo(t, query, rr)

	result, err := r.ParseTXT(raw)
	require.NoError(t, err)
	require.Len(t, result.Text, 1)
	assert.Equal(t, "ed25519-pubkey=abcd1234", result.Text[0])
}

func TestParseNXDomain(t *testing.T) {
	t.Parallel()
	r := dnsresolve.New("nodes.allstarlink.org")
	query, _, err := r.PackA("99999")
	require.NoError(t, err)

	q := new(dns.Msg)
	require.NoError(t, q.Unpack(query))
	resp := new(dns.Msg)
	resp.SetRcode(q, dns.RcodeNameError)
	raw, err := resp.Pack()
	require.NoError(t, err)

	_, err = r.ParseA(raw)
	assert.ErrorIs(t, err, dnsresolve.ErrNXDomain)
}

func TestParseServerFailure(t *testing.T) {
	t.Parallel()
	r := dnsresolve.New("nodes.allstarlink.org")
	query, _, err := r.PackA("61057")
	require.NoError(t, err)

	q := new(dns.Msg)
	require.NoError(t, q.Unpack(query))
	resp := new(dns.Msg)
	resp.SetRcode(q, dns.RcodeServerFailure)
	raw, err := resp.Pack()
	require.NoError(t, err)

	_, err = r.ParseA(raw)
	assert.ErrorIs(t, err, dnsresolve.ErrDNSFailure)
}

func TestParseSRVNoAnswersIsDNSFailure(t *testing.T) {
	t.Parallel()
	r := dnsresolve.New("nodes.allstarlink.org")
	query, _, err := r.PackSRV("61057")
	require.NoError(t, err)
	raw := respondTo(t, query, nil)

	_, err = r.ParseSRV(raw)
	assert.ErrorIs(t, err, dnsresolve.ErrDNSFailure)
}
