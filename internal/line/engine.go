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

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"time"

	"github.com/allstarlink/iaxcore/internal/config"
	"github.com/allstarlink/iaxcore/internal/dnsresolve"
	"github.com/allstarlink/iaxcore/internal/iax2frame"
	"github.com/allstarlink/iaxcore/internal/jitter"
	"github.com/allstarlink/iaxcore/internal/message"
	"github.com/allstarlink/iaxcore/internal/nodedb"
)

const (
	udpSocketBufferSize = 1 << 20 // 1MB, matches the wider network's socket sizing convention

	pingIntervalMs        = 10_000
	pingIntervalFastMs     = 2_000
	pingFastCount          = 5
	lagrqIntervalMs       = 10_000
	terminationTimeoutMs  = 5_000
)

// OutboundFrame is everything needed to transmit a wire frame from the
// signalling socket.
type OutboundFrame struct {
	Dest netip.AddrPort
	Raw  []byte
}

// Transport is the pair of non-blocking UDP sockets one line engine
// owns: the signalling/voice socket and the DNS resolver socket. Split
// out of Engine so tests can substitute an in-memory transport for the
// state-machine logic without binding real ports.
type Transport interface {
	ReadSignalling(buf []byte) (n int, from netip.AddrPort, err error)
	WriteSignalling(dest netip.AddrPort, raw []byte) error
	ReadDNS(buf []byte) (n int, err error)
	WriteDNS(raw []byte) error
	SetReadDeadline(t time.Time) error
	Close() error
}

// udpTransport is the real Transport, two UDP sockets opened the same
// way the teacher repo sizes its single HBRP socket: generous
// SetReadBuffer/SetWriteBuffer to absorb bursts, since one dropped mini
// frame is an audible audio gap.
type udpTransport struct {
	signalling *net.UDPConn
	dnsConn    *net.UDPConn
	resolverAddr *net.UDPAddr
}

func newUDPTransport(bind string, port int, resolverAddr string) (*udpTransport, error) {
	sigAddr := &net.UDPAddr{IP: net.ParseIP(bind), Port: port}
	sig, err := net.ListenUDP("udp", sigAddr)
	if err != nil {
		return nil, fmt.Errorf("line: open signalling socket: %w", err)
	}
	if err := sig.SetReadBuffer(udpSocketBufferSize); err != nil {
		return nil, fmt.Errorf("line: set signalling read buffer: %w", err)
	}
	if err := sig.SetWriteBuffer(udpSocketBufferSize); err != nil {
		return nil, fmt.Errorf("line: set signalling write buffer: %w", err)
	}

	dnsConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP(bind)})
	if err != nil {
		sig.Close()
		return nil, fmt.Errorf("line: open dns socket: %w", err)
	}

	resolved, err := net.ResolveUDPAddr("udp", resolverAddr)
	if err != nil {
		sig.Close()
		dnsConn.Close()
		return nil, fmt.Errorf("line: resolve dns resolver address %q: %w", resolverAddr, err)
	}

	return &udpTransport{signalling: sig, dnsConn: dnsConn, resolverAddr: resolved}, nil
}

func (t *udpTransport) ReadSignalling(buf []byte) (int, netip.AddrPort, error) {
	n, addr, err := t.signalling.ReadFromUDPAddrPort(buf)
	return n, addr, err
}

func (t *udpTransport) WriteSignalling(dest netip.AddrPort, raw []byte) error {
	_, err := t.signalling.WriteToUDPAddrPort(raw, dest)
	return err
}

func (t *udpTransport) ReadDNS(buf []byte) (int, error) {
	n, _, err := t.dnsConn.ReadFromUDP(buf)
	return n, err
}

func (t *udpTransport) WriteDNS(raw []byte) error {
	_, err := t.dnsConn.WriteToUDP(raw, t.resolverAddr)
	return err
}

func (t *udpTransport) SetReadDeadline(deadline time.Time) error {
	if err := t.signalling.SetReadDeadline(deadline); err != nil {
		return err
	}
	return t.dnsConn.SetReadDeadline(deadline)
}

func (t *udpTransport) Close() error {
	err1 := t.signalling.Close()
	err2 := t.dnsConn.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// Engine is one line: a bound signalling socket, a bound DNS-resolver
// socket, and the call-slot table both sockets' traffic is dispatched
// against. Every exported method that touches slots or the transport is
// only ever called from Run's goroutine, per spec.md §5 — there is no
// internal locking because there is no internal concurrency.
type Engine struct {
	cfg       config.Line
	dnsCfg    config.DNS
	transport Transport
	resolver  *dnsresolve.Resolver
	nodes     *nodedb.DB
	log       *slog.Logger

	startTime time.Time
	slots     map[uint16]*CallSlot // keyed by local call-id
	nextCallID uint16
	pending   map[uint16]pendingLookup // DNS request id -> waiting slot

	// OnCallUp/OnCallEnd are set by the bridge package to receive
	// lifecycle notifications; the line engine knows nothing about
	// conferencing.
	OnCallUp  func(slot *CallSlot)
	OnCallEnd func(slot *CallSlot)
	// OnMessage delivers every decoded voice/signal frame for a call to
	// the bridge, in the bridge's own internal message representation.
	OnMessage func(slot *CallSlot, m message.Message)
}

// New constructs an Engine bound to real UDP sockets. Callers that want
// to drive the state machine without a network (unit tests) should
// build an Engine value directly with a fake Transport instead.
func New(cfg config.Line, dnsCfg config.DNS, nodes *nodedb.DB, log *slog.Logger) (*Engine, error) {
	transport, err := newUDPTransport(cfg.Bind, cfg.Port, dnsCfg.ResolverAddr)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:       cfg,
		dnsCfg:    dnsCfg,
		transport: transport,
		resolver:  dnsresolve.New(dnsCfg.RootDomain),
		nodes:     nodes,
		log:       log,
		startTime: time.Now(),
		slots:     make(map[uint16]*CallSlot),
	}, nil
}

// Close releases the engine's sockets.
func (e *Engine) Close() error {
	return e.transport.Close()
}

// Run is the engine's single-threaded cooperative event loop (spec.md
// §5): wait on the signalling socket, bounded by the time remaining to
// the next scheduled tick, then read the DNS socket under the same
// deadline, then run whatever ticks are now due. There is exactly one goroutine per Engine; ctx
// cancellation is the only way to stop it short of a socket error.
func (e *Engine) Run(ctx context.Context) error {
	sigBuf := make([]byte, iax2frame.MaxDatagramLen)
	dnsBuf := make([]byte, 4096)

	lastAudioTick := time.Now()
	lastOneSec := time.Now()
	lastTenSec := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		now := time.Now()
		nextTick := e.nextDeadline(now, lastAudioTick, lastOneSec, lastTenSec)
		if err := e.transport.SetReadDeadline(nextTick); err != nil {
			return fmt.Errorf("line: set read deadline: %w", err)
		}

		n, from, err := e.transport.ReadSignalling(sigBuf)
		switch {
		case err == nil:
			e.handleInbound(sigBuf[:n], from)
		case isTimeout(err):
			// Expected: no signalling traffic before the next tick.
		default:
			return fmt.Errorf("line: read signalling socket: %w", err)
		}

		if dn, derr := e.transport.ReadDNS(dnsBuf); derr == nil {
			e.handleDNSResponse(dnsBuf[:dn])
		}

		now = time.Now()
		if now.Sub(lastAudioTick) >= jitterTickDuration() {
			e.audioRateTick(now)
			lastAudioTick = now
		}
		if now.Sub(lastOneSec) >= time.Second {
			e.oneSecTick(now)
			lastOneSec = now
		}
		if now.Sub(lastTenSec) >= 10*time.Second {
			e.tenSecTick(now)
			lastTenSec = now
		}
	}
}

func (e *Engine) nextDeadline(now, lastAudio, lastOneSec, lastTenSec time.Time) time.Time {
	deadlines := []time.Time{
		lastAudio.Add(jitterTickDuration()),
		lastOneSec.Add(time.Second),
		lastTenSec.Add(10 * time.Second),
	}
	next := deadlines[0]
	for _, d := range deadlines[1:] {
		if d.Before(next) {
			next = d
		}
	}
	if next.Before(now) {
		return now
	}
	return next
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func jitterTickDuration() time.Duration {
	return time.Duration(jitter.TickMs) * time.Millisecond
}
