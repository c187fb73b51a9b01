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

// Package nodedb caches the node number -> (endpoint, public key) table
// the line engine's DNS state machine resolves, so a hot node is not
// re-resolved on every call attempt. Entries are populated by whatever
// just completed a DNS round trip and removed by PruneStale; nothing in
// cmd/root calls PruneStale on a schedule.
package nodedb

import (
	"crypto/ed25519"
	"net/netip"
	"sync"
	"time"

	"github.com/mitchellh/hashstructure/v2"
)

// Entry is everything the line engine learned about a node the last
// time it resolved one.
type Entry struct {
	Node      string
	Addr      netip.AddrPort
	PublicKey ed25519.PublicKey
	FetchedAt time.Time
}

func (e Entry) fingerprint() (uint64, error) {
	return hashstructure.Hash(struct {
		Addr      netip.AddrPort
		PublicKey string
	}{e.Addr, string(e.PublicKey)}, hashstructure.FormatV2, nil)
}

type record struct {
	entry       Entry
	fingerprint uint64
}

// DB is a concurrency-safe node cache.
type DB struct {
	mu      sync.RWMutex
	entries map[string]record
}

// New returns an empty node cache.
func New() *DB {
	return &DB{entries: make(map[string]record)}
}

// Get returns the cached entry for node, if present.
func (db *DB) Get(node string) (Entry, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	r, ok := db.entries[node]
	return r.entry, ok
}

// Put stores or refreshes a node's entry. It reports whether the
// resolved address/key actually changed from what was cached, so
// callers can decide whether an in-progress call needs to react to a
// node migrating to a new endpoint.
func (db *DB) Put(entry Entry) (changed bool, err error) {
	fp, err := entry.fingerprint()
	if err != nil {
		return false, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	prev, existed := db.entries[entry.Node]
	db.entries[entry.Node] = record{entry: entry, fingerprint: fp}
	return !existed || prev.fingerprint != fp, nil
}

// Delete evicts a node's cached entry.
func (db *DB) Delete(node string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.entries, node)
}

// Len reports how many nodes are currently cached.
func (db *DB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.entries)
}

// PruneStale evicts every entry fetched more than maxAge ago. Intended
// to be called on a gocron schedule rather than inline with lookups, so
// a burst of calls never pays for cache maintenance.
func (db *DB) PruneStale(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	db.mu.Lock()
	defer db.mu.Unlock()
	pruned := 0
	for node, r := range db.entries {
		if r.entry.FetchedAt.Before(cutoff) {
			delete(db.entries, node)
			pruned++
		}
	}
	return pruned
}
