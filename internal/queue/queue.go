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

// Package queue is a small in-memory multi-key FIFO, used to buffer
// pending audio chunks per call in internal/ttsworker between the tick that requested them and the tick
// that drains them back out onto the bus.
package queue

// Queue holds, per key, an ordered slice of byte-slice chunks.
type Queue struct {
	data map[string][][]byte // Key -> Array of byte slices
}

func NewQueue() *Queue {
	return &Queue{
		data: make(map[string][][]byte),
	}
}

func (q *Queue) Push(key string, value []byte) (int, error) {
	q.data[key] = append(q.data[key], value)
	return len(q.data[key]), nil
}

func (q *Queue) Drain(key string) [][]byte {
	values := q.data[key]
	delete(q.data, key)
	return values
}

func (q *Queue) Delete(key string) error {
	delete(q.data, key)
	return nil
}
