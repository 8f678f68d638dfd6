/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package protocol

import "encoding/binary"

// wire builds raw frame and body bytes for tests.
type wire struct {
	b []byte
}

func newWire() *wire {
	return &wire{}
}

func (w *wire) bytes() []byte {
	return w.b
}

func (w *wire) byte1(v byte) *wire {
	w.b = append(w.b, v)
	return w
}

func (w *wire) short(v uint16) *wire {
	w.b = binary.BigEndian.AppendUint16(w.b, v)
	return w
}

func (w *wire) int4(v int32) *wire {
	w.b = binary.BigEndian.AppendUint32(w.b, uint32(v))
	return w
}

func (w *wire) str(s string) *wire {
	w.short(uint16(len(s)))
	w.b = append(w.b, s...)
	return w
}

// bytes4 writes an [int]-prefixed run; nil encodes a null (-1).
func (w *wire) bytes4(p []byte) *wire {
	if p == nil {
		return w.int4(-1)
	}
	w.int4(int32(len(p)))
	w.b = append(w.b, p...)
	return w
}

// shortBytes writes a [short]-prefixed run.
func (w *wire) shortBytes(p []byte) *wire {
	w.short(uint16(len(p)))
	w.b = append(w.b, p...)
	return w
}

// valueBytes writes a collection element run; nil encodes a null
// element (-1).
func (w *wire) valueBytes(p []byte) *wire {
	if p == nil {
		return w.short(0xFFFF)
	}
	return w.shortBytes(p)
}

// frameBytes prepends a response header to body and returns the whole
// frame.
func frameBytes(stream int8, op OpCode, body []byte) []byte {
	h := []byte{0x81, 0x00, byte(stream), byte(op)}
	h = binary.BigEndian.AppendUint32(h, uint32(len(body)))
	return append(h, body...)
}
