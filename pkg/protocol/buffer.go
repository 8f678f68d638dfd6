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

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
)

// ErrShortRead indicates a primitive read on an under-filled buffer.
// Under the frame state machine this cannot happen for a well-formed
// frame: seeing it means the frame length lied or the stream is corrupt.
var ErrShortRead = errors.New("short read")

// Buffer is an appendable octet queue with destructive cursor reads.
// All multi-byte reads are big-endian, per the CQL wire format. The
// buffer is owned by a single frame for the duration of decoding and
// must not be read concurrently.
type Buffer struct {
	data []byte
}

// NewBuffer returns a buffer seeded with b. The slice is retained.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{data: b}
}

// Append adds bytes to the tail of the queue.
func (b *Buffer) Append(p []byte) {
	b.data = append(b.data, p...)
}

// Len reports the number of unconsumed bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Bytes returns the unconsumed bytes without copying. The slice is
// invalidated by the next Append or read.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// take consumes exactly n bytes, failing with ErrShortRead when fewer
// are available. The returned slice aliases the buffer.
func (b *Buffer) take(n int) ([]byte, error) {
	if n < 0 || len(b.data) < n {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrShortRead, n, len(b.data))
	}
	p := b.data[:n]
	b.data = b.data[n:]
	return p, nil
}

// Discard drops n bytes from the head of the queue.
func (b *Buffer) Discard(n int) error {
	_, err := b.take(n)
	return err
}

// ReadByte consumes a single octet.
func (b *Buffer) ReadByte() (byte, error) {
	p, err := b.take(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

// ReadShort consumes a 2-octet unsigned integer.
func (b *Buffer) ReadShort() (uint16, error) {
	p, err := b.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(p), nil
}

// ReadInt consumes a 4-octet signed integer.
func (b *Buffer) ReadInt() (int32, error) {
	p, err := b.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(p)), nil
}

// ReadLong consumes an 8-octet signed integer.
func (b *Buffer) ReadLong() (int64, error) {
	p, err := b.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(p)), nil
}

// ReadString consumes a [short]-prefixed UTF-8 string.
func (b *Buffer) ReadString() (string, error) {
	n, err := b.ReadShort()
	if err != nil {
		return "", err
	}
	p, err := b.take(int(n))
	if err != nil {
		return "", err
	}
	return string(p), nil
}

// ReadLongString consumes an [int]-prefixed UTF-8 string.
func (b *Buffer) ReadLongString() (string, error) {
	n, err := b.ReadInt()
	if err != nil {
		return "", err
	}
	p, err := b.take(int(n))
	if err != nil {
		return "", err
	}
	return string(p), nil
}

// ReadBytes consumes an [int]-prefixed byte run. A negative length
// denotes null and yields a nil slice. The returned bytes are copied,
// so they stay valid after the buffer moves on.
func (b *Buffer) ReadBytes() ([]byte, error) {
	n, err := b.ReadInt()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	p, err := b.take(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out, nil
}

// ReadShortBytes consumes a [short]-prefixed byte run. The returned
// bytes are copied.
func (b *Buffer) ReadShortBytes() ([]byte, error) {
	n, err := b.ReadShort()
	if err != nil {
		return nil, err
	}
	p, err := b.take(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out, nil
}

// ReadValueBytes consumes a collection-element byte run: a signed
// 2-octet length where negative means a null element. Used only inside
// list/map/set payloads.
func (b *Buffer) ReadValueBytes() ([]byte, error) {
	n, err := b.ReadShort()
	if err != nil {
		return nil, err
	}
	if int16(n) < 0 {
		return nil, nil
	}
	p, err := b.take(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out, nil
}

// ReadOption consumes a [short] discriminant and hands it, with the
// buffer positioned at the variant payload, to f.
func (b *Buffer) ReadOption(f func(id uint16, b *Buffer) error) error {
	id, err := b.ReadShort()
	if err != nil {
		return err
	}
	return f(id, b)
}

// ReadInet consumes an address-length octet, that many address octets
// (4 for IPv4, 16 for IPv6) and a 4-octet port.
func (b *Buffer) ReadInet() (net.IP, int32, error) {
	n, err := b.ReadByte()
	if err != nil {
		return nil, 0, err
	}
	p, err := b.take(int(n))
	if err != nil {
		return nil, 0, err
	}
	addr := make(net.IP, len(p))
	copy(addr, p)
	port, err := b.ReadInt()
	if err != nil {
		return nil, 0, err
	}
	return addr, port, nil
}

// ReadConsistency consumes a [short] consistency level.
func (b *Buffer) ReadConsistency() (Consistency, error) {
	v, err := b.ReadShort()
	if err != nil {
		return 0, err
	}
	return Consistency(v), nil
}

// ReadStringList consumes a [short] count followed by that many strings.
func (b *Buffer) ReadStringList() ([]string, error) {
	n, err := b.ReadShort()
	if err != nil {
		return nil, err
	}
	list := make([]string, 0, n)
	for i := 0; i < int(n); i++ {
		s, err := b.ReadString()
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, nil
}

// ReadStringMultimap consumes a [short] entry count, each entry a
// string key and a string-list value.
func (b *Buffer) ReadStringMultimap() (map[string][]string, error) {
	n, err := b.ReadShort()
	if err != nil {
		return nil, err
	}
	m := make(map[string][]string, n)
	for i := 0; i < int(n); i++ {
		k, err := b.ReadString()
		if err != nil {
			return nil, err
		}
		v, err := b.ReadStringList()
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}
