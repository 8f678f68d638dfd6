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
	"fmt"
	"math"
	"math/big"
	"net"
	"time"

	"github.com/google/uuid"
	"gopkg.in/inf.v0"
)

// Value is one decoded cell. The concrete type depends on the column
// type:
//
//	ascii, varchar, text  string
//	bigint                int64
//	blob                  []byte
//	boolean               bool
//	decimal               *inf.Dec
//	double                float64
//	float                 float32
//	int                   int32
//	timestamp             time.Time (UTC, millisecond precision)
//	uuid, timeuuid        uuid.UUID
//	varint                *big.Int
//	inet                  net.IP
//	list<T>               []Value (order preserved)
//	map<K,V>              map[Value]Value
//	set<T>                []Value (membership semantics, no ordering)
//
// A SQL null decodes to nil regardless of type, including null elements
// inside collections.
type Value = interface{}

// Row maps column names to decoded cells. Duplicate column names within
// one result overwrite: last column wins.
type Row map[string]Value

// DecodeValue decodes one cell against its column type. A nil byte run
// (negative wire length) yields nil. An empty run for a fixed-width
// type is rejected rather than guessed at.
func DecodeValue(data []byte, t *ColumnType) (Value, error) {
	if data == nil {
		return nil, nil
	}
	switch t.Kind {
	case TypeAscii, TypeVarchar, TypeText:
		return string(data), nil
	case TypeBigint:
		if len(data) != 8 {
			return nil, fmt.Errorf("decoding bigint: want 8 bytes, got %d", len(data))
		}
		return int64(binary.BigEndian.Uint64(data)), nil
	case TypeBlob:
		return data, nil
	case TypeBoolean:
		if len(data) != 1 {
			return nil, fmt.Errorf("decoding boolean: want 1 byte, got %d", len(data))
		}
		return data[0] == 0x01, nil
	case TypeDecimal:
		if len(data) < 5 {
			return nil, fmt.Errorf("decoding decimal: want at least 5 bytes, got %d", len(data))
		}
		scale := int32(binary.BigEndian.Uint32(data))
		unscaled := decodeBigInt(data[4:])
		return inf.NewDecBig(unscaled, inf.Scale(scale)), nil
	case TypeDouble:
		if len(data) != 8 {
			return nil, fmt.Errorf("decoding double: want 8 bytes, got %d", len(data))
		}
		return math.Float64frombits(binary.BigEndian.Uint64(data)), nil
	case TypeFloat:
		if len(data) != 4 {
			return nil, fmt.Errorf("decoding float: want 4 bytes, got %d", len(data))
		}
		return math.Float32frombits(binary.BigEndian.Uint32(data)), nil
	case TypeInt:
		if len(data) != 4 {
			return nil, fmt.Errorf("decoding int: want 4 bytes, got %d", len(data))
		}
		return int32(binary.BigEndian.Uint32(data)), nil
	case TypeTimestamp:
		if len(data) != 8 {
			return nil, fmt.Errorf("decoding timestamp: want 8 bytes, got %d", len(data))
		}
		ms := int64(binary.BigEndian.Uint64(data))
		return time.UnixMilli(ms).UTC(), nil
	case TypeUUID, TypeTimeUUID:
		id, err := uuid.FromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %v", t, err)
		}
		return id, nil
	case TypeVarint:
		if len(data) == 0 {
			return nil, fmt.Errorf("decoding varint: empty byte run")
		}
		return decodeBigInt(data), nil
	case TypeInet:
		if len(data) != 4 && len(data) != 16 {
			return nil, fmt.Errorf("decoding inet: want 4 or 16 bytes, got %d", len(data))
		}
		addr := make(net.IP, len(data))
		copy(addr, data)
		return addr, nil
	case TypeList, TypeSet:
		return decodeList(data, t.Elem)
	case TypeMap:
		return decodeMap(data, t.Key, t.Elem)
	default:
		return nil, fmt.Errorf("%w: 0x%04X", ErrUnsupportedColumnType, uint16(t.Kind))
	}
}

// decodeBigInt reads a big-endian two's-complement integer of any
// width. The sign comes from the top bit of the first octet.
func decodeBigInt(data []byte) *big.Int {
	n := new(big.Int).SetBytes(data)
	if data[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(len(data)*8)))
	}
	return n
}

// decodeList handles list and set payloads: a [short] element count,
// then per element a signed [short]-prefixed byte run. A negative
// element length is a null element, preserved as nil.
func decodeList(data []byte, elem *ColumnType) ([]Value, error) {
	b := NewBuffer(data)
	count, err := b.ReadShort()
	if err != nil {
		return nil, err
	}
	out := make([]Value, 0, count)
	for i := 0; i < int(count); i++ {
		raw, err := b.ReadValueBytes()
		if err != nil {
			return nil, err
		}
		v, err := DecodeValue(raw, elem)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// decodeMap handles map payloads: a [short] pair count, then key and
// value runs alternating. Later duplicate keys overwrite earlier ones.
func decodeMap(data []byte, key, value *ColumnType) (map[Value]Value, error) {
	b := NewBuffer(data)
	count, err := b.ReadShort()
	if err != nil {
		return nil, err
	}
	out := make(map[Value]Value, count)
	for i := 0; i < int(count); i++ {
		rawK, err := b.ReadValueBytes()
		if err != nil {
			return nil, err
		}
		k, err := DecodeValue(rawK, key)
		if err != nil {
			return nil, err
		}
		rawV, err := b.ReadValueBytes()
		if err != nil {
			return nil, err
		}
		v, err := DecodeValue(rawV, value)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// EncodeValue is the inverse of DecodeValue. A nil value encodes to a
// nil byte run. The encoder exists for every decodable kind so that
// encode-then-decode is identity over each type's valid domain.
func EncodeValue(v Value, t *ColumnType) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	switch t.Kind {
	case TypeAscii, TypeVarchar, TypeText:
		s, ok := v.(string)
		if !ok {
			return nil, encodeTypeError(v, t)
		}
		return []byte(s), nil
	case TypeBigint:
		n, ok := v.(int64)
		if !ok {
			return nil, encodeTypeError(v, t)
		}
		return binary.BigEndian.AppendUint64(nil, uint64(n)), nil
	case TypeBlob:
		p, ok := v.([]byte)
		if !ok {
			return nil, encodeTypeError(v, t)
		}
		return p, nil
	case TypeBoolean:
		f, ok := v.(bool)
		if !ok {
			return nil, encodeTypeError(v, t)
		}
		if f {
			return []byte{0x01}, nil
		}
		return []byte{0x00}, nil
	case TypeDecimal:
		d, ok := v.(*inf.Dec)
		if !ok {
			return nil, encodeTypeError(v, t)
		}
		out := binary.BigEndian.AppendUint32(nil, uint32(d.Scale()))
		return append(out, encodeBigInt(d.UnscaledBig())...), nil
	case TypeDouble:
		f, ok := v.(float64)
		if !ok {
			return nil, encodeTypeError(v, t)
		}
		return binary.BigEndian.AppendUint64(nil, math.Float64bits(f)), nil
	case TypeFloat:
		f, ok := v.(float32)
		if !ok {
			return nil, encodeTypeError(v, t)
		}
		return binary.BigEndian.AppendUint32(nil, math.Float32bits(f)), nil
	case TypeInt:
		n, ok := v.(int32)
		if !ok {
			return nil, encodeTypeError(v, t)
		}
		return binary.BigEndian.AppendUint32(nil, uint32(n)), nil
	case TypeTimestamp:
		ts, ok := v.(time.Time)
		if !ok {
			return nil, encodeTypeError(v, t)
		}
		return binary.BigEndian.AppendUint64(nil, uint64(ts.UnixMilli())), nil
	case TypeUUID, TypeTimeUUID:
		id, ok := v.(uuid.UUID)
		if !ok {
			return nil, encodeTypeError(v, t)
		}
		return id[:], nil
	case TypeVarint:
		n, ok := v.(*big.Int)
		if !ok {
			return nil, encodeTypeError(v, t)
		}
		return encodeBigInt(n), nil
	case TypeInet:
		addr, ok := v.(net.IP)
		if !ok {
			return nil, encodeTypeError(v, t)
		}
		if v4 := addr.To4(); v4 != nil {
			return v4, nil
		}
		return addr.To16(), nil
	case TypeList, TypeSet:
		list, ok := v.([]Value)
		if !ok {
			return nil, encodeTypeError(v, t)
		}
		return encodeList(list, t.Elem)
	case TypeMap:
		m, ok := v.(map[Value]Value)
		if !ok {
			return nil, encodeTypeError(v, t)
		}
		return encodeMap(m, t.Key, t.Elem)
	default:
		return nil, fmt.Errorf("%w: 0x%04X", ErrUnsupportedColumnType, uint16(t.Kind))
	}
}

func encodeTypeError(v Value, t *ColumnType) error {
	return fmt.Errorf("encoding %s: incompatible value %T", t, v)
}

// encodeBigInt writes the minimal big-endian two's-complement form.
func encodeBigInt(n *big.Int) []byte {
	switch n.Sign() {
	case 0:
		return []byte{0x00}
	case 1:
		b := n.Bytes()
		if b[0]&0x80 != 0 {
			return append([]byte{0x00}, b...)
		}
		return b
	}
	// Negative: find the least byte width whose sign bit can hold it,
	// then add 2^(8*width) to get the complement form.
	width := 1
	for {
		min := new(big.Int).Lsh(big.NewInt(1), uint(width*8-1))
		min.Neg(min)
		if n.Cmp(min) >= 0 {
			break
		}
		width++
	}
	m := new(big.Int).Lsh(big.NewInt(1), uint(width*8))
	m.Add(m, n)
	return m.Bytes()
}

func appendValueBytes(out []byte, raw []byte) []byte {
	if raw == nil {
		return append(out, 0xFF, 0xFF) // length -1: null element
	}
	out = binary.BigEndian.AppendUint16(out, uint16(len(raw)))
	return append(out, raw...)
}

func encodeList(list []Value, elem *ColumnType) ([]byte, error) {
	out := binary.BigEndian.AppendUint16(nil, uint16(len(list)))
	for _, v := range list {
		raw, err := EncodeValue(v, elem)
		if err != nil {
			return nil, err
		}
		out = appendValueBytes(out, raw)
	}
	return out, nil
}

func encodeMap(m map[Value]Value, key, value *ColumnType) ([]byte, error) {
	out := binary.BigEndian.AppendUint16(nil, uint16(len(m)))
	for k, v := range m {
		rawK, err := EncodeValue(k, key)
		if err != nil {
			return nil, err
		}
		out = appendValueBytes(out, rawK)
		rawV, err := EncodeValue(v, value)
		if err != nil {
			return nil, err
		}
		out = appendValueBytes(out, rawV)
	}
	return out, nil
}
