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

/*
Package protocol decodes server-to-client frames of the CQL binary
protocol, version 1.

MESSAGE FORMAT:
===============
Every response is a fixed 8-byte header followed by a body:

	+--------+--------+--------+--------+--------+--------+--------+--------+
	| Ver    | Flags  | Stream | Op     | Length (4 bytes, big-endian)      |
	+--------+--------+--------+--------+--------+--------+--------+--------+
	|                        Body (Length bytes)                            |
	+-----------------------------------------------------------------------+

HEADER FIELDS:
==============
- Version (1 byte): high bit set for responses, low 7 bits the version (0x81)
- Flags (1 byte): reserved (compression is not supported here)
- Stream (1 byte): signed correlation token chosen by the client
- Op (1 byte): response opcode (see OpCode constants)
- Length (4 bytes): body length in bytes (big-endian)

Bodies are decoded per opcode into the Body variants in response.go.
Rows payloads carry a recursive column type system (types below) whose
cells decode through value.go.

Frames arrive in arbitrary fragments; the Frame type in frame.go
accumulates appends and completes headers-then-body. All primitive
reads live on Buffer in buffer.go.
*/
package protocol

import (
	"errors"
	"fmt"
	"strconv"
)

// Decoder errors. Any of these is fatal for the connection: there is no
// frame delimiter beyond the length field, so the stream cannot be
// resynchronized after a decode failure.
var (
	// ErrUnsupportedFrameType indicates the version octet's high bit was
	// clear: a request frame arrived on the response channel.
	ErrUnsupportedFrameType = errors.New("unsupported frame type")

	// ErrUnsupportedOperation indicates an opcode outside the response
	// dispatch table.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrUnsupportedResultKind indicates an unknown RESULT body kind.
	ErrUnsupportedResultKind = errors.New("unsupported result kind")

	// ErrUnsupportedColumnType indicates an unknown or reserved column
	// type discriminant.
	ErrUnsupportedColumnType = errors.New("unsupported column type")

	// ErrUnsupportedEventType indicates an unknown EVENT type tag.
	ErrUnsupportedEventType = errors.New("unsupported event type")
)

// OpCode identifies the response family of a frame.
type OpCode byte

// Response opcodes. Request opcodes (STARTUP, QUERY, ...) share the
// same space on the wire but are never accepted by this decoder.
const (
	OpError     OpCode = 0x00 // Server-reported error
	OpReady     OpCode = 0x02 // STARTUP accepted, connection usable
	OpSupported OpCode = 0x06 // Supported STARTUP options
	OpResult    OpCode = 0x08 // Query result (five kinds, see result body)
	OpEvent     OpCode = 0x0C // Asynchronous cluster event
)

// String returns the protocol name of the opcode.
func (o OpCode) String() string {
	switch o {
	case OpError:
		return "ERROR"
	case OpReady:
		return "READY"
	case OpSupported:
		return "SUPPORTED"
	case OpResult:
		return "RESULT"
	case OpEvent:
		return "EVENT"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02X)", byte(o))
	}
}

// Consistency is the guarantee level carried in several error payloads.
type Consistency uint16

const (
	Any         Consistency = 0x0000
	One         Consistency = 0x0001
	Two         Consistency = 0x0002
	Three       Consistency = 0x0003
	Quorum      Consistency = 0x0004
	All         Consistency = 0x0005
	LocalQuorum Consistency = 0x0006
	EachQuorum  Consistency = 0x0007
)

// String returns the CQL name of the consistency level.
func (c Consistency) String() string {
	switch c {
	case Any:
		return "ANY"
	case One:
		return "ONE"
	case Two:
		return "TWO"
	case Three:
		return "THREE"
	case Quorum:
		return "QUORUM"
	case All:
		return "ALL"
	case LocalQuorum:
		return "LOCAL_QUORUM"
	case EachQuorum:
		return "EACH_QUORUM"
	default:
		return "UNKNOWN_CL_0x" + strconv.FormatUint(uint64(c), 16)
	}
}

// TypeKind is a column type discriminant as it appears on the wire.
type TypeKind uint16

// Column type discriminants, protocol v1.
//
// 0x0005 (counter) and 0x000A (text) are reserved on the wire but are
// not accepted as column type discriminants; text exists only as a
// value-decode alias for varchar.
const (
	TypeAscii     TypeKind = 0x0001
	TypeBigint    TypeKind = 0x0002
	TypeBlob      TypeKind = 0x0003
	TypeBoolean   TypeKind = 0x0004
	TypeDecimal   TypeKind = 0x0006
	TypeDouble    TypeKind = 0x0007
	TypeFloat     TypeKind = 0x0008
	TypeInt       TypeKind = 0x0009
	TypeText      TypeKind = 0x000A // value-decode alias for varchar only
	TypeTimestamp TypeKind = 0x000B
	TypeUUID      TypeKind = 0x000C
	TypeVarchar   TypeKind = 0x000D
	TypeVarint    TypeKind = 0x000E
	TypeTimeUUID  TypeKind = 0x000F
	TypeInet      TypeKind = 0x0010
	TypeList      TypeKind = 0x0020
	TypeMap       TypeKind = 0x0021
	TypeSet       TypeKind = 0x0022
)

// ColumnType is the recursive type tag tree identifying a cell's wire
// decoding. Key is set only for maps; Elem is the list/set element type
// or the map value type.
type ColumnType struct {
	Kind TypeKind
	Key  *ColumnType
	Elem *ColumnType
}

// NativeType returns a non-collection column type.
func NativeType(kind TypeKind) *ColumnType {
	return &ColumnType{Kind: kind}
}

// ListType returns a list type with the given element type.
func ListType(elem *ColumnType) *ColumnType {
	return &ColumnType{Kind: TypeList, Elem: elem}
}

// MapType returns a map type with the given key and value types.
func MapType(key, value *ColumnType) *ColumnType {
	return &ColumnType{Kind: TypeMap, Key: key, Elem: value}
}

// SetType returns a set type with the given element type.
func SetType(elem *ColumnType) *ColumnType {
	return &ColumnType{Kind: TypeSet, Elem: elem}
}

// String renders the type the way CQL spells it.
func (t *ColumnType) String() string {
	switch t.Kind {
	case TypeAscii:
		return "ascii"
	case TypeBigint:
		return "bigint"
	case TypeBlob:
		return "blob"
	case TypeBoolean:
		return "boolean"
	case TypeDecimal:
		return "decimal"
	case TypeDouble:
		return "double"
	case TypeFloat:
		return "float"
	case TypeInt:
		return "int"
	case TypeText:
		return "text"
	case TypeTimestamp:
		return "timestamp"
	case TypeUUID:
		return "uuid"
	case TypeVarchar:
		return "varchar"
	case TypeVarint:
		return "varint"
	case TypeTimeUUID:
		return "timeuuid"
	case TypeInet:
		return "inet"
	case TypeList:
		return fmt.Sprintf("list<%s>", t.Elem)
	case TypeMap:
		return fmt.Sprintf("map<%s, %s>", t.Key, t.Elem)
	case TypeSet:
		return fmt.Sprintf("set<%s>", t.Elem)
	default:
		return fmt.Sprintf("unknown(0x%04X)", uint16(t.Kind))
	}
}

// ColumnSpec describes one column of a result set.
type ColumnSpec struct {
	Keyspace string
	Table    string
	Name     string
	Type     *ColumnType
}

// String renders the spec as keyspace.table.name: type.
func (c ColumnSpec) String() string {
	return fmt.Sprintf("%s.%s.%s: %s", c.Keyspace, c.Table, c.Name, c.Type)
}
