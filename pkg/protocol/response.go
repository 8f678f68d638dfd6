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
	"fmt"
	"net"
)

// Body is implemented by every decoded response body variant.
type Body interface {
	body()
}

// ResultBody is the subset of Body variants carried by RESULT frames.
type ResultBody interface {
	Body
	resultBody()
}

// EventBody is the subset of Body variants carried by EVENT frames.
type EventBody interface {
	Body
	eventBody()
}

// Server error codes that carry structured details beyond the message.
const (
	codeUnavailable   int32 = 0x1000
	codeWriteTimeout  int32 = 0x1100
	codeReadTimeout   int32 = 0x1200
	codeAlreadyExists int32 = 0x2400
	codeUnprepared    int32 = 0x2500
)

// RESULT body kinds.
const (
	resultKindVoid        int32 = 0x0001
	resultKindRows        int32 = 0x0002
	resultKindSetKeyspace int32 = 0x0003
	resultKindPrepared    int32 = 0x0004
	resultKindSchema      int32 = 0x0005
)

// EVENT type tags.
const (
	eventSchemaChange   = "SCHEMA_CHANGE"
	eventStatusChange   = "STATUS_CHANGE"
	eventTopologyChange = "TOPOLOGY_CHANGE"
)

// ErrorDetails is the structured payload of the error codes listed
// above. Details are data, not decoder failures: a frame carrying them
// decoded successfully.
type ErrorDetails interface {
	errorDetails()
}

// UnavailableDetails: not enough live replicas for the consistency
// level (code 0x1000).
type UnavailableDetails struct {
	Consistency Consistency
	Required    int32
	Alive       int32
}

// WriteTimeoutDetails: replicas did not acknowledge a write in time
// (code 0x1100).
type WriteTimeoutDetails struct {
	Consistency Consistency
	Received    int32
	BlockFor    int32
	WriteType   string
}

// ReadTimeoutDetails: replicas did not answer a read in time
// (code 0x1200).
type ReadTimeoutDetails struct {
	Consistency Consistency
	Received    int32
	BlockFor    int32
	DataPresent bool
}

// AlreadyExistsDetails: the keyspace or table being created exists
// (code 0x2400).
type AlreadyExistsDetails struct {
	Keyspace string
	Table    string
}

// UnpreparedDetails: the prepared statement id is unknown to the server
// (code 0x2500).
type UnpreparedDetails struct {
	ID []byte
}

func (UnavailableDetails) errorDetails()   {}
func (WriteTimeoutDetails) errorDetails()  {}
func (ReadTimeoutDetails) errorDetails()   {}
func (AlreadyExistsDetails) errorDetails() {}
func (UnpreparedDetails) errorDetails()    {}

// ErrorResponse is a server-reported error. Details is nil for codes
// without a structured payload.
type ErrorResponse struct {
	Code    int32
	Message string
	Details ErrorDetails
}

// Ready reports the connection is usable.
type Ready struct{}

// Supported lists the STARTUP options the server accepts.
type Supported struct {
	Options map[string][]string
}

// VoidResult is a result with no payload.
type VoidResult struct{}

// RowsResult is a tabular result: column specs in declared order plus
// one Row per result row. Every row has exactly one entry per column.
type RowsResult struct {
	Columns []ColumnSpec
	Rows    []Row
}

// SetKeyspaceResult acknowledges a USE statement.
type SetKeyspaceResult struct {
	Keyspace string
}

// PreparedResult carries a prepared statement id and its bind metadata.
type PreparedResult struct {
	ID      []byte
	Columns []ColumnSpec
}

// SchemaChangeResult reports a schema alteration made by the query.
type SchemaChangeResult struct {
	Change   string
	Keyspace string
	Table    string
}

// SchemaChangeEvent is the asynchronous twin of SchemaChangeResult.
type SchemaChangeEvent struct {
	Change   string
	Keyspace string
	Table    string
}

// StatusChangeEvent reports a node going up or down.
type StatusChangeEvent struct {
	Change  string
	Address net.IP
	Port    int32
}

// TopologyChangeEvent reports a node joining or leaving the ring. Same
// wire shape as StatusChangeEvent, distinguished by tag.
type TopologyChangeEvent struct {
	Change  string
	Address net.IP
	Port    int32
}

func (ErrorResponse) body()       {}
func (Ready) body()               {}
func (Supported) body()           {}
func (VoidResult) body()          {}
func (RowsResult) body()          {}
func (SetKeyspaceResult) body()   {}
func (PreparedResult) body()      {}
func (SchemaChangeResult) body()  {}
func (SchemaChangeEvent) body()   {}
func (StatusChangeEvent) body()   {}
func (TopologyChangeEvent) body() {}

func (VoidResult) resultBody()         {}
func (RowsResult) resultBody()         {}
func (SetKeyspaceResult) resultBody()  {}
func (PreparedResult) resultBody()     {}
func (SchemaChangeResult) resultBody() {}

func (SchemaChangeEvent) eventBody()   {}
func (StatusChangeEvent) eventBody()   {}
func (TopologyChangeEvent) eventBody() {}

func (e ErrorResponse) String() string {
	if e.Details != nil {
		return fmt.Sprintf("ERROR code=0x%04X message=%q details=%+v", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("ERROR code=0x%04X message=%q", e.Code, e.Message)
}

func (Ready) String() string { return "READY" }

func (s Supported) String() string {
	return fmt.Sprintf("SUPPORTED options=%v", s.Options)
}

func (VoidResult) String() string { return "RESULT void" }

func (r RowsResult) String() string {
	return fmt.Sprintf("RESULT rows columns=%d rows=%d", len(r.Columns), len(r.Rows))
}

func (r SetKeyspaceResult) String() string {
	return fmt.Sprintf("RESULT set_keyspace %q", r.Keyspace)
}

func (r PreparedResult) String() string {
	return fmt.Sprintf("RESULT prepared id=%X columns=%d", r.ID, len(r.Columns))
}

func (r SchemaChangeResult) String() string {
	return fmt.Sprintf("RESULT schema_change %s %s.%s", r.Change, r.Keyspace, r.Table)
}

func (e SchemaChangeEvent) String() string {
	return fmt.Sprintf("EVENT schema_change %s %s.%s", e.Change, e.Keyspace, e.Table)
}

func (e StatusChangeEvent) String() string {
	return fmt.Sprintf("EVENT status_change %s %s:%d", e.Change, e.Address, e.Port)
}

func (e TopologyChangeEvent) String() string {
	return fmt.Sprintf("EVENT topology_change %s %s:%d", e.Change, e.Address, e.Port)
}

// decodeBody dispatches to the opcode's body decoder. The buffer holds
// exactly the frame body.
func decodeBody(op OpCode, b *Buffer) (Body, error) {
	switch op {
	case OpError:
		return decodeError(b)
	case OpReady:
		return Ready{}, nil
	case OpSupported:
		return decodeSupported(b)
	case OpResult:
		return decodeResult(b)
	case OpEvent:
		return decodeEvent(b)
	default:
		return nil, fmt.Errorf("%w: opcode 0x%02X", ErrUnsupportedOperation, byte(op))
	}
}

func decodeError(b *Buffer) (Body, error) {
	code, err := b.ReadInt()
	if err != nil {
		return nil, err
	}
	message, err := b.ReadString()
	if err != nil {
		return nil, err
	}
	resp := ErrorResponse{Code: code, Message: message}
	resp.Details, err = decodeErrorDetails(code, b)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func decodeErrorDetails(code int32, b *Buffer) (ErrorDetails, error) {
	switch code {
	case codeUnavailable:
		var d UnavailableDetails
		var err error
		if d.Consistency, err = b.ReadConsistency(); err != nil {
			return nil, err
		}
		if d.Required, err = b.ReadInt(); err != nil {
			return nil, err
		}
		if d.Alive, err = b.ReadInt(); err != nil {
			return nil, err
		}
		return d, nil
	case codeWriteTimeout:
		var d WriteTimeoutDetails
		var err error
		if d.Consistency, err = b.ReadConsistency(); err != nil {
			return nil, err
		}
		if d.Received, err = b.ReadInt(); err != nil {
			return nil, err
		}
		if d.BlockFor, err = b.ReadInt(); err != nil {
			return nil, err
		}
		if d.WriteType, err = b.ReadString(); err != nil {
			return nil, err
		}
		return d, nil
	case codeReadTimeout:
		var d ReadTimeoutDetails
		var err error
		if d.Consistency, err = b.ReadConsistency(); err != nil {
			return nil, err
		}
		if d.Received, err = b.ReadInt(); err != nil {
			return nil, err
		}
		if d.BlockFor, err = b.ReadInt(); err != nil {
			return nil, err
		}
		present, err := b.ReadByte()
		if err != nil {
			return nil, err
		}
		d.DataPresent = present != 0
		return d, nil
	case codeAlreadyExists:
		var d AlreadyExistsDetails
		var err error
		if d.Keyspace, err = b.ReadString(); err != nil {
			return nil, err
		}
		if d.Table, err = b.ReadString(); err != nil {
			return nil, err
		}
		return d, nil
	case codeUnprepared:
		var d UnpreparedDetails
		var err error
		if d.ID, err = b.ReadShortBytes(); err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, nil
	}
}

func decodeSupported(b *Buffer) (Body, error) {
	options, err := b.ReadStringMultimap()
	if err != nil {
		return nil, err
	}
	return Supported{Options: options}, nil
}

func decodeResult(b *Buffer) (Body, error) {
	kind, err := b.ReadInt()
	if err != nil {
		return nil, err
	}
	switch kind {
	case resultKindVoid:
		return VoidResult{}, nil
	case resultKindRows:
		specs, err := readMetadata(b)
		if err != nil {
			return nil, err
		}
		rows, err := readRows(b, specs)
		if err != nil {
			return nil, err
		}
		return RowsResult{Columns: specs, Rows: rows}, nil
	case resultKindSetKeyspace:
		keyspace, err := b.ReadString()
		if err != nil {
			return nil, err
		}
		return SetKeyspaceResult{Keyspace: keyspace}, nil
	case resultKindPrepared:
		id, err := b.ReadShortBytes()
		if err != nil {
			return nil, err
		}
		specs, err := readMetadata(b)
		if err != nil {
			return nil, err
		}
		return PreparedResult{ID: id, Columns: specs}, nil
	case resultKindSchema:
		r := SchemaChangeResult{}
		if r.Change, err = b.ReadString(); err != nil {
			return nil, err
		}
		if r.Keyspace, err = b.ReadString(); err != nil {
			return nil, err
		}
		if r.Table, err = b.ReadString(); err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w: 0x%08X", ErrUnsupportedResultKind, kind)
	}
}

func decodeEvent(b *Buffer) (Body, error) {
	tag, err := b.ReadString()
	if err != nil {
		return nil, err
	}
	switch tag {
	case eventSchemaChange:
		e := SchemaChangeEvent{}
		if e.Change, err = b.ReadString(); err != nil {
			return nil, err
		}
		if e.Keyspace, err = b.ReadString(); err != nil {
			return nil, err
		}
		if e.Table, err = b.ReadString(); err != nil {
			return nil, err
		}
		return e, nil
	case eventStatusChange:
		e := StatusChangeEvent{}
		if e.Change, err = b.ReadString(); err != nil {
			return nil, err
		}
		if e.Address, e.Port, err = b.ReadInet(); err != nil {
			return nil, err
		}
		return e, nil
	case eventTopologyChange:
		e := TopologyChangeEvent{}
		if e.Change, err = b.ReadString(); err != nil {
			return nil, err
		}
		if e.Address, e.Port, err = b.ReadInet(); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEventType, tag)
	}
}
