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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// rowsFrame builds a RESULT rows frame: one int column "n" under global
// table spec ks.t, rows [42, null].
func rowsFrame(stream int8) []byte {
	w := newWire()
	w.int4(0x0002)
	w.int4(1) // flags: global table spec
	w.int4(1) // one column
	w.str("ks")
	w.str("t")
	w.str("n")
	w.short(uint16(TypeInt))
	w.int4(2) // two rows
	w.bytes4([]byte{0x00, 0x00, 0x00, 0x2A})
	w.bytes4(nil)
	return frameBytes(stream, OpResult, w.bytes())
}

func TestFrameReady(t *testing.T) {
	raw := []byte{0x81, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00}

	f := NewFrame(NewBuffer(nil))
	if err := f.Append(raw); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if !f.Complete() {
		t.Fatalf("frame not complete")
	}
	if f.Stream() != 0 || f.BodyLength() != 0 || f.Version() != 1 {
		t.Errorf("header = v%d stream=%d length=%d", f.Version(), f.Stream(), f.BodyLength())
	}
	if _, ok := f.Body().(Ready); !ok {
		t.Errorf("body = %T, want Ready", f.Body())
	}
}

func TestFrameErrorResponse(t *testing.T) {
	w := newWire()
	w.int4(10)
	w.str("failed")
	raw := frameBytes(1, OpError, w.bytes())

	f := NewFrame(NewBuffer(nil))
	if err := f.Append(raw); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if !f.Complete() {
		t.Fatalf("frame not complete")
	}
	if f.Stream() != 1 {
		t.Errorf("stream = %d, want 1", f.Stream())
	}
	want := ErrorResponse{Code: 10, Message: "failed"}
	if diff := cmp.Diff(want, f.Body()); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestFrameRows(t *testing.T) {
	f := NewFrame(NewBuffer(nil))
	if err := f.Append(rowsFrame(2)); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if !f.Complete() {
		t.Fatalf("frame not complete")
	}
	want := RowsResult{
		Columns: []ColumnSpec{{Keyspace: "ks", Table: "t", Name: "n", Type: NativeType(TypeInt)}},
		Rows:    []Row{{"n": int32(42)}, {"n": nil}},
	}
	if diff := cmp.Diff(want, f.Body(), valueCmpOpts); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestFrameNestedMapColumn(t *testing.T) {
	xs := newWire()
	xs.short(2)
	xs.valueBytes([]byte{0x00, 0x00, 0x00, 0x01})
	xs.valueBytes([]byte{0x00, 0x00, 0x00, 0x02})
	ys := newWire()
	ys.short(0)
	cell := newWire()
	cell.short(2)
	cell.valueBytes([]byte("xs"))
	cell.valueBytes(xs.bytes())
	cell.valueBytes([]byte("ys"))
	cell.valueBytes(ys.bytes())

	w := newWire()
	w.int4(0x0002)
	w.int4(1)
	w.int4(1)
	w.str("ks")
	w.str("t")
	w.str("m")
	w.short(0x0021).short(0x000D).short(0x0020).short(0x0009)
	w.int4(1)
	w.bytes4(cell.bytes())

	f := NewFrame(NewBuffer(nil))
	if err := f.Append(frameBytes(0, OpResult, w.bytes())); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if !f.Complete() {
		t.Fatalf("frame not complete")
	}
	want := RowsResult{
		Columns: []ColumnSpec{{
			Keyspace: "ks", Table: "t", Name: "m",
			Type: MapType(NativeType(TypeVarchar), ListType(NativeType(TypeInt))),
		}},
		Rows: []Row{{"m": map[Value]Value{
			"xs": []Value{int32(1), int32(2)},
			"ys": []Value{},
		}}},
	}
	if diff := cmp.Diff(want, f.Body(), valueCmpOpts); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestFrameChunkedAppendsDecodeIdentically(t *testing.T) {
	raw := rowsFrame(7)

	whole := NewFrame(NewBuffer(nil))
	if err := whole.Append(raw); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	want := whole.Response()

	// Every two-way split.
	for cut := 0; cut <= len(raw); cut++ {
		f := NewFrame(NewBuffer(nil))
		if err := f.Append(raw[:cut]); err != nil {
			t.Fatalf("cut %d: first Append() error: %v", cut, err)
		}
		if err := f.Append(raw[cut:]); err != nil {
			t.Fatalf("cut %d: second Append() error: %v", cut, err)
		}
		if !f.Complete() {
			t.Fatalf("cut %d: frame not complete", cut)
		}
		if diff := cmp.Diff(want, f.Response(), valueCmpOpts); diff != "" {
			t.Errorf("cut %d: response mismatch (-want +got):\n%s", cut, diff)
		}
	}

	// Byte at a time.
	f := NewFrame(NewBuffer(nil))
	for i := range raw {
		if err := f.Append(raw[i : i+1]); err != nil {
			t.Fatalf("byte %d: Append() error: %v", i, err)
		}
		if f.Complete() != (i == len(raw)-1) {
			t.Fatalf("byte %d: premature or missing completion", i)
		}
	}
	if diff := cmp.Diff(want, f.Response(), valueCmpOpts); diff != "" {
		t.Errorf("byte-wise response mismatch (-want +got):\n%s", diff)
	}
}

func TestFrameLeavesResidualBytes(t *testing.T) {
	first := rowsFrame(1)
	second := []byte{0x81, 0x00, 0x02, 0x02, 0x00, 0x00, 0x00, 0x00} // READY, stream 2

	buf := NewBuffer(nil)
	f := NewFrame(buf)
	if err := f.Append(append(append([]byte{}, first...), second...)); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if !f.Complete() {
		t.Fatalf("first frame not complete")
	}
	if buf.Len() != len(second) {
		t.Fatalf("residual = %d bytes, want %d", buf.Len(), len(second))
	}

	next := NewFrame(buf)
	if err := next.Append(nil); err != nil {
		t.Fatalf("Append(nil) error: %v", err)
	}
	if !next.Complete() {
		t.Fatalf("second frame not completed from residual bytes")
	}
	if next.Stream() != 2 {
		t.Errorf("second stream = %d, want 2", next.Stream())
	}
	if _, ok := next.Body().(Ready); !ok {
		t.Errorf("second body = %T, want Ready", next.Body())
	}
	if buf.Len() != 0 {
		t.Errorf("buffer kept %d bytes past the last frame", buf.Len())
	}
}

func TestFrameSequenceAnyChunking(t *testing.T) {
	w := newWire()
	w.int4(0x0003)
	w.str("system")

	frames := [][]byte{
		frameBytes(0, OpReady, nil),
		rowsFrame(1),
		frameBytes(-1, OpResult, w.bytes()),
	}
	var stream []byte
	for _, fr := range frames {
		stream = append(stream, fr...)
	}

	for _, chunk := range []int{1, 2, 3, 5, 8, 13, len(stream)} {
		buf := NewBuffer(nil)
		f := NewFrame(buf)
		var got []*Response

		feed := func(p []byte) {
			if err := f.Append(p); err != nil {
				t.Fatalf("chunk %d: Append() error: %v", chunk, err)
			}
			for f.Complete() {
				got = append(got, f.Response())
				f = NewFrame(buf)
				if err := f.Append(nil); err != nil {
					t.Fatalf("chunk %d: Append(nil) error: %v", chunk, err)
				}
			}
		}
		for i := 0; i < len(stream); i += chunk {
			end := i + chunk
			if end > len(stream) {
				end = len(stream)
			}
			feed(stream[i:end])
		}

		if len(got) != len(frames) {
			t.Fatalf("chunk %d: decoded %d frames, want %d", chunk, len(got), len(frames))
		}
		wantStreams := []int8{0, 1, -1}
		for i, resp := range got {
			if resp.Stream != wantStreams[i] {
				t.Errorf("chunk %d: frame %d stream = %d, want %d", chunk, i, resp.Stream, wantStreams[i])
			}
		}
		if _, ok := got[0].Body.(Ready); !ok {
			t.Errorf("chunk %d: frame 0 body = %T", chunk, got[0].Body)
		}
		if _, ok := got[1].Body.(RowsResult); !ok {
			t.Errorf("chunk %d: frame 1 body = %T", chunk, got[1].Body)
		}
		if diff := cmp.Diff(SetKeyspaceResult{Keyspace: "system"}, got[2].Body); diff != "" {
			t.Errorf("chunk %d: frame 2 mismatch (-want +got):\n%s", chunk, diff)
		}
	}
}

func TestFrameRejectsRequestDirection(t *testing.T) {
	raw := []byte{0x01, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00}
	f := NewFrame(NewBuffer(nil))
	if err := f.Append(raw); !errors.Is(err, ErrUnsupportedFrameType) {
		t.Errorf("error = %v, want ErrUnsupportedFrameType", err)
	}
}

func TestFrameRejectsUnknownOpcode(t *testing.T) {
	// 0x07 is QUERY, a request opcode.
	raw := frameBytes(0, OpCode(0x07), nil)
	f := NewFrame(NewBuffer(nil))
	if err := f.Append(raw); !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("error = %v, want ErrUnsupportedOperation", err)
	}
}

func TestFrameVersionMasked(t *testing.T) {
	f := NewFrame(NewBuffer(nil))
	if err := f.Append(frameBytes(0, OpReady, nil)); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if f.Version() != 0x01 {
		t.Errorf("version = %#x, want 0x01 with direction bit cleared", f.Version())
	}
}
