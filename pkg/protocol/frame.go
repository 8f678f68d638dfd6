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
)

// HeaderLength is the fixed response header size in bytes.
const HeaderLength = 8

// responseDirection is the version octet's high bit. It distinguishes
// responses from requests; the remaining 7 bits carry the version.
const responseDirection = 0x80

// Frame assembles one response from a streaming byte source. Bytes may
// arrive in arbitrary fragments: the frame waits for the 8-byte header,
// then for Length body bytes, then decodes the body and releases any
// bytes beyond it back to the buffer for the next frame.
//
// A frame is single-use. The buffer is borrowed, not owned; after
// completion it holds exactly the octets that belonged to subsequent
// frames.
type Frame struct {
	buf *Buffer

	haveHeader bool
	complete   bool

	version byte
	flags   byte
	stream  int8
	opcode  OpCode
	length  uint32

	body Body
}

// Response is a fully decoded response frame, independent of the buffer
// it was assembled from.
type Response struct {
	Version byte
	Flags   byte
	Stream  int8
	Opcode  OpCode
	Length  uint32
	Body    Body
}

// String renders a one-line summary of the response.
func (r *Response) String() string {
	return fmt.Sprintf("[v%d stream=%d %v] %v", r.Version, r.Stream, r.Opcode, r.Body)
}

// NewFrame begins assembly against buf. Bytes already queued in buf are
// consumed on the first Append.
func NewFrame(buf *Buffer) *Frame {
	return &Frame{buf: buf}
}

// Append queues bytes and advances the header/body state machine. It
// returns an error when the header names a request frame or an unknown
// opcode, or when the body does not decode; all such errors are fatal
// for the stream. Appending an empty slice just re-drives the state
// machine, which completes a frame whose bytes are already buffered.
func (f *Frame) Append(p []byte) error {
	if len(p) > 0 {
		f.buf.Append(p)
	}
	if !f.haveHeader {
		if f.buf.Len() < HeaderLength {
			return nil
		}
		if err := f.readHeader(); err != nil {
			return err
		}
	}
	if f.complete || f.buf.Len() < int(f.length) {
		return nil
	}
	return f.decodeBody()
}

// readHeader consumes the 8 header octets. Only response frames are
// accepted: the direction bit must be set. It is masked off so the
// surfaced version is the numeric value alone.
func (f *Frame) readHeader() error {
	h, err := f.buf.take(HeaderLength)
	if err != nil {
		return err
	}
	if h[0]&responseDirection == 0 {
		return fmt.Errorf("%w: version octet 0x%02X is not a response", ErrUnsupportedFrameType, h[0])
	}
	f.version = h[0] &^ responseDirection
	f.flags = h[1]
	f.stream = int8(h[2])
	f.opcode = OpCode(h[3])
	f.length = binary.BigEndian.Uint32(h[4:])
	f.haveHeader = true
	return nil
}

// decodeBody slices exactly Length octets out of the buffer, decodes
// them per opcode, and leaves the remainder for the next frame.
func (f *Frame) decodeBody() error {
	raw, err := f.buf.take(int(f.length))
	if err != nil {
		return err
	}
	body, err := decodeBody(f.opcode, NewBuffer(raw))
	if err != nil {
		return err
	}
	f.body = body
	f.complete = true
	return nil
}

// Complete reports whether the body has been decoded.
func (f *Frame) Complete() bool {
	return f.complete
}

// Body returns the decoded body. Valid only when Complete.
func (f *Frame) Body() Body {
	return f.body
}

// Version returns the numeric protocol version (direction bit cleared).
// Valid once the header is consumed.
func (f *Frame) Version() byte {
	return f.version
}

// Flags returns the header flags octet.
func (f *Frame) Flags() byte {
	return f.flags
}

// Stream returns the correlation token the client chose at request
// time. The decoder treats it as opaque.
func (f *Frame) Stream() int8 {
	return f.stream
}

// Opcode returns the response opcode.
func (f *Frame) Opcode() OpCode {
	return f.opcode
}

// BodyLength returns the body length named by the header. Valid once
// the header is consumed.
func (f *Frame) BodyLength() uint32 {
	return f.length
}

// Response materializes the completed frame as an owned value.
func (f *Frame) Response() *Response {
	if !f.complete {
		return nil
	}
	return &Response{
		Version: f.version,
		Flags:   f.flags,
		Stream:  f.stream,
		Opcode:  f.opcode,
		Length:  f.length,
		Body:    f.body,
	}
}
