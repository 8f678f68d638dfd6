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
Package client consumes decoded CQL responses from a byte stream.

Reader owns one protocol buffer and frame per stream and surfaces
responses in wire order. Correlating responses to requests via the
stream id, and any retry or reconnect policy, stay with the caller: a
decode error from Next is fatal for the stream, because the wire has no
frame delimiter to resynchronize on.
*/
package client

import (
	"errors"
	"fmt"
	"io"

	"cqlwire/internal/logging"
	"cqlwire/internal/metrics"
	"cqlwire/pkg/protocol"
)

// ErrFrameTooLarge reports a header naming a body beyond the configured
// cap; treated as stream corruption.
var ErrFrameTooLarge = errors.New("frame exceeds size limit")

// Option configures a Reader.
type Option func(*Reader)

// WithChunkSize sets the read size per I/O call.
func WithChunkSize(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.chunk = make([]byte, n)
		}
	}
}

// WithMaxFrameBytes caps accepted body lengths.
func WithMaxFrameBytes(n uint32) Option {
	return func(r *Reader) { r.maxFrame = n }
}

// WithMetrics attaches decode counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reader) { r.metrics = m }
}

const defaultChunkSize = 4096

// Reader decodes successive response frames from an io.Reader.
type Reader struct {
	src      io.Reader
	buf      *protocol.Buffer
	frame    *protocol.Frame
	chunk    []byte
	maxFrame uint32
	metrics  *metrics.Metrics
	log      *logging.Logger
	failed   error
}

// NewReader wraps src. One Reader per connection; Reader is not safe
// for concurrent use.
func NewReader(src io.Reader, opts ...Option) *Reader {
	buf := protocol.NewBuffer(nil)
	r := &Reader{
		src:   src,
		buf:   buf,
		frame: protocol.NewFrame(buf),
		chunk: make([]byte, defaultChunkSize),
		log:   logging.NewLogger("client"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Next returns the next response in wire order. It returns io.EOF at a
// clean end of stream, io.ErrUnexpectedEOF when the stream ends inside
// a frame, and a decoder error when the stream is corrupt. After any
// non-EOF error the Reader is dead and keeps returning the same error.
func (r *Reader) Next() (*protocol.Response, error) {
	if r.failed != nil {
		return nil, r.failed
	}
	for {
		if err := r.frame.Append(nil); err != nil {
			return nil, r.fail(err)
		}
		if r.maxFrame > 0 && r.frame.BodyLength() > r.maxFrame {
			return nil, r.fail(fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, r.frame.BodyLength()))
		}
		if r.frame.Complete() {
			resp := r.frame.Response()
			r.frame = protocol.NewFrame(r.buf)
			r.observe(resp)
			return resp, nil
		}

		n, err := r.src.Read(r.chunk)
		if n > 0 {
			if r.metrics != nil {
				r.metrics.ObserveBytes(n)
			}
			if appendErr := r.frame.Append(r.chunk[:n]); appendErr != nil {
				return nil, r.fail(appendErr)
			}
			if r.frame.Complete() {
				continue
			}
		}
		if err != nil {
			if err == io.EOF && r.buf.Len() == 0 && !r.pending() {
				return nil, io.EOF
			}
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, r.fail(err)
		}
	}
}

// pending reports whether a partially assembled frame exists.
func (r *Reader) pending() bool {
	return r.frame.BodyLength() > 0 || r.frame.Opcode() != 0 || r.frame.Stream() != 0 || r.frame.Version() != 0
}

func (r *Reader) fail(err error) error {
	r.failed = err
	if r.metrics != nil {
		r.metrics.ObserveFailure()
	}
	r.log.Error("stream unusable", "error", err)
	return err
}

func (r *Reader) observe(resp *protocol.Response) {
	if r.metrics != nil {
		r.metrics.ObserveFrame(byte(resp.Opcode))
		if rows, ok := resp.Body.(protocol.RowsResult); ok {
			r.metrics.ObserveRows(len(rows.Rows))
		}
	}
	r.log.Debug("response decoded", "opcode", resp.Opcode.String(), "stream", resp.Stream, "length", resp.Length)
}
