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
Package metrics counts decoder activity and exposes it in Prometheus
text format.

EXAMPLE METRICS:
================

	cqlwire_frames_decoded_total 120
	cqlwire_frames_error_total 2
	cqlwire_bytes_consumed_total 53112
	cqlwire_rows_decoded_total 4100
	cqlwire_decode_failures_total 0
*/
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"cqlwire/internal/logging"
)

// Metrics holds decoder counters. The zero value is ready to use.
type Metrics struct {
	FramesDecoded atomic.Uint64
	BytesConsumed atomic.Uint64
	RowsDecoded   atomic.Uint64

	// Per-opcode frame counts.
	FramesError     atomic.Uint64
	FramesReady     atomic.Uint64
	FramesSupported atomic.Uint64
	FramesResult    atomic.Uint64
	FramesEvent     atomic.Uint64

	// Decoder failures (fatal for the connection).
	DecodeFailures atomic.Uint64
}

// ObserveFrame records one decoded frame of the given opcode.
func (m *Metrics) ObserveFrame(opcode byte) {
	m.FramesDecoded.Add(1)
	switch opcode {
	case 0x00:
		m.FramesError.Add(1)
	case 0x02:
		m.FramesReady.Add(1)
	case 0x06:
		m.FramesSupported.Add(1)
	case 0x08:
		m.FramesResult.Add(1)
	case 0x0C:
		m.FramesEvent.Add(1)
	}
}

// ObserveBytes records consumed stream bytes.
func (m *Metrics) ObserveBytes(n int) {
	m.BytesConsumed.Add(uint64(n))
}

// ObserveRows records decoded result rows.
func (m *Metrics) ObserveRows(n int) {
	m.RowsDecoded.Add(uint64(n))
}

// ObserveFailure records a fatal decode error.
func (m *Metrics) ObserveFailure() {
	m.DecodeFailures.Add(1)
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	FramesDecoded   uint64 `json:"frames_decoded"`
	BytesConsumed   uint64 `json:"bytes_consumed"`
	RowsDecoded     uint64 `json:"rows_decoded"`
	FramesError     uint64 `json:"frames_error"`
	FramesReady     uint64 `json:"frames_ready"`
	FramesSupported uint64 `json:"frames_supported"`
	FramesResult    uint64 `json:"frames_result"`
	FramesEvent     uint64 `json:"frames_event"`
	DecodeFailures  uint64 `json:"decode_failures"`
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		FramesDecoded:   m.FramesDecoded.Load(),
		BytesConsumed:   m.BytesConsumed.Load(),
		RowsDecoded:     m.RowsDecoded.Load(),
		FramesError:     m.FramesError.Load(),
		FramesReady:     m.FramesReady.Load(),
		FramesSupported: m.FramesSupported.Load(),
		FramesResult:    m.FramesResult.Load(),
		FramesEvent:     m.FramesEvent.Load(),
		DecodeFailures:  m.DecodeFailures.Load(),
	}
}

// Handler serves the counters in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.Snapshot()
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		fmt.Fprintf(w, "cqlwire_frames_decoded_total %d\n", s.FramesDecoded)
		fmt.Fprintf(w, "cqlwire_bytes_consumed_total %d\n", s.BytesConsumed)
		fmt.Fprintf(w, "cqlwire_rows_decoded_total %d\n", s.RowsDecoded)
		fmt.Fprintf(w, "cqlwire_frames_error_total %d\n", s.FramesError)
		fmt.Fprintf(w, "cqlwire_frames_ready_total %d\n", s.FramesReady)
		fmt.Fprintf(w, "cqlwire_frames_supported_total %d\n", s.FramesSupported)
		fmt.Fprintf(w, "cqlwire_frames_result_total %d\n", s.FramesResult)
		fmt.Fprintf(w, "cqlwire_frames_event_total %d\n", s.FramesEvent)
		fmt.Fprintf(w, "cqlwire_decode_failures_total %d\n", s.DecodeFailures)
	})
}

// Server exposes a Metrics on an HTTP listener.
type Server struct {
	srv *http.Server
	log *logging.Logger
}

// NewServer builds a metrics server on addr.
func NewServer(addr string, m *Metrics) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &Server{
		srv: &http.Server{Addr: addr, Handler: mux},
		log: logging.NewLogger("metrics"),
	}
}

// Start serves until Stop. It returns after the listener is closed.
func (s *Server) Start() {
	s.log.Info("metrics listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Error("metrics server failed", "error", err)
	}
}

// Stop shuts the listener down gracefully.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.log.Warn("metrics shutdown", "error", err)
	}
}
