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
Package capture replays recorded response-frame bytes.

A capture is the raw server-to-client side of a connection, written to
a file as-is. Regular files are memory-mapped read-only and fed to the
sink in chunks, which reproduces the fragmented arrival the frame
assembler sees on a live socket. Pipes and other non-seekable inputs
fall back to buffered reads.
*/
package capture

import (
	"fmt"
	"io"
	"os"

	"github.com/tysonmote/gommap"

	"cqlwire/internal/logging"
)

// Replayer feeds capture bytes to a sink in fixed-size chunks.
type Replayer struct {
	data  []byte
	mmap  gommap.MMap
	file  *os.File
	chunk int
	log   *logging.Logger
}

// Open prepares path for replay. chunk is the slice size handed to the
// sink per call.
func Open(path string, chunk int) (*Replayer, error) {
	if chunk <= 0 {
		return nil, fmt.Errorf("capture: chunk size %d", chunk)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	r := &Replayer{file: f, chunk: chunk, log: logging.NewLogger("capture")}
	if !fi.Mode().IsRegular() {
		data, err := io.ReadAll(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("capture: reading %s: %w", path, err)
		}
		r.data = data
		return r, nil
	}
	if fi.Size() == 0 {
		return r, nil
	}

	m, err := gommap.Map(f.Fd(), gommap.PROT_READ, gommap.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("capture: mapping %s: %w", path, err)
	}
	r.mmap = m
	r.data = m
	r.log.Debug("capture mapped", "path", path, "bytes", fi.Size())
	return r, nil
}

// FromReader buffers a non-seekable source (for example stdin) instead
// of mapping it.
func FromReader(src io.Reader, chunk int) (*Replayer, error) {
	if chunk <= 0 {
		return nil, fmt.Errorf("capture: chunk size %d", chunk)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("capture: reading source: %w", err)
	}
	return &Replayer{data: data, chunk: chunk, log: logging.NewLogger("capture")}, nil
}

// Size reports the capture length in bytes.
func (r *Replayer) Size() int {
	return len(r.data)
}

// Replay hands the capture to sink chunk by chunk, stopping at the
// sink's first error.
func (r *Replayer) Replay(sink func(p []byte) error) error {
	for off := 0; off < len(r.data); off += r.chunk {
		end := off + r.chunk
		if end > len(r.data) {
			end = len(r.data)
		}
		if err := sink(r.data[off:end]); err != nil {
			return fmt.Errorf("capture: at offset %d: %w", off, err)
		}
	}
	return nil
}

// Close releases the mapping and the file.
func (r *Replayer) Close() error {
	if r.mmap != nil {
		if err := r.mmap.UnsafeUnmap(); err != nil {
			return err
		}
		r.mmap = nil
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
