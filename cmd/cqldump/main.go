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
cqldump - decode a capture of CQL response frames.

USAGE:
======

	cqldump [options]

OPTIONS:
========

	-config string    Path to configuration file (JSON format)
	-file string      Capture file to decode, "-" for stdin (default "-")
	-json             JSON log output
	-metrics          Serve Prometheus metrics while decoding
	-gateway          Serve the WebSocket event gateway while decoding
	-hold             Keep listeners running after the capture ends
	-version          Show version information
	-help             Show help message

ENVIRONMENT VARIABLES:
======================

	CQLWIRE_LOG_LEVEL        Log level: debug, info, warn, error
	CQLWIRE_LOG_JSON         Enable JSON log output
	CQLWIRE_MAX_FRAME_BYTES  Reject bodies larger than this
	CQLWIRE_READ_CHUNK_BYTES Replay chunk size
	CQLWIRE_METRICS_ADDR     Metrics listen address (default :9180)
	CQLWIRE_GATEWAY_ADDR     Gateway listen address (default :9181)
	CQLWIRE_GATEWAY_ORIGINS  Comma-separated allowed origins

A capture is the raw byte stream a server wrote to one connection.
Every decoded response prints as one line, and a rows result adds one
line per row; cluster events are also pushed to gateway subscribers. Any decoder error is fatal: the stream
cannot be resynchronized past it.
*/
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cqlwire/internal/capture"
	"cqlwire/internal/config"
	"cqlwire/internal/gateway"
	"cqlwire/internal/logging"
	"cqlwire/internal/metrics"
	"cqlwire/pkg/protocol"
)

const version = "1.0.0"

func main() {
	var (
		configPath  = flag.String("config", "", "path to configuration file")
		filePath    = flag.String("file", "-", `capture file, "-" for stdin`)
		jsonLogs    = flag.Bool("json", false, "JSON log output")
		withMetrics = flag.Bool("metrics", false, "serve Prometheus metrics")
		withGateway = flag.Bool("gateway", false, "serve the WebSocket event gateway")
		hold        = flag.Bool("hold", false, "keep listeners running after the capture ends")
		showVersion = flag.Bool("version", false, "show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("cqldump %s\n", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cqldump: %v\n", err)
		os.Exit(1)
	}
	if *withMetrics {
		cfg.MetricsEnabled = true
	}
	if *withGateway {
		cfg.GatewayEnabled = true
	}

	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))
	logging.SetJSONMode(*jsonLogs || cfg.LogJSON)
	log := logging.NewLogger("cqldump")

	var m metrics.Metrics
	var metricsSrv *metrics.Server
	if cfg.MetricsEnabled {
		metricsSrv = metrics.NewServer(cfg.MetricsAddr, &m)
		go metricsSrv.Start()
	}

	var gw *gateway.Gateway
	if cfg.GatewayEnabled {
		gw = gateway.New(cfg.GatewayOrigins)
		mux := http.NewServeMux()
		mux.Handle("/events", gw.Handler())
		srv := &http.Server{Addr: cfg.GatewayAddr, Handler: mux}
		go func() {
			log.Info("gateway listening", "addr", cfg.GatewayAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("gateway failed", "error", err)
			}
		}()
	}

	rep, err := openCapture(*filePath, cfg.ReadChunkBytes)
	if err != nil {
		log.Error("cannot open capture", "error", err)
		os.Exit(1)
	}
	defer rep.Close()

	if err := dump(rep, cfg, &m, gw); err != nil {
		log.Error("decode failed", "error", err)
		os.Exit(1)
	}
	log.Info("capture decoded", "frames", m.Snapshot().FramesDecoded, "bytes", rep.Size())

	if *hold && (cfg.MetricsEnabled || cfg.GatewayEnabled) {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
	}
	if metricsSrv != nil {
		metricsSrv.Stop()
	}
}

func openCapture(path string, chunk int) (*capture.Replayer, error) {
	if path == "-" {
		return capture.FromReader(os.Stdin, chunk)
	}
	return capture.Open(path, chunk)
}

// dump drives the frame assembler over the capture, printing one line
// per response plus one line per row of a rows result.
func dump(rep *capture.Replayer, cfg *config.Config, m *metrics.Metrics, gw *gateway.Gateway) error {
	buf := protocol.NewBuffer(nil)
	frame := protocol.NewFrame(buf)

	emit := func() error {
		for {
			if frame.BodyLength() > cfg.MaxFrameBytes {
				return fmt.Errorf("frame of %d bytes exceeds limit %d", frame.BodyLength(), cfg.MaxFrameBytes)
			}
			if !frame.Complete() {
				return nil
			}
			resp := frame.Response()
			m.ObserveFrame(byte(resp.Opcode))
			if rows, ok := resp.Body.(protocol.RowsResult); ok {
				m.ObserveRows(len(rows.Rows))
				printRows(resp, rows)
			} else {
				fmt.Println(resp)
			}
			if gw != nil {
				if ev, ok := resp.Body.(protocol.EventBody); ok {
					gw.Broadcast(ev)
				}
			}
			frame = protocol.NewFrame(buf)
			if err := frame.Append(nil); err != nil {
				return err
			}
		}
	}

	err := rep.Replay(func(p []byte) error {
		m.ObserveBytes(len(p))
		if err := frame.Append(p); err != nil {
			return err
		}
		return emit()
	})
	if err != nil {
		m.ObserveFailure()
		return err
	}
	if buf.Len() > 0 || frame.Version() != 0 || frame.Opcode() != 0 || frame.BodyLength() != 0 {
		m.ObserveFailure()
		return fmt.Errorf("capture ends inside a frame with %d bytes pending", buf.Len())
	}
	return nil
}

// printRows expands a rows result into one line per row.
func printRows(resp *protocol.Response, rows protocol.RowsResult) {
	fmt.Println(resp)
	for i, row := range rows.Rows {
		fmt.Printf("  row %d:", i)
		for _, col := range rows.Columns {
			fmt.Printf(" %s=%v", col.Name, row[col.Name])
		}
		fmt.Println()
	}
}
