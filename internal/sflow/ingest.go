// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sflow

import (
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/sys/unix"

	"ndtwin.dev/core/internal/logging"
)

const maxDatagramsPerBatch = 32

// Listener owns the UDP socket sFlow agents send their datagrams to. It
// enlarges the kernel receive buffer to RecvBufferBytes so bursts of
// samples from many agents do not get dropped before userspace can drain
// them (spec §4.3).
type Listener struct {
	conn   *net.UDPConn
	logger *logging.Logger
}

// NewListener binds a UDP socket on port, or on Port if port is 0.
func NewListener(port int, logger *logging.Logger) (*Listener, error) {
	if port == 0 {
		port = Port
	}
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.WithComponent("sflow-listener")

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("sflow: listen on :%d: %w", port, err)
	}

	if rawConn, err := conn.SyscallConn(); err == nil {
		var sockErr error
		err = rawConn.Control(func(fd uintptr) {
			sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, RecvBufferBytes)
		})
		if err != nil || sockErr != nil {
			logger.Warn("could not enlarge SO_RCVBUF", "err", errors.Join(err, sockErr))
		}
	}

	return &Listener{conn: conn, logger: logger}, nil
}

// Close releases the socket.
func (l *Listener) Close() error { return l.conn.Close() }

// Run drains datagrams in batches of up to maxDatagramsPerBatch, decoding
// each and dispatching its samples to handleFlow/handleCounter, until stop
// is closed. A 1s read deadline bounds each recv so the loop notices stop
// even under no traffic (spec §4.3).
func (l *Listener) Run(stop <-chan struct{}, handleFlow func(FlowSample), handleCounter func(CounterSample)) error {
	buf := make([]byte, BufferSize)
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		if err := l.conn.SetReadDeadline(time.Now().Add(1 * time.Second)); err != nil {
			return fmt.Errorf("sflow: set read deadline: %w", err)
		}

		for i := 0; i < maxDatagramsPerBatch; i++ {
			n, _, err := l.conn.ReadFromUDP(buf)
			if err != nil {
				var netErr net.Error
				if errors.As(err, &netErr) && netErr.Timeout() {
					break
				}
				if errors.Is(err, net.ErrClosed) {
					return nil
				}
				l.logger.Warn("recv error", "err", err)
				break
			}

			dg, err := Decode(buf[:n])
			if err != nil {
				l.logger.Debug("discarding malformed datagram", "err", err)
				continue
			}
			for _, fs := range dg.FlowSamples {
				handleFlow(fs)
			}
			for _, cs := range dg.CounterSamples {
				handleCounter(cs)
			}
		}
	}
}
