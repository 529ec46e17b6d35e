// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

// Package netconns implements the network connection enumeration
// action: one reply per socket, read from the /proc/net tables for TCP
// and UDP over IPv4 and IPv6. It takes no input.
//
// A table that cannot be opened (IPv6 disabled, masked procfs) and
// individual rows that cannot be parsed are logged and skipped; the
// action only fails when it cannot produce anything at all.
package netconns

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/s-westphal/rrg/session"
)

// Name is the action name the controller dispatches on.
const Name = "ListNetworkConnections"

// procTables are the kernel socket tables enumerated, in reply order.
var procTables = []struct {
	path     string
	protocol string
	ipv6     bool
}{
	{"/proc/net/tcp", "tcp", false},
	{"/proc/net/tcp6", "tcp6", true},
	{"/proc/net/udp", "udp", false},
	{"/proc/net/udp6", "udp6", true},
}

// tcpStates maps the kernel's numeric TCP state to its name. UDP
// sockets have no meaningful state and report none.
var tcpStates = map[uint64]string{
	1:  "ESTABLISHED",
	2:  "SYN_SENT",
	3:  "SYN_RECV",
	4:  "FIN_WAIT1",
	5:  "FIN_WAIT2",
	6:  "TIME_WAIT",
	7:  "CLOSE",
	8:  "CLOSE_WAIT",
	9:  "LAST_ACK",
	10: "LISTEN",
	11: "CLOSING",
}

// Connection is one socket from the kernel's tables.
type Connection struct {
	// Protocol is tcp, tcp6, udp, or udp6.
	Protocol string `cbor:"protocol"`
	// LocalIP and RemoteIP are packed in network byte order: 4 bytes
	// for IPv4, 16 for IPv6. A remote of all zeros means unconnected.
	LocalIP    []byte `cbor:"local_ip"`
	LocalPort  uint16 `cbor:"local_port"`
	RemoteIP   []byte `cbor:"remote_ip"`
	RemotePort uint16 `cbor:"remote_port"`
	// State is the TCP state name; empty for UDP.
	State string `cbor:"state,omitempty"`
	// UID owns the socket.
	UID uint32 `cbor:"uid"`
	// Inode identifies the socket for cross-referencing with process
	// file descriptors.
	Inode uint64 `cbor:"inode"`
}

// Response is one enumerated connection.
type Response struct {
	Conn Connection
}

// TypeTag implements session.Response.
func (Response) TypeTag() string { return "NetworkConnection" }

// Wire implements session.Response.
func (r Response) Wire() any { return r.Conn }

// Handle enumerates the kernel socket tables, replying once per
// socket.
func Handle(s session.Session, _ *session.Empty) error {
	opened := 0
	for _, table := range procTables {
		file, err := os.Open(table.path)
		if err != nil {
			s.Logger().Warn("skipping socket table", "path", table.path, "error", err)
			continue
		}
		opened++

		conns := parseTable(file, table.protocol, table.ipv6, s.Logger())
		file.Close()

		for _, conn := range conns {
			if err := s.Reply(Response{Conn: conn}); err != nil {
				return err
			}
		}
	}
	if opened == 0 {
		return session.ActionErrorf("no socket table under /proc/net could be opened")
	}
	return nil
}

// parseTable reads one /proc/net socket table. The first line is the
// column header; rows that do not parse are logged and skipped so one
// mangled entry cannot hide the rest of the table.
func parseTable(r io.Reader, protocol string, ipv6 bool, logger *slog.Logger) []Connection {
	var conns []Connection
	scanner := bufio.NewScanner(r)
	header := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if header {
			header = false
			continue
		}
		if line == "" {
			continue
		}
		conn, err := parseRow(line, protocol, ipv6)
		if err != nil {
			logger.Warn("skipping socket table row", "protocol", protocol, "error", err)
			continue
		}
		conns = append(conns, conn)
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("socket table truncated", "protocol", protocol, "error", err)
	}
	return conns
}

// parseRow decodes one socket table row. The layout is:
//
//	sl local_address rem_address st tx_queue:rx_queue tr:tm->when retrnsmt uid timeout inode ...
func parseRow(line, protocol string, ipv6 bool) (Connection, error) {
	fields := strings.Fields(line)
	if len(fields) < 10 {
		return Connection{}, fmt.Errorf("socket entry with %d fields: %q", len(fields), line)
	}

	conn := Connection{Protocol: protocol}

	var err error
	if conn.LocalIP, conn.LocalPort, err = parseSocketAddr(fields[1], ipv6); err != nil {
		return Connection{}, fmt.Errorf("local address: %w", err)
	}
	if conn.RemoteIP, conn.RemotePort, err = parseSocketAddr(fields[2], ipv6); err != nil {
		return Connection{}, fmt.Errorf("remote address: %w", err)
	}

	state, err := strconv.ParseUint(fields[3], 16, 8)
	if err != nil {
		return Connection{}, fmt.Errorf("state %q: %w", fields[3], err)
	}
	if strings.HasPrefix(protocol, "tcp") {
		name, ok := tcpStates[state]
		if !ok {
			return Connection{}, fmt.Errorf("unknown TCP state %#x", state)
		}
		conn.State = name
	}

	uid, err := strconv.ParseUint(fields[7], 10, 32)
	if err != nil {
		return Connection{}, fmt.Errorf("uid %q: %w", fields[7], err)
	}
	conn.UID = uint32(uid)

	if conn.Inode, err = strconv.ParseUint(fields[9], 10, 64); err != nil {
		return Connection{}, fmt.Errorf("inode %q: %w", fields[9], err)
	}
	return conn, nil
}

// parseSocketAddr decodes the kernel's "address:port" form: the port
// is big-endian hex, the address is hex with each 32-bit word in host
// byte order (little-endian on every platform this builds for), so
// words are reversed to recover network byte order.
func parseSocketAddr(field string, ipv6 bool) (net.IP, uint16, error) {
	addrHex, portHex, ok := strings.Cut(field, ":")
	if !ok {
		return nil, 0, fmt.Errorf("no port separator in %q", field)
	}

	port, err := strconv.ParseUint(portHex, 16, 16)
	if err != nil {
		return nil, 0, fmt.Errorf("port %q: %w", portHex, err)
	}

	addr, err := hex.DecodeString(addrHex)
	if err != nil {
		return nil, 0, fmt.Errorf("address %q: %w", addrHex, err)
	}
	wantLen := net.IPv4len
	if ipv6 {
		wantLen = net.IPv6len
	}
	if len(addr) != wantLen {
		return nil, 0, fmt.Errorf("address %q is %d bytes, want %d", addrHex, len(addr), wantLen)
	}
	for word := 0; word < len(addr); word += 4 {
		addr[word], addr[word+1], addr[word+2], addr[word+3] =
			addr[word+3], addr[word+2], addr[word+1], addr[word]
	}
	return net.IP(addr), uint16(port), nil
}
