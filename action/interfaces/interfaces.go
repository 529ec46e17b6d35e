// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

// Package interfaces implements the network interface enumeration
// action: one reply per interface, carrying its name, MAC address, and
// assigned IP addresses. It takes no input.
package interfaces

import (
	"net"

	"github.com/s-westphal/rrg/session"
)

// Name is the action name the controller dispatches on.
const Name = "EnumerateInterfaces"

// Response describes one network interface.
type Response struct {
	// Iface is the interface as collected.
	Iface net.Interface
	// Addrs are the IP addresses assigned to it.
	Addrs []net.IP
}

type wireAddress struct {
	// Family is "inet" or "inet6".
	Family string `cbor:"family"`
	// Packed is the address in network byte order: 4 bytes for inet,
	// 16 for inet6.
	Packed []byte `cbor:"packed"`
}

type wireInterface struct {
	Name      string        `cbor:"name"`
	MAC       []byte        `cbor:"mac,omitempty"`
	Addresses []wireAddress `cbor:"addresses,omitempty"`
}

// TypeTag implements session.Response.
func (Response) TypeTag() string { return "Interface" }

// Wire implements session.Response.
func (r Response) Wire() any {
	record := wireInterface{
		Name: r.Iface.Name,
		MAC:  r.Iface.HardwareAddr,
	}
	for _, addr := range r.Addrs {
		if packed := addr.To4(); packed != nil {
			record.Addresses = append(record.Addresses, wireAddress{Family: "inet", Packed: packed})
		} else if packed := addr.To16(); packed != nil {
			record.Addresses = append(record.Addresses, wireAddress{Family: "inet6", Packed: packed})
		}
	}
	return record
}

// Handle enumerates the host's network interfaces, replying once per
// interface. An interface whose addresses cannot be listed is still
// reported, just without them.
func Handle(s session.Session, _ *session.Empty) error {
	ifaces, err := net.Interfaces()
	if err != nil {
		return session.ActionError(err)
	}

	for _, iface := range ifaces {
		response := Response{Iface: iface}
		addrs, err := iface.Addrs()
		if err != nil {
			s.Logger().Warn("failed to list interface addresses", "interface", iface.Name, "error", err)
		}
		for _, addr := range addrs {
			if ipNet, ok := addr.(*net.IPNet); ok {
				response.Addrs = append(response.Addrs, ipNet.IP)
			}
		}
		if err := s.Reply(response); err != nil {
			return err
		}
	}
	return nil
}
