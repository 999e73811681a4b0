package network

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"strconv"
	"strings"
)

// ProcProbe returns a Probe reading the tcp and tcp6 tables of fsys, which
// is expected to have the layout of /proc/net.
func ProcProbe(fsys fs.FS) Probe {
	return procProbe{fsys}
}

type procProbe struct{ fsys fs.FS }

func (p procProbe) LookupTCP(localPort uint16, remote netip.AddrPort) (TCPState, error) {
	remote = netip.AddrPortFrom(remote.Addr().Unmap(), remote.Port())
	found := false
	state := TCPState(0)

	for _, name := range []string{"tcp", "tcp6"} {
		entries, err := p.readTable(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return 0, err
		}
		for _, e := range entries {
			if e.local.Port() != localPort || e.remote != remote {
				continue
			}
			// A port reused shortly after a previous connection shows up
			// twice, the live entry takes precedence.
			if !found || state == TCPTimeWait {
				state, found = e.state, true
			}
		}
	}

	if !found {
		return 0, ErrNotFound
	}
	return state, nil
}

type procEntry struct {
	local  netip.AddrPort
	remote netip.AddrPort
	state  TCPState
}

func (p procProbe) readTable(name string) ([]procEntry, error) {
	f, err := p.fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []procEntry
	s := bufio.NewScanner(f)
	for lineno := 1; s.Scan(); lineno++ {
		if lineno == 1 {
			continue // header
		}
		fields := strings.Fields(s.Text())
		if len(fields) < 4 {
			continue
		}
		e, err := parseProcEntry(fields[1], fields[2], fields[3])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, lineno, err)
		}
		entries = append(entries, e)
	}
	return entries, s.Err()
}

func parseProcEntry(local, remote, state string) (e procEntry, err error) {
	if e.local, err = parseProcAddrPort(local); err != nil {
		return e, err
	}
	if e.remote, err = parseProcAddrPort(remote); err != nil {
		return e, err
	}
	st, err := strconv.ParseUint(state, 16, 8)
	if err != nil {
		return e, fmt.Errorf("malformed connection state: %q", state)
	}
	e.state = TCPState(st)
	return e, nil
}

// Addresses are printed as the hexadecimal representation of 32 bit words
// in host byte order, the port is in hexadecimal.
func parseProcAddrPort(s string) (netip.AddrPort, error) {
	addr, port, ok := strings.Cut(s, ":")
	if !ok {
		return netip.AddrPort{}, fmt.Errorf("malformed socket address: %q", s)
	}
	p, err := strconv.ParseUint(port, 16, 16)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("malformed port number: %q", s)
	}
	b, err := hex.DecodeString(addr)
	if err != nil || (len(b) != 4 && len(b) != 16) {
		return netip.AddrPort{}, fmt.Errorf("malformed ip address: %q", s)
	}
	for i := 0; i < len(b); i += 4 {
		binary.NativeEndian.PutUint32(b[i:], binary.BigEndian.Uint32(b[i:]))
	}
	ip, _ := netip.AddrFromSlice(b)
	return netip.AddrPortFrom(ip.Unmap(), uint16(p)), nil
}
