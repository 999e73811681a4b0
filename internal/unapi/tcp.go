package unapi

import (
	"net/netip"

	"github.com/stealthrocket/unapi/internal/tcp"
)

const (
	tcpFlagPassive  = 1
	tcpFlagResident = 2

	// The size of the output buffer is not known.
	tcpOutputUnknown = 0xFFFF
)

// The parameter block of TCP_OPEN, at HL, is laid out as: remote address,
// remote port, local port, user timeout and flags. The user timeout is not
// applied.
func (d *Driver) tcpOpen(f *Frame) error {
	params := f.HL()
	var ip [4]byte
	ReadBytes(d.mem, params, ip[:])
	remotePort := ReadWord(d.mem, params+4)
	localPort := ReadWord(d.mem, params+6)
	flags := d.mem.Get(params + 10)

	n, err := d.tcp.Open(tcp.Params{
		Remote:    netip.AddrPortFrom(netip.AddrFrom4(ip), remotePort),
		LocalPort: localPort,
		Passive:   (flags & tcpFlagPassive) != 0,
		Resident:  (flags & tcpFlagResident) != 0,
	})
	if err != nil {
		return err
	}
	f.B = uint8(n)
	return nil
}

func (d *Driver) tcpClose(f *Frame) error {
	return d.tcp.Close(int(f.B))
}

func (d *Driver) tcpAbort(f *Frame) error {
	return d.tcp.Abort(int(f.B))
}

// When HL is not zero, TCP_STATE writes the remote address, remote port and
// local port of the connection there.
func (d *Driver) tcpState(f *Frame) error {
	f.C = 0
	info, err := d.tcp.State(int(f.B))
	if err != nil {
		return err
	}
	if block := f.HL(); block != 0 {
		ip := ipv4(info.Remote.Addr())
		WriteBytes(d.mem, block, ip[:])
		WriteWord(d.mem, block+4, info.Remote.Port())
		WriteWord(d.mem, block+6, info.LocalPort)
	}
	f.B = uint8(info.State)
	f.SetHL(uint16(min(info.Available, 0xFFFF)))
	f.SetDE(0)
	f.IX = tcpOutputUnknown
	return nil
}

func (d *Driver) tcpSend(f *Frame) error {
	data := make([]byte, f.HL())
	ReadBytes(d.mem, f.DE(), data)
	return d.tcp.Send(int(f.B), data, tcp.SendFlags(f.C))
}

func (d *Driver) tcpReceive(f *Frame) error {
	data, err := d.tcp.Receive(int(f.B), int(f.HL()))
	if err != nil {
		return err
	}
	WriteBytes(d.mem, f.DE(), data)
	f.SetBC(uint16(len(data)))
	f.SetHL(0)
	return nil
}

func (d *Driver) tcpFlush(f *Frame) error {
	return d.tcp.Flush(int(f.B))
}
