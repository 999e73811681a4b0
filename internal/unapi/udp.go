package unapi

import (
	"net/netip"

	"github.com/stealthrocket/unapi/internal/udp"
)

func (d *Driver) udpOpen(f *Frame) error {
	n, port, err := d.udp.Open(f.HL(), udp.Mode(f.B))
	if err != nil {
		return err
	}
	f.B = uint8(n)
	f.SetHL(port)
	return nil
}

func (d *Driver) udpClose(f *Frame) error {
	return d.udp.Close(int(f.B))
}

func (d *Driver) udpState(f *Frame) error {
	port, ready, size, err := d.udp.State(int(f.B))
	if err != nil {
		return err
	}
	f.SetHL(port)
	f.B = 0
	if ready {
		f.B = 1
	}
	f.SetDE(uint16(size))
	return nil
}

// The parameter block of UDP_SEND, at DE, is the destination address
// followed by the destination port and the length of the data at HL.
func (d *Driver) udpSend(f *Frame) error {
	params := f.DE()
	var ip [4]byte
	ReadBytes(d.mem, params, ip[:])
	port := ReadWord(d.mem, params+4)
	data := make([]byte, ReadWord(d.mem, params+6))
	ReadBytes(d.mem, f.HL(), data)
	dst := netip.AddrPortFrom(netip.AddrFrom4(ip), port)
	return d.udp.Send(int(f.B), dst, data)
}

func (d *Driver) udpReceive(f *Frame) error {
	dgram, err := d.udp.Receive(int(f.B), int(f.DE()))
	if err != nil {
		return err
	}
	WriteBytes(d.mem, f.HL(), dgram.Data)
	f.setIP(dgram.From.Addr())
	f.IX = dgram.From.Port()
	f.SetBC(uint16(len(dgram.Data)))
	return nil
}
