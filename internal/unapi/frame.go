package unapi

import (
	"fmt"
	"net/netip"
)

// Frame holds the register slots of a call. The function number and the
// status code travel separately.
//
// Word slots are formed by pairing byte slots, the first named being the
// high byte: BC, DE and HL.
type Frame struct {
	A, B, C, D, E, H, L uint8
	IX                  uint16
	// Interrupts is set by functions after which the caller must have
	// interrupts enabled.
	Interrupts bool
}

func (f *Frame) BC() uint16 { return word(f.B, f.C) }
func (f *Frame) DE() uint16 { return word(f.D, f.E) }
func (f *Frame) HL() uint16 { return word(f.H, f.L) }

func (f *Frame) SetBC(v uint16) { f.B, f.C = split(v) }
func (f *Frame) SetDE(v uint16) { f.D, f.E = split(v) }
func (f *Frame) SetHL(v uint16) { f.H, f.L = split(v) }

// Format implements fmt.Formatter, the %v verb prints the register slots.
func (f *Frame) Format(w fmt.State, v rune) {
	fmt.Fprintf(w, "A=%02X BC=%04X DE=%04X HL=%04X IX=%04X", f.A, f.BC(), f.DE(), f.HL(), f.IX)
}

// IPv4 addresses are returned in L.H.E.D, first octet in L. Addresses
// other than IPv4 are written as 0.0.0.0.
func (f *Frame) setIP(addr netip.Addr) {
	ip := ipv4(addr)
	f.L, f.H, f.E, f.D = ip[0], ip[1], ip[2], ip[3]
}

// IP returns the IPv4 address held in L.H.E.D.
func (f *Frame) IP() netip.Addr {
	return netip.AddrFrom4([4]byte{f.L, f.H, f.E, f.D})
}

func ipv4(addr netip.Addr) (ip [4]byte) {
	if addr = addr.Unmap(); addr.Is4() {
		ip = addr.As4()
	}
	return ip
}

func word(hi, lo uint8) uint16 { return uint16(hi)<<8 | uint16(lo) }

func split(v uint16) (hi, lo uint8) { return uint8(v >> 8), uint8(v) }
