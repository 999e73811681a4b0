package unapi

// Memory is the address space of the caller, where parameter blocks and
// data buffers live. Addresses wrap around at 64 KiB.
type Memory interface {
	Get(addr uint16) uint8
	Set(addr uint16, value uint8)
}

// RAM is a flat 64 KiB Memory.
type RAM [0x10000]uint8

func (m *RAM) Get(addr uint16) uint8 { return m[addr] }

func (m *RAM) Set(addr uint16, value uint8) { m[addr] = value }

// ReadWord reads the little-endian word at addr.
func ReadWord(mem Memory, addr uint16) uint16 {
	return uint16(mem.Get(addr)) | uint16(mem.Get(addr+1))<<8
}

// WriteWord writes v at addr in little-endian order.
func WriteWord(mem Memory, addr, v uint16) {
	mem.Set(addr, uint8(v))
	mem.Set(addr+1, uint8(v>>8))
}

// ReadBytes copies len(buf) bytes starting at addr into buf.
func ReadBytes(mem Memory, addr uint16, buf []byte) {
	for i := range buf {
		buf[i] = mem.Get(addr + uint16(i))
	}
}

// WriteBytes copies data to memory starting at addr.
func WriteBytes(mem Memory, addr uint16, data []byte) {
	for i, b := range data {
		mem.Set(addr+uint16(i), b)
	}
}

// ReadString reads the zero-terminated string at addr. A string with no
// terminator ends after the whole address space was read.
func ReadString(mem Memory, addr uint16) string {
	var buf []byte
	for i := 0; i < 0x10000; i++ {
		b := mem.Get(addr + uint16(i))
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf)
}

// WriteString writes s followed by a zero terminator at addr.
func WriteString(mem Memory, addr uint16, s string) {
	WriteBytes(mem, addr, []byte(s))
	mem.Set(addr+uint16(len(s)), 0)
}
