// Package z80host runs Z80 programs with a TCP/IP UNAPI driver attached.
//
// The driver is reached the way MSX software finds UNAPI implementations:
// the extended BIOS hook discovers the entry point, and calling the entry
// point with a function number in A invokes the driver. Both addresses are
// CPU breakpoints handled by the Machine instead of code in memory.
package z80host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/koron-go/z80"

	"github.com/stealthrocket/unapi/internal/errcode"
	"github.com/stealthrocket/unapi/internal/unapi"
)

const (
	// EXTBIO is the extended BIOS hook.
	EXTBIO = 0xFFCA
	// ARG is where the identifier of the requested specification is
	// written by callers of EXTBIO.
	ARG = 0xF847

	// Function code in DE of EXTBIO calls for UNAPI discovery.
	unapiDiscovery = 0x2222

	DefaultLoadAddress = 0x0100
	DefaultStack       = 0xF000
	DefaultSlot        = 1

	opRET = 0xC9
)

// Driver receives the calls to the entry point. *unapi.Driver implements it.
type Driver interface {
	Call(fn unapi.Function, f *unapi.Frame) errcode.Code
}

type Options struct {
	// Slot number reported to discovery calls, DefaultSlot if zero.
	Slot uint8
	// Initial stack pointer, DefaultStack if zero.
	Stack uint16

	Logger *slog.Logger
}

// Machine is a Z80 with 64 KiB of RAM.
type Machine struct {
	CPU z80.CPU

	mem    *unapi.RAM
	driver Driver
	slot   uint8
	stack  uint16
	logger *slog.Logger
}

// New creates a machine running on mem, which the driver must also use to
// exchange parameters with programs.
func New(mem *unapi.RAM, driver Driver, opts Options) *Machine {
	if opts.Slot == 0 {
		opts.Slot = DefaultSlot
	}
	if opts.Stack == 0 {
		opts.Stack = DefaultStack
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := &Machine{
		mem:    mem,
		driver: driver,
		slot:   opts.Slot,
		stack:  opts.Stack,
		logger: opts.Logger,
	}
	unapi.WriteString(mem, unapi.NameAddress, unapi.Name)
	mem.Set(unapi.EntryPoint, opRET)
	mem.Set(EXTBIO, opRET)
	return m
}

// Load copies program to memory at addr.
func (m *Machine) Load(addr uint16, program []byte) error {
	if len(program) > len(m.mem)-int(addr) {
		return fmt.Errorf("program of %d bytes does not fit in memory at %04Xh", len(program), addr)
	}
	unapi.WriteBytes(m.mem, addr, program)
	return nil
}

// Run executes the program at pc until it halts or ctx is canceled.
func (m *Machine) Run(ctx context.Context, pc uint16) error {
	m.CPU = z80.CPU{
		States: z80.States{SPR: z80.SPR{PC: pc, SP: m.stack}},
		Memory: m.mem,
		BreakPoints: map[uint16]struct{}{
			unapi.EntryPoint: {},
			EXTBIO:           {},
		},
	}

	for {
		err := m.CPU.Run(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, z80.ErrBreakPoint) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("running cpu at %04Xh: %w", m.CPU.PC, err)
		}

		switch m.CPU.PC {
		case unapi.EntryPoint:
			m.entryPoint()
		case EXTBIO:
			m.extbio()
		}
		m.ret()
	}
}

func (m *Machine) entryPoint() {
	cpu := &m.CPU
	fn := unapi.Function(cpu.AF.Hi)
	f := unapi.Frame{
		A:  cpu.AF.Hi,
		B:  cpu.BC.Hi,
		C:  cpu.BC.Lo,
		D:  cpu.DE.Hi,
		E:  cpu.DE.Lo,
		H:  cpu.HL.Hi,
		L:  cpu.HL.Lo,
		IX: cpu.IX,
	}

	status := m.driver.Call(fn, &f)

	cpu.AF.Hi = uint8(status)
	cpu.BC.Hi, cpu.BC.Lo = f.B, f.C
	cpu.DE.Hi, cpu.DE.Lo = f.D, f.E
	cpu.HL.Hi, cpu.HL.Lo = f.H, f.L
	cpu.IX = f.IX
	if f.Interrupts {
		cpu.IFF1, cpu.IFF2 = true, true
	}
}

// extbio answers UNAPI discovery calls for our specification. A=0 counts
// implementations in B, A=N selects the N-th implementation.
func (m *Machine) extbio() {
	cpu := &m.CPU
	if pair(cpu.DE) != unapiDiscovery || cpu.AF.Hi == 0xFF {
		return
	}
	id := make([]byte, len(unapi.SpecIdentifier)+1)
	unapi.ReadBytes(m.mem, ARG, id)
	if !strings.EqualFold(string(id), unapi.SpecIdentifier+"\x00") {
		return
	}

	switch cpu.AF.Hi {
	case 0:
		cpu.BC.Hi++
	case 1:
		cpu.AF.Hi = m.slot
		cpu.BC.Hi = 0xFF
		cpu.HL.Hi, cpu.HL.Lo = unapi.EntryPoint>>8, unapi.EntryPoint&0xFF
		m.logger.Debug("unapi implementation discovered", slog.Int("slot", int(m.slot)))
	default:
		cpu.AF.Hi--
	}
}

func pair(r z80.Register) uint16 {
	return uint16(r.Hi)<<8 | uint16(r.Lo)
}

func (m *Machine) ret() {
	m.CPU.PC = unapi.ReadWord(m.mem, m.CPU.SP)
	m.CPU.SP += 2
}
