package unapi_test

import (
	"context"
	"net"
	"net/netip"
	"strconv"
	"testing"
	"time"

	"golang.org/x/net/nettest"

	"github.com/stealthrocket/unapi/internal/assert"
	"github.com/stealthrocket/unapi/internal/errcode"
	"github.com/stealthrocket/unapi/internal/netenv"
	"github.com/stealthrocket/unapi/internal/network"
	"github.com/stealthrocket/unapi/internal/unapi"
)

type fakeBackend struct {
	addrs []netip.Addr
	err   error
}

func (b *fakeBackend) LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error) {
	return b.addrs, b.err
}

type recorder struct {
	before []unapi.Function
	after  []errcode.Code
}

func (r *recorder) BeforeCall(fn unapi.Function, f *unapi.Frame) {
	r.before = append(r.before, fn)
}

func (r *recorder) AfterCall(fn unapi.Function, f *unapi.Frame, status errcode.Code) {
	r.after = append(r.after, status)
}

type fixture struct {
	driver   *unapi.Driver
	env      *netenv.Environment
	mem      *unapi.RAM
	link     network.Link
	backend  *fakeBackend
	recorder *recorder
}

func loopbackName(t *testing.T) string {
	t.Helper()
	ifaces, err := net.Interfaces()
	assert.OK(t, err)
	for _, iface := range ifaces {
		if (iface.Flags & net.FlagLoopback) == 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return iface.Name
			}
		}
	}
	t.Skip("no IPv4 loopback interface")
	return ""
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	if !nettest.TestableNetwork("tcp4") || !nettest.TestableNetwork("udp4") {
		t.Skip("IPv4 networking not supported on this host")
	}
	x := &fixture{
		mem:      new(unapi.RAM),
		backend:  new(fakeBackend),
		recorder: new(recorder),
		link: network.Link{
			State:   network.LinkUp,
			Kind:    network.LinkKindEthernet,
			Gateway: netip.MustParseAddr("10.0.0.1"),
		},
	}
	var err error
	x.env, err = netenv.Discover(network.Host(), netenv.Options{
		Interface: loopbackName(t),
		DNS:       []netip.Addr{netip.MustParseAddr("127.0.0.53")},
		Link:      func(name string) (network.Link, error) { return x.link, nil },
	})
	assert.OK(t, err)

	x.driver, err = unapi.New(network.Host(), x.env, x.mem, unapi.Options{
		TCPConnections: 2,
		UDPConnections: 2,
		Backend:        x.backend,
		Probe: network.ProbeFunc(func(uint16, netip.AddrPort) (network.TCPState, error) {
			return 0, network.ErrNotImplemented
		}),
		Observer: x.recorder,
	})
	assert.OK(t, err)
	t.Cleanup(func() { assert.OK(t, x.driver.Close()) })
	return x
}

func (x *fixture) call(fn unapi.Function, f unapi.Frame) (unapi.Frame, errcode.Code) {
	status := x.driver.Call(fn, &f)
	return f, status
}

func ip(f unapi.Frame) netip.Addr {
	return netip.AddrFrom4([4]byte{f.L, f.H, f.E, f.D})
}

func parsePort(t *testing.T, addr net.Addr) uint16 {
	t.Helper()
	_, port, err := net.SplitHostPort(addr.String())
	assert.OK(t, err)
	p, err := strconv.ParseUint(port, 10, 16)
	assert.OK(t, err)
	return uint16(p)
}

func TestDriver(t *testing.T) {
	tests := []struct {
		scenario string
		function func(*testing.T, *fixture)
	}{
		{
			scenario: "implementation info",
			function: testDriverGetInfo,
		},

		{
			scenario: "unimplemented functions",
			function: testDriverNotImplemented,
		},

		{
			scenario: "capabilities",
			function: testDriverGetCapab,
		},

		{
			scenario: "ip configuration",
			function: testDriverGetIPInfo,
		},

		{
			scenario: "network state",
			function: testDriverNetState,
		},

		{
			scenario: "literal dns query",
			function: testDriverDNSLiteral,
		},

		{
			scenario: "dns lookup",
			function: testDriverDNSLookup,
		},

		{
			scenario: "dns lookup errors",
			function: testDriverDNSError,
		},

		{
			scenario: "dns query validation",
			function: testDriverDNSValidation,
		},

		{
			scenario: "udp exchange",
			function: testDriverUDP,
		},

		{
			scenario: "udp errors",
			function: testDriverUDPErrors,
		},

		{
			scenario: "tcp active connection",
			function: testDriverTCPActive,
		},

		{
			scenario: "tcp errors",
			function: testDriverTCPErrors,
		},

		{
			scenario: "configuration functions",
			function: testDriverConfig,
		},

		{
			scenario: "wait enables interrupts",
			function: testDriverWait,
		},

		{
			scenario: "observer",
			function: testDriverObserver,
		},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			test.function(t, newFixture(t))
		})
	}
}

func testDriverGetInfo(t *testing.T, x *fixture) {
	f, status := x.call(unapi.GetInfo, unapi.Frame{})
	assert.Equal(t, status, errcode.OK)
	assert.Equal(t, f.HL(), unapi.NameAddress)
	assert.Equal(t, f.DE(), 0x0100)
	assert.Equal(t, f.BC(), 0x0100)
}

func testDriverNotImplemented(t *testing.T, x *fixture) {
	in := unapi.Frame{B: 1, C: 2, D: 3, E: 4, H: 5, L: 6, IX: 7}
	for _, fn := range []unapi.Function{
		unapi.SendEcho,
		unapi.ReceiveEcho,
		unapi.RawOpen,
		unapi.RawClose,
		unapi.RawState,
		unapi.RawSend,
		unapi.RawReceive,
		unapi.ConfigIP,
		unapi.Wait + 1,
		255,
	} {
		f, status := x.call(fn, in)
		assert.Equal(t, status, errcode.NotImplemented)
		assert.Equal(t, f, in)
	}
}

func testDriverGetCapab(t *testing.T, x *fixture) {
	f, status := x.call(unapi.GetCapab, unapi.Frame{B: 1})
	assert.Equal(t, status, errcode.InvalidParameter)
	assert.Equal(t, f.HL(), unapi.CapabDNS|unapi.CapabUDP|unapi.CapabAutoIP)
	assert.Equal(t, f.DE(), unapi.FeatureHardware|unapi.FeatureLoopback)
	assert.Equal(t, f.B, 3)

	_, status = x.call(unapi.UDPOpen, unapi.Frame{H: 0xFF, L: 0xFF})
	assert.Equal(t, status, errcode.OK)

	f, status = x.call(unapi.GetCapab, unapi.Frame{B: 2})
	assert.Equal(t, status, errcode.InvalidParameter)
	assert.Equal(t, f, unapi.Frame{B: 2, C: 2, D: 2, E: 1})

	f, status = x.call(unapi.GetCapab, unapi.Frame{B: 3})
	assert.Equal(t, status, errcode.InvalidParameter)
	assert.Equal(t, f.HL(), uint16(x.env.MTU))
	assert.Equal(t, f.DE(), uint16(x.env.MTU))

	f, status = x.call(unapi.GetCapab, unapi.Frame{B: 4})
	assert.Equal(t, status, errcode.InvalidParameter)
	assert.Equal(t, f, unapi.Frame{B: 4})
}

func testDriverGetIPInfo(t *testing.T, x *fixture) {
	tests := []struct {
		item   uint8
		addr   string
		status errcode.Code
	}{
		{item: 1, addr: "127.0.0.1"},
		{item: 2, status: errcode.InvalidParameter},
		{item: 3, addr: "255.0.0.0"},
		{item: 4, addr: "10.0.0.1"},
		{item: 5, addr: "127.0.0.53"},
		{item: 6, status: errcode.InvalidParameter},
		{item: 7, status: errcode.InvalidParameter},
	}
	for _, test := range tests {
		f, status := x.call(unapi.GetIPInfo, unapi.Frame{B: test.item})
		assert.Equal(t, status, test.status)
		if test.status == errcode.OK {
			assert.Equal(t, ip(f), netip.MustParseAddr(test.addr))
		}
	}
}

func testDriverNetState(t *testing.T, x *fixture) {
	for _, test := range []struct {
		state network.LinkState
		want  uint8
	}{
		{network.LinkUp, 2},
		{network.LinkUnknown, 255},
		{network.LinkDown, 0},
	} {
		x.link.State = test.state
		f, status := x.call(unapi.NetState, unapi.Frame{})
		assert.Equal(t, status, errcode.OK)
		assert.Equal(t, f.B, test.want)
	}
}

func testDriverDNSLiteral(t *testing.T, x *fixture) {
	unapi.WriteString(x.mem, 0x8000, "192.168.1.20")
	f, status := x.call(unapi.DNSQuery, unapi.Frame{H: 0x80, L: 0x00})
	assert.Equal(t, status, errcode.OK)
	assert.Equal(t, f.B, 1)
	assert.Equal(t, ip(f), netip.MustParseAddr("192.168.1.20"))

	f, status = x.call(unapi.DNSStatus, unapi.Frame{B: 1})
	assert.Equal(t, status, errcode.OK)
	assert.Equal(t, f.B, 2)
	assert.Equal(t, f.C, 1)
	assert.Equal(t, ip(f), netip.MustParseAddr("192.168.1.20"))

	f, status = x.call(unapi.DNSStatus, unapi.Frame{})
	assert.Equal(t, status, errcode.OK)
	assert.Equal(t, f.B, 0)
}

func pollDNS(t *testing.T, x *fixture) (unapi.Frame, errcode.Code) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		f, status := x.call(unapi.DNSStatus, unapi.Frame{})
		if status != errcode.OK || f.B != 1 {
			return f, status
		}
		assert.Equal(t, f.C, 0)
		if time.Now().After(deadline) {
			t.Fatal("dns query still in progress")
		}
		time.Sleep(time.Millisecond)
	}
}

func testDriverDNSLookup(t *testing.T, x *fixture) {
	x.backend.addrs = []netip.Addr{
		netip.MustParseAddr("2001:db8::1"),
		netip.MustParseAddr("192.0.2.1"),
	}
	unapi.WriteString(x.mem, 0x8000, "example.com")
	f, status := x.call(unapi.DNSQuery, unapi.Frame{H: 0x80})
	assert.Equal(t, status, errcode.OK)
	assert.Equal(t, f.B, 0)

	f, status = pollDNS(t, x)
	assert.Equal(t, status, errcode.OK)
	assert.Equal(t, f.B, 2)
	assert.Equal(t, f.C, 0)
	assert.Equal(t, ip(f), netip.MustParseAddr("192.0.2.1"))
}

func testDriverDNSError(t *testing.T, x *fixture) {
	x.backend.err = &net.DNSError{Err: "no such host", Name: "example.com", IsNotFound: true}
	unapi.WriteString(x.mem, 0x8000, "example.com")
	_, status := x.call(unapi.DNSQuery, unapi.Frame{H: 0x80})
	assert.Equal(t, status, errcode.OK)

	f, status := pollDNS(t, x)
	assert.Equal(t, status, errcode.DNSError)
	assert.Equal(t, f.B, 3)

	// The error is reported until cleared.
	f, status = x.call(unapi.DNSStatus, unapi.Frame{B: 1})
	assert.Equal(t, status, errcode.DNSError)
	assert.Equal(t, f.B, 3)
	f, status = x.call(unapi.DNSStatus, unapi.Frame{})
	assert.Equal(t, status, errcode.OK)
	assert.Equal(t, f.B, 0)
}

func testDriverDNSValidation(t *testing.T, x *fixture) {
	unapi.WriteString(x.mem, 0x8000, "example.com")
	_, status := x.call(unapi.DNSQuery, unapi.Frame{B: 2, H: 0x80})
	assert.Equal(t, status, errcode.InvalidIP)

	x.link.State = network.LinkDown
	_, status = x.call(unapi.DNSQuery, unapi.Frame{H: 0x80})
	assert.Equal(t, status, errcode.NoNetwork)

	_, status = x.call(unapi.DNSQuery, unapi.Frame{B: 1, H: 0x80})
	assert.Equal(t, status, errcode.OK)
}

func testDriverUDP(t *testing.T, x *fixture) {
	f, status := x.call(unapi.UDPOpen, unapi.Frame{H: 0xFF, L: 0xFF})
	assert.Equal(t, status, errcode.OK)
	assert.Equal(t, f.B, 1)
	port := f.HL()

	peer, err := net.ListenPacket("udp4", "127.0.0.1:0")
	assert.OK(t, err)
	defer peer.Close()
	peerPort := parsePort(t, peer.LocalAddr())

	dst, err := net.ResolveUDPAddr("udp4", "127.0.0.1:"+strconv.Itoa(int(port)))
	assert.OK(t, err)
	_, err = peer.WriteTo([]byte("hello"), dst)
	assert.OK(t, err)

	deadline := time.Now().Add(5 * time.Second)
	for {
		f, status = x.call(unapi.UDPState, unapi.Frame{B: 1})
		assert.Equal(t, status, errcode.OK)
		assert.Equal(t, f.HL(), port)
		if f.B == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no datagram received")
		}
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, f.DE(), 5)

	f, status = x.call(unapi.UDPReceive, unapi.Frame{B: 1, H: 0x90, D: 0x01})
	assert.Equal(t, status, errcode.OK)
	assert.Equal(t, f.BC(), 5)
	assert.Equal(t, f.IX, peerPort)
	assert.Equal(t, ip(f), netip.MustParseAddr("127.0.0.1"))
	buf := make([]byte, 5)
	unapi.ReadBytes(x.mem, 0x9000, buf)
	assert.Equal(t, string(buf), "hello")

	_, status = x.call(unapi.UDPReceive, unapi.Frame{B: 1, H: 0x90, D: 0x01})
	assert.Equal(t, status, errcode.NoData)

	unapi.WriteBytes(x.mem, 0xA000, []byte{127, 0, 0, 1})
	unapi.WriteWord(x.mem, 0xA004, peerPort)
	unapi.WriteWord(x.mem, 0xA006, 6)
	unapi.WriteString(x.mem, 0xB000, "answer")
	_, status = x.call(unapi.UDPSend, unapi.Frame{B: 1, H: 0xB0, D: 0xA0})
	assert.Equal(t, status, errcode.OK)

	assert.OK(t, peer.SetReadDeadline(time.Now().Add(5*time.Second)))
	answer := make([]byte, 100)
	n, from, err := peer.ReadFrom(answer)
	assert.OK(t, err)
	assert.Equal(t, string(answer[:n]), "answer")
	assert.Equal(t, parsePort(t, from), port)

	_, status = x.call(unapi.UDPClose, unapi.Frame{B: 1})
	assert.Equal(t, status, errcode.OK)
	_, status = x.call(unapi.UDPState, unapi.Frame{B: 1})
	assert.Equal(t, status, errcode.NoConn)
}

func testDriverUDPErrors(t *testing.T, x *fixture) {
	_, status := x.call(unapi.UDPOpen, unapi.Frame{})
	assert.Equal(t, status, errcode.InvalidParameter)
	_, status = x.call(unapi.UDPOpen, unapi.Frame{B: 2, H: 0xFF, L: 0xFF})
	assert.Equal(t, status, errcode.InvalidParameter)
	_, status = x.call(unapi.UDPClose, unapi.Frame{B: 3})
	assert.Equal(t, status, errcode.NoConn)

	_, status = x.call(unapi.UDPOpen, unapi.Frame{H: 0xFF, L: 0xFF})
	assert.Equal(t, status, errcode.OK)

	unapi.WriteBytes(x.mem, 0xA000, []byte{127, 0, 0, 1})
	unapi.WriteWord(x.mem, 0xA004, 9)
	unapi.WriteWord(x.mem, 0xA006, uint16(x.env.MTU-27))
	_, status = x.call(unapi.UDPSend, unapi.Frame{B: 1, D: 0xA0})
	assert.Equal(t, status, errcode.LargeDatagram)

	x.link.State = network.LinkDown
	unapi.WriteWord(x.mem, 0xA006, 1)
	_, status = x.call(unapi.UDPSend, unapi.Frame{B: 1, D: 0xA0})
	assert.Equal(t, status, errcode.NoNetwork)
}

func testDriverTCPActive(t *testing.T, x *fixture) {
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	assert.OK(t, err)
	defer l.Close()

	unapi.WriteBytes(x.mem, 0xA000, []byte{127, 0, 0, 1})
	unapi.WriteWord(x.mem, 0xA004, parsePort(t, l.Addr()))
	unapi.WriteWord(x.mem, 0xA006, 0xFFFF)
	unapi.WriteWord(x.mem, 0xA008, 0)
	x.mem.Set(0xA00A, 0)

	f, status := x.call(unapi.TCPOpen, unapi.Frame{H: 0xA0})
	assert.Equal(t, status, errcode.OK)
	assert.Equal(t, f.B, 1)

	peer, err := l.Accept()
	assert.OK(t, err)
	defer peer.Close()

	deadline := time.Now().Add(5 * time.Second)
	for {
		f, status = x.call(unapi.TCPState, unapi.Frame{B: 1, H: 0xC0})
		assert.Equal(t, status, errcode.OK)
		if f.B == 4 {
			break
		}
		assert.Equal(t, f.B, 2)
		if time.Now().After(deadline) {
			t.Fatal("connection not established")
		}
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, f.C, 0)
	assert.Equal(t, f.DE(), 0)
	assert.Equal(t, f.IX, 0xFFFF)

	var block [4]byte
	unapi.ReadBytes(x.mem, 0xC000, block[:])
	assert.Equal(t, block, [4]byte{127, 0, 0, 1})
	assert.Equal(t, unapi.ReadWord(x.mem, 0xC004), parsePort(t, l.Addr()))
	assert.Equal(t, unapi.ReadWord(x.mem, 0xC006), parsePort(t, peer.RemoteAddr()))

	unapi.WriteString(x.mem, 0xB000, "ping")
	_, status = x.call(unapi.TCPSend, unapi.Frame{B: 1, C: 1, D: 0xB0, L: 4})
	assert.Equal(t, status, errcode.OK)
	buf := make([]byte, 4)
	assert.OK(t, peer.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err = peer.Read(buf)
	assert.OK(t, err)
	assert.Equal(t, string(buf), "ping")

	_, err = peer.Write([]byte("pong"))
	assert.OK(t, err)
	deadline = time.Now().Add(5 * time.Second)
	for {
		f, status = x.call(unapi.TCPState, unapi.Frame{B: 1})
		assert.Equal(t, status, errcode.OK)
		if f.HL() == 4 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("data not received")
		}
		time.Sleep(time.Millisecond)
	}

	f, status = x.call(unapi.TCPReceive, unapi.Frame{B: 1, D: 0x90, H: 0x01})
	assert.Equal(t, status, errcode.OK)
	assert.Equal(t, f.BC(), 4)
	assert.Equal(t, f.HL(), 0)
	unapi.ReadBytes(x.mem, 0x9000, buf)
	assert.Equal(t, string(buf), "pong")

	_, status = x.call(unapi.TCPFlush, unapi.Frame{B: 1})
	assert.Equal(t, status, errcode.OK)

	_, status = x.call(unapi.TCPSend, unapi.Frame{B: 1, C: 4, D: 0xB0, L: 4})
	assert.Equal(t, status, errcode.InvalidParameter)

	_, status = x.call(unapi.TCPAbort, unapi.Frame{B: 1})
	assert.Equal(t, status, errcode.OK)
	_, status = x.call(unapi.TCPState, unapi.Frame{B: 1})
	assert.Equal(t, status, errcode.NoConn)
}

func testDriverTCPErrors(t *testing.T, x *fixture) {
	// Active open with no remote address.
	unapi.WriteWord(x.mem, 0xA004, 80)
	unapi.WriteWord(x.mem, 0xA006, 0xFFFF)
	_, status := x.call(unapi.TCPOpen, unapi.Frame{H: 0xA0})
	assert.Equal(t, status, errcode.InvalidParameter)

	// Passive open with a remote address.
	unapi.WriteBytes(x.mem, 0xA000, []byte{127, 0, 0, 1})
	x.mem.Set(0xA00A, 1)
	_, status = x.call(unapi.TCPOpen, unapi.Frame{H: 0xA0})
	assert.Equal(t, status, errcode.NotImplemented)

	// Passive open.
	unapi.WriteBytes(x.mem, 0xA000, []byte{0, 0, 0, 0})
	f, status := x.call(unapi.TCPOpen, unapi.Frame{H: 0xA0})
	assert.Equal(t, status, errcode.OK)
	f, status = x.call(unapi.TCPState, unapi.Frame{B: f.B})
	assert.Equal(t, status, errcode.OK)
	assert.Equal(t, f.B, 1)

	_, status = x.call(unapi.TCPSend, unapi.Frame{B: 1, L: 1})
	assert.Equal(t, status, errcode.ConnState)
	_, status = x.call(unapi.TCPReceive, unapi.Frame{B: 1, L: 1})
	assert.Equal(t, status, errcode.ConnState)
	_, status = x.call(unapi.TCPFlush, unapi.Frame{B: 1})
	assert.Equal(t, status, errcode.ConnState)

	_, status = x.call(unapi.TCPClose, unapi.Frame{B: 2})
	assert.Equal(t, status, errcode.NoConn)
	_, status = x.call(unapi.TCPAbort, unapi.Frame{B: 2})
	assert.Equal(t, status, errcode.NoConn)
	_, status = x.call(unapi.TCPState, unapi.Frame{B: 0})
	assert.Equal(t, status, errcode.NoConn)

	// Closing all transient connections stops listening.
	_, status = x.call(unapi.TCPClose, unapi.Frame{B: 0})
	assert.Equal(t, status, errcode.OK)
	f, status = x.call(unapi.TCPState, unapi.Frame{B: 1})
	assert.Equal(t, status, errcode.OK)
	assert.Equal(t, f.B, 0)

	x.link.State = network.LinkDown
	_, status = x.call(unapi.TCPOpen, unapi.Frame{H: 0xA0})
	assert.Equal(t, status, errcode.NoNetwork)
}

func testDriverConfig(t *testing.T, x *fixture) {
	tests := []struct {
		fn     unapi.Function
		in     unapi.Frame
		out    unapi.Frame
		status errcode.Code
	}{
		{fn: unapi.ConfigAutoIP, in: unapi.Frame{B: 0}, out: unapi.Frame{B: 0, C: 3}},
		{fn: unapi.ConfigAutoIP, in: unapi.Frame{B: 0, C: 2}, out: unapi.Frame{B: 0, C: 2}, status: errcode.NotImplemented},
		{fn: unapi.ConfigAutoIP, in: unapi.Frame{B: 1, C: 0}, out: unapi.Frame{B: 1, C: 3}},
		{fn: unapi.ConfigAutoIP, in: unapi.Frame{B: 1, C: 1}, out: unapi.Frame{B: 1, C: 3}},
		{fn: unapi.ConfigAutoIP, in: unapi.Frame{B: 1, C: 3}, out: unapi.Frame{B: 1, C: 3}, status: errcode.NotImplemented},
		{fn: unapi.ConfigAutoIP, in: unapi.Frame{B: 2}, out: unapi.Frame{B: 2}, status: errcode.NotImplemented},
		{fn: unapi.ConfigTTL, in: unapi.Frame{B: 0}, out: unapi.Frame{D: 64}},
		{fn: unapi.ConfigTTL, in: unapi.Frame{B: 1}, out: unapi.Frame{B: 1}, status: errcode.NotImplemented},
		{fn: unapi.ConfigTTL, in: unapi.Frame{B: 2}, out: unapi.Frame{B: 2}, status: errcode.InvalidParameter},
		{fn: unapi.ConfigPing, in: unapi.Frame{B: 0}, out: unapi.Frame{C: 1}},
		{fn: unapi.ConfigPing, in: unapi.Frame{B: 1}, out: unapi.Frame{B: 1}, status: errcode.NotImplemented},
		{fn: unapi.ConfigPing, in: unapi.Frame{B: 2}, out: unapi.Frame{B: 2}, status: errcode.InvalidParameter},
		{fn: unapi.ConfigIP, in: unapi.Frame{B: 1}, out: unapi.Frame{B: 1}, status: errcode.NotImplemented},
	}
	for _, test := range tests {
		f, status := x.call(test.fn, test.in)
		assert.Equal(t, status, test.status)
		assert.Equal(t, f, test.out)
	}
}

func testDriverWait(t *testing.T, x *fixture) {
	f, status := x.call(unapi.Wait, unapi.Frame{})
	assert.Equal(t, status, errcode.OK)
	assert.True(t, f.Interrupts)
}

func testDriverObserver(t *testing.T, x *fixture) {
	x.call(unapi.GetInfo, unapi.Frame{})
	x.call(unapi.SendEcho, unapi.Frame{})
	x.call(unapi.UDPClose, unapi.Frame{B: 1})

	assert.DeepEqual(t, x.recorder.before, []unapi.Function{unapi.GetInfo, unapi.SendEcho, unapi.UDPClose})
	assert.DeepEqual(t, x.recorder.after, []errcode.Code{errcode.OK, errcode.NotImplemented, errcode.NoConn})
}

func TestFunctionString(t *testing.T) {
	assert.Equal(t, unapi.GetInfo.String(), "UNAPI_GET_INFO")
	assert.Equal(t, unapi.DNSQuery.String(), "TCPIP_DNS_Q")
	assert.Equal(t, unapi.TCPReceive.String(), "TCPIP_TCP_RCV")
	assert.Equal(t, unapi.Wait.String(), "TCPIP_WAIT")
	assert.Equal(t, unapi.Function(42).String(), "FUNCTION_42")
	assert.True(t, unapi.UDPSend.Implemented())
	assert.False(t, unapi.RawSend.Implemented())
	assert.False(t, unapi.Function(42).Implemented())
}
