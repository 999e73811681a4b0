package network_test

import (
	"net"
	"net/netip"
	"testing"
	"time"

	"golang.org/x/net/nettest"

	"github.com/stealthrocket/unapi/internal/assert"
	"github.com/stealthrocket/unapi/internal/network"
)

var loopback = netip.AddrFrom4([4]byte{127, 0, 0, 1})

func TestHostNetwork(t *testing.T) {
	tests := []struct {
		scenario string
		function func(*testing.T, network.Namespace)
	}{
		{
			scenario: "a host network namespace has at least one loopback interface",
			function: testHostNetworkInterface,
		},

		{
			scenario: "looking up an interface which does not exist fails",
			function: testHostNetworkInterfaceNotFound,
		},

		{
			scenario: "ipv4 stream sockets can connect to one another on the loopback interface",
			function: testHostConnectStreamLoopbackIPv4,
		},

		{
			scenario: "ipv4 sockets can exchange datagrams on the loopback interface",
			function: testHostExchangeDatagramLoopbackIPv4,
		},

		{
			scenario: "only ipv4 sockets can be opened",
			function: testHostSocketIPv4Only,
		},

		{
			scenario: "operations on a closed socket fail with EBADF",
			function: testHostSocketClosed,
		},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			test.function(t, network.Host())
		})
	}
}

func testHostNetworkInterface(t *testing.T, ns network.Namespace) {
	ifaces, err := ns.Interfaces()
	assert.OK(t, err)

	for _, iface := range ifaces {
		if (iface.Flags() & net.FlagLoopback) == 0 {
			continue
		}
		if (iface.Flags() & net.FlagUp) == 0 {
			continue
		}

		lo0, err := ns.InterfaceByName(iface.Name())
		assert.OK(t, err)
		assert.Equal(t, lo0.Index(), iface.Index())

		lo0Addrs, err := lo0.Addrs()
		assert.OK(t, err)

		for _, addr := range lo0Addrs {
			if addr.String() == "127.0.0.1/8" {
				return
			}
		}
	}

	t.Skip("host network has no ipv4 loopback interface")
}

func testHostNetworkInterfaceNotFound(t *testing.T, ns network.Namespace) {
	_, err := ns.InterfaceByName("this-interface-does-not-exist")
	assert.Error(t, err, network.ErrInterfaceNotFound)
}

func testHostConnectStreamLoopbackIPv4(t *testing.T, ns network.Namespace) {
	if !nettest.TestableNetwork("tcp4") {
		t.Skip("tcp4 not supported on this host")
	}

	server, err := ns.Socket(network.INET, network.STREAM, network.TCP)
	assert.OK(t, err)
	defer server.Close()

	assert.OK(t, server.Bind(network.SockaddrInet4From(netip.AddrPortFrom(loopback, 0))))
	assert.OK(t, server.Listen(1))

	serverAddr, err := server.Name()
	assert.OK(t, err)

	client, err := ns.Socket(network.INET, network.STREAM, network.TCP)
	assert.OK(t, err)
	defer client.Close()

	err = client.Connect(serverAddr)
	if err != nil {
		assert.Error(t, err, network.EINPROGRESS)
	}

	ready, err := network.WaitReadyRead(server, time.Second)
	assert.OK(t, err)
	assert.True(t, ready)

	conn, peer, err := server.Accept()
	assert.OK(t, err)
	defer conn.Close()

	ready, err = network.WaitReadyWrite(client, time.Second)
	assert.OK(t, err)
	assert.True(t, ready)

	soerr, err := client.GetOptInt(network.SOL_SOCKET, network.SO_ERROR)
	assert.OK(t, err)
	assert.Equal(t, soerr, 0)

	clientAddr, err := client.Name()
	assert.OK(t, err)
	assert.Equal(t, network.SockaddrAddrPort(peer), network.SockaddrAddrPort(clientAddr))

	n, err := client.SendTo([][]byte{[]byte("Hello, World!")}, nil, 0)
	assert.OK(t, err)
	assert.Equal(t, n, 13)

	ready, err = network.WaitReadyRead(conn, time.Second)
	assert.OK(t, err)
	assert.True(t, ready)

	available, err := conn.Available()
	assert.OK(t, err)
	assert.Equal(t, available, 13)

	buf := make([]byte, 32)
	n, _, _, err = conn.RecvFrom([][]byte{buf}, 0)
	assert.OK(t, err)
	assert.Equal(t, string(buf[:n]), "Hello, World!")

	assert.OK(t, client.Shutdown(network.SHUTWR))
	ready, err = network.WaitReadyRead(conn, time.Second)
	assert.OK(t, err)
	assert.True(t, ready)

	n, _, _, err = conn.RecvFrom([][]byte{buf}, 0)
	assert.OK(t, err)
	assert.Equal(t, n, 0)
}

func testHostExchangeDatagramLoopbackIPv4(t *testing.T, ns network.Namespace) {
	if !nettest.TestableNetwork("udp4") {
		t.Skip("udp4 not supported on this host")
	}

	sock1, err := ns.Socket(network.INET, network.DGRAM, network.UDP)
	assert.OK(t, err)
	defer sock1.Close()
	assert.OK(t, sock1.Bind(network.SockaddrInet4From(netip.AddrPortFrom(loopback, 0))))

	sock2, err := ns.Socket(network.INET, network.DGRAM, network.UDP)
	assert.OK(t, err)
	defer sock2.Close()
	assert.OK(t, sock2.Bind(network.SockaddrInet4From(netip.AddrPortFrom(loopback, 0))))

	addr1, err := sock1.Name()
	assert.OK(t, err)
	addr2, err := sock2.Name()
	assert.OK(t, err)

	buf := make([]byte, 32)
	_, _, _, err = sock1.RecvFrom([][]byte{buf}, 0)
	assert.Error(t, err, network.EAGAIN)

	n, err := sock2.SendTo([][]byte{[]byte("ping")}, addr1, 0)
	assert.OK(t, err)
	assert.Equal(t, n, 4)

	ready, err := network.WaitReadyRead(sock1, time.Second)
	assert.OK(t, err)
	assert.True(t, ready)

	n, _, from, err := sock1.RecvFrom([][]byte{buf[:2]}, 0)
	assert.OK(t, err)
	assert.Equal(t, n, 2)
	assert.Equal(t, string(buf[:n]), "pi")
	assert.Equal(t, network.SockaddrAddrPort(from), network.SockaddrAddrPort(addr2))

	// The rest of a truncated datagram is discarded.
	_, _, _, err = sock1.RecvFrom([][]byte{buf}, 0)
	assert.Error(t, err, network.EAGAIN)
}

func testHostSocketIPv4Only(t *testing.T, ns network.Namespace) {
	_, err := ns.Socket(network.Family(10), network.STREAM, network.TCP)
	assert.Error(t, err, network.EAFNOSUPPORT)

	sock, err := ns.Socket(network.INET, network.DGRAM, network.UDP)
	assert.OK(t, err)
	defer sock.Close()
	assert.Equal(t, sock.Family(), network.INET)
	assert.Equal(t, sock.Family().String(), "INET")
}

func testHostSocketClosed(t *testing.T, ns network.Namespace) {
	sock, err := ns.Socket(network.INET, network.DGRAM, network.UDP)
	assert.OK(t, err)
	assert.OK(t, sock.Close())
	assert.OK(t, sock.Close())

	assert.Equal(t, sock.Fd(), -1)
	assert.Error(t, sock.Bind(&network.SockaddrInet4{}), network.EBADF)
	_, err = sock.Available()
	assert.Error(t, err, network.EBADF)
	_, err = network.WaitReadyRead(sock, 0)
	assert.Error(t, err, network.EBADF)
}

func TestSockaddrAddrPort(t *testing.T) {
	sa := &network.SockaddrInet4{Addr: [4]byte{10, 0, 0, 1}, Port: 80}
	assert.Equal(t, network.SockaddrAddrPort(sa), netip.MustParseAddrPort("10.0.0.1:80"))
	assert.Equal(t, network.SockaddrAddrPort(nil), netip.AddrPort{})

	sa4 := network.SockaddrInet4From(netip.MustParseAddrPort("192.168.1.2:1234"))
	assert.Equal(t, sa4.Addr, [4]byte{192, 168, 1, 2})
	assert.Equal(t, sa4.Port, 1234)

	any4 := network.SockaddrInet4From(netip.AddrPortFrom(netip.Addr{}, 53))
	assert.Equal(t, any4.Addr, [4]byte{})
}
