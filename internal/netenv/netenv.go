// Package netenv describes the host network environment seen by the driver:
// the active interface, its addresses, the DNS servers and the live state of
// the link.
package netenv

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/netip"

	"github.com/miekg/dns"

	"github.com/stealthrocket/unapi/internal/network"
)

// MaxMTU is the largest MTU reported to callers, which represent it as a
// signed 16 bit integer.
const MaxMTU = 32767

// DefaultResolvConf is the location of the resolver configuration used when
// no DNS servers are configured explicitly.
const DefaultResolvConf = "/etc/resolv.conf"

var errNoInterface = errors.New("no IPv4 network interfaces available")

type Options struct {
	// Name of the interface to use.
	Interface string
	// IPv4 address of the interface to use, takes precedence over the name.
	Address netip.Addr
	// DNS servers, overriding the system configuration when not empty.
	DNS []netip.Addr
	// Path to the resolver configuration, DefaultResolvConf if empty.
	ResolvConf string
	// Function used to look up links, network.LinkInfo if nil.
	Link network.LinkFunc

	Logger *slog.Logger
}

// Environment is the network context of a driver. It is built once and only
// the link state is queried again afterwards.
type Environment struct {
	Interface string
	Address   netip.Addr
	Mask      netip.Addr
	Gateway   netip.Addr
	DNS       []netip.Addr
	DNSPort   string
	Kind      network.LinkKind
	MTU       int

	link   network.LinkFunc
	logger *slog.Logger
}

// Discover selects the active interface of ns and collects its
// configuration.
func Discover(ns network.Namespace, opts Options) (*Environment, error) {
	if opts.Link == nil {
		opts.Link = network.LinkInfo
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.ResolvConf == "" {
		opts.ResolvConf = DefaultResolvConf
	}

	iface, ipnet, err := selectInterface(ns, opts)
	if err != nil {
		return nil, err
	}

	env := &Environment{
		Interface: iface.Name(),
		Address:   ipnet.addr,
		Mask:      ipnet.mask,
		DNSPort:   "53",
		MTU:       min(iface.MTU(), MaxMTU),
		link:      opts.Link,
		logger:    opts.Logger,
	}

	if link, err := opts.Link(iface.Name()); err != nil {
		env.logger.Warn("link information unavailable",
			slog.String("interface", iface.Name()),
			slog.String("error", err.Error()))
	} else {
		env.Gateway = link.Gateway
		env.Kind = link.Kind
	}

	if len(opts.DNS) > 0 {
		env.DNS = append(env.DNS, opts.DNS...)
	} else {
		env.DNS, env.DNSPort = readResolvConf(opts.ResolvConf, env.logger)
	}
	return env, nil
}

type ipv4Net struct {
	addr netip.Addr
	mask netip.Addr
}

func selectInterface(ns network.Namespace, opts Options) (network.Interface, ipv4Net, error) {
	ifaces, err := ns.Interfaces()
	if err != nil {
		return nil, ipv4Net{}, fmt.Errorf("listing network interfaces: %w", err)
	}

	switch {
	case opts.Address.IsValid():
		for _, iface := range ifaces {
			for _, ipnet := range interfaceIPv4(iface) {
				if ipnet.addr == opts.Address.Unmap() {
					return iface, ipnet, nil
				}
			}
		}
		return nil, ipv4Net{}, fmt.Errorf("there is no network interface with the IP address %s", opts.Address)

	case opts.Interface != "":
		iface, err := ns.InterfaceByName(opts.Interface)
		if err != nil {
			return nil, ipv4Net{}, err
		}
		if addrs := interfaceIPv4(iface); len(addrs) > 0 {
			return iface, addrs[0], nil
		}
		return nil, ipv4Net{}, fmt.Errorf("network interface %s has no IPv4 address", opts.Interface)
	}

	var fallback network.Interface
	var fallbackNet ipv4Net
	for _, iface := range ifaces {
		addrs := interfaceIPv4(iface)
		if len(addrs) == 0 {
			continue
		}
		flags := iface.Flags()
		if (flags&net.FlagLoopback) == 0 && (flags&net.FlagUp) != 0 {
			return iface, addrs[0], nil
		}
		if fallback == nil {
			fallback, fallbackNet = iface, addrs[0]
		}
	}
	if fallback == nil {
		return nil, ipv4Net{}, errNoInterface
	}
	return fallback, fallbackNet, nil
}

func interfaceIPv4(iface network.Interface) (addrs []ipv4Net) {
	ifaddrs, err := iface.Addrs()
	if err != nil {
		return nil
	}
	for _, a := range ifaddrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip4 := ipnet.IP.To4()
		if ip4 == nil {
			continue
		}
		mask := net.IP(ipnet.Mask).To4()
		if len(ipnet.Mask) == net.IPv6len {
			mask = net.IP(ipnet.Mask[12:])
		}
		if mask == nil {
			continue
		}
		addrs = append(addrs, ipv4Net{
			addr: netip.AddrFrom4([4]byte(ip4)),
			mask: netip.AddrFrom4([4]byte(mask)),
		})
	}
	return addrs
}

func readResolvConf(path string, logger *slog.Logger) ([]netip.Addr, string) {
	conf, err := dns.ClientConfigFromFile(path)
	if err != nil {
		logger.Warn("no DNS servers configured",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, "53"
	}
	servers := make([]netip.Addr, 0, len(conf.Servers))
	for _, s := range conf.Servers {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			logger.Warn("ignoring malformed DNS server address",
				slog.String("path", path),
				slog.String("server", s))
			continue
		}
		servers = append(servers, addr.Unmap())
	}
	port := conf.Port
	if port == "" {
		port = "53"
	}
	return servers, port
}

// Status queries the operational state of the link. A link that cannot be
// looked up anymore is reported down.
func (env *Environment) Status() network.LinkState {
	link, err := env.link(env.Interface)
	if err != nil {
		env.logger.Warn("querying link state",
			slog.String("interface", env.Interface),
			slog.String("error", err.Error()))
		return network.LinkDown
	}
	return link.State
}

// NetworkAvailable reports whether the link is not known to be down.
func (env *Environment) NetworkAvailable() bool {
	return env.Status() != network.LinkDown
}

// DNSAvailable reports whether at least one DNS server is configured.
func (env *Environment) DNSAvailable() bool {
	return len(env.DNS) > 0
}

// DNSServer returns the i-th IPv4 DNS server, starting at zero.
func (env *Environment) DNSServer(i int) (netip.Addr, bool) {
	for _, addr := range env.DNS {
		if !addr.Is4() {
			continue
		}
		if i == 0 {
			return addr, true
		}
		i--
	}
	return netip.Addr{}, false
}

// DNSServerAddrs returns the DNS servers in host:port form.
func (env *Environment) DNSServerAddrs() []string {
	addrs := make([]string, len(env.DNS))
	for i, addr := range env.DNS {
		addrs[i] = net.JoinHostPort(addr.String(), env.DNSPort)
	}
	return addrs
}
