package main

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"strings"

	"github.com/stealthrocket/unapi/internal/config"
	"github.com/stealthrocket/unapi/internal/errcode"
	"github.com/stealthrocket/unapi/internal/print/human"
	"github.com/stealthrocket/unapi/internal/unapi"
)

const statusUsage = `
Usage:	unapi status [options]

   Starts the driver and prints what it reports to programs through the
   information functions (GET_INFO, GET_CAPAB, GET_IPINFO and NET_STATE).

Options:
   -c, --config path     Path to the unapi configuration file (overrides UNAPICONFIG)
   -h, --help            Show this usage information
   -i, --interface name  Network interface used by the driver (overrides network.interface)
   -o, --output format   Output format, one of: text, json, yaml
`

func status(ctx context.Context, args []string) error {
	var (
		iface  string
		output = outputFormat("text")
	)

	flagSet := newFlagSet("unapi status", statusUsage)
	stringVar(flagSet, &iface, "i", "interface")
	customVar(flagSet, &output, "o", "output")

	args, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return usageError("unapi status: unexpected arguments: %q", args)
	}

	c, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(c)

	ns, env, err := discover(c, iface, logger)
	if err != nil {
		return err
	}

	mem := new(unapi.RAM)
	unapi.WriteString(mem, unapi.NameAddress, unapi.Name)

	driver, err := newDriver(c, ns, env, mem, nil, logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	s := queryStatus(driver, mem)
	s.Interface = env.Interface

	w := newWriter(os.Stdout, output, textWriter[*driverStatus])
	_, err = w.Write([]*driverStatus{s})
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	return err
}

type caller interface {
	Call(fn unapi.Function, f *unapi.Frame) errcode.Code
}

type slots struct {
	Capacity int `json:"capacity" yaml:"capacity"`
	Free     int `json:"free" yaml:"free"`
}

type driverStatus struct {
	Name         string       `json:"name" yaml:"name"`
	Version      string       `json:"version" yaml:"version"`
	APIVersion   string       `json:"apiVersion" yaml:"apiVersion"`
	Interface    string       `json:"interface" yaml:"interface"`
	State        string       `json:"state" yaml:"state"`
	Link         string       `json:"link" yaml:"link"`
	Address      netip.Addr   `json:"address" yaml:"address"`
	Mask         netip.Addr   `json:"mask" yaml:"mask"`
	Gateway      netip.Addr   `json:"gateway,omitempty" yaml:"gateway,omitempty"`
	DNS          []netip.Addr `json:"dns" yaml:"dns"`
	Capabilities []string     `json:"capabilities" yaml:"capabilities"`
	Features     []string     `json:"features" yaml:"features"`
	TCP          slots        `json:"tcp" yaml:"tcp"`
	UDP          slots        `json:"udp" yaml:"udp"`
	MaxDatagram  human.Bytes  `json:"maxDatagram" yaml:"maxDatagram"`
}

func (s *driverStatus) Format(w fmt.State, _ rune) {
	none := func(addr netip.Addr) string {
		if !addr.IsValid() {
			return "(none)"
		}
		return addr.String()
	}
	dns := make([]string, len(s.DNS))
	for i, addr := range s.DNS {
		dns[i] = addr.String()
	}
	if len(dns) == 0 {
		dns = []string{"(none)"}
	}

	fmt.Fprintf(w, "Driver:       %s (version %s, TCP/IP UNAPI %s)\n", s.Name, s.Version, s.APIVersion)
	fmt.Fprintf(w, "Interface:    %s\n", s.Interface)
	fmt.Fprintf(w, "State:        %s\n", s.State)
	fmt.Fprintf(w, "Link:         %s\n", s.Link)
	fmt.Fprintf(w, "Address:      %s\n", none(s.Address))
	fmt.Fprintf(w, "Mask:         %s\n", none(s.Mask))
	fmt.Fprintf(w, "Gateway:      %s\n", none(s.Gateway))
	fmt.Fprintf(w, "DNS:          %s\n", strings.Join(dns, ", "))
	fmt.Fprintf(w, "Capabilities: %s\n", strings.Join(s.Capabilities, ", "))
	fmt.Fprintf(w, "Features:     %s\n", strings.Join(s.Features, ", "))
	fmt.Fprintf(w, "TCP:          %d/%d free\n", s.TCP.Free, s.TCP.Capacity)
	fmt.Fprintf(w, "UDP:          %d/%d free\n", s.UDP.Free, s.UDP.Capacity)
	fmt.Fprintf(w, "Datagrams:    %v max\n", s.MaxDatagram)
}

var capabilityNames = [...]string{
	"echo",
	"hosts-file",
	"dns",
	"tcp-active",
	"tcp-passive-remote",
	"tcp-passive",
	"tcp-urgent",
	"tcp-push",
	"tcp-early-send",
	"tcp-flush",
	"udp",
	"raw-ip",
	"ttl",
	"ping-reply",
	"auto-ip",
}

var featureNames = [...]string{
	"point-to-point",
	"wireless",
	"shared-pool",
	"expensive-state",
	"hardware",
	"loopback",
	"name-cache",
	"fragmentation",
	"user-timeout",
}

var linkNames = map[uint8]string{
	unapi.LinkUnknown:  "unknown",
	unapi.LinkSerial:   "serial",
	unapi.LinkPPP:      "ppp",
	unapi.LinkEthernet: "ethernet",
}

var stateNames = map[uint8]string{
	unapi.NetStateDown:    "down",
	unapi.NetStateUp:      "up",
	unapi.NetStateUnknown: "unknown",
}

func flagNames(flags uint16, names []string) []string {
	set := []string{}
	for i, name := range names {
		if flags&(1<<i) != 0 {
			set = append(set, name)
		}
	}
	return set
}

// queryStatus collects the status of d with the calls a program would make.
// The information functions cannot fail, so their status codes are only used
// to tell which addresses are defined.
func queryStatus(d caller, mem unapi.Memory) *driverStatus {
	s := new(driverStatus)

	f := new(unapi.Frame)
	d.Call(unapi.GetInfo, f)
	s.Name = unapi.ReadString(mem, f.HL())
	s.APIVersion = versionString(f.DE())
	s.Version = versionString(f.BC())

	f = &unapi.Frame{B: 1}
	d.Call(unapi.GetCapab, f)
	s.Capabilities = flagNames(f.HL(), capabilityNames[:])
	s.Features = flagNames(f.DE(), featureNames[:])
	s.Link = linkNames[f.B]

	f = &unapi.Frame{B: 2}
	d.Call(unapi.GetCapab, f)
	s.TCP = slots{Capacity: int(f.B), Free: int(f.D)}
	s.UDP = slots{Capacity: int(f.C), Free: int(f.E)}

	f = &unapi.Frame{B: 3}
	d.Call(unapi.GetCapab, f)
	s.MaxDatagram = human.Bytes(f.DE())

	ipInfo := func(index uint8) netip.Addr {
		f := &unapi.Frame{B: index}
		if d.Call(unapi.GetIPInfo, f) != errcode.OK {
			return netip.Addr{}
		}
		return f.IP()
	}
	s.Address = ipInfo(1)
	s.Mask = ipInfo(3)
	s.Gateway = ipInfo(4)
	s.DNS = []netip.Addr{}
	for _, index := range []uint8{5, 6} {
		if addr := ipInfo(index); addr.IsValid() {
			s.DNS = append(s.DNS, addr)
		}
	}

	f = new(unapi.Frame)
	d.Call(unapi.NetState, f)
	state, ok := stateNames[f.B]
	if !ok {
		state = fmt.Sprintf("%d", f.B)
	}
	s.State = state
	return s
}

func versionString(v uint16) string {
	return fmt.Sprintf("%d.%d", v>>8, v&0xFF)
}
