package unapi

import (
	"github.com/stealthrocket/unapi/internal/errcode"
	"github.com/stealthrocket/unapi/internal/resolver"
)

const (
	dnsQueryStarted = 0
	dnsQueryLiteral = 1

	dnsIdle = 0
	dnsBusy = 1
	dnsDone = 2

	dnsFlagClear = 1
)

func (d *Driver) dnsQuery(f *Frame) error {
	flags := resolver.Flags(f.B) & (resolver.Cancel | resolver.LiteralOnly | resolver.FailIfBusy)
	name := ReadString(d.mem, f.HL())
	addr, err := d.resolver.Query(name, flags)
	if err != nil {
		return err
	}
	if addr.IsValid() {
		f.B = dnsQueryLiteral
		f.setIP(addr)
	} else {
		f.B = dnsQueryStarted
	}
	return nil
}

func (d *Driver) dnsStatus(f *Frame) error {
	status := d.resolver.Poll((f.B & dnsFlagClear) != 0)
	switch status.State {
	case resolver.Busy:
		f.B, f.C = dnsBusy, 0
	case resolver.Failed:
		f.B = status.Err
		return errcode.DNSError
	case resolver.Done:
		f.B, f.C = dnsDone, 0
		if status.Literal {
			f.C = 1
		}
		f.setIP(status.Addr)
	default:
		f.B = dnsIdle
	}
	return nil
}
