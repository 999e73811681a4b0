package unapi

import "github.com/stealthrocket/unapi/internal/errcode"

const (
	configGet = 0
	configSet = 1

	// Addresses are always obtained automatically.
	autoIPAll = 3

	defaultTTL = 64
	defaultTOS = 0
)

// Only the get and set actions with a configuration of 0 or 1 are accepted,
// either way every address is reported as obtained automatically.
func (d *Driver) configAutoIP(f *Frame) error {
	if f.B > configSet || f.C > 1 {
		return errcode.NotImplemented
	}
	f.C = autoIPAll
	return nil
}

// Addresses cannot be configured manually.
func (d *Driver) configIP(f *Frame) error {
	return errcode.NotImplemented
}

func (d *Driver) configTTL(f *Frame) error {
	switch f.B {
	case configGet:
		f.D, f.E = defaultTTL, defaultTOS
		return nil
	case configSet:
		return errcode.NotImplemented
	default:
		return errcode.InvalidParameter
	}
}

// The host answers echo requests on its own.
func (d *Driver) configPing(f *Frame) error {
	switch f.B {
	case configGet:
		f.C = 1
		return nil
	case configSet:
		return errcode.NotImplemented
	default:
		return errcode.InvalidParameter
	}
}

func (d *Driver) wait(f *Frame) error {
	f.Interrupts = true
	return nil
}
