package network

import "os"

// HostProbe returns a Probe of the host connection table.
func HostProbe() Probe {
	return ProcProbe(os.DirFS("/proc/net"))
}
