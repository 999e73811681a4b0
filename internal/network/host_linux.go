package network

import "golang.org/x/sys/unix"

// Number of bytes in the receive queue, FIONREAD is not defined by x/sys on
// linux.
const ioctlBytesQueued = unix.TIOCINQ

func openSocket(socktype Socktype, protocol Protocol) (int, error) {
	return ignoreEINTR2(func() (int, error) {
		return unix.Socket(unix.AF_INET, int(socktype)|unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK, int(protocol))
	})
}

func acceptSocket(fd int) (int, Sockaddr, error) {
	return ignoreEINTR3(func() (int, Sockaddr, error) {
		return unix.Accept4(fd, unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK)
	})
}
