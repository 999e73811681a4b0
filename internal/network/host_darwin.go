package network

import (
	"syscall"

	"golang.org/x/sys/unix"
)

const ioctlBytesQueued = unix.FIONREAD

// Darwin has no SOCK_CLOEXEC, the fork lock keeps a concurrent exec from
// inheriting the descriptor before the flag is set.
func openSocket(socktype Socktype, protocol Protocol) (int, error) {
	syscall.ForkLock.RLock()
	defer syscall.ForkLock.RUnlock()
	fd, err := ignoreEINTR2(func() (int, error) {
		return unix.Socket(unix.AF_INET, int(socktype), int(protocol))
	})
	if err != nil {
		return -1, err
	}
	if err := setupFD(fd); err != nil {
		return -1, err
	}
	return fd, nil
}

func acceptSocket(fd int) (int, Sockaddr, error) {
	syscall.ForkLock.RLock()
	defer syscall.ForkLock.RUnlock()
	conn, addr, err := ignoreEINTR3(func() (int, Sockaddr, error) {
		return unix.Accept(fd)
	})
	if err != nil {
		return -1, nil, err
	}
	if err := setupFD(conn); err != nil {
		return -1, nil, err
	}
	return conn, addr, nil
}

func setupFD(fd int) error {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_SETFD, unix.FD_CLOEXEC)
	if err == nil {
		err = unix.SetNonblock(fd, true)
	}
	if err != nil {
		unix.Close(fd)
	}
	return err
}
