package network

import (
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Socket opens a non-blocking IPv4 socket. The driver has no use for other
// address families, which fail with EAFNOSUPPORT.
func (hostNamespace) Socket(family Family, socktype Socktype, protocol Protocol) (Socket, error) {
	if family != INET {
		return nil, EAFNOSUPPORT
	}
	fd, err := openSocket(socktype, protocol)
	if err != nil {
		return nil, err
	}
	return newHostSocket(fd, socktype), nil
}

// Accept returns the next pending connection of a listening stream socket
// and the address of its remote end.
func (s *hostSocket) Accept() (Socket, Sockaddr, error) {
	fd := s.fd.acquire()
	if fd < 0 {
		return nil, nil, EBADF
	}
	defer s.fd.release(fd)
	conn, addr, err := acceptSocket(fd)
	if err != nil {
		return nil, nil, err
	}
	return newHostSocket(conn, s.socktype), addr, nil
}

type hostSocket struct {
	fd       socketFD
	socktype Socktype
}

func newHostSocket(fd int, socktype Socktype) *hostSocket {
	s := &hostSocket{socktype: socktype}
	s.fd.init(fd)
	return s
}

func (s *hostSocket) Family() Family {
	return INET
}

func (s *hostSocket) Type() Socktype {
	return s.socktype
}

func (s *hostSocket) Fd() int {
	return s.fd.load()
}

func (s *hostSocket) Close() error {
	s.fd.close()
	return nil
}

func (s *hostSocket) Bind(addr Sockaddr) error {
	return s.do(func(fd int) error {
		return ignoreEINTR(func() error { return unix.Bind(fd, addr) })
	})
}

func (s *hostSocket) Listen(backlog int) error {
	return s.do(func(fd int) error {
		return ignoreEINTR(func() error { return unix.Listen(fd, backlog) })
	})
}

func (s *hostSocket) Connect(addr Sockaddr) error {
	return s.do(func(fd int) error {
		return ignoreEINTR(func() error { return unix.Connect(fd, addr) })
	})
}

func (s *hostSocket) Name() (addr Sockaddr, err error) {
	err = s.do(func(fd int) error {
		addr, err = ignoreEINTR2(func() (Sockaddr, error) { return unix.Getsockname(fd) })
		return err
	})
	return addr, err
}

func (s *hostSocket) RecvFrom(iovs [][]byte, flags int) (n, rflags int, addr Sockaddr, err error) {
	fd := s.fd.acquire()
	if fd < 0 {
		return -1, 0, nil, EBADF
	}
	defer s.fd.release(fd)
	for {
		n, _, rflags, addr, err = unix.RecvmsgBuffers(fd, iovs, nil, flags)
		if err == EINTR {
			if n == 0 {
				continue
			}
			err = nil
		}
		return n, rflags, addr, err
	}
}

func (s *hostSocket) SendTo(iovs [][]byte, addr Sockaddr, flags int) (int, error) {
	fd := s.fd.acquire()
	if fd < 0 {
		return -1, EBADF
	}
	defer s.fd.release(fd)
	for {
		n, err := unix.SendmsgBuffers(fd, iovs, nil, addr, flags)
		if err == EINTR {
			if n == 0 {
				continue
			}
			err = nil
		}
		return n, err
	}
}

func (s *hostSocket) Shutdown(how int) error {
	return s.do(func(fd int) error {
		return ignoreEINTR(func() error { return unix.Shutdown(fd, how) })
	})
}

func (s *hostSocket) SetOptInt(level, name, value int) error {
	return s.do(func(fd int) error {
		return ignoreEINTR(func() error { return unix.SetsockoptInt(fd, level, name, value) })
	})
}

func (s *hostSocket) GetOptInt(level, name int) (value int, err error) {
	err = s.do(func(fd int) error {
		value, err = ignoreEINTR2(func() (int, error) { return unix.GetsockoptInt(fd, level, name) })
		return err
	})
	return value, err
}

func (s *hostSocket) Available() (n int, err error) {
	err = s.do(func(fd int) error {
		n, err = ignoreEINTR2(func() (int, error) { return unix.IoctlGetInt(fd, ioctlBytesQueued) })
		return err
	})
	return n, err
}

func (s *hostSocket) do(f func(int) error) error {
	fd := s.fd.acquire()
	if fd < 0 {
		return EBADF
	}
	defer s.fd.release(fd)
	return f(fd)
}

// socketFD guards a file descriptor against being closed and reused while a
// system call is still in flight on another goroutine. Background connect and
// accept tasks poll sockets that the dispatcher may abort at any time.
type socketFD struct {
	state atomic.Uint64 // upper 32 bits: refCount, lower 32 bits: fd
}

func (s *socketFD) init(fd int) {
	s.state.Store(uint64(fd & 0xFFFFFFFF))
}

func (s *socketFD) load() int {
	return int(int32(s.state.Load()))
}

func (s *socketFD) acquire() int {
	for {
		oldState := s.state.Load()
		if int32(oldState) < 0 {
			return -1
		}
		refCount := (oldState >> 32) + 1
		newState := (refCount << 32) | (oldState & 0xFFFFFFFF)
		if s.state.CompareAndSwap(oldState, newState) {
			return int(int32(oldState))
		}
	}
}

func (s *socketFD) release(fd int) {
	for {
		oldState := s.state.Load()
		refCount := (oldState >> 32) - 1
		newState := (refCount << 32) | (oldState & 0xFFFFFFFF)
		if s.state.CompareAndSwap(oldState, newState) {
			if int32(oldState) < 0 && refCount == 0 {
				closeFD(fd)
			}
			return
		}
	}
}

func (s *socketFD) close() {
	for {
		oldState := s.state.Load()
		if int32(oldState) < 0 {
			return
		}
		refCount := oldState >> 32
		newState := oldState | 0xFFFFFFFF
		if s.state.CompareAndSwap(oldState, newState) {
			if refCount == 0 {
				closeFD(int(int32(oldState)))
			}
			return
		}
	}
}

func closeFD(fd int) {
	if err := unix.Close(fd); err != nil {
		fmt.Fprintf(os.Stderr, "WARN: close(%d) => %s\n", fd, err)
	}
}
