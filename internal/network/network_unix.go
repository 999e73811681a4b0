package network

import (
	"time"

	"golang.org/x/sys/unix"
)

const (
	EADDRINUSE    = unix.EADDRINUSE
	EADDRNOTAVAIL = unix.EADDRNOTAVAIL
	EAFNOSUPPORT  = unix.EAFNOSUPPORT
	EAGAIN        = unix.EAGAIN
	EBADF         = unix.EBADF
	ECONNABORTED  = unix.ECONNABORTED
	ECONNREFUSED  = unix.ECONNREFUSED
	ECONNRESET    = unix.ECONNRESET
	EHOSTDOWN     = unix.EHOSTDOWN
	EHOSTUNREACH  = unix.EHOSTUNREACH
	EINVAL        = unix.EINVAL
	EINTR         = unix.EINTR
	EINPROGRESS   = unix.EINPROGRESS
	EISCONN       = unix.EISCONN
	ENETDOWN      = unix.ENETDOWN
	ENETUNREACH   = unix.ENETUNREACH
	ENOTCONN      = unix.ENOTCONN
	EPIPE         = unix.EPIPE
	ETIMEDOUT     = unix.ETIMEDOUT
)

const INET Family = unix.AF_INET

const (
	STREAM Socktype = unix.SOCK_STREAM
	DGRAM  Socktype = unix.SOCK_DGRAM
)

const SHUTWR = unix.SHUT_WR

const (
	SOL_SOCKET   = unix.SOL_SOCKET
	SO_ERROR     = unix.SO_ERROR
	SO_REUSEADDR = unix.SO_REUSEADDR
	IPPROTO_TCP  = unix.IPPROTO_TCP
	TCP_NODELAY  = unix.TCP_NODELAY
)

type Errno = unix.Errno

type Sockaddr = unix.Sockaddr
type SockaddrInet4 = unix.SockaddrInet4

// This function is used to automatically retry syscalls when they return
// EINTR due to having handled a signal instead of executing. The driver runs
// on behalf of a caller that has no notion of signals, so those errors are
// never worth reporting.
func ignoreEINTR(f func() error) error {
	for {
		if err := f(); err != EINTR {
			return err
		}
	}
}

func ignoreEINTR2[F func() (R, error), R any](f F) (R, error) {
	for {
		v, err := f()
		if err != EINTR {
			return v, err
		}
	}
}

func ignoreEINTR3[F func() (R1, R2, error), R1, R2 any](f F) (R1, R2, error) {
	for {
		v1, v2, err := f()
		if err != EINTR {
			return v1, v2, err
		}
	}
}

// WaitReadyRead blocks until the socket has data to read, a connection to
// accept, or the timeout expires. It reports whether the socket is ready.
func WaitReadyRead(socket Socket, timeout time.Duration) (bool, error) {
	return wait(socket, unix.POLLIN, timeout)
}

// WaitReadyWrite blocks until the socket accepts more output, completed an
// asynchronous connect, or the timeout expires. It reports whether the
// socket is ready.
func WaitReadyWrite(socket Socket, timeout time.Duration) (bool, error) {
	return wait(socket, unix.POLLOUT, timeout)
}

func wait(socket Socket, events int16, timeout time.Duration) (bool, error) {
	fd := socket.Fd()
	if fd < 0 {
		return false, EBADF
	}
	tms := int(timeout / time.Millisecond)
	pfd := []unix.PollFd{{
		Fd:     int32(fd),
		Events: events,
	}}
	n, err := ignoreEINTR2(func() (int, error) {
		return unix.Poll(pfd, tms)
	})
	if err != nil {
		return false, err
	}
	if n > 0 && (pfd[0].Revents&unix.POLLNVAL) != 0 {
		return false, EBADF
	}
	return n > 0, nil
}
