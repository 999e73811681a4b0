// Package errcode defines the status codes returned by the TCP/IP UNAPI
// functions.
//
// The numeric values are part of the TCP/IP UNAPI and are handed to callers
// verbatim in the status register.
package errcode

import (
	"errors"
	"fmt"
)

// Code is a TCP/IP UNAPI status code.
//
// Code implements the error interface so managers can return codes directly
// and wrap them with context where useful. OK is never returned as an error.
type Code uint8

const (
	OK               Code = 0
	NotImplemented   Code = 1
	NoNetwork        Code = 2
	NoData           Code = 3
	InvalidParameter Code = 4
	QueryExists      Code = 5
	InvalidIP        Code = 6
	NoDNS            Code = 7
	DNSError         Code = 8
	NoFreeConn       Code = 9
	ConnExists       Code = 10
	NoConn           Code = 11
	ConnState        Code = 12
	LargeDatagram    Code = 14
)

var names = [...]string{
	OK:               "OK",
	NotImplemented:   "ERR_NOT_IMP",
	NoNetwork:        "ERR_NO_NETWORK",
	NoData:           "ERR_NO_DATA",
	InvalidParameter: "ERR_INV_PAR",
	QueryExists:      "ERR_QUERY_EXISTS",
	InvalidIP:        "ERR_INV_IP",
	NoDNS:            "ERR_NO_DNS",
	DNSError:         "ERR_DNS",
	NoFreeConn:       "ERR_NO_FREE_CONN",
	ConnExists:       "ERR_CONN_EXISTS",
	NoConn:           "ERR_NO_CONN",
	ConnState:        "ERR_CONN_STATE",
	LargeDatagram:    "ERR_LARGE_DGRAM",
}

// Name returns the symbolic name of the code, as spelled in the UNAPI
// documents.
func (c Code) Name() string {
	if int(c) < len(names) && names[c] != "" {
		return names[c]
	}
	return fmt.Sprintf("ERR_%d", uint8(c))
}

func (c Code) String() string { return c.Name() }

func (c Code) Error() string { return c.Name() }

// Of returns the status code carried by err.
//
// A nil error is OK. Errors that do not wrap a Code are reported as
// NotImplemented, the status UNAPI callers receive for any failure the
// driver has no better description for.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return NotImplemented
}
