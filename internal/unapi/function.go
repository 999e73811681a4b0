package unapi

import "fmt"

// Function is the number of a TCP/IP UNAPI function.
type Function uint8

const (
	GetInfo Function = iota
	GetCapab
	GetIPInfo
	NetState
	SendEcho
	ReceiveEcho
	DNSQuery
	DNSStatus
	UDPOpen
	UDPClose
	UDPState
	UDPSend
	UDPReceive
	TCPOpen
	TCPClose
	TCPAbort
	TCPState
	TCPSend
	TCPReceive
	TCPFlush
	RawOpen
	RawClose
	RawState
	RawSend
	RawReceive
	ConfigAutoIP
	ConfigIP
	ConfigTTL
	ConfigPing
	Wait
)

var functionNames = [...]string{
	GetInfo:      "UNAPI_GET_INFO",
	GetCapab:     "TCPIP_GET_CAPAB",
	GetIPInfo:    "TCPIP_GET_IPINFO",
	NetState:     "TCPIP_NET_STATE",
	SendEcho:     "TCPIP_SEND_ECHO",
	ReceiveEcho:  "TCPIP_RCV_ECHO",
	DNSQuery:     "TCPIP_DNS_Q",
	DNSStatus:    "TCPIP_DNS_S",
	UDPOpen:      "TCPIP_UDP_OPEN",
	UDPClose:     "TCPIP_UDP_CLOSE",
	UDPState:     "TCPIP_UDP_STATE",
	UDPSend:      "TCPIP_UDP_SEND",
	UDPReceive:   "TCPIP_UDP_RCV",
	TCPOpen:      "TCPIP_TCP_OPEN",
	TCPClose:     "TCPIP_TCP_CLOSE",
	TCPAbort:     "TCPIP_TCP_ABORT",
	TCPState:     "TCPIP_TCP_STATE",
	TCPSend:      "TCPIP_TCP_SEND",
	TCPReceive:   "TCPIP_TCP_RCV",
	TCPFlush:     "TCPIP_TCP_FLUSH",
	RawOpen:      "TCPIP_RAW_OPEN",
	RawClose:     "TCPIP_RAW_CLOSE",
	RawState:     "TCPIP_RAW_STATE",
	RawSend:      "TCPIP_RAW_SEND",
	RawReceive:   "TCPIP_RAW_RCV",
	ConfigAutoIP: "TCPIP_CONFIG_AUTOIP",
	ConfigIP:     "TCPIP_CONFIG_IP",
	ConfigTTL:    "TCPIP_CONFIG_TTL",
	ConfigPing:   "TCPIP_CONFIG_PING",
	Wait:         "TCPIP_WAIT",
}

func (fn Function) String() string {
	if int(fn) < len(functionNames) {
		return functionNames[fn]
	}
	return fmt.Sprintf("FUNCTION_%d", uint8(fn))
}

type handler func(*Driver, *Frame) error

// Functions missing from the table are not implemented.
var handlers = [...]handler{
	GetInfo:      (*Driver).getInfo,
	GetCapab:     (*Driver).getCapab,
	GetIPInfo:    (*Driver).getIPInfo,
	NetState:     (*Driver).netState,
	DNSQuery:     (*Driver).dnsQuery,
	DNSStatus:    (*Driver).dnsStatus,
	UDPOpen:      (*Driver).udpOpen,
	UDPClose:     (*Driver).udpClose,
	UDPState:     (*Driver).udpState,
	UDPSend:      (*Driver).udpSend,
	UDPReceive:   (*Driver).udpReceive,
	TCPOpen:      (*Driver).tcpOpen,
	TCPClose:     (*Driver).tcpClose,
	TCPAbort:     (*Driver).tcpAbort,
	TCPState:     (*Driver).tcpState,
	TCPSend:      (*Driver).tcpSend,
	TCPReceive:   (*Driver).tcpReceive,
	TCPFlush:     (*Driver).tcpFlush,
	ConfigAutoIP: (*Driver).configAutoIP,
	ConfigIP:     (*Driver).configIP,
	ConfigTTL:    (*Driver).configTTL,
	ConfigPing:   (*Driver).configPing,
	Wait:         (*Driver).wait,
}

// Implemented reports whether fn has a handler.
func (fn Function) Implemented() bool {
	return int(fn) < len(handlers) && handlers[fn] != nil
}
