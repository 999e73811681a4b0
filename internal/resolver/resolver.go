// Package resolver implements the single-slot asynchronous name resolution
// state machine exposed to callers through a start/poll protocol.
package resolver

import (
	"context"
	"io"
	"log/slog"
	"net/netip"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/stealthrocket/unapi/internal/errcode"
)

// Flags are the options of a query.
type Flags uint8

const (
	// Cancel aborts the query in progress and clears the last error.
	Cancel Flags = 1 << iota
	// LiteralOnly rejects names which are not IPv4 addresses.
	LiteralOnly
	// FailIfBusy rejects the query when another one is in progress.
	FailIfBusy
)

// State is the state of the resolver reported by Poll.
type State uint8

const (
	Idle State = iota
	Busy
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Busy:
		return "busy"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status is the result of polling the resolver.
type Status struct {
	State State
	// Resolved address when State is Done.
	Addr netip.Addr
	// Literal is true when Addr was given as an IP address and not looked up.
	Literal bool
	// DNS error code when State is Failed, see ErrorCode.
	Err uint8
}

// Backend performs name lookups, *net.Resolver satisfies it.
type Backend interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// Environment reports the conditions needed to start a lookup.
type Environment interface {
	NetworkAvailable() bool
	DNSAvailable() bool
}

// Resolver runs at most one lookup at a time. Starting a new query replaces
// the one in progress; completions of replaced queries are discarded.
type Resolver struct {
	env     Environment
	backend Backend
	logger  *slog.Logger
	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc
	tasks  errgroup.Group

	mu         sync.Mutex
	generation uint64
	inProgress bool
	stop       context.CancelFunc
	hasResult  bool
	result     netip.Addr
	literal    bool
	hasError   bool
	errCode    uint8
}

func New(env Environment, backend Backend, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &Resolver{
		env:     env,
		backend: backend,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())
	return r
}

// Query starts resolving name. When name is an IPv4 address it is resolved
// immediately and returned with a nil error; otherwise the returned address
// is invalid and the lookup continues in the background.
func (r *Resolver) Query(name string, flags Flags) (netip.Addr, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if (flags & Cancel) != 0 {
		r.abortLocked()
		r.hasError = false
		return netip.Addr{}, nil
	}
	if (flags&FailIfBusy) != 0 && r.inProgress {
		return netip.Addr{}, errcode.QueryExists
	}
	if !r.env.NetworkAvailable() {
		return netip.Addr{}, errcode.NoNetwork
	}
	if !r.env.DNSAvailable() {
		return netip.Addr{}, errcode.NoDNS
	}

	if addr, ok := parseIPv4(name); ok {
		r.abortLocked()
		r.hasError = false
		r.hasResult, r.result, r.literal = true, addr, true
		return addr, nil
	}
	if (flags & LiteralOnly) != 0 {
		return netip.Addr{}, errcode.InvalidIP
	}

	r.abortLocked()
	r.hasError = false
	r.hasResult = false
	r.inProgress = true
	generation := r.generation

	ctx, stop := context.WithCancel(r.ctx)
	r.stop = stop
	r.tasks.Go(func() error {
		defer stop()
		addrs, err := r.backend.LookupNetIP(ctx, "ip4", name)
		r.complete(generation, name, addrs, err)
		return nil
	})
	return netip.Addr{}, nil
}

func (r *Resolver) abortLocked() {
	r.generation++
	r.inProgress = false
	if r.stop != nil {
		r.stop()
		r.stop = nil
	}
}

func (r *Resolver) complete(generation uint64, name string, addrs []netip.Addr, err error) {
	var addr netip.Addr
	for _, a := range addrs {
		if a = a.Unmap(); a.Is4() {
			addr = a
			break
		}
	}
	if err == nil && !addr.IsValid() {
		err = errNoIPv4(name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if generation != r.generation {
		return
	}
	r.inProgress = false
	r.stop = nil

	if err != nil {
		r.hasError, r.errCode = true, ErrorCode(err)
		if r.limiter.Allow() {
			r.logger.Warn("name resolution failed",
				slog.String("name", name),
				slog.Int("code", int(r.errCode)),
				slog.String("error", err.Error()))
		}
		return
	}
	r.hasResult, r.result, r.literal = true, addr, false
	r.logger.Debug("name resolved",
		slog.String("name", name),
		slog.String("addr", addr.String()))
}

// Poll reports the state of the resolver. When clear is true the reported
// error or result is forgotten.
func (r *Resolver) Poll(clear bool) Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.inProgress:
		return Status{State: Busy}
	case r.hasError:
		if clear {
			r.hasError = false
		}
		return Status{State: Failed, Err: r.errCode}
	case r.hasResult:
		if clear {
			r.hasResult = false
		}
		return Status{State: Done, Addr: r.result, Literal: r.literal}
	default:
		return Status{State: Idle}
	}
}

// Close cancels the query in progress and waits for background lookups to
// return.
func (r *Resolver) Close() error {
	r.mu.Lock()
	r.abortLocked()
	r.mu.Unlock()
	r.cancel()
	return r.tasks.Wait()
}

func parseIPv4(name string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(name)
	if err != nil || !addr.Is4() {
		return netip.Addr{}, false
	}
	return addr, true
}
