// Copyright 2025 Balance Lab, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package hostname implements the resolver variant that turns hostnames
// into concrete addresses by delegating to a resolution [Engine]. Two
// engines are provided: one backed by [net.Resolver] and one backed by the
// miekg/dns client, which honors the ndots and rotate options of the system
// resolver configuration.
//
// This variant keeps no cache of its own and reports resolved states as
// always valid unless a validity predicate is installed with [WithValidity]
// or [ExpireAfter]; layering expiry on top is the caller's decision, not
// something the pipeline assumes.
package hostname

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"github.com/balancelab/addrlb"
	"github.com/balancelab/addrlb/attribute"
	"github.com/balancelab/addrlb/internal"
)

// RecordTTL carries the DNS record time-to-live on a resolved endpoint,
// when the engine knows it. Engines that cannot observe TTLs leave it
// unset.
var RecordTTL = attribute.NewKey[time.Duration]()

// Endpoint is a concrete address produced by resolving a hostname.
type Endpoint struct {
	Addr       netip.AddrPort
	Attributes attribute.Values
}

// State is the result of one hostname resolution: the ordered wrapper
// sequence in the order the engine returned its records, and the time the
// resolution completed. The sequence never changes after construction.
type State[B any] struct {
	endpoints  []B
	resolvedAt time.Time
}

// ResolvedAt returns the time the resolution completed, for use by validity
// predicates.
func (s *State[B]) ResolvedAt() time.Time {
	return s.resolvedAt
}

// Resolver resolves hostname addresses through an [Engine]. Create one with
// [New].
type Resolver[B any] struct {
	engine   Engine
	validity func(*State[B]) bool
	clock    internal.Clock
}

// Option configures a [Resolver].
type Option[B any] func(*Resolver[B])

// WithValidity installs the predicate consulted by IsValid. The predicate
// must be cheap and side-effect-free. Without one, every resolved state is
// reported valid forever.
func WithValidity[B any](predicate func(*State[B]) bool) Option[B] {
	return func(r *Resolver[B]) {
		r.validity = predicate
	}
}

// ExpireAfter installs a validity predicate that reports a state invalid
// once the given duration has elapsed since it was resolved.
func ExpireAfter[B any](d time.Duration) Option[B] {
	return func(r *Resolver[B]) {
		r.validity = func(s *State[B]) bool {
			return r.clock.Since(s.resolvedAt) < d
		}
	}
}

// New creates a hostname resolver on top of the given engine.
func New[B any](engine Engine, opts ...Option[B]) *Resolver[B] {
	r := &Resolver[B]{
		engine: engine,
		clock:  internal.NewRealClock(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ addrlb.Resolver[addrlb.SockAddr, Endpoint, *State[any], any] = (*Resolver[any])(nil)

// TryCast accepts any network-address-shaped value.
func (r *Resolver[B]) TryCast(address addrlb.Address) (addrlb.SockAddr, bool) {
	a, ok := address.(addrlb.SockAddr)
	return a, ok
}

// Resolve issues a bulk lookup for the address's host on the engine, bound
// to ctx, and completes the returned future when the lookup finishes. Each
// resolved address is combined with the original address's port and mapped
// through factory, preserving the engine's order. A lookup failure fails
// the future with the engine's error unchanged. An address whose port is
// outside the 16-bit range fails the future without consulting the engine.
func (r *Resolver[B]) Resolve(ctx context.Context, factory func(Endpoint) B, address addrlb.SockAddr) *addrlb.Future[*State[B]] {
	if address.Port < 0 || address.Port > 65535 {
		return addrlb.FailedFuture[*State[B]](fmt.Errorf("port %d out of range for host %q", address.Port, address.Host))
	}
	port := uint16(address.Port)
	promise := addrlb.NewPromise[*State[B]]()
	go func() {
		records, err := r.engine.ResolveAll(ctx, address.Host)
		if err != nil {
			promise.Fail(err)
			return
		}
		endpoints := make([]B, len(records))
		for i, record := range records {
			endpoint := Endpoint{
				Addr: netip.AddrPortFrom(record.Addr, port),
			}
			if record.TTL > 0 {
				endpoint.Attributes = attribute.NewValues(RecordTTL.Value(record.TTL))
			}
			endpoints[i] = factory(endpoint)
		}
		promise.Complete(&State[B]{
			endpoints:  endpoints,
			resolvedAt: r.clock.Now(),
		})
	}()
	return promise.Future()
}

// Endpoints returns the wrapper sequence held by the state, in engine
// order.
func (r *Resolver[B]) Endpoints(state *State[B]) []B {
	if state == nil {
		return nil
	}
	return state.endpoints
}

// IsValid consults the installed validity predicate; without one, states
// are always valid.
func (r *Resolver[B]) IsValid(state *State[B]) bool {
	if state == nil {
		return false
	}
	if r.validity == nil {
		return true
	}
	return r.validity(state)
}

// AddressOfEndpoint returns the endpoint's physical address.
func (r *Resolver[B]) AddressOfEndpoint(endpoint Endpoint) addrlb.SockAddr {
	return addrlb.SockAddr{
		Host: endpoint.Addr.Addr().String(),
		Port: int(endpoint.Addr.Port()),
	}
}

// Dispose is a no-op: this variant keeps no cache entry to remove.
func (r *Resolver[B]) Dispose(*State[B]) {
}

// Close closes the underlying engine.
func (r *Resolver[B]) Close() error {
	return r.engine.Close()
}
