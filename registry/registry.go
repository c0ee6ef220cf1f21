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

// Package registry implements the resolver variant backed by a static,
// explicitly managed address registry. Address names are mapped to endpoint
// sets with [Registry.Register]; resolution states are computed lazily on
// first resolve and invalidated only by re-registration. There is no
// time-based expiry in this variant.
package registry

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/balancelab/addrlb"
	"golang.org/x/sync/singleflight"
)

// ServiceAddress identifies a registered address by name.
type ServiceAddress struct {
	Name string
}

// String returns the registered name.
func (a ServiceAddress) String() string {
	return a.Name
}

// Endpoint is a concrete network location registered under a name.
type Endpoint struct {
	Addr addrlb.SockAddr
}

// State is the resolution state for a registered name: the ordered wrapper
// sequence computed from the raw endpoints at resolution time. The sequence
// never changes after construction; only the validity flag transitions,
// monotonically, from valid to invalid.
type State[B any] struct {
	name      string
	endpoints []B
	invalid   atomic.Bool
}

// Name returns the address name this state was resolved for.
func (s *State[B]) Name() string {
	return s.name
}

type entry[B any] struct {
	name string

	mu        sync.Mutex // guards endpoints
	endpoints []Endpoint

	state atomic.Pointer[State[B]]
}

// Registry resolves statically registered address names. The zero value is
// not usable; call [New].
type Registry[B any] struct {
	mu      sync.Mutex // guards entries
	entries map[string]*entry[B]

	// flights guarantees at most one state computation per name per validity
	// epoch: concurrent first-time resolvers share one in-flight computation
	// instead of each mapping the factory over the endpoint set.
	flights singleflight.Group
}

// New creates an empty registry.
func New[B any]() *Registry[B] {
	return &Registry[B]{
		entries: make(map[string]*entry[B]),
	}
}

var _ addrlb.Resolver[ServiceAddress, Endpoint, *State[any], any] = (*Registry[any])(nil)

// Register maps a name to a set of endpoints, creating the entry if absent
// and replacing the raw endpoint set wholesale otherwise. Any previously
// computed state is marked invalid and dropped from the cache, so the next
// Resolve call recomputes. Registration is the sole invalidation trigger
// for this variant.
func (r *Registry[B]) Register(name string, endpoints []Endpoint) {
	r.mu.Lock()
	ent, ok := r.entries[name]
	if !ok {
		ent = &entry[B]{name: name}
		r.entries[name] = ent
	}
	r.mu.Unlock()

	ent.mu.Lock()
	ent.endpoints = slices.Clone(endpoints)
	ent.mu.Unlock()

	if prev := ent.state.Swap(nil); prev != nil {
		prev.invalid.Store(true)
	}
}

// Addresses returns the names currently known to the registry, sorted.
func (r *Registry[B]) Addresses() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	r.mu.Unlock()
	slices.Sort(names)
	return names
}

// Lookup returns the raw endpoints currently registered under a name, or
// false if the name is unknown.
func (r *Registry[B]) Lookup(name string) ([]Endpoint, bool) {
	r.mu.Lock()
	ent, ok := r.entries[name]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	ent.mu.Lock()
	endpoints := slices.Clone(ent.endpoints)
	ent.mu.Unlock()
	return endpoints, true
}

// TryCast accepts [ServiceAddress] values only.
func (r *Registry[B]) TryCast(address addrlb.Address) (ServiceAddress, bool) {
	a, ok := address.(ServiceAddress)
	return a, ok
}

// Resolve returns the current state for the address, computing it if absent
// by mapping factory over the registered endpoints in order. Resolving a
// name that was never registered fails with an error wrapping
// [addrlb.ErrUnresolvable].
//
// The computation itself is pure wrapper construction, so the returned
// future is always already completed; the future form keeps the contract
// uniform with variants that do perform I/O.
func (r *Registry[B]) Resolve(_ context.Context, factory func(Endpoint) B, address ServiceAddress) *addrlb.Future[*State[B]] {
	r.mu.Lock()
	ent := r.entries[address.Name]
	r.mu.Unlock()
	if ent == nil {
		return addrlb.FailedFuture[*State[B]](fmt.Errorf("%w: %s", addrlb.ErrUnresolvable, address.Name))
	}
	if s := ent.state.Load(); s != nil {
		return addrlb.CompletedFuture(s)
	}
	computed, err, _ := r.flights.Do(address.Name, func() (any, error) {
		// A caller that lost the race to an earlier flight re-checks here so
		// the factory runs at most once per endpoint per epoch.
		if s := ent.state.Load(); s != nil {
			return s, nil
		}
		ent.mu.Lock()
		raw := ent.endpoints
		ent.mu.Unlock()
		endpoints := make([]B, len(raw))
		for i, ep := range raw {
			endpoints[i] = factory(ep)
		}
		s := &State[B]{name: ent.name, endpoints: endpoints}
		ent.state.Store(s)
		return s, nil
	})
	if err != nil {
		return addrlb.FailedFuture[*State[B]](err)
	}
	return addrlb.CompletedFuture(computed.(*State[B]))
}

// Endpoints returns the wrapper sequence held by the state, in registration
// order.
func (r *Registry[B]) Endpoints(state *State[B]) []B {
	if state == nil {
		return nil
	}
	return state.endpoints
}

// IsValid reports whether the state has been invalidated by a later
// registration.
func (r *Registry[B]) IsValid(state *State[B]) bool {
	return state != nil && !state.invalid.Load()
}

// AddressOfEndpoint returns the endpoint's physical address.
func (r *Registry[B]) AddressOfEndpoint(endpoint Endpoint) addrlb.SockAddr {
	return endpoint.Addr
}

// Dispose removes the cache entry for the state's name. Disposing a state
// whose entry was already removed is a no-op. A resolution racing this call
// may recreate the entry; that is tolerated, not an error.
func (r *Registry[B]) Dispose(state *State[B]) {
	if state == nil {
		return
	}
	r.mu.Lock()
	delete(r.entries, state.name)
	r.mu.Unlock()
}

// Close releases nothing for this variant.
func (r *Registry[B]) Close() error {
	return nil
}
