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

package addrlb

import (
	"context"
	"errors"
)

// ErrUnresolvable indicates that an address is not known to the resolver it
// was offered to. The registry variant wraps it with the address name;
// callers match it with [errors.Is].
var ErrUnresolvable = errors.New("unresolvable address")

// Resolver is the capability contract shared by every resolution variant.
// It is consumed by an external endpoint-selection layer, which treats the
// four type parameters as opaque:
//
//   - A is the concrete address type the variant understands.
//   - E is the raw endpoint type the variant produces.
//   - S is the resolution state the variant caches.
//   - B is the caller's wrapper around an endpoint, produced by the factory
//     passed to Resolve. The resolver stores wrappers but never inspects
//     them.
//
// A state moves through UNRESOLVED -> RESOLVED(valid) -> RESOLVED(invalid).
// An invalid state is terminal: it is never revalidated, and a fresh state
// must be produced by a new Resolve call.
type Resolver[A Address, E, S, B any] interface {
	// TryCast reports whether this resolver understands the given opaque
	// address, returning the concrete address value when it does. A negative
	// result is not an error; it lets a dispatcher try other resolvers.
	TryCast(address Address) (A, bool)

	// Resolve returns a future that completes with the current resolution
	// state for the address, computing it if absent. It never blocks the
	// caller on network I/O; asynchronous work is bound to ctx. The future
	// fails with an error wrapping [ErrUnresolvable] when the address is not
	// known to this resolver, or with the underlying lookup error when the
	// lookup itself fails.
	Resolve(ctx context.Context, factory func(E) B, address A) *Future[S]

	// Endpoints returns the ordered wrapper sequence held by the state. It is
	// a pure projection with no side effects.
	Endpoints(state S) []B

	// IsValid reports whether the state may still be used or must be
	// re-resolved. It must be cheap and side-effect-free.
	IsValid(state S) bool

	// AddressOfEndpoint extracts the physical address from a resolver-specific
	// endpoint value.
	AddressOfEndpoint(endpoint E) SockAddr

	// Dispose releases any cache resources associated with the state. It is
	// idempotent, and a no-op for states whose entry has already been
	// removed.
	Dispose(state S)

	// Close releases process-wide resources held by the resolver instance.
	Close() error
}

// Managed pairs a resolution state with an externally supplied
// endpoint-selection policy instance, scoped one-to-one with the address
// being resolved. The pairing is owned by the consumer; this package never
// inspects the policy.
type Managed[S, P any] struct {
	State    S
	Selector P
}

// NewManaged pairs a state with its selection policy.
func NewManaged[S, P any](state S, selector P) Managed[S, P] {
	return Managed[S, P]{State: state, Selector: selector}
}
