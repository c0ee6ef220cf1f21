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

// Package addrlb provides the name-resolution layer that sits between a
// connection-pooling or load-balancing client and the actual resolution
// machinery: system DNS, a static registry, or a discovery service.
//
// Given a logical address (a hostname, a service name, a statically
// registered alias), the layer produces and caches an ordered set of
// concrete, directly connectable endpoints, and lets that cached result be
// invalidated and re-resolved as the underlying topology changes.
//
// The central abstraction is [Resolver], a capability contract generic over
// the address, endpoint, state, and wrapper types a particular variant works
// with. Two variants are provided:
//
//   - [github.com/balancelab/addrlb/registry]: a cache over statically
//     registered address names, invalidated explicitly on re-registration.
//   - [github.com/balancelab/addrlb/hostname]: an asynchronous pipeline that
//     resolves hostnames through a pluggable resolution engine, with engines
//     backed by [net.Resolver] and by the miekg/dns client.
//
// A dispatcher holding several resolvers uses [Resolver.TryCast] to find the
// one that understands a given opaque [Address], then drives resolution
// through the shared contract. The caller supplies a factory that turns each
// raw endpoint into its own connection wrapper type; the layer never
// inspects the wrappers it stores.
//
// Selecting which endpoint to use from a resolved set is deliberately out of
// scope. Callers pair a resolved state with their own selection policy using
// [Managed].
package addrlb
