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
	"net"
	"strconv"
)

// Address is an opaque logical identifier that a consumer wants resolved.
// Implementations must be immutable values whose equality is defined by
// their identifying fields, so that an Address can serve as a cache key.
//
// A resolver declares which addresses it understands through
// [Resolver.TryCast]; an Address that no resolver accepts simply cannot be
// resolved by the chain it was offered to.
type Address interface {
	// String returns the textual form of the address.
	String() string
}

// SockAddr is a network-shaped address: a host, which may be a DNS name or
// an IP literal, and a port. It is the address type accepted by the
// hostname resolution pipeline and the physical-address type extracted from
// resolved endpoints.
type SockAddr struct {
	Host string
	Port int
}

// String returns the address in "host:port" form, bracketing IPv6 literals.
func (a SockAddr) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}
